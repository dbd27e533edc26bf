package bitable

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call against the table service.
type Kind int

const (
	// KindNetwork covers timeouts and connection failures.
	KindNetwork Kind = iota
	// KindAuthExpired means the tenant token was rejected or expired.
	KindAuthExpired
	// KindNotFound means the record, table, or app does not exist.
	KindNotFound
	// KindRemoteRejected covers every other non-success answer.
	KindRemoteRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthExpired:
		return "auth_expired"
	case KindNotFound:
		return "not_found"
	case KindRemoteRejected:
		return "remote_rejected"
	default:
		return "unknown"
	}
}

// Error is the typed failure surfaced by the client. Adapters and the
// review workflow branch on Kind; Code carries the remote error code
// when the service answered at all.
type Error struct {
	Kind Kind
	Op   string // ex: "list_records"
	Code int    // remote error code, 0 when the call never reached the service
	Msg  string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bitable %s: %s (code %d): %s", e.Op, e.Kind, e.Code, e.Msg)
	}
	return fmt.Sprintf("bitable %s: %s: %s", e.Op, e.Kind, e.Msg)
}

// IsNotFound reports whether err is a table-service not-found failure.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

// IsAuthExpired reports whether err is a rejected/expired token failure.
func IsAuthExpired(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindAuthExpired
}

// ErrKind returns the Kind of err, or KindRemoteRejected for foreign errors.
func ErrKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRemoteRejected
}

// Remote token/permission error codes that mean the cached tenant token
// must be thrown away and refetched.
var authExpiredCodes = map[int]bool{
	99991661: true, // tenant token invalid
	99991663: true, // tenant token expired
	99991668: true, // token permission denied
}

// Remote codes that mean the addressed record or table does not exist.
var notFoundCodes = map[int]bool{
	1254043: true, // RecordIdNotFound
	1254045: true, // FieldNameNotFound
	1254005: true, // TableIdNotFound
	91402:   true, // NOTEXIST
}
