package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/haoyun/navtable/internal/bitable"
	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/logger"
)

// envelope is the uniform JSON body for every API response.
type envelope struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	RequiresAuth bool   `json:"requiresAuth,omitempty"`
	Data         any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// failFromErr maps domain and upstream errors onto HTTP statuses while
// keeping the envelope shape. Unknown errors become a generic 500 so
// upstream details never leak to clients.
func failFromErr(w http.ResponseWriter, log logger.Logger, op string, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		fail(w, http.StatusBadRequest, verr.Error())
		return
	}

	switch bitable.ErrKind(err) {
	case bitable.KindNotFound:
		fail(w, http.StatusNotFound, "record not found")
	case bitable.KindNetwork:
		log.Error(op+" upstream unreachable", logger.Error(err))
		fail(w, http.StatusGatewayTimeout, "upstream table service unreachable")
	default:
		log.Error(op+" upstream rejected", logger.Error(err))
		fail(w, http.StatusBadGateway, "upstream table service error")
	}
}

// decodeBody reads a small JSON body into dst. Returns false after
// writing the 400 response itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
