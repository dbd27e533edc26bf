package domain

import (
	"errors"
	"net/url"
	"unicode/utf8"
)

// MaxNameLength caps submitted site names.
const MaxNameLength = 50

// ValidationError marks a submission rejected before any store access.
// The message is safe to show to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Msg: "invalid URL, must start with http:// or https://"}
	}
	return nil
}

// ValidateSubmission checks a link submission before it is written to
// any table.
func ValidateSubmission(l Link) error {
	if l.Name == "" {
		return &ValidationError{Msg: "site name must not be empty"}
	}
	if utf8.RuneCountInString(l.Name) > MaxNameLength {
		return &ValidationError{Msg: "site name must not exceed 50 characters"}
	}
	if l.URL == "" {
		return &ValidationError{Msg: "site URL must not be empty"}
	}
	if err := ValidateURL(l.URL); err != nil {
		return err
	}
	if l.Category == "" {
		return &ValidationError{Msg: "category must not be empty"}
	}
	return nil
}
