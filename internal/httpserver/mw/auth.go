package mw

import (
	"encoding/json"
	"net/http"

	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/session"
)

type unauthorizedBody struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// RequireAuth rejects requests without a valid admin session before any
// store is touched. The requiresAuth flag tells the client to open the
// login prompt.
func RequireAuth(sessions *session.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Authorized(r, sessions, log) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(unauthorizedBody{
					Success:      false,
					Message:      "authentication required, please log in",
					RequiresAuth: true,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorized reports whether the request carries a valid admin session.
// A redis failure counts as unauthorized; the error is logged so an
// outage is visible rather than silently granting access.
func Authorized(r *http.Request, sessions *session.Store, log logger.Logger) bool {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	valid, err := sessions.Valid(r.Context(), cookie.Value)
	if err != nil {
		log.Warn("session check failed", logger.Error(err))
		return false
	}
	return valid
}
