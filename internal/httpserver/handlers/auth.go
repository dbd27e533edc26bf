package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/httpserver/mw"
	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/session"
	"github.com/haoyun/navtable/internal/utils"
)

type loginRequest struct {
	Password string `json:"password"`
}

// Login checks the admin password and opens a session cookie.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Password == "" {
			fail(w, http.StatusBadRequest, "password is required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(d.AdminPassword)) != 1 {
			d.Logger.Warn("failed login attempt",
				logger.String("ip", utils.ClientIP(r, d.TrustProxy)))
			fail(w, http.StatusUnauthorized, "incorrect password")
			return
		}

		id, err := d.Sessions.Create(r.Context())
		if err != nil {
			d.Logger.Error("session create failed", logger.Error(err))
			fail(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(d.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		ok(w, "login successful", nil)
	}
}

// Logout drops the server-side session and expires the cookie.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
			if err := d.Sessions.Destroy(r.Context(), c.Value); err != nil {
				d.Logger.Warn("session destroy failed", logger.Error(err))
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		ok(w, "logged out", nil)
	}
}

type authStatus struct {
	Authenticated bool `json:"authenticated"`
}

// AuthStatus reports whether the caller holds a live session.
func AuthStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok(w, "", authStatus{Authenticated: mw.Authorized(r, d.Sessions, d.Logger)})
	}
}
