package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/httpserver/handlers"
	"github.com/haoyun/navtable/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.LoginBurst,
		RefillPerMin: d.LoginPerMin,
		MaxEntries:   4096,
		IdleTTL:      15 * time.Minute,
		TrustProxy:   d.TrustProxy,
	})
	r.With(limit).Post("/api/auth/login", handlers.Login(d))
	r.Post("/api/auth/logout", handlers.Logout(d))
	r.Get("/api/auth/status", handlers.AuthStatus(d))
}
