package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/httpserver/handlers"
	"github.com/haoyun/navtable/internal/httpserver/mw"
)

func init() { Register(registerPending) }

func registerPending(r chi.Router, d deps.Deps) {
	r.Get("/api/pending-links-public", handlers.PendingPublic(d))

	admin := r.With(mw.RequireAuth(d.Sessions, d.Logger))
	admin.Get("/api/pending-links", handlers.Pending(d))
	admin.Post("/api/pending-links/{id}/approve", handlers.Approve(d))
	admin.Post("/api/pending-links/{id}/reject", handlers.Reject(d))
}
