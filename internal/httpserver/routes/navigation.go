package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/httpserver/handlers"
)

func init() { Register(registerNavigation) }

func registerNavigation(r chi.Router, d deps.Deps) {
	r.Get("/api/navigation", handlers.Navigation(d))
	r.Get("/api/favicon", handlers.Favicon(d))
}
