package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/httpserver/handlers"
	"github.com/haoyun/navtable/internal/httpserver/mw"
)

func init() { Register(registerBitables) }

func registerBitables(r chi.Router, d deps.Deps) {
	r.Get("/api/bitables/available", handlers.AvailableTables(d))

	admin := r.With(mw.RequireAuth(d.Sessions, d.Logger))
	admin.Get("/api/bitables", handlers.ListTables(d))
	admin.Post("/api/bitables", handlers.CreateTable(d))
}
