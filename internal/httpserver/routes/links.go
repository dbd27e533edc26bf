package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/httpserver/handlers"
	"github.com/haoyun/navtable/internal/httpserver/mw"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	// Submission branches on the session inside the handler, so no gate here.
	r.Post("/api/links", handlers.SubmitLink(d))
	r.With(mw.RequireAuth(d.Sessions, d.Logger)).Delete("/api/links/{id}", handlers.DeleteLink(d))
}
