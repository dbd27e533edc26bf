package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/httpserver/mw"
	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/store"
)

type submitRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Sort     *int   `json:"sort,omitempty"`
	TableID  string `json:"table_id,omitempty"`
}

// SubmitLink accepts a link submission. Admin sessions write straight
// into the published dataset; guests land in the staging queue and wait
// for review. When the staging queue is not configured, guest
// submissions are rejected.
func SubmitLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req submitRequest
		if !decodeBody(w, r, &req) {
			return
		}

		link := domain.Link{
			Name:     strings.TrimSpace(req.Name),
			URL:      strings.TrimSpace(req.URL),
			Category: strings.TrimSpace(req.Category),
			Sort:     domain.DefaultSort,
		}
		if req.Sort != nil {
			link.Sort = *req.Sort
		}
		if err := domain.ValidateSubmission(link); err != nil {
			failFromErr(w, d.Logger, "submit link", err)
			return
		}

		admin := mw.Authorized(r, d.Sessions, d.Logger)

		var (
			id  string
			err error
		)
		if admin {
			scope := d.Locator.Resolve(ctx, req.TableID)
			records := d.Published
			if scope != d.Published.Scope() {
				records = store.NewRecords(d.Bitable, scope, d.Normalizer)
			}
			id, err = records.Create(ctx, link)
		} else {
			if !d.StagingEnabled {
				fail(w, http.StatusServiceUnavailable, "link submission is currently disabled")
				return
			}
			id, err = d.Staging.Create(ctx, link)
		}
		if err != nil {
			failFromErr(w, d.Logger, "submit link", err)
			return
		}

		d.Logger.Info("link submitted",
			logger.String("id", id),
			logger.String("name", link.Name),
			logger.Bool("admin", admin))

		msg := "link submitted, pending review"
		if admin {
			msg = "link published"
		}
		ok(w, msg, map[string]string{"id": id})
	}
}

// DeleteLink removes a published record. Admin only.
func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")
		if id == "" {
			fail(w, http.StatusBadRequest, "record id is required")
			return
		}

		scope := d.Locator.Resolve(ctx, r.URL.Query().Get("table_id"))
		records := d.Published
		if scope != d.Published.Scope() {
			records = store.NewRecords(d.Bitable, scope, d.Normalizer)
		}

		if err := records.Delete(ctx, id); err != nil {
			failFromErr(w, d.Logger, "delete link", err)
			return
		}

		d.Logger.Info("link deleted",
			logger.String("id", id),
			logger.String("table_id", scope.TableID))
		ok(w, "link deleted", nil)
	}
}
