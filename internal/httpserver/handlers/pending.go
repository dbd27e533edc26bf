package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/logger"
)

// PendingPublic lists the staging queue for the public submission page.
// Single call, capped, no cursor exposed.
func PendingPublic(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.StagingEnabled {
			ok(w, "", []domain.Link{})
			return
		}
		links, err := d.Review.PendingPublic(r.Context())
		if err != nil {
			failFromErr(w, d.Logger, "pending public list", err)
			return
		}
		ok(w, "", links)
	}
}

type pendingPage struct {
	Success    bool          `json:"success"`
	Data       []domain.Link `json:"data"`
	Pagination struct {
		HasMore   bool   `json:"hasMore"`
		PageToken string `json:"pageToken,omitempty"`
	} `json:"pagination"`
}

// Pending lists one page of the staging queue for the review screen.
func Pending(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.StagingEnabled {
			fail(w, http.StatusServiceUnavailable, "staging queue is not configured")
			return
		}

		size := d.AdminPageSize
		if raw := r.URL.Query().Get("page_size"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
				size = n
			}
		}

		page, err := d.Review.Pending(r.Context(), size, r.URL.Query().Get("page_token"))
		if err != nil {
			failFromErr(w, d.Logger, "pending list", err)
			return
		}

		resp := pendingPage{Success: true, Data: page.Items}
		if resp.Data == nil {
			resp.Data = []domain.Link{}
		}
		resp.Pagination.HasMore = page.HasMore
		resp.Pagination.PageToken = page.PageToken

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Approve promotes one staged record into the published dataset.
func Approve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.StagingEnabled {
			fail(w, http.StatusServiceUnavailable, "staging queue is not configured")
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			fail(w, http.StatusBadRequest, "record id is required")
			return
		}
		if err := d.Review.Approve(r.Context(), id); err != nil {
			failFromErr(w, d.Logger, "approve", err)
			return
		}
		d.Logger.Info("staged link approved", logger.String("id", id))
		ok(w, "link approved and published", nil)
	}
}

// Reject drops one staged record without publishing it.
func Reject(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.StagingEnabled {
			fail(w, http.StatusServiceUnavailable, "staging queue is not configured")
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			fail(w, http.StatusBadRequest, "record id is required")
			return
		}
		if err := d.Review.Reject(r.Context(), id); err != nil {
			failFromErr(w, d.Logger, "reject", err)
			return
		}
		d.Logger.Info("staged link rejected", logger.String("id", id))
		ok(w, "link rejected", nil)
	}
}
