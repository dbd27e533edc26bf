package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/store"
)

const navigationPageSize = 100

type navigationResponse struct {
	Success    bool                     `json:"success"`
	Data       map[string][]domain.Link `json:"data"`
	Categories []string                 `json:"categories"`
}

// Navigation returns the published links of the requested dataset
// grouped by category. Unknown or missing table ids fall back to the
// default dataset, so the page always renders.
func Navigation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requested := r.URL.Query().Get("table_id")

		scope := d.Locator.Resolve(ctx, requested)
		records := d.Published
		if scope != d.Published.Scope() {
			records = store.NewRecords(d.Bitable, scope, d.Normalizer)
		}

		links, err := records.ListAll(ctx, navigationPageSize)
		if err != nil {
			failFromErr(w, d.Logger, "navigation list", err)
			return
		}

		grouped, categories := domain.GroupByCategory(links)
		d.Logger.Debug("navigation served",
			logger.String("table_id", scope.TableID),
			logger.Int("links", len(links)),
			logger.Int("categories", len(categories)))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(navigationResponse{
			Success:    true,
			Data:       grouped,
			Categories: categories,
		})
	}
}
