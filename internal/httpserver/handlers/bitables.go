package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/locator"
	"github.com/haoyun/navtable/internal/logger"
)

// AvailableTables lists every dataset a visitor can switch to. Without
// a metadata table the default dataset is the only entry.
func AvailableTables(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Locator.Enabled() {
			ok(w, "", []domain.TableDescriptor{defaultDescriptor(d)})
			return
		}

		descriptors, err := d.Locator.Descriptors(r.Context())
		if err != nil {
			// Table switching is a convenience. Degrade to the default
			// dataset instead of breaking the page.
			d.Logger.Warn("metadata table scan failed", logger.Error(err))
			ok(w, "", []domain.TableDescriptor{defaultDescriptor(d)})
			return
		}
		ok(w, "", descriptors)
	}
}

func defaultDescriptor(d deps.Deps) domain.TableDescriptor {
	return domain.TableDescriptor{
		TableName: "默认导航",
		TableID:   d.Locator.Default().TableID,
	}
}

type tablePage struct {
	Items     []domain.TableDescriptor `json:"items"`
	HasMore   bool                     `json:"has_more"`
	PageToken string                   `json:"page_token,omitempty"`
}

// ListTables pages through the metadata table for the admin screen.
func ListTables(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Locator.Enabled() {
			fail(w, http.StatusServiceUnavailable, "metadata table is not configured")
			return
		}

		size := d.AdminPageSize
		if raw := r.URL.Query().Get("page_size"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
				size = n
			}
		}

		items, hasMore, token, err := d.Locator.Page(r.Context(), size, r.URL.Query().Get("page_token"))
		if err != nil {
			failFromErr(w, d.Logger, "table list", err)
			return
		}
		if items == nil {
			items = []domain.TableDescriptor{}
		}
		ok(w, "", tablePage{Items: items, HasMore: hasMore, PageToken: token})
	}
}

type createTableRequest struct {
	TableName   string `json:"table_name"`
	Description string `json:"description,omitempty"`
}

// CreateTable provisions a new dataset and registers its descriptor.
func CreateTable(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Locator.Enabled() {
			fail(w, http.StatusServiceUnavailable, "metadata table is not configured")
			return
		}

		var req createTableRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.TableName = strings.TrimSpace(req.TableName)
		if req.TableName == "" {
			fail(w, http.StatusBadRequest, "table name is required")
			return
		}
		if utf8.RuneCountInString(req.TableName) > 100 {
			fail(w, http.StatusBadRequest, "table name must not exceed 100 characters")
			return
		}
		if utf8.RuneCountInString(req.Description) > 500 {
			fail(w, http.StatusBadRequest, "description must not exceed 500 characters")
			return
		}

		desc, err := d.Locator.CreateDataset(r.Context(), req.TableName, req.Description)
		if err != nil {
			if errors.Is(err, locator.ErrDisabled) {
				fail(w, http.StatusServiceUnavailable, "metadata table is not configured")
				return
			}
			failFromErr(w, d.Logger, "table create", err)
			return
		}

		d.Logger.Info("dataset created",
			logger.String("table_name", desc.TableName),
			logger.String("table_id", desc.TableID))
		ok(w, "dataset created", desc)
	}
}
