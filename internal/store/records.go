// Package store adapts raw table-service records to canonical links.
// The staging queue and the published dataset are both served by the
// same adapter, bound to different scopes (and possibly different
// credentials).
package store

import (
	"context"
	"time"

	"github.com/haoyun/navtable/internal/bitable"
	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/fieldmap"
)

// Client is the slice of the table-service client the adapter needs.
type Client interface {
	ListRecords(ctx context.Context, scope bitable.Scope, pageSize int, pageToken string) (bitable.Page, error)
	GetRecord(ctx context.Context, scope bitable.Scope, recordID string) (bitable.Record, error)
	CreateRecord(ctx context.Context, scope bitable.Scope, fields map[string]interface{}) (string, error)
	UpdateRecord(ctx context.Context, scope bitable.Scope, recordID string, fields map[string]interface{}) error
	DeleteRecord(ctx context.Context, scope bitable.Scope, recordID string) error
}

// Page is one slice of a listing in canonical shape.
type Page struct {
	Items     []domain.Link
	HasMore   bool
	PageToken string
}

// Records is a table-bound CRUD adapter. It does not retry; failed
// calls surface as *bitable.Error and the caller decides.
type Records struct {
	client Client
	scope  bitable.Scope
	norm   *fieldmap.Normalizer
}

// NewRecords binds an adapter to one concrete table.
func NewRecords(client Client, scope bitable.Scope, norm *fieldmap.Normalizer) *Records {
	return &Records{client: client, scope: scope, norm: norm}
}

// Scope returns the table coordinates the adapter is bound to.
func (r *Records) Scope() bitable.Scope { return r.scope }

// List fetches one page. Rows with neither name nor URL are dropped and
// do not count against the returned page size.
func (r *Records) List(ctx context.Context, pageSize int, pageToken string) (Page, error) {
	raw, err := r.client.ListRecords(ctx, r.scope, pageSize, pageToken)
	if err != nil {
		return Page{}, err
	}

	items := make([]domain.Link, 0, len(raw.Items))
	for _, rec := range raw.Items {
		l := r.link(rec)
		if l.Empty() {
			continue
		}
		items = append(items, l)
	}
	return Page{Items: items, HasMore: raw.HasMore, PageToken: raw.PageToken}, nil
}

// ListAll follows the cursor until the store reports no more pages.
func (r *Records) ListAll(ctx context.Context, pageSize int) ([]domain.Link, error) {
	var all []domain.Link
	token := ""
	for {
		page, err := r.List(ctx, pageSize, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore || page.PageToken == "" {
			return all, nil
		}
		token = page.PageToken
	}
}

// Get fetches a single record in canonical shape.
func (r *Records) Get(ctx context.Context, id string) (domain.Link, error) {
	rec, err := r.client.GetRecord(ctx, r.scope, id)
	if err != nil {
		return domain.Link{}, err
	}
	return r.link(rec), nil
}

// Create inserts a link and returns the id the store assigned. The URL
// is written in the hyperlink-object shape with text mirroring the name.
func (r *Records) Create(ctx context.Context, l domain.Link) (string, error) {
	return r.client.CreateRecord(ctx, r.scope, r.fields(l))
}

// Update overwrites the stored fields of an existing record.
func (r *Records) Update(ctx context.Context, id string, l domain.Link) error {
	return r.client.UpdateRecord(ctx, r.scope, id, r.fields(l))
}

// Delete removes a record by id.
func (r *Records) Delete(ctx context.Context, id string) error {
	return r.client.DeleteRecord(ctx, r.scope, id)
}

func (r *Records) link(rec bitable.Record) domain.Link {
	l := domain.Link{
		ID:              rec.ID,
		Name:            r.norm.Text(rec.Fields, fieldmap.Name),
		URL:             r.norm.Text(rec.Fields, fieldmap.URL),
		Category:        r.norm.Text(rec.Fields, fieldmap.Category),
		Icon:            r.norm.Text(rec.Fields, fieldmap.Icon),
		Description:     r.norm.Text(rec.Fields, fieldmap.Description),
		FullDescription: r.norm.Text(rec.Fields, fieldmap.FullDescription),
	}
	if sort, ok := r.norm.Int(rec.Fields, fieldmap.Sort); ok {
		l.Sort = sort
	}
	if rec.CreatedAt > 0 {
		l.CreatedAt = time.UnixMilli(rec.CreatedAt)
	}
	return l
}

func (r *Records) fields(l domain.Link) map[string]interface{} {
	fields := map[string]interface{}{
		r.norm.WriteColumn(fieldmap.Category): l.Category,
		r.norm.WriteColumn(fieldmap.Sort):     l.Sort,
		r.norm.WriteColumn(fieldmap.Name):     l.Name,
		r.norm.WriteColumn(fieldmap.URL): map[string]interface{}{
			"link": l.URL,
			"text": l.Name,
		},
	}
	if l.Icon != "" {
		fields[r.norm.WriteColumn(fieldmap.Icon)] = l.Icon
	}
	if l.Description != "" {
		fields[r.norm.WriteColumn(fieldmap.Description)] = l.Description
	}
	if l.FullDescription != "" {
		fields[r.norm.WriteColumn(fieldmap.FullDescription)] = l.FullDescription
	}
	return fields
}
