// Package locator resolves which hosted table a read or write should
// target. A metadata table maps human dataset names to storage
// coordinates; everything else falls back to the statically configured
// default dataset.
package locator

import (
	"context"
	"errors"
	"sort"

	"github.com/haoyun/navtable/internal/bitable"
	"github.com/haoyun/navtable/internal/domain"
	"github.com/haoyun/navtable/internal/fieldmap"
	"github.com/haoyun/navtable/internal/logger"
)

// ErrDisabled is returned by mutating metadata operations when no
// metadata table is configured.
var ErrDisabled = errors.New("metadata table is not configured")

// Client is the slice of the table-service client the locator needs.
type Client interface {
	ListRecords(ctx context.Context, scope bitable.Scope, pageSize int, pageToken string) (bitable.Page, error)
	CreateRecord(ctx context.Context, scope bitable.Scope, fields map[string]interface{}) (string, error)
	CreateTable(ctx context.Context, creds bitable.Credentials, appToken, name string, fields []bitable.TableField) (string, error)
}

// Locator resolves table ids to storage coordinates.
type Locator struct {
	client   Client
	norm     *fieldmap.Normalizer
	def      bitable.Scope // the built-in default dataset
	meta     bitable.Scope // the metadata table; TableID empty = disabled
	pageSize int
	logger   logger.Logger
}

// New builds a locator. meta may have an empty TableID, which disables
// multi-table switching: every resolve then answers the default scope.
func New(client Client, norm *fieldmap.Normalizer, def, meta bitable.Scope, pageSize int, log logger.Logger) *Locator {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Locator{client: client, norm: norm, def: def, meta: meta, pageSize: pageSize, logger: log}
}

// Enabled reports whether a metadata table is configured.
func (l *Locator) Enabled() bool { return l.meta.TableID != "" }

// Default returns the built-in default dataset coordinates.
func (l *Locator) Default() bitable.Scope { return l.def }

// Resolve maps a requested table id to usable coordinates. The default
// id (or an empty one) short-circuits without touching the network.
// Lookup failures never propagate: the caller always gets a usable
// scope, degraded to the default dataset with a logged warning.
func (l *Locator) Resolve(ctx context.Context, requested string) bitable.Scope {
	if requested == "" || requested == l.def.TableID {
		return l.def
	}
	if !l.Enabled() {
		l.logger.Warn("table requested but metadata table is not configured, using default",
			logger.String("table_id", requested))
		return l.def
	}

	descs, err := l.scan(ctx)
	if err != nil {
		l.logger.Warn("metadata lookup failed, using default dataset",
			logger.String("table_id", requested),
			logger.Error(err))
		return l.def
	}

	for _, d := range descs {
		if d.TableID == requested {
			scope := bitable.Scope{
				Credentials: l.def.Credentials,
				AppToken:    d.AppToken,
				TableID:     d.TableID,
			}
			if scope.AppToken == "" {
				scope.AppToken = l.def.AppToken
			}
			return scope
		}
	}

	l.logger.Warn("no descriptor for requested table, using default dataset",
		logger.String("table_id", requested))
	return l.def
}

// Descriptors returns every dataset descriptor, ordered by their Sort
// field ascending (stable). An unconfigured metadata table yields an
// empty listing.
func (l *Locator) Descriptors(ctx context.Context) ([]domain.TableDescriptor, error) {
	if !l.Enabled() {
		return []domain.TableDescriptor{}, nil
	}
	descs, err := l.scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(descs, func(i, j int) bool { return descs[i].Sort < descs[j].Sort })
	return descs, nil
}

// Page fetches one page of descriptors for the admin listing.
func (l *Locator) Page(ctx context.Context, pageSize int, pageToken string) ([]domain.TableDescriptor, bool, string, error) {
	if !l.Enabled() {
		return []domain.TableDescriptor{}, false, "", nil
	}
	raw, err := l.client.ListRecords(ctx, l.meta, pageSize, pageToken)
	if err != nil {
		return nil, false, "", err
	}
	descs := make([]domain.TableDescriptor, 0, len(raw.Items))
	for _, rec := range raw.Items {
		if d := l.descriptor(rec); d.TableID != "" {
			descs = append(descs, d)
		}
	}
	return descs, raw.HasMore, raw.PageToken, nil
}

// CreateDataset creates a new table in the default app with the
// standard navigation columns and registers its descriptor in the
// metadata table.
func (l *Locator) CreateDataset(ctx context.Context, name, description string) (domain.TableDescriptor, error) {
	if !l.Enabled() {
		return domain.TableDescriptor{}, ErrDisabled
	}

	columns := []bitable.TableField{
		{Name: l.norm.WriteColumn(fieldmap.Name), Type: 1},
		{Name: l.norm.WriteColumn(fieldmap.URL), Type: 15},
		{Name: l.norm.WriteColumn(fieldmap.Category), Type: 1},
		{Name: l.norm.WriteColumn(fieldmap.Sort), Type: 2},
		{Name: l.norm.WriteColumn(fieldmap.Description), Type: 1},
	}

	tableID, err := l.client.CreateTable(ctx, l.def.Credentials, l.def.AppToken, name, columns)
	if err != nil {
		return domain.TableDescriptor{}, err
	}

	fields := map[string]interface{}{
		l.norm.WriteColumn(fieldmap.TableName): name,
		l.norm.WriteColumn(fieldmap.TableID):   tableID,
		l.norm.WriteColumn(fieldmap.AppToken):  l.def.AppToken,
	}
	if description != "" {
		fields[l.norm.WriteColumn(fieldmap.Description)] = description
	}

	if _, err := l.client.CreateRecord(ctx, l.meta, fields); err != nil {
		// The table exists but is not switchable; surface the failure so
		// the admin can register it manually.
		l.logger.Error("created table but failed to register its descriptor",
			logger.String("table_id", tableID),
			logger.Error(err))
		return domain.TableDescriptor{}, err
	}

	return domain.TableDescriptor{
		TableName:   name,
		TableID:     tableID,
		AppToken:    l.def.AppToken,
		Description: description,
	}, nil
}

// scan reads the whole metadata table, following the cursor.
func (l *Locator) scan(ctx context.Context) ([]domain.TableDescriptor, error) {
	var descs []domain.TableDescriptor
	token := ""
	for {
		page, err := l.client.ListRecords(ctx, l.meta, l.pageSize, token)
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Items {
			if d := l.descriptor(rec); d.TableID != "" {
				descs = append(descs, d)
			}
		}
		if !page.HasMore || page.PageToken == "" {
			return descs, nil
		}
		token = page.PageToken
	}
}

func (l *Locator) descriptor(rec bitable.Record) domain.TableDescriptor {
	d := domain.TableDescriptor{
		TableName:   l.norm.Text(rec.Fields, fieldmap.TableName),
		TableID:     l.norm.Text(rec.Fields, fieldmap.TableID),
		AppToken:    l.norm.Text(rec.Fields, fieldmap.AppToken),
		Description: l.norm.Text(rec.Fields, fieldmap.Description),
	}
	if s, ok := l.norm.Int(rec.Fields, fieldmap.Sort); ok {
		d.Sort = s
	}
	return d
}
