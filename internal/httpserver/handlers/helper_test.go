package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/haoyun/navtable/internal/bitable"
	"github.com/haoyun/navtable/internal/fieldmap"
	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/locator"
	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/review"
	"github.com/haoyun/navtable/internal/session"
	"github.com/haoyun/navtable/internal/store"
)

const (
	testPassword     = "s3cret"
	publishedTableID = "tblpub"
	stagingTableID   = "tblstg"
	metaTableID      = "tblmeta"
)

// fakeBitable is an in-memory table service shared by every adapter in
// a test. Tables are keyed by table id, records keep insertion order.
type fakeBitable struct {
	mu     sync.Mutex
	tables map[string][]bitable.Record
	nextID int

	failWith error // when set, every call fails with it
}

func newFakeBitable() *fakeBitable {
	return &fakeBitable{tables: make(map[string][]bitable.Record)}
}

func (f *fakeBitable) seed(tableID string, fields bitable.Fields) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("rec%d", f.nextID)
	f.tables[tableID] = append(f.tables[tableID], bitable.Record{
		ID: id, Fields: fields, CreatedAt: time.Now().UnixMilli(),
	})
	return id
}

func (f *fakeBitable) count(tableID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[tableID])
}

func (f *fakeBitable) ListRecords(ctx context.Context, scope bitable.Scope, pageSize int, pageToken string) (bitable.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return bitable.Page{}, f.failWith
	}
	items := append([]bitable.Record(nil), f.tables[scope.TableID]...)
	return bitable.Page{Items: items}, nil
}

func (f *fakeBitable) GetRecord(ctx context.Context, scope bitable.Scope, recordID string) (bitable.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return bitable.Record{}, f.failWith
	}
	for _, rec := range f.tables[scope.TableID] {
		if rec.ID == recordID {
			return rec, nil
		}
	}
	return bitable.Record{}, &bitable.Error{Kind: bitable.KindNotFound, Op: "get_record", Msg: recordID}
}

func (f *fakeBitable) CreateRecord(ctx context.Context, scope bitable.Scope, fields map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	// Round-trip through JSON so written cells come back in the raw
	// read shape the normalizer expects.
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	var parsed bitable.Fields
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	f.nextID++
	id := fmt.Sprintf("rec%d", f.nextID)
	f.tables[scope.TableID] = append(f.tables[scope.TableID], bitable.Record{ID: id, Fields: parsed})
	return id, nil
}

func (f *fakeBitable) UpdateRecord(ctx context.Context, scope bitable.Scope, recordID string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, rec := range f.tables[scope.TableID] {
		if rec.ID == recordID {
			return nil
		}
	}
	return &bitable.Error{Kind: bitable.KindNotFound, Op: "update_record", Msg: recordID}
}

func (f *fakeBitable) DeleteRecord(ctx context.Context, scope bitable.Scope, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	recs := f.tables[scope.TableID]
	for i, rec := range recs {
		if rec.ID == recordID {
			f.tables[scope.TableID] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return &bitable.Error{Kind: bitable.KindNotFound, Op: "delete_record", Msg: recordID}
}

func (f *fakeBitable) CreateTable(ctx context.Context, creds bitable.Credentials, appToken, name string, fields []bitable.TableField) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	f.nextID++
	id := fmt.Sprintf("tbl%d", f.nextID)
	f.tables[id] = nil
	return id, nil
}

func newTestDeps(t *testing.T, fake *fakeBitable) deps.Deps {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.New("error", false)
	norm := fieldmap.New(fieldmap.Default())

	creds := bitable.Credentials{AppID: "cli_test", AppSecret: "s"}
	defScope := bitable.Scope{Credentials: creds, AppToken: "appMain", TableID: publishedTableID}
	metaScope := bitable.Scope{Credentials: creds, AppToken: "appMain", TableID: metaTableID}
	stgScope := bitable.Scope{Credentials: creds, AppToken: "appMain", TableID: stagingTableID}

	published := store.NewRecords(fake, defScope, norm)
	staging := store.NewRecords(fake, stgScope, norm)

	return deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		TimeNow:        time.Now,
		AdminPassword:  testPassword,
		Sessions:       session.NewStore(rdb, time.Hour),
		SessionTTL:     time.Hour,
		Bitable:        fake,
		Normalizer:     norm,
		Locator:        locator.New(fake, norm, defScope, metaScope, 100, log),
		Staging:        staging,
		Published:      published,
		Review:         review.New(staging, published, 100, time.Second, log),
		StagingEnabled: true,
		GuestListLimit: 100,
		AdminPageSize:  20,
		FaviconTimeout: time.Second,
	}
}

// loginCookie opens a session directly in the store and returns the
// cookie an authenticated request would carry.
func loginCookie(t *testing.T, d deps.Deps) *http.Cookie {
	t.Helper()
	id, err := d.Sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return &http.Cookie{Name: session.CookieName, Value: id}
}

func doJSON(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

func seedLink(fake *fakeBitable, tableID, name, url, category string, sort float64) string {
	fields := bitable.Fields{
		"站点名称": bitable.StringValue(name),
		"网址":   bitable.LinkValue(url, name),
	}
	if category != "" {
		fields["分类"] = bitable.StringValue(category)
	}
	if sort != 0 {
		fields["排序"] = bitable.NumberValue(sort)
	}
	return fake.seed(tableID, fields)
}
