package bitable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haoyun/navtable/internal/logger"
)

func testScope() Scope {
	return Scope{
		Credentials: Credentials{AppID: "cli_test", AppSecret: "secret"},
		AppToken:    "appXYZ",
		TableID:     "tblabc",
	}
}

// newTestServer serves the token endpoint plus whatever handler the
// test installs for everything else.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/open-apis/auth/v3/tenant_access_token/internal" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 0, "msg": "ok",
				"tenant_access_token": "t-token",
				"expire":              7200,
			})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 2*time.Second, logger.New("error", false))
	return srv, c
}

func TestFetchTenantToken(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})

	tok, err := c.FetchTenantToken(context.Background(), testScope().Credentials)
	if err != nil {
		t.Fatalf("FetchTenantToken() error = %v", err)
	}
	if tok.Value != "t-token" {
		t.Errorf("token = %q, want t-token", tok.Value)
	}
	if until := time.Until(tok.ExpiresAt); until < time.Hour {
		t.Errorf("expiry too close: %v", until)
	}
}

func TestListRecordsPagination(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/open-apis/bitable/v1/apps/appXYZ/tables/tblabc/records" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer t-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "2" {
			t.Errorf("page_size = %q, want 2", got)
		}

		resp := map[string]interface{}{"code": 0, "msg": "success"}
		if r.URL.Query().Get("page_token") == "" {
			resp["data"] = map[string]interface{}{
				"items": []map[string]interface{}{
					{"record_id": "rec1", "fields": map[string]interface{}{"name": "a"}},
					{"record_id": "rec2", "fields": map[string]interface{}{"name": "b"}},
				},
				"has_more":   true,
				"page_token": "cursor2",
			}
		} else {
			resp["data"] = map[string]interface{}{
				"items": []map[string]interface{}{
					{"record_id": "rec3", "fields": map[string]interface{}{"name": "c"}},
				},
				"has_more": false,
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	ctx := context.Background()
	page, err := c.ListRecords(ctx, testScope(), 2, "")
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(page.Items) != 2 || !page.HasMore || page.PageToken != "cursor2" {
		t.Fatalf("first page = %+v", page)
	}
	if s, _ := page.Items[0].Fields["name"].Str(); s != "a" {
		t.Errorf("first record name = %q, want a", s)
	}

	page, err = c.ListRecords(ctx, testScope(), 2, page.PageToken)
	if err != nil {
		t.Fatalf("ListRecords(cursor) error = %v", err)
	}
	if len(page.Items) != 1 || page.HasMore {
		t.Fatalf("second page = %+v", page)
	}
}

func TestCreateRecord(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.Fields["站点名称"] != "Example" {
			t.Errorf("fields = %v", body.Fields)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0, "msg": "success",
			"data": map[string]interface{}{"record": map[string]interface{}{"record_id": "recNew"}},
		})
	})

	id, err := c.CreateRecord(context.Background(), testScope(), map[string]interface{}{"站点名称": "Example"})
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if id != "recNew" {
		t.Errorf("id = %q, want recNew", id)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   int
		want   Kind
	}{
		{"record missing", http.StatusOK, 1254043, KindNotFound},
		{"table missing", http.StatusOK, 1254005, KindNotFound},
		{"http 404 with odd code", http.StatusNotFound, 99999, KindNotFound},
		{"token expired", http.StatusOK, 99991663, KindAuthExpired},
		{"anything else", http.StatusOK, 1254999, KindRemoteRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": tt.code, "msg": "boom"})
			})

			_, err := c.GetRecord(context.Background(), testScope(), "recX")
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := ErrKind(err); got != tt.want {
				t.Errorf("ErrKind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNetworkErrorKind(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.ListRecords(context.Background(), testScope(), 10, "")
	if err == nil {
		t.Fatal("expected an error against a closed server")
	}
	if got := ErrKind(err); got != KindNetwork {
		t.Errorf("ErrKind = %v, want KindNetwork", got)
	}
}

func TestAuthExpiredForgetsToken(t *testing.T) {
	forgot := false
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 99991663, "msg": "token expired"})
	})
	c.SetTokenSource(&recordingSource{onForget: func() { forgot = true }})

	err := c.DeleteRecord(context.Background(), testScope(), "rec1")
	if !IsAuthExpired(err) {
		t.Fatalf("err = %v, want auth-expired", err)
	}
	if !forgot {
		t.Error("client must drop the cached token after an auth rejection")
	}
}

func TestCreateTable(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/open-apis/bitable/v1/apps/appXYZ/tables" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Table struct {
				Name   string       `json:"name"`
				Fields []TableField `json:"fields"`
			} `json:"table"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.Table.Name != "新导航" || len(body.Table.Fields) != 2 {
			t.Errorf("table payload = %+v", body.Table)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0, "msg": "success",
			"data": map[string]interface{}{"table_id": "tblnew"},
		})
	})

	id, err := c.CreateTable(context.Background(), testScope().Credentials, "appXYZ", "新导航", []TableField{
		{Name: "站点名称", Type: 1},
		{Name: "网址", Type: 15},
	})
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if id != "tblnew" {
		t.Errorf("table id = %q, want tblnew", id)
	}
}

type recordingSource struct {
	onForget func()
}

func (s *recordingSource) Token(context.Context, Credentials) (string, error) {
	return "t-token", nil
}

func (s *recordingSource) Forget(context.Context, Credentials) {
	if s.onForget != nil {
		s.onForget()
	}
}
