package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/haoyun/navtable/internal/httpserver/handlers"
	"github.com/haoyun/navtable/internal/httpserver/mw"
	"github.com/haoyun/navtable/internal/session"
)

func TestLogin(t *testing.T) {
	d := newTestDeps(t, newFakeBitable())
	r := chi.NewRouter()
	r.Post("/api/auth/login", handlers.Login(d))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCookie bool
	}{
		{"correct password", `{"password":"s3cret"}`, http.StatusOK, true},
		{"wrong password", `{"password":"nope"}`, http.StatusUnauthorized, false},
		{"empty password", `{"password":""}`, http.StatusBadRequest, false},
		{"malformed body", `{`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/auth/login", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var got *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == session.CookieName {
					got = c
				}
			}
			if tt.wantCookie && (got == nil || got.Value == "") {
				t.Error("expected a session cookie")
			}
			if !tt.wantCookie && got != nil && got.Value != "" {
				t.Error("no session cookie may be set on failure")
			}

			body := decodeEnvelope(t, rec)
			if success, _ := body["success"].(bool); success != (tt.wantStatus == http.StatusOK) {
				t.Errorf("success = %v for status %d", success, rec.Code)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	d := newTestDeps(t, newFakeBitable())
	r := chi.NewRouter()
	r.Post("/api/auth/logout", handlers.Logout(d))

	cookie := loginCookie(t, d)
	rec := doJSON(t, r, http.MethodPost, "/api/auth/logout", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	valid, err := d.Sessions.Valid(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("Valid() error = %v", err)
	}
	if valid {
		t.Error("session must be destroyed after logout")
	}

	// The response must expire the cookie client-side as well.
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge >= 0 {
			t.Errorf("cookie MaxAge = %d, want negative", c.MaxAge)
		}
	}
}

func TestAuthStatus(t *testing.T) {
	d := newTestDeps(t, newFakeBitable())
	r := chi.NewRouter()
	r.Get("/api/auth/status", handlers.AuthStatus(d))

	rec := doJSON(t, r, http.MethodGet, "/api/auth/status", "")
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]interface{})
	if auth, _ := data["authenticated"].(bool); auth {
		t.Error("anonymous request must report authenticated=false")
	}

	rec = doJSON(t, r, http.MethodGet, "/api/auth/status", "", loginCookie(t, d))
	body = decodeEnvelope(t, rec)
	data, _ = body["data"].(map[string]interface{})
	if auth, _ := data["authenticated"].(bool); !auth {
		t.Error("request with a live session must report authenticated=true")
	}
}

func TestRequireAuthGate(t *testing.T) {
	d := newTestDeps(t, newFakeBitable())
	r := chi.NewRouter()
	r.With(mw.RequireAuth(d.Sessions, d.Logger)).Get("/api/pending-links", handlers.Pending(d))

	rec := doJSON(t, r, http.MethodGet, "/api/pending-links", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if requires, _ := body["requiresAuth"].(bool); !requires {
		t.Error("401 body must carry requiresAuth=true")
	}

	rec = doJSON(t, r, http.MethodGet, "/api/pending-links", "", loginCookie(t, d))
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d: %s", rec.Code, rec.Body.String())
	}
}
