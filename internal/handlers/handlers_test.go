package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"mealminder/internal/apperr"
	"mealminder/internal/db/mock"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

func swapDatabase(t *testing.T, db *gorm.DB) func() {
	t.Helper()
	original := database
	database = db
	return func() {
		database = original
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// withTestDatabase installs an empty, migrated database.
func withTestDatabase(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	db, err := mock.Open(context.Background())
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	return db, swapDatabase(t, db)
}

// withSeededDatabase installs the seeded mock database.
func withSeededDatabase(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	db, err := mock.New(context.Background())
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	return db, swapDatabase(t, db)
}

// newTestAPI installs a fresh session manager and returns the API routed the way
// the server mounts it.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	router := chi.NewRouter()
	router.Route("/api", Routes)
	return sm.LoadAndSave(router)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, kind apperr.Kind) apperr.Error {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var body apperr.Error
	decodeInto(t, w, &body)
	if body.Kind != kind {
		t.Fatalf("expected error kind %q, got %q", kind, body.Kind)
	}
	if body.Message == "" {
		t.Fatal("expected error message to be populated")
	}
	return body
}

func hasDetail(body apperr.Error, field string) bool {
	for _, d := range body.Details {
		if d.Field == field {
			return true
		}
	}
	return false
}

// loginDemo signs in as the seeded demo user and returns the session cookie.
func loginDemo(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/session", map[string]string{
		"email":    "demo@mealminder.app",
		"password": mock.DemoPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("expected session cookie to be set")
	return nil
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	_, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodGet, "/api/nope", nil)
	expectError(t, w, http.StatusNotFound, apperr.KindNotFound)

	w = doJSON(t, api, http.MethodPut, "/api/recipes", nil)
	expectError(t, w, http.StatusMethodNotAllowed, apperr.KindMethodNotAllowed)
}

func TestRequestsWithoutDatabase(t *testing.T) {
	original := database
	database = nil
	t.Cleanup(func() { database = original })
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodGet, "/api/recipes", nil)
	expectError(t, w, http.StatusServiceUnavailable, apperr.KindUnavailable)
}

func TestDecodeJSONRejectsMalformedBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"syntax", "{"},
		{"wrong type", `{"name": 5}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			var dst struct {
				Name string `json:"name"`
			}
			err := decodeJSON(w, req, &dst)
			if err == nil {
				t.Fatal("expected decode error")
			}
			if apperr.As(err).Kind != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want uint
		ok   bool
	}{
		{"12", 12, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := pathID(req, "id")
			if tt.ok && (err != nil || got != tt.want) {
				t.Fatalf("pathID(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected pathID(%q) to fail", tt.raw)
			}
		})
	}
}
