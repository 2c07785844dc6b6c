package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHomeRendersLandingPage(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	Home(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	body := w.Body.String()
	for _, token := range []string{"MealMinder", "<strong>2</strong>", "<strong>3</strong>", "<strong>5</strong>"} {
		if !strings.Contains(body, token) {
			t.Fatalf("expected landing page to contain %q: %s", token, body)
		}
	}
}

func TestHomeWithoutDatabase(t *testing.T) {
	original := database
	database = nil
	t.Cleanup(func() { database = original })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	Home(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<strong>0</strong>") {
		t.Fatalf("expected zero counts: %s", w.Body.String())
	}
}
