package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mealminder/internal/apperr"
	"mealminder/models"
)

func TestActiveSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ActiveSession(req) {
		t.Fatal("expected inactive session when manager is nil")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	sm.Put(req.Context(), sessionUserIDKey, 42)

	if !ActiveSession(req) {
		t.Fatal("expected active session when flags are set")
	}
}

func TestCurrentUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := currentUserID(req); ok {
		t.Fatal("expected currentUserID to fail without session manager")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)

	if _, ok := currentUserID(req); ok {
		t.Fatal("expected false when user id not set")
	}

	sm.Put(req.Context(), sessionUserIDKey, 7)
	id, ok := currentUserID(req)
	if !ok || id != 7 {
		t.Fatalf("expected user id 7, got %d (ok=%t)", id, ok)
	}
}

func TestEstablishSession(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)

	user := &models.User{Model: gorm.Model{ID: 3}, Email: "user@example.com", Name: "User"}
	if err := establishSession(req, user); err != nil {
		t.Fatalf("establishSession returned error: %v", err)
	}

	if !sm.GetBool(req.Context(), sessionAuthenticatedKey) {
		t.Fatal("expected session authenticated flag to be true")
	}
	if got := sm.GetInt(req.Context(), sessionUserIDKey); got != 3 {
		t.Fatalf("expected session user id 3, got %d", got)
	}
	if got := sm.GetString(req.Context(), sessionUserEmailKey); got != "user@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
	if got := sm.GetString(req.Context(), sessionUserNameKey); got != "User" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestEstablishSessionWithoutManager(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	if err := establishSession(req, &models.User{}); err == nil {
		t.Fatal("expected error when session manager is nil")
	}
}

func TestCreateUser(t *testing.T) {
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	user, err := createUser(req, "Example@Email.com", "  Test User  ", "password123", []string{"vegan"})
	if err != nil {
		t.Fatalf("createUser returned error: %v", err)
	}
	if user.Email != "example@email.com" {
		t.Fatalf("expected email to be lowercased, got %q", user.Email)
	}
	if user.Name != "Test User" {
		t.Fatalf("expected trimmed name, got %q", user.Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("password hash does not match original: %v", err)
	}

	var stored models.User
	if err := db.Where("email = ?", "example@email.com").First(&stored).Error; err != nil {
		t.Fatalf("expected user persisted: %v", err)
	}
	if len(stored.DietaryPreferences) != 1 || stored.DietaryPreferences[0] != "vegan" {
		t.Fatalf("expected dietary preferences to persist, got %v", stored.DietaryPreferences)
	}
}

func TestCreateUserWithoutDatabase(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	if _, err := createUser(req, "test@example.com", "User", "password", nil); !errors.Is(err, gorm.ErrInvalidDB) {
		t.Fatalf("expected ErrInvalidDB, got %v", err)
	}
}

func TestFindUserByEmail(t *testing.T) {
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := findUserByEmail(req, "missing@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing user, got %v", err)
	}

	if _, err := createUser(req, "user@example.com", "User", "password123", nil); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	user, err := findUserByEmail(req, "USER@example.com")
	if err != nil {
		t.Fatalf("findUserByEmail returned error: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("expected lowercase email, got %q", user.Email)
	}
}

func TestSignUpLoginLogoutFlow(t *testing.T) {
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodPost, "/api/users", map[string]any{
		"email":              "Cook@Example.com",
		"name":               "Cook",
		"password":           "password123",
		"dietaryPreferences": []string{"pescatarian"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created userResponse
	decodeInto(t, w, &created)
	if created.Email != "cook@example.com" || created.ID == 0 {
		t.Fatalf("unexpected sign up response %+v", created)
	}

	w = doJSON(t, api, http.MethodPost, "/api/users", map[string]any{
		"email": "cook@example.com", "name": "Again", "password": "password123",
	})
	expectError(t, w, http.StatusConflict, apperr.KindConflict)

	w = doJSON(t, api, http.MethodPost, "/api/session", map[string]string{"email": "cook@example.com", "password": "nope-nope"})
	expectError(t, w, http.StatusUnauthorized, apperr.KindUnauthorized)

	w = doJSON(t, api, http.MethodPost, "/api/session", map[string]string{"email": "COOK@example.com", "password": "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	w = doJSON(t, api, http.MethodGet, "/api/session", nil, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("expected current session, got %d: %s", w.Code, w.Body.String())
	}
	var current userResponse
	decodeInto(t, w, &current)
	if current.ID != created.ID || len(current.DietaryPreferences) != 1 {
		t.Fatalf("unexpected current user %+v", current)
	}

	w = doJSON(t, api, http.MethodDelete, "/api/session", nil, cookies...)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d", w.Code)
	}

	w = doJSON(t, api, http.MethodGet, "/api/session", nil, cookies...)
	expectError(t, w, http.StatusUnauthorized, apperr.KindUnauthorized)
}

func TestSignUpValidation(t *testing.T) {
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodPost, "/api/users", map[string]string{"email": "not-an-email", "name": " ", "password": "short"})
	body := expectError(t, w, http.StatusBadRequest, apperr.KindValidation)
	for _, field := range []string{"email", "name", "password"} {
		if !hasDetail(body, field) {
			t.Fatalf("expected detail for %s, got %+v", field, body.Details)
		}
	}
}
