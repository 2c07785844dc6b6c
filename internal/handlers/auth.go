package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mealminder/internal/apperr"
	applog "mealminder/internal/log"
	"mealminder/internal/validation"
	"mealminder/models"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionUserIDKey        = "auth:user:id"
	sessionUserEmailKey     = "auth:user:email"
	sessionUserNameKey      = "auth:user:name"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

type signUpRequest struct {
	Email              string   `json:"email" validate:"required,email"`
	Name               string   `json:"name" validate:"required"`
	Password           string   `json:"password" validate:"required,min=8"`
	DietaryPreferences []string `json:"dietaryPreferences"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID                 uint     `json:"id"`
	Email              string   `json:"email"`
	Name               string   `json:"name"`
	DietaryPreferences []string `json:"dietaryPreferences"`
}

func newUserResponse(user *models.User) userResponse {
	prefs := []string(user.DietaryPreferences)
	if prefs == nil {
		prefs = []string{}
	}
	return userResponse{ID: user.ID, Email: user.Email, Name: user.Name, DietaryPreferences: prefs}
}

// SignUp creates an account and signs it in.
func SignUp(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := findUserByEmail(r, req.Email); err == nil {
		writeError(w, r, apperr.Conflict("an account with this email already exists"))
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, r, err)
		return
	}

	user, err := createUser(r, req.Email, req.Name, req.Password, req.DietaryPreferences)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = apperr.Conflict("an account with this email already exists")
		}
		writeError(w, r, err)
		return
	}

	if sessionManager != nil {
		if err := establishSession(r, user); err != nil {
			applog.Error(r.Context(), "failed to establish session after sign up", "error", err)
		}
	}

	applog.Info(r.Context(), "user signed up", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

// Login verifies credentials and starts a session.
func Login(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		writeError(w, r, apperr.New(apperr.KindUnavailable, "authentication not available"))
		return
	}
	if !requireDatabase(w, r) {
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := authenticate(r, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// Logout destroys the current session.
func Logout(w http.ResponseWriter, r *http.Request) {
	if sessionManager != nil {
		if err := sessionManager.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentSession returns the signed-in user.
func CurrentSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok || database == nil {
		writeError(w, r, apperr.New(apperr.KindUnauthorized, "not signed in"))
		return
	}

	var user models.User
	if err := database.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, r, apperr.New(apperr.KindUnauthorized, "not signed in"))
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(&user))
}

func createUser(r *http.Request, email, name, password string, preferences []string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:              strings.ToLower(email),
		Name:               strings.TrimSpace(name),
		PasswordHash:       string(hashed),
		DietaryPreferences: preferences,
	}

	if err := database.WithContext(r.Context()).Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func findUserByEmail(r *http.Request, email string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	user := &models.User{}
	err := database.WithContext(r.Context()).Where("lower(email) = ?", strings.ToLower(email)).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authenticate verifies the provided credentials and populates the session if successful.
func authenticate(r *http.Request, email, password string) (*models.User, error) {
	invalid := apperr.New(apperr.KindUnauthorized, "invalid email or password")

	user, err := findUserByEmail(r, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		applog.Error(r.Context(), "failed to load user during login", "error", err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}

	if err := establishSession(r, user); err != nil {
		return nil, err
	}
	return user, nil
}

func establishSession(r *http.Request, user *models.User) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if err := sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	sessionManager.Put(r.Context(), sessionAuthenticatedKey, true)
	sessionManager.Put(r.Context(), sessionUserIDKey, int(user.ID))
	sessionManager.Put(r.Context(), sessionUserEmailKey, user.Email)
	sessionManager.Put(r.Context(), sessionUserNameKey, user.Name)
	return nil
}

// ActiveSession returns true when the current request has an authenticated session.
func ActiveSession(r *http.Request) bool {
	if sessionManager == nil {
		return false
	}
	return sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) && sessionManager.GetInt(r.Context(), sessionUserIDKey) > 0
}

func currentUserID(r *http.Request) (uint, bool) {
	if sessionManager == nil {
		return 0, false
	}
	id := sessionManager.GetInt(r.Context(), sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}
