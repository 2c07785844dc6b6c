package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"mealminder/internal/apperr"
	applog "mealminder/internal/log"
	"mealminder/internal/oauth"
	"mealminder/internal/scraper"
)

const maxBodyBytes = 1 << 20

var (
	oauthService *oauth.Service
	extractor    *scraper.Fetcher
)

// ConfigureOAuth installs the service backing the supplier OAuth endpoints.
func ConfigureOAuth(svc *oauth.Service) {
	oauthService = svc
}

// ConfigureExtractor installs the fetcher used by the recipe extraction endpoint.
func ConfigureExtractor(f *scraper.Fetcher) {
	extractor = f
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode response", "error", err)
	}
}

// writeError renders err as the error envelope. Errors that are not already
// apperr values are logged and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.As(err)
	if appErr.Kind == apperr.KindInternal {
		applog.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		applog.Debug(r.Context(), "request rejected", "path", r.URL.Path, "kind", appErr.Kind, "message", appErr.Message)
	}
	writeJSON(w, appErr.Status(), appErr)
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apperr.NotFound("route not found"))
}

// MethodNotAllowed answers known routes called with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apperr.New(apperr.KindMethodNotAllowed, "method not allowed"))
}

func requireDatabase(w http.ResponseWriter, r *http.Request) bool {
	if database != nil {
		return true
	}
	applog.Debug(r.Context(), "request without database", "path", r.URL.Path)
	writeError(w, r, apperr.New(apperr.KindUnavailable, "service unavailable"))
	return false
}

// decodeJSON reads a JSON object body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is required")
		default:
			return apperr.Validation("request body must be valid JSON")
		}
	}
	return nil
}

// pathID parses the named chi URL parameter as a positive id.
func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, apperr.Validation("invalid id", apperr.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return uint(value), nil
}

// notFoundOr maps gorm.ErrRecordNotFound to a 404 with message and passes other
// errors through.
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(message)
	}
	return err
}

// ownedBy limits query to rows owned by the session user, or to anonymous rows
// when there is no session.
func ownedBy(r *http.Request, query *gorm.DB) *gorm.DB {
	if userID, ok := currentUserID(r); ok {
		return query.Where("user_id = ?", userID)
	}
	return query.Where("user_id IS NULL")
}

// ownerID returns the session user as a nullable owner column value.
func ownerID(r *http.Request) *uint {
	userID, ok := currentUserID(r)
	if !ok {
		return nil
	}
	return &userID
}
