package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mealminder/internal/apperr"
	applog "mealminder/internal/log"
	"mealminder/internal/metrics"
	"mealminder/internal/oauth"
	"mealminder/models"
)

type oauthBeginResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	AuthURL string `json:"authUrl"`
}

type oauthCallbackResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	SupplierID uint   `json:"supplierId"`
	Provider   string `json:"provider"`
}

// BeginOAuth starts linking a supplier to a provider and returns the URL the
// client follows to complete it.
func BeginOAuth(w http.ResponseWriter, r *http.Request) {
	if !requireOAuth(w, r) || !requireDatabase(w, r) {
		return
	}

	provider := chi.URLParam(r, "provider")
	if !oauth.ValidProvider(provider) {
		writeError(w, r, apperr.Validation(fmt.Sprintf("unsupported provider %q", provider)))
		return
	}
	supplierID, err := strconv.ParseUint(r.URL.Query().Get("supplierId"), 10, 64)
	if err != nil || supplierID == 0 {
		writeError(w, r, apperr.Validation("invalid query", apperr.FieldError{Field: "supplierId", Message: "must be a positive integer"}))
		return
	}

	var supplier models.Supplier
	if err := database.WithContext(r.Context()).First(&supplier, supplierID).Error; err != nil {
		writeError(w, r, notFoundOr(err, "supplier not found"))
		return
	}

	state, err := oauthService.Begin(r.Context(), provider, supplier.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.Debug(r.Context(), "oauth flow started", "provider", provider, "supplier_id", supplier.ID)
	writeJSON(w, http.StatusOK, oauthBeginResponse{
		Status:  "success",
		Message: fmt.Sprintf("OAuth flow initiated for %s", provider),
		AuthURL: oauth.CallbackURL(provider, state.Value),
	})
}

// OAuthCallback spends the state, issues tokens and stores them on the supplier.
func OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !requireOAuth(w, r) || !requireDatabase(w, r) {
		return
	}

	provider := chi.URLParam(r, "provider")
	label := provider
	if !oauth.ValidProvider(provider) {
		label = "unknown"
	}
	state, tokens, err := oauthService.Complete(r.Context(), provider, r.URL.Query().Get("state"))
	if err != nil {
		metrics.OAuthLinksTotal.WithLabelValues(label, "rejected").Inc()
		switch {
		case errors.Is(err, oauth.ErrUnknownProvider):
			err = apperr.Validation(fmt.Sprintf("unsupported provider %q", provider))
		case errors.Is(err, oauth.ErrStateNotFound), errors.Is(err, oauth.ErrProviderMismatch):
			err = apperr.Validation(err.Error(), apperr.FieldError{Field: "state", Message: "is invalid or expired"})
		}
		writeError(w, r, err)
		return
	}

	result := database.WithContext(r.Context()).Model(&models.Supplier{}).Where("id = ?", state.SupplierID).Updates(map[string]any{
		"oauth_provider":   provider,
		"access_token":     tokens.AccessToken,
		"refresh_token":    tokens.RefreshToken,
		"token_expires_at": tokens.ExpiresAt,
		"authenticated":    true,
	})
	if result.Error != nil {
		writeError(w, r, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		metrics.OAuthLinksTotal.WithLabelValues(label, "rejected").Inc()
		writeError(w, r, apperr.NotFound("supplier not found"))
		return
	}

	metrics.OAuthLinksTotal.WithLabelValues(label, "success").Inc()
	applog.Info(r.Context(), "supplier linked", "provider", provider, "supplier_id", state.SupplierID)
	writeJSON(w, http.StatusOK, oauthCallbackResponse{
		Status:     "success",
		Message:    fmt.Sprintf("Successfully authenticated with %s", provider),
		SupplierID: state.SupplierID,
		Provider:   provider,
	})
}

func requireOAuth(w http.ResponseWriter, r *http.Request) bool {
	if oauthService != nil {
		return true
	}
	writeError(w, r, apperr.New(apperr.KindUnavailable, "oauth not available"))
	return false
}
