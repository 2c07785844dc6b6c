package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"mealminder/internal/apperr"
	applog "mealminder/internal/log"
	"mealminder/internal/metrics"
	"mealminder/internal/nutrition"
	"mealminder/internal/recipe"
	"mealminder/internal/scraper"
	"mealminder/internal/validation"
)

type nutritionResponse struct {
	RecipeID uint `json:"recipeId"`
	nutrition.Report
}

type extractRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// RecipeNutrition reports the daily-value share of a stored recipe's nutrients.
func RecipeNutrition(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	rec, err := loadRecipe(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nutritionResponse{
		RecipeID: rec.ID,
		Report:   nutrition.DailyValues(rec.Nutrition()),
	})
}

// ExtractRecipe fetches a recipe page and returns the scraped draft without
// storing it.
func ExtractRecipe(w http.ResponseWriter, r *http.Request) {
	if extractor == nil {
		writeError(w, r, apperr.New(apperr.KindUnavailable, "recipe extraction not available"))
		return
	}

	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	draft, err := extractor.Fetch(r.Context(), req.URL)
	switch {
	case err == nil:
		metrics.RecipeExtractionsTotal.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, draft)
	case errors.Is(err, scraper.ErrUnsupportedURL), errors.Is(err, scraper.ErrForbiddenAddress):
		metrics.RecipeExtractionsTotal.WithLabelValues("rejected").Inc()
		message := scraper.ErrUnsupportedURL.Error()
		if errors.Is(err, scraper.ErrForbiddenAddress) {
			message = scraper.ErrForbiddenAddress.Error()
		}
		writeError(w, r, apperr.Validation("invalid request body", apperr.FieldError{Field: "url", Message: message}))
	case errors.Is(err, scraper.ErrNoRecipe):
		metrics.RecipeExtractionsTotal.WithLabelValues("no_recipe").Inc()
		writeError(w, r, apperr.Validation(err.Error()))
	default:
		metrics.RecipeExtractionsTotal.WithLabelValues("fetch_error").Inc()
		applog.Warn(r.Context(), "recipe page fetch failed", "url", req.URL, "error", err)
		writeError(w, r, apperr.New(apperr.KindUnavailable, "could not fetch recipe page"))
	}
}

// AdaptRecipe returns a lighter variant of a recipe. The body is either a recipe
// payload or {"recipeId": n} naming a stored recipe.
func AdaptRecipe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, apperr.Validation("request body too large"))
		return
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		writeError(w, r, apperr.Validation(recipe.ErrNotObject.Error()))
		return
	}

	var draft recipe.Draft
	if value, ok := raw["recipeId"]; ok {
		id, valid := recipeID(value)
		if !valid {
			writeError(w, r, apperr.Validation("invalid request body", apperr.FieldError{Field: "recipeId", Message: "must be a positive integer"}))
			return
		}
		if !requireDatabase(w, r) {
			return
		}
		rec, err := findRecipe(r, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		draft = recipe.FromModel(rec)
	} else {
		draft = recipe.FromMap(raw)
		if err := validation.Struct(draft); err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, nutrition.Adapt(draft))
}

func recipeID(v any) (uint, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	id, err := n.Int64()
	if err != nil || id < 1 {
		return 0, false
	}
	return uint(id), true
}
