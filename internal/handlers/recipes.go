package handlers

import (
	"errors"
	"net/http"

	"mealminder/internal/apperr"
	applog "mealminder/internal/log"
	"mealminder/internal/metrics"
	"mealminder/internal/recipe"
	"mealminder/internal/validation"
	"mealminder/models"
)

// ListRecipes returns every recipe ordered by id.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	recipes := []models.Recipe{}
	if err := database.WithContext(r.Context()).Order("id ASC").Find(&recipes).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// CreateRecipe stores a recipe from a loosely typed payload. Field types are
// coerced; only the name is mandatory.
func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	draft, err := recipe.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		applog.Debug(r.Context(), "rejected recipe payload", "error", err)
		if errors.Is(err, recipe.ErrNotObject) {
			writeError(w, r, apperr.Validation(err.Error()))
			return
		}
		writeError(w, r, apperr.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Struct(draft); err != nil {
		writeError(w, r, err)
		return
	}
	if draft.UserID == nil {
		draft.UserID = ownerID(r)
	}

	model := draft.Model()
	if err := database.WithContext(r.Context()).Create(&model).Error; err != nil {
		writeError(w, r, err)
		return
	}

	metrics.RecipesCreatedTotal.Inc()
	applog.Info(r.Context(), "recipe created", "recipe_id", model.ID, "name", model.Name)
	writeJSON(w, http.StatusCreated, model)
}

// GetRecipe returns a single recipe.
func GetRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	rec, err := loadRecipe(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecipe removes a recipe by id. Missing ids are not an error.
func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result := database.WithContext(r.Context()).Delete(&models.Recipe{}, id)
	if result.Error != nil {
		writeError(w, r, result.Error)
		return
	}
	applog.Debug(r.Context(), "recipe delete", "recipe_id", id, "rows", result.RowsAffected)
	w.WriteHeader(http.StatusNoContent)
}

func loadRecipe(r *http.Request) (models.Recipe, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return models.Recipe{}, err
	}
	return findRecipe(r, id)
}

func findRecipe(r *http.Request, id uint) (models.Recipe, error) {
	var rec models.Recipe
	if err := database.WithContext(r.Context()).First(&rec, id).Error; err != nil {
		return models.Recipe{}, notFoundOr(err, "recipe not found")
	}
	return rec, nil
}
