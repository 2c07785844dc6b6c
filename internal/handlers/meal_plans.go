package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mealminder/internal/apperr"
	applog "mealminder/internal/log"
	"mealminder/internal/validation"
	"mealminder/models"
)

type mealPlanCreateRequest struct {
	Date    string           `json:"date" validate:"required,datetime=2006-01-02"`
	Recipes models.MealSlots `json:"recipes"`
}

type mealPlanUpdateRequest struct {
	Date    *string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Recipes *models.MealSlots `json:"recipes"`
}

// ListMealPlans returns the caller's plans ordered by date.
func ListMealPlans(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	plans := []models.MealPlan{}
	query := ownedBy(r, database.WithContext(r.Context()).Model(&models.MealPlan{}))
	if err := query.Order("date ASC").Order("id ASC").Find(&plans).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// CreateMealPlan stores the recipes for a date. A date that already has a plan has
// the given slots merged into it.
func CreateMealPlan(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	var req mealPlanCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkRecipesExist(r, req.Recipes); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		plan    models.MealPlan
		created bool
	)
	err := database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		err := ownedBy(r, tx.Model(&models.MealPlan{})).Where("date = ?", req.Date).First(&plan).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			plan = models.MealPlan{
				UserID:  ownerID(r),
				Date:    req.Date,
				Recipes: datatypes.NewJSONType(req.Recipes),
			}
			created = true
			return tx.Create(&plan).Error
		case err != nil:
			return err
		}

		merged := plan.Recipes.Data().Merge(req.Recipes)
		plan.Recipes = datatypes.NewJSONType(merged)
		return tx.Model(&plan).Update("recipes", plan.Recipes).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = apperr.Conflict("a meal plan for this date already exists")
		}
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	applog.Debug(r.Context(), "meal plan saved", "meal_plan_id", plan.ID, "date", plan.Date, "created", created)
	writeJSON(w, status, plan)
}

// UpdateMealPlan applies {date?, recipes?} to an existing plan. Other fields in
// the body are ignored.
func UpdateMealPlan(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req mealPlanUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Date != nil {
		trimmed := strings.TrimSpace(*req.Date)
		req.Date = &trimmed
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Recipes != nil {
		if err := checkRecipesExist(r, *req.Recipes); err != nil {
			writeError(w, r, err)
			return
		}
	}

	var plan models.MealPlan
	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := ownedBy(r, tx.Model(&models.MealPlan{})).Where("id = ?", id).First(&plan).Error; err != nil {
			return notFoundOr(err, "meal plan not found")
		}

		updates := map[string]any{}
		if req.Date != nil && *req.Date != plan.Date {
			var clashes int64
			if err := ownedBy(r, tx.Model(&models.MealPlan{})).
				Where("date = ? AND id <> ?", *req.Date, plan.ID).
				Count(&clashes).Error; err != nil {
				return err
			}
			if clashes > 0 {
				return apperr.Conflict(fmt.Sprintf("a meal plan for %s already exists", *req.Date))
			}
			updates["date"] = *req.Date
		}
		if req.Recipes != nil {
			updates["recipes"] = datatypes.NewJSONType(*req.Recipes)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&plan).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&plan, plan.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = apperr.Conflict("a meal plan for this date already exists")
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// checkRecipesExist rejects slots that point at recipes that do not exist.
func checkRecipesExist(r *http.Request, slots models.MealSlots) error {
	named := map[string]*uint{"breakfast": slots.Breakfast, "lunch": slots.Lunch, "dinner": slots.Dinner}
	ids := slots.RecipeIDs()
	if len(ids) == 0 {
		return nil
	}

	var found []uint
	if err := database.WithContext(r.Context()).Model(&models.Recipe{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	known := make(map[uint]bool, len(found))
	for _, id := range found {
		known[id] = true
	}

	var details []apperr.FieldError
	for _, slot := range []string{"breakfast", "lunch", "dinner"} {
		id := named[slot]
		if id != nil && !known[*id] {
			details = append(details, apperr.FieldError{
				Field:   "recipes." + slot,
				Message: fmt.Sprintf("recipe %d does not exist", *id),
			})
		}
	}
	if len(details) > 0 {
		return apperr.Validation("invalid request body", details...)
	}
	return nil
}
