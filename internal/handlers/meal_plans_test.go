package handlers

import (
	"net/http"
	"testing"

	"gorm.io/datatypes"

	"mealminder/internal/apperr"
	"mealminder/models"
)

func createTestRecipe(t *testing.T, name string) uint {
	t.Helper()
	rec := models.Recipe{Name: name, NutritionInfo: datatypes.NewJSONType(models.NutritionInfo{})}
	if err := database.Create(&rec).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return rec.ID
}

func TestCreateMealPlanUpsertsPerDate(t *testing.T) {
	db, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)
	oats := createTestRecipe(t, "Oats")
	stew := createTestRecipe(t, "Stew")

	w := doJSON(t, api, http.MethodPost, "/api/meal-plans", map[string]any{
		"date":    "2024-05-01",
		"recipes": map[string]any{"breakfast": oats},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var first models.MealPlan
	decodeInto(t, w, &first)

	w = doJSON(t, api, http.MethodPost, "/api/meal-plans", map[string]any{
		"date":    "2024-05-01",
		"recipes": map[string]any{"dinner": stew},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on existing date, got %d: %s", w.Code, w.Body.String())
	}
	var merged models.MealPlan
	decodeInto(t, w, &merged)
	if merged.ID != first.ID {
		t.Fatalf("expected same plan, got %d and %d", first.ID, merged.ID)
	}
	slots := merged.Recipes.Data()
	if slots.Breakfast == nil || *slots.Breakfast != oats || slots.Dinner == nil || *slots.Dinner != stew || slots.Lunch != nil {
		t.Fatalf("unexpected merged slots %+v", slots)
	}

	var count int64
	db.Model(&models.MealPlan{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one plan, got %d", count)
	}
}

func TestCreateMealPlanValidation(t *testing.T) {
	_, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing date", map[string]any{"recipes": map[string]any{}}, "date"},
		{"bad date", map[string]any{"date": "05/01/2024"}, "date"},
		{"impossible date", map[string]any{"date": "2024-02-30"}, "date"},
		{"unknown recipe", map[string]any{"date": "2024-05-01", "recipes": map[string]any{"lunch": 99}}, "recipes.lunch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, api, http.MethodPost, "/api/meal-plans", tt.body)
			body := expectError(t, w, http.StatusBadRequest, apperr.KindValidation)
			if !hasDetail(body, tt.field) {
				t.Fatalf("expected detail for %s, got %+v", tt.field, body.Details)
			}
		})
	}
}

func TestListMealPlansScopedToSession(t *testing.T) {
	_, cleanup := withSeededDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	w := doJSON(t, api, http.MethodGet, "/api/meal-plans", nil)
	var anonymous []models.MealPlan
	decodeInto(t, w, &anonymous)
	if len(anonymous) != 0 {
		t.Fatalf("expected no anonymous plans, got %d", len(anonymous))
	}

	cookie := loginDemo(t, api)
	w = doJSON(t, api, http.MethodGet, "/api/meal-plans", nil, cookie)
	var mine []models.MealPlan
	decodeInto(t, w, &mine)
	if len(mine) != 1 {
		t.Fatalf("expected the demo plan, got %d", len(mine))
	}
}

func TestUpdateMealPlan(t *testing.T) {
	db, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)
	oats := createTestRecipe(t, "Oats")
	stew := createTestRecipe(t, "Stew")

	plans := []models.MealPlan{
		{Date: "2024-05-01", Recipes: datatypes.NewJSONType(models.MealSlots{Breakfast: &oats})},
		{Date: "2024-05-02", Recipes: datatypes.NewJSONType(models.MealSlots{})},
	}
	if err := db.Create(&plans).Error; err != nil {
		t.Fatalf("failed to seed plans: %v", err)
	}

	w := doJSON(t, api, http.MethodPatch, "/api/meal-plans/1", map[string]any{
		"recipes": map[string]any{"dinner": stew},
		"userId":  55,
		"id":      99,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.MealPlan
	decodeInto(t, w, &updated)
	slots := updated.Recipes.Data()
	if updated.ID != 1 || updated.UserID != nil {
		t.Fatalf("expected disallowed fields to be ignored, got %+v", updated)
	}
	if slots.Breakfast != nil || slots.Dinner == nil || *slots.Dinner != stew {
		t.Fatalf("expected recipes to be replaced, got %+v", slots)
	}

	w = doJSON(t, api, http.MethodPatch, "/api/meal-plans/1", map[string]any{"date": "2024-05-03"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on date move, got %d: %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &updated)
	if updated.Date != "2024-05-03" {
		t.Fatalf("expected date to move, got %s", updated.Date)
	}

	w = doJSON(t, api, http.MethodPatch, "/api/meal-plans/1", map[string]any{"date": "2024-05-02"})
	expectError(t, w, http.StatusConflict, apperr.KindConflict)

	w = doJSON(t, api, http.MethodPatch, "/api/meal-plans/1", map[string]any{"date": "tomorrow"})
	expectError(t, w, http.StatusBadRequest, apperr.KindValidation)
}

func TestUpdateUnknownMealPlanLeavesTableUnchanged(t *testing.T) {
	db, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)
	api := newTestAPI(t)

	plan := models.MealPlan{Date: "2024-05-01", Recipes: datatypes.NewJSONType(models.MealSlots{})}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}

	w := doJSON(t, api, http.MethodPatch, "/api/meal-plans/999", map[string]any{"date": "2024-06-01"})
	expectError(t, w, http.StatusNotFound, apperr.KindNotFound)

	var plans []models.MealPlan
	if err := db.Find(&plans).Error; err != nil {
		t.Fatalf("failed to list plans: %v", err)
	}
	if len(plans) != 1 || plans[0].Date != "2024-05-01" {
		t.Fatalf("expected table unchanged, got %+v", plans)
	}
}
