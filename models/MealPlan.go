package models

import (
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the calendar date format used by meal plans.
const DateLayout = "2006-01-02"

// MealSlots assigns at most one recipe to each meal of the day.
type MealSlots struct {
	Breakfast *uint `json:"breakfast"`
	Lunch     *uint `json:"lunch"`
	Dinner    *uint `json:"dinner"`
}

// RecipeIDs returns the assigned recipe ids in slot order.
func (s MealSlots) RecipeIDs() []uint {
	ids := make([]uint, 0, 3)
	for _, id := range []*uint{s.Breakfast, s.Lunch, s.Dinner} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}

// Merge returns a copy of s with every slot set in other applied on top.
func (s MealSlots) Merge(other MealSlots) MealSlots {
	if other.Breakfast != nil {
		s.Breakfast = other.Breakfast
	}
	if other.Lunch != nil {
		s.Lunch = other.Lunch
	}
	if other.Dinner != nil {
		s.Dinner = other.Dinner
	}
	return s
}

// MealPlan is the per-date recipe assignment; one plan exists per (user, date).
type MealPlan struct {
	ID        uint                          `gorm:"primaryKey" json:"id"`
	UserID    *uint                         `gorm:"uniqueIndex:idx_meal_plans_user_date" json:"userId"`
	Date      string                        `gorm:"type:varchar(10);not null;uniqueIndex:idx_meal_plans_user_date" json:"date"`
	Recipes   datatypes.JSONType[MealSlots] `gorm:"not null" json:"recipes"`
	CreatedAt time.Time                     `json:"createdAt"`
}
