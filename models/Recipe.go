package models

import (
	"time"

	"gorm.io/datatypes"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Instruction is a single ordered preparation step.
type Instruction struct {
	StepNumber int    `json:"stepNumber"`
	Content    string `json:"content"`
	RichText   string `json:"richText"`
}

// NutritionInfo holds per-serving macros plus optional vitamin and mineral amounts.
type NutritionInfo struct {
	Calories float64            `json:"calories"`
	Protein  float64            `json:"protein"`
	Carbs    float64            `json:"carbs"`
	Fat      float64            `json:"fat"`
	Vitamins map[string]float64 `json:"vitamins"`
	Minerals map[string]float64 `json:"minerals"`
}

type Recipe struct {
	ID            uint                              `gorm:"primaryKey" json:"id"`
	Name          string                            `gorm:"not null" json:"name"`
	Description   string                            `gorm:"type:text;not null" json:"description"`
	Ingredients   datatypes.JSONSlice[Ingredient]   `gorm:"not null" json:"ingredients"`
	Instructions  datatypes.JSONSlice[Instruction]  `gorm:"not null" json:"instructions"`
	NutritionInfo datatypes.JSONType[NutritionInfo] `gorm:"not null" json:"nutritionInfo"`
	ImageURL      *string                           `json:"imageUrl"`
	PrepTime      int                               `gorm:"not null" json:"prepTime"` // minutes
	CookTime      int                               `gorm:"not null" json:"cookTime"`
	TotalTime     int                               `gorm:"not null" json:"totalTime"`
	UserID        *uint                             `gorm:"index" json:"userId"`
	CreatedAt     time.Time                         `json:"createdAt"`
}

// Nutrition returns the decoded nutrition block with non-nil vitamin and mineral maps.
func (r Recipe) Nutrition() NutritionInfo {
	info := r.NutritionInfo.Data()
	if info.Vitamins == nil {
		info.Vitamins = map[string]float64{}
	}
	if info.Minerals == nil {
		info.Minerals = map[string]float64{}
	}
	return info
}
