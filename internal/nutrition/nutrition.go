// Package nutrition reports daily-value shares for recipes and adapts recipes to a
// lighter health profile.
package nutrition

import (
	"math"
	"sort"

	"mealminder/models"
)

// Daily reference values. Macros are grams except calories (kcal).
const (
	DailyCalories = 2000
	DailyProtein  = 50
	DailyCarbs    = 275
	DailyFat      = 78
)

var dailyVitamins = map[string]reference{
	"vitaminA":   {900, "mcg"},
	"vitaminC":   {90, "mg"},
	"vitaminD":   {20, "mcg"},
	"vitaminE":   {15, "mg"},
	"vitaminK":   {120, "mcg"},
	"thiamin":    {1.2, "mg"},
	"riboflavin": {1.3, "mg"},
	"niacin":     {16, "mg"},
	"b6":         {1.7, "mg"},
	"b12":        {2.4, "mcg"},
	"folate":     {400, "mcg"},
}

var dailyMinerals = map[string]reference{
	"calcium":    {1000, "mg"},
	"iron":       {18, "mg"},
	"magnesium":  {400, "mg"},
	"phosphorus": {1000, "mg"},
	"potassium":  {3500, "mg"},
	"sodium":     {2300, "mg"},
	"zinc":       {11, "mg"},
	"copper":     {0.9, "mg"},
	"manganese":  {2.3, "mg"},
	"selenium":   {55, "mcg"},
}

type reference struct {
	amount float64
	unit   string
}

// Nutrient is one value compared against its daily reference.
type Nutrient struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Recommended float64 `json:"recommended"`
	Unit        string  `json:"unit"`
	Percent     int     `json:"percent"`
	High        bool    `json:"high"`
	Low         bool    `json:"low"`
}

// Report is the daily-value breakdown for one serving.
type Report struct {
	Calories Nutrient   `json:"calories"`
	Macros   []Nutrient `json:"macros"`
	Vitamins []Nutrient `json:"vitamins"`
	Minerals []Nutrient `json:"minerals"`
}

// DailyValues computes the share of each nutrient's daily reference value. Vitamins
// and minerals without a reference value are left out.
func DailyValues(info models.NutritionInfo) Report {
	return Report{
		Calories: nutrient("calories", info.Calories, reference{DailyCalories, "kcal"}),
		Macros: []Nutrient{
			nutrient("protein", info.Protein, reference{DailyProtein, "g"}),
			nutrient("carbs", info.Carbs, reference{DailyCarbs, "g"}),
			nutrient("fat", info.Fat, reference{DailyFat, "g"}),
		},
		Vitamins: micronutrients(info.Vitamins, dailyVitamins),
		Minerals: micronutrients(info.Minerals, dailyMinerals),
	}
}

func micronutrients(values map[string]float64, refs map[string]reference) []Nutrient {
	out := make([]Nutrient, 0, len(values))
	for name, value := range values {
		ref, ok := refs[name]
		if !ok {
			continue
		}
		out = append(out, nutrient(name, value, ref))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func nutrient(name string, value float64, ref reference) Nutrient {
	pct := Percent(value, ref.amount)
	return Nutrient{
		Name:        name,
		Value:       value,
		Recommended: ref.amount,
		Unit:        ref.unit,
		Percent:     pct,
		High:        pct > 100,
		Low:         pct < 25,
	}
}

// Percent returns value as a whole-number percentage of recommended, rounding halves up.
func Percent(value, recommended float64) int {
	if recommended <= 0 {
		return 0
	}
	return int(math.Floor(value/recommended*100 + 0.5))
}
