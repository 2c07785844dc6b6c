package nutrition

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mealminder/internal/recipe"
)

const (
	WarningHigh    = "high"
	WarningLow     = "low"
	WarningGeneral = "warning"
)

// Warning flags a property of the original recipe.
type Warning struct {
	Type     string `json:"type"`
	Nutrient string `json:"nutrient"`
	Message  string `json:"message"`
}

// Adaptation pairs a recipe with its lighter variant.
type Adaptation struct {
	Original recipe.Draft `json:"original"`
	Adapted  recipe.Draft `json:"adapted"`
	Warnings []Warning    `json:"warnings"`
}

var allergens = map[string][]string{
	"milk":      {"milk", "butter", "cream", "cheese", "yogurt", "yoghurt"},
	"egg":       {"egg"},
	"peanut":    {"peanut"},
	"tree nuts": {"almond", "walnut", "cashew", "hazelnut", "pecan", "pistachio"},
	"gluten":    {"flour", "wheat", "bread", "pasta", "barley", "rye"},
	"soy":       {"soy", "tofu"},
	"fish":      {"salmon", "tuna", "cod", "anchov", "fish"},
	"shellfish": {"shrimp", "prawn", "crab", "lobster", "mussel"},
	"sesame":    {"sesame", "tahini"},
}

// Adapt lowers fat by 30% and sodium by 20% (both floored) and reports what in the
// original recipe is high, low, or a common allergen.
func Adapt(original recipe.Draft) Adaptation {
	adapted := original
	info := original.NutritionInfo
	info.Fat = math.Floor(info.Fat * 0.7)
	info.Minerals = copyMap(info.Minerals)
	info.Vitamins = copyMap(info.Vitamins)
	if sodium, ok := info.Minerals["sodium"]; ok {
		info.Minerals["sodium"] = math.Floor(sodium * 0.8)
	}
	adapted.NutritionInfo = info

	return Adaptation{
		Original: original,
		Adapted:  adapted,
		Warnings: warnings(original),
	}
}

func warnings(d recipe.Draft) []Warning {
	info := d.NutritionInfo
	out := []Warning{}

	if pct := Percent(info.Minerals["sodium"], dailyMinerals["sodium"].amount); pct > 30 {
		out = append(out, Warning{Type: WarningHigh, Nutrient: "sodium", Message: fmt.Sprintf("Original recipe is high in sodium (%d%% of daily value)", pct)})
	}
	if pct := Percent(info.Fat, DailyFat); pct > 35 {
		out = append(out, Warning{Type: WarningHigh, Nutrient: "fat", Message: fmt.Sprintf("Original recipe is high in fat (%d%% of daily value)", pct)})
	}
	if pct := Percent(info.Calories, DailyCalories); pct > 40 {
		out = append(out, Warning{Type: WarningHigh, Nutrient: "calories", Message: fmt.Sprintf("Original recipe is high in calories (%d%% of daily value)", pct)})
	}
	if pct := Percent(info.Protein, DailyProtein); pct < 10 {
		out = append(out, Warning{Type: WarningLow, Nutrient: "protein", Message: fmt.Sprintf("Original recipe is low in protein (%d%% of daily value)", pct)})
	}
	if found := Allergens(d); len(found) > 0 {
		out = append(out, Warning{Type: WarningGeneral, Nutrient: "allergens", Message: "Contains common allergens: " + strings.Join(found, ", ")})
	}
	return out
}

// Allergens lists the allergen groups matched by ingredient names, sorted.
func Allergens(d recipe.Draft) []string {
	found := map[string]struct{}{}
	for _, ing := range d.Ingredients {
		name := strings.ToLower(ing.Name)
		for group, words := range allergens {
			for _, word := range words {
				if strings.Contains(name, word) {
					found[group] = struct{}{}
					break
				}
			}
		}
	}
	out := make([]string, 0, len(found))
	for group := range found {
		out = append(out, group)
	}
	sort.Strings(out)
	return out
}

func copyMap(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
