// Package recipe turns loosely typed recipe submissions into well-formed models.
package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	"mealminder/models"
)

// DefaultUnit is used for ingredients submitted without a unit.
const DefaultUnit = "g"

// ErrNotObject is returned when the submitted JSON is not an object.
var ErrNotObject = errors.New("recipe payload must be a JSON object")

// Draft is a coerced recipe submission. Every field holds a usable value.
type Draft struct {
	Name          string               `json:"name" validate:"required"`
	Description   string               `json:"description"`
	Ingredients   []models.Ingredient  `json:"ingredients"`
	Instructions  []models.Instruction `json:"instructions"`
	NutritionInfo models.NutritionInfo `json:"nutritionInfo"`
	ImageURL      *string              `json:"imageUrl"`
	PrepTime      int                  `json:"prepTime"`
	CookTime      int                  `json:"cookTime"`
	TotalTime     int                  `json:"totalTime"`
	UserID        *uint                `json:"userId"`
}

// Decode reads a JSON object from r and coerces it into a Draft. Only malformed JSON
// or a non-object document is an error; individual fields never fail.
func Decode(r io.Reader) (Draft, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Draft{}, fmt.Errorf("decode recipe payload: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Draft{}, ErrNotObject
	}
	return FromMap(obj), nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte) (Draft, error) {
	return Decode(bytes.NewReader(b))
}

// FromMap coerces an already decoded JSON object.
func FromMap(raw map[string]any) Draft {
	d := Draft{
		Name:          strings.TrimSpace(text(raw["name"])),
		Description:   text(raw["description"]),
		Ingredients:   ingredients(raw["ingredients"]),
		Instructions:  instructions(raw["instructions"]),
		NutritionInfo: nutrition(raw["nutritionInfo"]),
		PrepTime:      minutes(raw["prepTime"]),
		CookTime:      minutes(raw["cookTime"]),
		TotalTime:     minutes(raw["totalTime"]),
	}
	if d.TotalTime == 0 {
		d.TotalTime = d.PrepTime + d.CookTime
	}
	if image := strings.TrimSpace(text(raw["imageUrl"])); image != "" {
		d.ImageURL = &image
	}
	if id := number(raw["userId"]); id >= 1 {
		uid := uint(id)
		d.UserID = &uid
	}
	return d
}

// Model converts the draft into a persistable recipe.
func (d Draft) Model() models.Recipe {
	return models.Recipe{
		Name:          d.Name,
		Description:   d.Description,
		Ingredients:   datatypes.JSONSlice[models.Ingredient](d.Ingredients),
		Instructions:  datatypes.JSONSlice[models.Instruction](d.Instructions),
		NutritionInfo: datatypes.NewJSONType(d.NutritionInfo),
		ImageURL:      d.ImageURL,
		PrepTime:      d.PrepTime,
		CookTime:      d.CookTime,
		TotalTime:     d.TotalTime,
		UserID:        d.UserID,
	}
}

// FromModel returns the draft form of a stored recipe.
func FromModel(r models.Recipe) Draft {
	return Draft{
		Name:          r.Name,
		Description:   r.Description,
		Ingredients:   append([]models.Ingredient{}, r.Ingredients...),
		Instructions:  append([]models.Instruction{}, r.Instructions...),
		NutritionInfo: r.Nutrition(),
		ImageURL:      r.ImageURL,
		PrepTime:      r.PrepTime,
		CookTime:      r.CookTime,
		TotalTime:     r.TotalTime,
		UserID:        r.UserID,
	}
}

func ingredients(v any) []models.Ingredient {
	items, _ := v.([]any)
	out := make([]models.Ingredient, 0, len(items))
	for _, item := range items {
		switch item := item.(type) {
		case map[string]any:
			unit := strings.TrimSpace(text(item["unit"]))
			if unit == "" {
				unit = DefaultUnit
			}
			out = append(out, models.Ingredient{
				Name:   strings.TrimSpace(text(item["name"])),
				Amount: number(item["amount"]),
				Unit:   unit,
			})
		case string:
			if strings.TrimSpace(item) == "" {
				continue
			}
			ing := ParseIngredientLine(item)
			if ing.Unit == "" {
				ing.Unit = DefaultUnit
			}
			out = append(out, ing)
		}
	}
	return out
}

func instructions(v any) []models.Instruction {
	items, _ := v.([]any)
	out := make([]models.Instruction, 0, len(items))
	for i, item := range items {
		step := models.Instruction{StepNumber: i + 1}
		switch item := item.(type) {
		case map[string]any:
			if n := int(number(item["stepNumber"])); n > 0 {
				step.StepNumber = n
			}
			step.Content = text(item["content"])
			step.RichText = text(item["richText"])
		case string:
			step.Content = strings.TrimSpace(item)
		default:
			continue
		}
		out = append(out, step)
	}
	return out
}

func nutrition(v any) models.NutritionInfo {
	obj, _ := v.(map[string]any)
	return models.NutritionInfo{
		Calories: number(obj["calories"]),
		Protein:  number(obj["protein"]),
		Carbs:    number(obj["carbs"]),
		Fat:      number(obj["fat"]),
		Vitamins: numericMap(obj["vitamins"]),
		Minerals: numericMap(obj["minerals"]),
	}
}

// numericMap keeps the entries of v whose values coerce to a number.
func numericMap(v any) map[string]float64 {
	out := map[string]float64{}
	obj, _ := v.(map[string]any)
	for key, value := range obj {
		if f, ok := toNumber(value); ok {
			out[key] = f
		}
	}
	return out
}

// minutes coerces a duration field. ISO-8601 strings such as "PT1H5M" are accepted.
func minutes(v any) int {
	if s, ok := v.(string); ok {
		if m, ok := ParseDuration(s); ok {
			return m
		}
	}
	n := number(v)
	if n <= 0 {
		return 0
	}
	return int(math.Floor(n))
}

// number coerces v to a finite float64, falling back to 0.
func number(v any) float64 {
	f, _ := toNumber(v)
	return f
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch v := v.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if v {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
