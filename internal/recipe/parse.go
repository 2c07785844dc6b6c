package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"mealminder/models"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseDuration converts an ISO-8601 duration ("PT1H30M") or a plain integer into
// whole minutes.
func ParseDuration(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}

	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, false
	}
	days, _ := strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	mins, _ := strconv.Atoi(m[3])
	secs, _ := strconv.ParseFloat(m[4], 64)
	return days*24*60 + hours*60 + mins + int(secs/60), true
}

var unicodeFractions = map[rune]float64{
	'½': 0.5, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '¼': 0.25, '¾': 0.75,
	'⅕': 0.2, '⅛': 0.125,
}

var knownUnits = map[string]string{
	"g": "g", "gram": "g", "grams": "g", "gr": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"cup": "cup", "cups": "cup",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"pinch": "pinch", "clove": "clove", "cloves": "clove",
	"can": "can", "cans": "can", "slice": "slice", "slices": "slice",
	"pcs": "pcs", "piece": "pcs", "pieces": "pcs",
}

// ParseIngredientLine splits a free-text line such as "2 1/2 cups flour" into amount,
// unit and name. Lines without a leading quantity keep the whole text as the name.
func ParseIngredientLine(line string) models.Ingredient {
	fields := strings.Fields(strings.TrimSpace(line))
	var amount float64
	i := 0
	for ; i < len(fields); i++ {
		q, ok := parseQuantity(fields[i])
		if !ok {
			break
		}
		amount += q
	}

	ing := models.Ingredient{Amount: amount}
	if i < len(fields) {
		rest := fields[i:]
		// "100g" style quantities glue the unit to the number.
		if amount == 0 {
			if q, unit, ok := splitGluedUnit(rest[0]); ok {
				ing.Amount = q
				ing.Unit = unit
				rest = rest[1:]
			}
		} else if unit, ok := knownUnits[strings.ToLower(strings.TrimSuffix(rest[0], "."))]; ok {
			ing.Unit = unit
			rest = rest[1:]
		}
		ing.Name = strings.TrimPrefix(strings.Join(rest, " "), "of ")
	}
	return ing
}

func parseQuantity(s string) (float64, bool) {
	runes := []rune(s)
	if len(runes) == 1 {
		if f, ok := unicodeFractions[runes[0]]; ok {
			return f, true
		}
	}
	// "1½"
	if len(runes) > 1 {
		if f, ok := unicodeFractions[runes[len(runes)-1]]; ok {
			if whole, err := strconv.Atoi(string(runes[:len(runes)-1])); err == nil {
				return float64(whole) + f, true
			}
		}
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 == nil && err2 == nil && d != 0 {
			return n / d, true
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func splitGluedUnit(s string) (float64, string, bool) {
	idx := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
	if idx <= 0 {
		return 0, "", false
	}
	unit, ok := knownUnits[strings.ToLower(s[idx:])]
	if !ok {
		return 0, "", false
	}
	f, err := strconv.ParseFloat(s[:idx], 64)
	if err != nil {
		return 0, "", false
	}
	return f, unit, true
}
