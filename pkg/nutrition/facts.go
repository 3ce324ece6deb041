package nutrition

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nutridive/nutridive/pkg/models"
)

type factSpec struct {
	Key  string
	Name string
	Unit string
}

// factTable fixes both the extracted keys and the output order.
var factTable = []factSpec{
	{Key: "energy-kcal_100g", Name: "Calories", Unit: "kcal"},
	{Key: "fat_100g", Name: "Total Fat", Unit: "g"},
	{Key: "saturated-fat_100g", Name: "Saturated Fat", Unit: "g"},
	{Key: "carbohydrates_100g", Name: "Carbohydrates", Unit: "g"},
	{Key: "sugars_100g", Name: "Sugars", Unit: "g"},
	{Key: "fiber_100g", Name: "Fiber", Unit: "g"},
	{Key: "proteins_100g", Name: "Protein", Unit: "g"},
	{Key: "salt_100g", Name: "Salt", Unit: "g"},
	{Key: "sodium_100g", Name: "Sodium", Unit: "mg"},
}

// ExtractNutritionFacts maps raw nutrient values onto the fixed display table.
// Keys that are absent, null or non-numeric are skipped. Values are rounded to
// two decimal places, half away from zero, without trailing zeros.
func ExtractNutritionFacts(nutriments map[string]any) []models.NutritionFact {
	facts := make([]models.NutritionFact, 0, len(factTable))
	for _, entry := range factTable {
		raw, ok := nutriments[entry.Key]
		if !ok {
			continue
		}
		value, ok := numericValue(raw)
		if !ok {
			continue
		}
		facts = append(facts, models.NutritionFact{
			Name:       entry.Name,
			Value:      value.Round(2).String(),
			Unit:       entry.Unit,
			DailyValue: nil,
		})
	}
	return facts
}

func numericValue(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		// Some products carry numbers as strings.
		s := strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}
