package nutrition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutridive/nutridive/pkg/models"
)

func TestExtractNutritionFacts_TableOrder(t *testing.T) {
	// Input order is irrelevant; proteins appear after calories in the table.
	facts := ExtractNutritionFacts(map[string]any{
		"proteins_100g":    6.3,
		"energy-kcal_100g": 539.456,
	})

	require.Len(t, facts, 2)
	assert.Equal(t, models.NutritionFact{Name: "Calories", Value: "539.46", Unit: "kcal"}, facts[0])
	assert.Equal(t, models.NutritionFact{Name: "Protein", Value: "6.3", Unit: "g"}, facts[1])
	assert.Nil(t, facts[0].DailyValue)
}

func TestExtractNutritionFacts_FullTable(t *testing.T) {
	facts := ExtractNutritionFacts(map[string]any{
		"sodium_100g":        0.4,
		"salt_100g":          1,
		"proteins_100g":      2.0,
		"fiber_100g":         3.333,
		"sugars_100g":        10.005,
		"carbohydrates_100g": 55,
		"saturated-fat_100g": 1.2,
		"fat_100g":           20.1,
		"energy-kcal_100g":   400,
	})

	names := make([]string, len(facts))
	for i, f := range facts {
		names[i] = f.Name
	}
	assert.Equal(t, []string{
		"Calories", "Total Fat", "Saturated Fat", "Carbohydrates", "Sugars",
		"Fiber", "Protein", "Salt", "Sodium",
	}, names)
	assert.Equal(t, "mg", facts[8].Unit)
	assert.Equal(t, "3.33", facts[5].Value)
	assert.Equal(t, "2", facts[6].Value)
}

func TestExtractNutritionFacts_PartialAndInvalid(t *testing.T) {
	facts := ExtractNutritionFacts(map[string]any{
		"fat_100g":           nil,
		"sugars_100g":        "12.5",
		"salt_100g":          "trace",
		"energy-kcal_unit":   "kcal",
		"proteins_100g":      json.Number("4.125"),
		"unrelated_nutrient": 99.0,
	})

	require.Len(t, facts, 2)
	assert.Equal(t, "Sugars", facts[0].Name)
	assert.Equal(t, "12.5", facts[0].Value)
	assert.Equal(t, "Protein", facts[1].Name)
	assert.Equal(t, "4.13", facts[1].Value)
}

func TestExtractNutritionFacts_Empty(t *testing.T) {
	facts := ExtractNutritionFacts(nil)
	assert.NotNil(t, facts)
	assert.Empty(t, facts)
}
