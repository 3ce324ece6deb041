package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRecord_ClassificationText(t *testing.T) {
	p := &ProductRecord{
		IngredientsText: "Chicken Broth, Salt",
		Categories:      "Soups",
		Labels:          "No Gluten",
	}
	assert.Equal(t, "chicken broth, salt soups no gluten", p.ClassificationText())
}

func TestProductRecord_CategoryList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"single", "Snacks", []string{"Snacks"}},
		{"trims and drops blanks", "Snacks, Sweet snacks, ,Biscuits", []string{"Snacks", "Sweet snacks", "Biscuits"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &ProductRecord{Categories: tt.input}
			assert.Equal(t, tt.expected, p.CategoryList())
		})
	}
}

func TestProductRecord_Snapshot_Defaults(t *testing.T) {
	p := &ProductRecord{NovaGroup: json.RawMessage(`4`)}
	snap := p.Snapshot("3017620422003")

	assert.Equal(t, "3017620422003", snap.Barcode)
	assert.Equal(t, UnknownValue, snap.Name)
	assert.Equal(t, UnknownValue, snap.Brand)
	assert.Equal(t, UnknownValue, snap.Quantity)
	assert.Equal(t, IngredientsNotFound, snap.Ingredients)
	assert.Equal(t, UnknownValue, snap.NutriscoreGrade)
	assert.Equal(t, "4", snap.NovaGroup)
	assert.Empty(t, snap.Categories)
}

func TestAnalysisRecord_Summary(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &AnalysisRecord{
		ID:             id,
		Barcode:        "737628064502",
		ProductSummary: ProductSummary{Name: "Rice Noodles", FoodType: FoodTypeVeg},
		NutriScore:     NutriScore{Grade: "B"},
		CreatedAt:      created,
	}

	s := r.Summary()
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "Rice Noodles", s.ProductName)
	assert.Equal(t, UnknownValue, s.Brand)
	assert.Equal(t, "B", s.NutriScore)
	assert.Equal(t, FoodTypeVeg, s.FoodType)
	assert.Equal(t, created, s.CreatedAt)
}

func TestAnalysisResult_JSONShape(t *testing.T) {
	record := &AnalysisRecord{
		ID:                  uuid.New(),
		Barcode:             "123",
		RelevantIngredients: []RelevantIngredient{},
		NutritionFacts:      []NutritionFact{{Name: "Protein", Value: "6.3", Unit: "g"}},
		RequestedBy:         "user-1",
	}

	withWarnings, err := json.Marshal(AnalysisResult{
		AnalysisRecord:   record,
		AllergenWarnings: []AllergenWarning{{Allergen: "dairy", FoundIn: []string{"milk"}, Severity: "high"}},
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(withWarnings, &decoded))
	assert.Equal(t, "123", decoded["barcode"])
	assert.Contains(t, decoded, "allergen_warnings")
	assert.NotContains(t, decoded, "requested_by")
	assert.Equal(t, map[string]any{}, decoded["nutritional_insights"])

	facts := decoded["nutrition_facts"].([]any)
	fact := facts[0].(map[string]any)
	assert.Contains(t, fact, "daily_value")
	assert.Nil(t, fact["daily_value"])

	without, err := json.Marshal(AnalysisResult{AnalysisRecord: record})
	require.NoError(t, err)
	assert.NotContains(t, string(without), "allergen_warnings")

	noMatches, err := json.Marshal(AnalysisResult{AnalysisRecord: record, AllergenWarnings: []AllergenWarning{}})
	require.NoError(t, err)
	assert.Contains(t, string(noMatches), `"allergen_warnings":[]`)
}
