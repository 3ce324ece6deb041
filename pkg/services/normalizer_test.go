package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/models"
)

func fixedNormalizer() *Normalizer {
	id := uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-8091a2b3c4d5")
	return &Normalizer{
		now:   func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)) },
		newID: func() uuid.UUID { return id },
	}
}

func TestNormalize_FullResponse(t *testing.T) {
	product := chocolateSpread()

	rec, err := fixedNormalizer().Normalize(generatorAnalysis, "3017620422003", &product)
	require.NoError(t, err)

	assert.Equal(t, "6f1c2d3e-4a5b-4c6d-8e7f-8091a2b3c4d5", rec.ID.String())
	assert.Equal(t, "3017620422003", rec.Barcode)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), rec.CreatedAt)

	// The requested barcode wins over whatever the generator echoed back.
	assert.Equal(t, "3017620422003", rec.ProductSummary.Barcode)
	assert.Equal(t, []string{"Spreads"}, rec.ProductSummary.Categories)
	assert.Equal(t, models.FoodTypeVeg, rec.ProductSummary.FoodType)

	assert.Equal(t, "B", rec.NutriScore.Grade)
	assert.Equal(t, "4", rec.NutriScore.ScoreOutOf5)
	assert.Equal(t, "High sugar", rec.NutriScore.Justification)

	require.Len(t, rec.AllIngredients, 2)
	assert.Nil(t, rec.AllIngredients[0].Percentage)
	require.NotNil(t, rec.AllIngredients[1].Percentage)
	assert.Equal(t, "13", *rec.AllIngredients[1].Percentage)

	assert.Equal(t, "85", rec.ConfidenceMeter.ConfidencePercentage)
	assert.Equal(t, "Occasional treat", rec.NutritionalInsights.OverallAssessment)
	require.Len(t, rec.RelevantIngredients, 1)
	require.Len(t, rec.MinorityIngredients, 1)

	require.Len(t, rec.NutritionFacts, 2)
	assert.Equal(t, models.NutritionFact{Name: "Calories", Value: "539.46", Unit: "kcal"}, rec.NutritionFacts[0])
	assert.Equal(t, models.NutritionFact{Name: "Protein", Value: "6.3", Unit: "g"}, rec.NutritionFacts[1])

	assert.Equal(t, product.IngredientsText, rec.RawProductData.Ingredients)
	assert.Equal(t, "4", rec.RawProductData.NovaGroup)
}

func TestNormalize_GradeRepair(t *testing.T) {
	tests := []struct {
		name      string
		nutri     string
		wantGrade string
	}{
		{"string score", `{"score_out_of_5": "4"}`, "B"},
		{"numeric score", `{"score_out_of_5": 5}`, "A"},
		{"fractional score truncates", `{"score_out_of_5": 1.9}`, "E"},
		{"unparseable score", `{"score_out_of_5": "great"}`, "C"},
		{"out of range score", `{"score_out_of_5": 9}`, "C"},
		{"missing section", ``, "C"},
		{"valid grade kept", `{"score_out_of_5": 1, "grade": "a"}`, "A"},
		{"invalid grade repaired", `{"score_out_of_5": 2, "grade": "Z"}`, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{}`
			if tt.nutri != "" {
				raw = `{"nutriscore": ` + tt.nutri + `}`
			}
			product := chocolateSpread()
			rec, err := fixedNormalizer().Normalize(raw, "0000", &product)
			require.NoError(t, err)
			assert.Equal(t, tt.wantGrade, rec.NutriScore.Grade)
		})
	}
}

func TestNormalize_MissingSectionsDefaultEmpty(t *testing.T) {
	product := models.ProductRecord{IngredientsText: "chicken broth, salt"}

	rec, err := fixedNormalizer().Normalize(`{"product_summary": {"food_type": "veg"}}`, "12345678", &product)
	require.NoError(t, err)

	assert.Equal(t, models.FoodTypeNonVeg, rec.ProductSummary.FoodType)
	assert.Equal(t, models.UnknownValue, rec.ProductSummary.Name)
	assert.NotNil(t, rec.RelevantIngredients)
	assert.Empty(t, rec.RelevantIngredients)
	assert.NotNil(t, rec.AllIngredients)
	assert.NotNil(t, rec.MinorityIngredients)
	assert.NotNil(t, rec.NutritionFacts)
	assert.Empty(t, rec.NutritionFacts)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"nutritional_insights":{}`)
	assert.Contains(t, string(out), `"confidence_meter":{}`)
	assert.Contains(t, string(out), `"relevant_ingredients":[]`)
}

func TestNormalize_WrongShapedSectionsDefaultEmpty(t *testing.T) {
	raw := `{
		"relevant_ingredients": "none",
		"all_ingredients": {"name": "sugar"},
		"nutritional_insights": ["x"],
		"product_summary": {"categories": "Snacks, Chips"}
	}`
	product := chocolateSpread()

	rec, err := fixedNormalizer().Normalize(raw, "0000", &product)
	require.NoError(t, err)

	assert.Empty(t, rec.RelevantIngredients)
	assert.Empty(t, rec.AllIngredients)
	assert.Equal(t, models.NutritionalInsights{}, rec.NutritionalInsights)
	assert.Equal(t, []string{"Snacks", "Chips"}, rec.ProductSummary.Categories)
	assert.Equal(t, "Hazelnut Spread", rec.ProductSummary.Name)
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "I'm sorry, I cannot analyze this product."},
		{"truncated", "```json\n{\"product_summary\": {\"name\": \"x\"\n```"},
		{"array", `[{"name": "x"}]`},
		{"empty", ""},
		{"null", "null"},
		{"fenced null", "```json\nnull\n```"},
		{"refusal quoting an empty object", "I can't analyze this product. Example shape: {}"},
		{"refusal quoting an unrelated object", "Sorry, no. Expected input: {\"barcode\": \"123\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := chocolateSpread()
			_, err := fixedNormalizer().Normalize(tt.raw, "0000", &product)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)

			var malformed *apperrors.MalformedResponseError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.raw, malformed.Raw)
		})
	}
}

func TestNormalize_EmbeddedAnalysisAccepted(t *testing.T) {
	product := chocolateSpread()
	raw := "<think>checking</think>Here is the analysis:\n{\"nutriscore\": {\"grade\": \"d\"}}\nLet me know if you need more."

	rec, err := fixedNormalizer().Normalize(raw, "3017620422003", &product)
	require.NoError(t, err)
	assert.Equal(t, "D", rec.NutriScore.Grade)
}

func TestNormalize_WholeEmptyObjectAccepted(t *testing.T) {
	product := chocolateSpread()

	rec, err := fixedNormalizer().Normalize("```json\n{}\n```", "3017620422003", &product)
	require.NoError(t, err)
	assert.Equal(t, "C", rec.NutriScore.Grade)
	assert.Empty(t, rec.RelevantIngredients)
}

func TestGradeForScore(t *testing.T) {
	for score, grade := range map[int]string{5: "A", 4: "B", 3: "C", 2: "D", 1: "E", 0: "C", 6: "C", -1: "C"} {
		assert.Equal(t, grade, GradeForScore(score), "score %d", score)
	}
}
