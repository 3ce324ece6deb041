package models

import (
	"time"

	"github.com/google/uuid"
)

// Food type classifications.
const (
	FoodTypeVeg    = "veg"
	FoodTypeNonVeg = "non-veg"
	FoodTypeEgg    = "egg"
)

// AnalysisRecord is the canonical, persisted assessment for one barcode.
// Stored in the analyses table; exactly one row exists per barcode.
type AnalysisRecord struct {
	ID                  uuid.UUID            `json:"id"`
	Barcode             string               `json:"barcode"`
	ProductSummary      ProductSummary       `json:"product_summary"`
	RelevantIngredients []RelevantIngredient `json:"relevant_ingredients"`
	AllIngredients      []IngredientShare    `json:"all_ingredients"`
	MinorityIngredients []MinorityIngredient `json:"minority_ingredients"`
	NutritionalInsights NutritionalInsights  `json:"nutritional_insights"`
	NutriScore          NutriScore           `json:"nutriscore"`
	ConfidenceMeter     ConfidenceMeter      `json:"confidence_meter"`
	NutritionFacts      []NutritionFact      `json:"nutrition_facts"`
	RawProductData      RawProductData       `json:"raw_product_data"`

	// RequestedBy is the user that triggered the first analysis, empty for anonymous callers.
	RequestedBy string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductSummary describes the product. FoodType is always computed locally.
type ProductSummary struct {
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	Barcode    string   `json:"barcode"`
	Quantity   string   `json:"quantity"`
	Categories []string `json:"categories"`
	FoodType   string   `json:"food_type"`
}

type RelevantIngredient struct {
	Name                   string `json:"name"`
	EstimatedConcentration string `json:"estimated_concentration"`
	HealthImpact           string `json:"health_impact"`
	LongTermEffects        string `json:"long_term_effects"`
}

// IngredientShare is one entry of the full ingredient list. Percentage is nil when unknown.
type IngredientShare struct {
	Name       string  `json:"name"`
	Percentage *string `json:"percentage"`
}

type MinorityIngredient struct {
	Name                  string `json:"name"`
	ReasonForAttention    string `json:"reason_for_attention"`
	PotentialLongTermRisk string `json:"potential_long_term_risk"`
}

// NutritionalInsights serializes as {} when the generator omitted the section.
type NutritionalInsights struct {
	OverallAssessment         string `json:"overall_assessment,omitempty"`
	WhoShouldLimitConsumption string `json:"who_should_limit_consumption,omitempty"`
	UsageRecommendation       string `json:"usage_recommendation,omitempty"`
}

// NutriScore holds the 1-5 score and its letter grade. Grade is never empty
// on a stored record.
type NutriScore struct {
	ScoreOutOf5   string `json:"score_out_of_5"`
	Grade         string `json:"grade"`
	Justification string `json:"justification"`
}

// ConfidenceMeter serializes as {} when the generator omitted the section.
type ConfidenceMeter struct {
	ConfidencePercentage  string `json:"confidence_percentage,omitempty"`
	ConfidenceExplanation string `json:"confidence_explanation,omitempty"`
}

// NutritionFact is one display row extracted from the raw nutrient map.
// DailyValue is always nil: reference intakes are not computed.
type NutritionFact struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Unit       string  `json:"unit"`
	DailyValue *string `json:"daily_value"`
}

// AllergenWarning flags a declared allergen category found in the ingredients.
// Derived per request and never persisted.
type AllergenWarning struct {
	Allergen string   `json:"allergen"`
	FoundIn  []string `json:"found_in"`
	Severity string   `json:"severity"`
}

// AnalysisResult is a stored record augmented with the caller's allergen warnings.
// The embedded record is shared with the store and must not be mutated.
// A nil AllergenWarnings is omitted; an empty one means nothing matched.
type AnalysisResult struct {
	*AnalysisRecord
	AllergenWarnings []AllergenWarning `json:"allergen_warnings,omitzero"`
}

// AnalysisSummary is one row of the scan history listing.
type AnalysisSummary struct {
	ID          uuid.UUID `json:"id"`
	Barcode     string    `json:"barcode"`
	ProductName string    `json:"product_name"`
	Brand       string    `json:"brand"`
	NutriScore  string    `json:"nutriscore"`
	FoodType    string    `json:"food_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary projects the record onto its history row.
func (r *AnalysisRecord) Summary() AnalysisSummary {
	return AnalysisSummary{
		ID:          r.ID,
		Barcode:     r.Barcode,
		ProductName: orDefault(r.ProductSummary.Name, UnknownValue),
		Brand:       orDefault(r.ProductSummary.Brand, UnknownValue),
		NutriScore:  orDefault(r.NutriScore.Grade, "N/A"),
		FoodType:    orDefault(r.ProductSummary.FoodType, "unknown"),
		CreatedAt:   r.CreatedAt,
	}
}
