package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/jsonutil"
	"github.com/nutridive/nutridive/pkg/llm"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/nutrition"
)

// defaultScore is used when score_out_of_5 is missing or not a number.
const defaultScore = 3

// scoreGrades maps score_out_of_5 to the letter grade.
var scoreGrades = map[int]string{5: "A", 4: "B", 3: "C", 2: "D", 1: "E"}

// GradeForScore returns the letter grade for a 1-5 score. Out-of-range scores are C.
func GradeForScore(score int) string {
	if grade, ok := scoreGrades[score]; ok {
		return grade
	}
	return "C"
}

// Normalizer turns raw generator text into a canonical AnalysisRecord.
type Normalizer struct {
	now   func() time.Time
	newID func() uuid.UUID
}

// NewNormalizer creates a Normalizer using the wall clock and random ids.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now, newID: uuid.New}
}

// The generator* types mirror the requested JSON schema. Every scalar is
// flexible because models emit numbers and strings interchangeably.
type generatorSummary struct {
	Name       jsonutil.FlexibleString `json:"name"`
	Brand      jsonutil.FlexibleString `json:"brand"`
	Quantity   jsonutil.FlexibleString `json:"quantity"`
	Categories json.RawMessage         `json:"categories"`
}

type generatorRelevant struct {
	Name                   jsonutil.FlexibleString `json:"name"`
	EstimatedConcentration jsonutil.FlexibleString `json:"estimated_concentration"`
	HealthImpact           jsonutil.FlexibleString `json:"health_impact"`
	LongTermEffects        jsonutil.FlexibleString `json:"long_term_effects"`
}

type generatorShare struct {
	Name       jsonutil.FlexibleString `json:"name"`
	Percentage jsonutil.OptionalString `json:"percentage"`
}

type generatorMinority struct {
	Name                  jsonutil.FlexibleString `json:"name"`
	ReasonForAttention    jsonutil.FlexibleString `json:"reason_for_attention"`
	PotentialLongTermRisk jsonutil.FlexibleString `json:"potential_long_term_risk"`
}

type generatorInsights struct {
	OverallAssessment         jsonutil.FlexibleString `json:"overall_assessment"`
	WhoShouldLimitConsumption jsonutil.FlexibleString `json:"who_should_limit_consumption"`
	UsageRecommendation       jsonutil.FlexibleString `json:"usage_recommendation"`
}

type generatorNutriScore struct {
	ScoreOutOf5   json.RawMessage         `json:"score_out_of_5"`
	Grade         jsonutil.FlexibleString `json:"grade"`
	Justification jsonutil.FlexibleString `json:"justification"`
}

type generatorConfidence struct {
	ConfidencePercentage  jsonutil.FlexibleString `json:"confidence_percentage"`
	ConfidenceExplanation jsonutil.FlexibleString `json:"confidence_explanation"`
}

// Normalize parses raw and merges it with the locally computed fields.
// Text that is not a JSON object after fence stripping yields a
// *apperrors.MalformedResponseError, as does an object recovered from
// surrounding prose that carries none of the analysis sections. Individual sections that are missing or
// have the wrong shape fall back to empty values.
func (n *Normalizer) Normalize(raw, barcode string, product *models.ProductRecord) (*models.AnalysisRecord, error) {
	cleaned, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, &apperrors.MalformedResponseError{Raw: raw, Cause: err}
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &sections); err != nil {
		return nil, &apperrors.MalformedResponseError{Raw: raw, Cause: fmt.Errorf("expected a JSON object: %w", err)}
	}
	if sections == nil {
		return nil, &apperrors.MalformedResponseError{Raw: raw, Cause: errors.New("expected a JSON object, got null")}
	}
	// An object dug out of surrounding prose counts only if it looks like an
	// analysis; refusals often quote an example shape.
	if cleaned != llm.CleanResponse(raw) && !hasKnownSection(sections) {
		return nil, &apperrors.MalformedResponseError{Raw: raw, Cause: errors.New("no analysis sections in embedded JSON")}
	}

	snapshot := product.Snapshot(barcode)

	record := &models.AnalysisRecord{
		ID:                  n.newID(),
		Barcode:             barcode,
		ProductSummary:      normalizeSummary(sections["product_summary"], snapshot, nutrition.ClassifyProduct(product)),
		RelevantIngredients: normalizeRelevant(sections["relevant_ingredients"]),
		AllIngredients:      normalizeShares(sections["all_ingredients"]),
		MinorityIngredients: normalizeMinority(sections["minority_ingredients"]),
		NutritionalInsights: normalizeInsights(sections["nutritional_insights"]),
		NutriScore:          normalizeNutriScore(sections["nutriscore"]),
		ConfidenceMeter:     normalizeConfidence(sections["confidence_meter"]),
		NutritionFacts:      nutrition.ExtractNutritionFacts(product.Nutriments),
		RawProductData:      snapshot,
		CreatedAt:           n.now().UTC(),
	}
	return record, nil
}

var analysisSections = []string{
	"product_summary",
	"relevant_ingredients",
	"all_ingredients",
	"minority_ingredients",
	"nutritional_insights",
	"nutriscore",
	"confidence_meter",
}

func hasKnownSection(sections map[string]json.RawMessage) bool {
	for _, name := range analysisSections {
		if _, ok := sections[name]; ok {
			return true
		}
	}
	return false
}

// decodeSection unmarshals raw into v and reports success. Absent and null
// sections report false.
func decodeSection(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func normalizeSummary(raw json.RawMessage, snapshot models.RawProductData, foodType string) models.ProductSummary {
	summary := models.ProductSummary{
		Name:       snapshot.Name,
		Brand:      snapshot.Brand,
		Barcode:    snapshot.Barcode,
		Quantity:   snapshot.Quantity,
		Categories: snapshot.Categories,
		FoodType:   foodType,
	}

	var gen generatorSummary
	if !decodeSection(raw, &gen) {
		return summary
	}
	if v := strings.TrimSpace(gen.Name.String()); v != "" {
		summary.Name = v
	}
	if v := strings.TrimSpace(gen.Brand.String()); v != "" {
		summary.Brand = v
	}
	if v := strings.TrimSpace(gen.Quantity.String()); v != "" {
		summary.Quantity = v
	}
	if categories, ok := decodeCategories(gen.Categories); ok {
		summary.Categories = categories
	}
	return summary
}

// decodeCategories accepts a list of strings or a comma separated string.
func decodeCategories(raw json.RawMessage) ([]string, bool) {
	var list []jsonutil.FlexibleString
	if decodeSection(raw, &list) {
		out := make([]string, 0, len(list))
		for _, c := range list {
			if v := strings.TrimSpace(c.String()); v != "" {
				out = append(out, v)
			}
		}
		return out, len(out) > 0
	}

	var text string
	if decodeSection(raw, &text) {
		p := models.ProductRecord{Categories: text}
		out := p.CategoryList()
		return out, len(out) > 0
	}
	return nil, false
}

func normalizeRelevant(raw json.RawMessage) []models.RelevantIngredient {
	out := make([]models.RelevantIngredient, 0)
	var gen []generatorRelevant
	if !decodeSection(raw, &gen) {
		return out
	}
	for _, g := range gen {
		out = append(out, models.RelevantIngredient{
			Name:                   g.Name.String(),
			EstimatedConcentration: g.EstimatedConcentration.String(),
			HealthImpact:           g.HealthImpact.String(),
			LongTermEffects:        g.LongTermEffects.String(),
		})
	}
	return out
}

func normalizeShares(raw json.RawMessage) []models.IngredientShare {
	out := make([]models.IngredientShare, 0)
	var gen []generatorShare
	if !decodeSection(raw, &gen) {
		return out
	}
	for _, g := range gen {
		out = append(out, models.IngredientShare{
			Name:       g.Name.String(),
			Percentage: g.Percentage.Ptr(),
		})
	}
	return out
}

func normalizeMinority(raw json.RawMessage) []models.MinorityIngredient {
	out := make([]models.MinorityIngredient, 0)
	var gen []generatorMinority
	if !decodeSection(raw, &gen) {
		return out
	}
	for _, g := range gen {
		out = append(out, models.MinorityIngredient{
			Name:                  g.Name.String(),
			ReasonForAttention:    g.ReasonForAttention.String(),
			PotentialLongTermRisk: g.PotentialLongTermRisk.String(),
		})
	}
	return out
}

func normalizeInsights(raw json.RawMessage) models.NutritionalInsights {
	var gen generatorInsights
	if !decodeSection(raw, &gen) {
		return models.NutritionalInsights{}
	}
	return models.NutritionalInsights{
		OverallAssessment:         gen.OverallAssessment.String(),
		WhoShouldLimitConsumption: gen.WhoShouldLimitConsumption.String(),
		UsageRecommendation:       gen.UsageRecommendation.String(),
	}
}

func normalizeConfidence(raw json.RawMessage) models.ConfidenceMeter {
	var gen generatorConfidence
	if !decodeSection(raw, &gen) {
		return models.ConfidenceMeter{}
	}
	return models.ConfidenceMeter{
		ConfidencePercentage:  gen.ConfidencePercentage.String(),
		ConfidenceExplanation: gen.ConfidenceExplanation.String(),
	}
}

// normalizeNutriScore keeps a valid A-E grade from the generator and derives
// one from the score otherwise.
func normalizeNutriScore(raw json.RawMessage) models.NutriScore {
	var gen generatorNutriScore
	decodeSection(raw, &gen)

	score := models.NutriScore{
		ScoreOutOf5:   strings.TrimSpace(jsonutil.FlexibleStringValue(gen.ScoreOutOf5)),
		Grade:         strings.ToUpper(strings.TrimSpace(gen.Grade.String())),
		Justification: gen.Justification.String(),
	}
	if !isGrade(score.Grade) {
		score.Grade = GradeForScore(jsonutil.FlexibleIntValue(gen.ScoreOutOf5, defaultScore))
	}
	return score
}

func isGrade(grade string) bool {
	switch grade {
	case "A", "B", "C", "D", "E":
		return true
	}
	return false
}
