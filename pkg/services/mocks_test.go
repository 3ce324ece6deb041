package services

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/llm"
	"github.com/nutridive/nutridive/pkg/metrics"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/repositories"
)

// mockProductSource is a configurable ProductSource.
type mockProductSource struct {
	FetchFunc func(ctx context.Context, barcode string) (*models.ProductRecord, error)
	calls     atomic.Int64
}

func (m *mockProductSource) FetchProduct(ctx context.Context, barcode string) (*models.ProductRecord, error) {
	m.calls.Add(1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, barcode)
	}
	return nil, apperrors.NotFoundf("product %s not found", barcode)
}

// staticSource returns a copy of product for any barcode.
func staticSource(product models.ProductRecord) *mockProductSource {
	return &mockProductSource{
		FetchFunc: func(_ context.Context, barcode string) (*models.ProductRecord, error) {
			p := product
			p.Barcode = barcode
			return &p, nil
		},
	}
}

// mockLocker records acquisitions.
type mockLocker struct {
	acquired atomic.Int64
	released atomic.Int64
	err      error
	onLock   func()
}

func (m *mockLocker) Acquire(_ context.Context, _ string) (func(), error) {
	if m.err != nil {
		return nil, m.err
	}
	m.acquired.Add(1)
	if m.onLock != nil {
		m.onLock()
	}
	return func() { m.released.Add(1) }, nil
}

func chocolateSpread() models.ProductRecord {
	return models.ProductRecord{
		Name:            "Hazelnut Spread",
		Brand:           "Acme",
		Quantity:        "400 g",
		IngredientsText: "Sugar, palm oil, hazelnuts 13%, skimmed milk powder 8.7%, soy lecithin",
		Ingredients:     []json.RawMessage{json.RawMessage(`{"id":"en:sugar","text":"Sugar"}`)},
		Nutriments: map[string]any{
			"energy-kcal_100g": 539.456,
			"proteins_100g":    6.3,
		},
		Categories:      "Spreads, Sweet spreads",
		NutriscoreGrade: "e",
		NovaGroup:       json.RawMessage(`4`),
	}
}

const generatorAnalysis = "```json\n" + `{
  "product_summary": {"name": "Hazelnut Spread", "brand": "Acme", "barcode": "0000", "quantity": "400 g",
    "categories": ["Spreads"], "food_type": "non-veg"},
  "relevant_ingredients": [{"name": "Sugar", "estimated_concentration": "56%", "health_impact": "High",
    "long_term_effects": "Weight gain"}],
  "all_ingredients": [{"name": "Sugar", "percentage": null}, {"name": "Hazelnuts", "percentage": 13}],
  "minority_ingredients": [{"name": "Soy lecithin", "reason_for_attention": "Emulsifier",
    "potential_long_term_risk": "Low"}],
  "nutritional_insights": {"overall_assessment": "Occasional treat", "who_should_limit_consumption": "Diabetics",
    "usage_recommendation": "Small portions"},
  "nutriscore": {"score_out_of_5": "4", "justification": "High sugar"},
  "confidence_meter": {"confidence_percentage": 85, "confidence_explanation": "Full label"}
}` + "\n```"

type analysisFixture struct {
	store     *repositories.MemoryAnalysisStore
	source    *mockProductSource
	generator *llm.MockLLMClient
	metrics   *metrics.Metrics
	service   AnalysisService
}

func newAnalysisFixture(t *testing.T, source *mockProductSource, generator *llm.MockLLMClient, locker Locker) *analysisFixture {
	t.Helper()
	f := &analysisFixture{
		store:     repositories.NewMemoryAnalysisStore(),
		source:    source,
		generator: generator,
		metrics:   metrics.New("test"),
	}
	f.service = NewAnalysisService(f.store, source, generator, locker, f.metrics, AnalysisConfig{
		Temperature:  0.2,
		DefaultLimit: 50,
		MaxLimit:     200,
	}, zaptest.NewLogger(t))
	return f
}
