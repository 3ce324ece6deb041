package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/llm"
	"github.com/nutridive/nutridive/pkg/models"
)

func newComparisonFixture(t *testing.T, source *mockProductSource) (*analysisFixture, ComparisonService) {
	t.Helper()
	f := newAnalysisFixture(t, source, llm.NewMockLLMClientWithResponse(generatorAnalysis), nil)
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 2}, zaptest.NewLogger(t))
	return f, NewComparisonService(f.service, pool, zaptest.NewLogger(t))
}

func TestCompare_RejectsBadInputBeforeExternalCalls(t *testing.T) {
	tests := []struct {
		name     string
		barcodes []string
	}{
		{"none", nil},
		{"one", []string{"11111111"}},
		{"four", []string{"11111111", "22222222", "33333333", "44444444"}},
		{"blank entry", []string{"11111111", "  "}},
		{"non digit", []string{"11111111", "abc12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, service := newComparisonFixture(t, staticSource(chocolateSpread()))

			_, err := service.Compare(context.Background(), tt.barcodes, Caller{})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, int64(0), f.source.calls.Load())
			assert.Equal(t, int64(0), f.generator.GenerateResponseCalls.Load())
		})
	}
}

func TestCompare_PreservesRequestOrder(t *testing.T) {
	f, service := newComparisonFixture(t, staticSource(chocolateSpread()))
	barcodes := []string{"33333333", "11111111", "22222222"}

	results, err := service.Compare(context.Background(), barcodes, Caller{Allergens: []string{"dairy"}})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, barcode := range barcodes {
		assert.Equal(t, barcode, results[i].Barcode)
		require.Len(t, results[i].AllergenWarnings, 1)
	}
	assert.Equal(t, 3, f.store.Len())
}

func TestCompare_ItemNotFoundFailsComparison(t *testing.T) {
	source := &mockProductSource{
		FetchFunc: func(_ context.Context, barcode string) (*models.ProductRecord, error) {
			if barcode == "22222222" {
				return nil, apperrors.NotFoundf("product %s not found", barcode)
			}
			p := chocolateSpread()
			return &p, nil
		},
	}
	_, service := newComparisonFixture(t, source)

	_, err := service.Compare(context.Background(), []string{"11111111", "22222222"}, Caller{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "could not analyze product 22222222")
}

func TestCompare_GenerationFailureSurfaces(t *testing.T) {
	f := newAnalysisFixture(t, staticSource(chocolateSpread()), llm.NewMockLLMClientWithResponse("not json"), nil)
	pool := llm.NewWorkerPool(llm.DefaultWorkerPoolConfig(), zaptest.NewLogger(t))
	service := NewComparisonService(f.service, pool, zaptest.NewLogger(t))

	_, err := service.Compare(context.Background(), []string{"11111111", "22222222"}, Caller{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
