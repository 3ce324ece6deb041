package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/llm"
	"github.com/nutridive/nutridive/pkg/models"
)

const (
	minCompareProducts = 2
	maxCompareProducts = 3
)

// ComparisonService analyzes a small set of products side by side.
type ComparisonService interface {
	// Compare analyzes 2 or 3 barcodes and returns the results in request order.
	// Any failed item fails the whole comparison.
	Compare(ctx context.Context, barcodes []string, caller Caller) ([]*models.AnalysisResult, error)
}

type comparisonService struct {
	analysis AnalysisService
	pool     *llm.WorkerPool
	logger   *zap.Logger
}

var _ ComparisonService = (*comparisonService)(nil)

// NewComparisonService creates a comparison service whose items run on pool.
func NewComparisonService(analysis AnalysisService, pool *llm.WorkerPool, logger *zap.Logger) ComparisonService {
	return &comparisonService{
		analysis: analysis,
		pool:     pool,
		logger:   logger.Named("comparison"),
	}
}

func (s *comparisonService) Compare(ctx context.Context, barcodes []string, caller Caller) ([]*models.AnalysisResult, error) {
	if len(barcodes) < minCompareProducts || len(barcodes) > maxCompareProducts {
		return nil, apperrors.Validationf("provide %d-%d barcodes to compare", minCompareProducts, maxCompareProducts)
	}

	normalized := make([]string, len(barcodes))
	for i, b := range barcodes {
		barcode, err := NormalizeBarcode(b)
		if err != nil {
			return nil, err
		}
		normalized[i] = barcode
	}

	items := make([]llm.WorkItem[*models.AnalysisResult], len(normalized))
	for i, barcode := range normalized {
		items[i] = llm.WorkItem[*models.AnalysisResult]{
			ID: barcode,
			Execute: func(ctx context.Context) (*models.AnalysisResult, error) {
				return s.analysis.Analyze(ctx, barcode, caller)
			},
		}
	}

	results := llm.Process(ctx, s.pool, items, nil)

	out := make([]*models.AnalysisResult, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			s.logger.Info("Comparison item failed", zap.String("barcode", r.ID), zap.Error(r.Err))
			if errors.Is(r.Err, apperrors.ErrNotFound) {
				return nil, apperrors.NotFoundf("could not analyze product %s", r.ID)
			}
			return nil, fmt.Errorf("failed to analyze product %s: %w", r.ID, r.Err)
		}
		out = append(out, r.Result)
	}
	return out, nil
}
