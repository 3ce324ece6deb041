package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/config"
	"github.com/nutridive/nutridive/pkg/llm"
	"github.com/nutridive/nutridive/pkg/logging"
	"github.com/nutridive/nutridive/pkg/metrics"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/nutrition"
	"github.com/nutridive/nutridive/pkg/openfoodfacts"
	"github.com/nutridive/nutridive/pkg/prompts"
	"github.com/nutridive/nutridive/pkg/repositories"
)

// Caller identifies who is asking and which allergens to check for.
// A zero Caller is an anonymous request without allergens.
type Caller struct {
	UserID    string
	Allergens []string
}

// Locker serializes work on a key across service instances.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// AnalysisService runs the cache-or-compute pipeline for barcodes.
type AnalysisService interface {
	// Analyze returns the stored analysis for barcode, computing and storing
	// it first when absent. Concurrent calls for one barcode share a single
	// computation.
	Analyze(ctx context.Context, barcode string, caller Caller) (*models.AnalysisResult, error)

	// GetCached returns the stored analysis without computing one.
	// Returns apperrors.ErrNotFound when the barcode has not been analyzed.
	GetCached(ctx context.Context, barcode string, allergens []string) (*models.AnalysisResult, error)

	// Delete removes an analysis by id.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListRecent returns history rows newest first. limit <= 0 selects the
	// configured default; larger values are capped. In user scope the rows
	// are the barcodes userID analyzed, ordered by their latest scan.
	ListRecent(ctx context.Context, limit int, userID string) ([]models.AnalysisSummary, error)
}

// AnalysisConfig tunes the pipeline.
type AnalysisConfig struct {
	Temperature  float64
	DefaultLimit int
	MaxLimit     int
	HistoryScope string
}

// AnalysisConfigFrom derives the pipeline settings from service configuration.
func AnalysisConfigFrom(cfg *config.Config) AnalysisConfig {
	return AnalysisConfig{
		Temperature:  cfg.LLM.Temperature,
		DefaultLimit: cfg.History.DefaultLimit,
		MaxLimit:     cfg.History.MaxLimit,
		HistoryScope: cfg.History.Scope,
	}
}

type analysisService struct {
	store      repositories.AnalysisStore
	source     openfoodfacts.ProductSource
	generator  llm.LLMClient
	locker     Locker
	normalizer *Normalizer
	metrics    *metrics.Metrics
	config     AnalysisConfig
	inflight   singleflight.Group
	logger     *zap.Logger
}

var _ AnalysisService = (*analysisService)(nil)

// NewAnalysisService wires the pipeline. locker may be nil, in which case
// de-duplication only spans this process.
func NewAnalysisService(
	store repositories.AnalysisStore,
	source openfoodfacts.ProductSource,
	generator llm.LLMClient,
	locker Locker,
	m *metrics.Metrics,
	cfg AnalysisConfig,
	logger *zap.Logger,
) AnalysisService {
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.HistoryScope == "" {
		cfg.HistoryScope = config.HistoryScopeGlobal
	}
	return &analysisService{
		store:      store,
		source:     source,
		generator:  generator,
		locker:     locker,
		normalizer: NewNormalizer(),
		metrics:    m,
		config:     cfg,
		logger:     logger.Named("analysis"),
	}
}

// pipelineResult carries the terminal state of one computation to every
// caller that joined it.
type pipelineResult struct {
	record  *models.AnalysisRecord
	outcome string
}

func (s *analysisService) Analyze(ctx context.Context, barcode string, caller Caller) (*models.AnalysisResult, error) {
	barcode, err := NormalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Get(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up analysis: %w", err)
	}
	if record != nil {
		s.metrics.Outcome(metrics.OutcomeCacheHit)
		s.recordScan(ctx, caller.UserID, barcode)
		return Augment(record, caller.Allergens), nil
	}

	// The computation outlives a caller that gives up, so joined callers
	// still get the result. External calls carry their own timeouts.
	leader := false
	ch := s.inflight.DoChan(barcode, func() (any, error) {
		leader = true
		return s.compute(context.WithoutCancel(ctx), barcode, caller.UserID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		result, _ := res.Val.(*pipelineResult)
		switch {
		case leader && result != nil:
			s.metrics.Outcome(result.outcome)
		case res.Err == nil:
			s.metrics.Outcome(metrics.OutcomeJoined)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		s.recordScan(ctx, caller.UserID, barcode)
		return Augment(result.record, caller.Allergens), nil
	}
}

// recordScan adds barcode to the user's history when history is per user.
// A failure here does not fail the analysis.
func (s *analysisService) recordScan(ctx context.Context, userID, barcode string) {
	if userID == "" || s.config.HistoryScope != config.HistoryScopeUser {
		return
	}
	if err := s.store.RecordScan(ctx, userID, barcode); err != nil {
		s.logger.Warn("Failed to record scan",
			zap.String("barcode", barcode),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// compute runs fetch, generate, normalize and store for an uncached barcode.
// The returned result is non-nil on every path so the outcome can be recorded.
func (s *analysisService) compute(ctx context.Context, barcode, requestedBy string) (*pipelineResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, barcode)
		if err != nil {
			return &pipelineResult{outcome: metrics.OutcomeStoreFailed}, fmt.Errorf("failed to acquire analysis lock: %w", err)
		}
		defer release()

		// Another instance may have finished while we waited.
		existing, err := s.store.Get(ctx, barcode)
		if err != nil {
			return &pipelineResult{outcome: metrics.OutcomeStoreFailed}, fmt.Errorf("failed to look up analysis: %w", err)
		}
		if existing != nil {
			return &pipelineResult{record: existing, outcome: metrics.OutcomeJoined}, nil
		}
	}

	product, err := s.source.FetchProduct(ctx, barcode)
	if err != nil {
		s.logger.Info("Product fetch failed", zap.String("barcode", barcode), zap.Error(err))
		return &pipelineResult{outcome: metrics.OutcomeFetchFailed}, err
	}

	prompt, err := prompts.BuildAnalysisPrompt(product.Snapshot(barcode), product.Ingredients)
	if err != nil {
		return &pipelineResult{outcome: metrics.OutcomeGenerationFailed}, fmt.Errorf("%w: %w", apperrors.ErrGeneration, err)
	}

	start := time.Now()
	response, err := s.generator.GenerateResponse(ctx, prompt, prompts.AnalysisSystemPrompt, s.config.Temperature)
	s.observeGenerator("analyze", start, err)
	if err != nil {
		s.logger.Error("Analysis generation failed",
			zap.String("barcode", barcode),
			zap.String("model", s.generator.GetModel()),
			zap.Error(err))
		return &pipelineResult{outcome: metrics.OutcomeGenerationFailed}, fmt.Errorf("%w: %w", apperrors.ErrGeneration, err)
	}

	record, err := s.normalizer.Normalize(response.Content, barcode, product)
	if err != nil {
		s.logger.Error("Generator returned malformed analysis",
			zap.String("barcode", barcode),
			zap.String("raw", logging.TruncateString(response.Content, logging.MaxRawLogLength)),
			zap.Error(err))
		return &pipelineResult{outcome: metrics.OutcomeParseFailed}, err
	}
	record.RequestedBy = requestedBy

	stored, created, err := s.store.Put(ctx, record)
	if err != nil {
		return &pipelineResult{outcome: metrics.OutcomeStoreFailed}, fmt.Errorf("failed to store analysis: %w", err)
	}

	outcome := metrics.OutcomeStored
	if !created {
		outcome = metrics.OutcomeJoined
	}
	s.logger.Info("Analysis stored",
		zap.String("barcode", barcode),
		zap.String("id", stored.ID.String()),
		zap.Bool("created", created),
		zap.Int("total_tokens", response.TotalTokens))

	return &pipelineResult{record: stored, outcome: outcome}, nil
}

func (s *analysisService) observeGenerator(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.GeneratorLatency.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

func (s *analysisService) GetCached(ctx context.Context, barcode string, allergens []string) (*models.AnalysisResult, error) {
	barcode, err := NormalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Get(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up analysis: %w", err)
	}
	if record == nil {
		return nil, apperrors.NotFoundf("no analysis stored for barcode %s", barcode)
	}
	return Augment(record, allergens), nil
}

func (s *analysisService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Analysis deleted", zap.String("id", id.String()))
	return nil
}

func (s *analysisService) ListRecent(ctx context.Context, limit int, userID string) ([]models.AnalysisSummary, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	scope := ""
	if s.config.HistoryScope == config.HistoryScopeUser {
		if userID == "" {
			return nil, fmt.Errorf("%w: history requires a signed-in user", apperrors.ErrUnauthorized)
		}
		scope = userID
	}

	summaries, err := s.store.List(ctx, limit, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return summaries, nil
}

// Augment attaches allergen warnings computed from the record's retained
// ingredient text. Warnings are nil when no allergens were given.
func Augment(record *models.AnalysisRecord, allergens []string) *models.AnalysisResult {
	result := &models.AnalysisResult{AnalysisRecord: record}
	if len(allergens) > 0 {
		result.AllergenWarnings = nutrition.MatchAllergens(record.RawProductData.Ingredients, allergens)
	}
	return result
}
