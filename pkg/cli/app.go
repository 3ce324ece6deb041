package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nutridive/nutridive/migrations"
	"github.com/nutridive/nutridive/pkg/cache"
	"github.com/nutridive/nutridive/pkg/config"
	"github.com/nutridive/nutridive/pkg/database"
	"github.com/nutridive/nutridive/pkg/llm"
	"github.com/nutridive/nutridive/pkg/logging"
	"github.com/nutridive/nutridive/pkg/metrics"
	"github.com/nutridive/nutridive/pkg/openfoodfacts"
	"github.com/nutridive/nutridive/pkg/repositories"
	"github.com/nutridive/nutridive/pkg/services"
)

// app holds the process-wide dependencies. Everything opened in newApp is
// released by Close.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	db    *database.DB
	redis *redis.Client

	store  repositories.AnalysisStore
	users  repositories.UserRepository
	source openfoodfacts.ProductSource

	analysis   services.AnalysisService
	comparison services.ComparisonService
	chat       services.ChatService
	userSvc    services.UserService
}

// newApp connects storage and builds the services.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(cfg.Metrics.Namespace),
	}

	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.redis = redisClient

	var locker services.Locker
	if a.redis != nil {
		locker = database.NewRedisLocker(a.redis, cfg.Redis.LockTTL, logger)
		logger.Info("Cross-instance analysis lock enabled", zap.String("redis", cfg.Redis.Addr()))
	}

	generator, err := llm.NewGeneratorClient(&llm.Config{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.LLM.Timeout,
	}, llm.CircuitBreakerConfig{
		Threshold:  cfg.LLM.BreakerThreshold,
		ResetAfter: cfg.LLM.BreakerResetAfter,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create generator client: %w", err)
	}

	a.source = openfoodfacts.NewClient(openfoodfacts.Config{
		BaseURL:   cfg.ProductSource.BaseURL,
		Timeout:   cfg.ProductSource.Timeout,
		UserAgent: cfg.ProductSource.UserAgent,
	}, logger)

	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.LLM.MaxConcurrent}, logger)

	a.userSvc = services.NewUserService(a.users, logger)
	a.analysis = services.NewAnalysisService(a.store, a.source, generator, locker, a.metrics, services.AnalysisConfigFrom(cfg), logger)
	a.comparison = services.NewComparisonService(a.analysis, pool, logger)
	a.chat = services.NewChatService(a.store, generator, a.metrics, cfg.LLM.ChatTemperature, logger)

	logger.Info("Services ready",
		zap.String("storage", cfg.Storage),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", generator.GetModel()),
		zap.String("llm_endpoint", generator.GetEndpoint()),
		zap.Int("max_concurrent", pool.MaxConcurrent()))
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("Using in-memory storage; analyses are lost on restart")
		a.store = repositories.NewMemoryAnalysisStore()
		a.users = repositories.NewMemoryUserRepository()
		return nil
	}

	db, err := connectDatabase(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.db = db

	if err := database.RunMigrations(db, migrations.FS, a.logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.store = cache.New(repositories.NewAnalysisRepository(db), a.cfg.Cache.LRUSize, a.cfg.Cache.TTL, a.metrics)
	a.users = repositories.NewUserRepository(db)
	return nil
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	dbCfg := database.ConfigFrom(&cfg.Database)
	logger.Info("Connecting to database", zap.String("url", logging.SanitizeConnectionString(dbCfg.URL)))

	db, err := database.Connect(ctx, dbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Close releases connections. Safe on a partially built app.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
