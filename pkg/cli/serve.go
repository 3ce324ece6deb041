package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/auth"
	"github.com/nutridive/nutridive/pkg/handlers"
	"github.com/nutridive/nutridive/pkg/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("Configuration loaded",
				zap.String("env", cfg.Env),
				zap.String("base_url", cfg.BaseURL),
				zap.Bool("auth_verification", cfg.Auth.EnableVerification),
				zap.String("storage", cfg.Storage),
				zap.String("history_scope", cfg.History.Scope))

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			validator, err := auth.NewValidator(&cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to create token validator: %w", err)
			}
			defer validator.Close()

			handler := a.routes(auth.NewMiddleware(validator, logger))
			return serve(ctx, cfg.ListenAddr(), handler, logger)
		},
	}
}

// routes registers every handler and wraps the mux in the middleware chain.
func (a *app) routes(authMiddleware *auth.Middleware) http.Handler {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(a.cfg, a.metrics.Gatherer(), a.logger).RegisterRoutes(mux)
	handlers.NewProductHandler(a.source, a.logger).RegisterRoutes(mux)
	handlers.NewAnalysisHandler(a.analysis, a.userSvc, a.logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewCompareHandler(a.comparison, a.userSvc, a.logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewChatHandler(a.chat, a.logger).RegisterRoutes(mux)
	handlers.NewUserHandler(a.userSvc, a.logger).RegisterRoutes(mux, authMiddleware)

	return middleware.Chain(mux,
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogger(a.logger.Named("http")),
		chimw.Recoverer,
		middleware.Metrics(a.metrics),
	)
}

// serve runs the server until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting nutridive", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
