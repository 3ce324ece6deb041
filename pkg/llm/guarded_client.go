package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// GuardedClient routes calls through a CircuitBreaker. It makes at most one
// provider call per request.
type GuardedClient struct {
	inner   LLMClient
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewGuardedClient wraps inner with the breaker.
func NewGuardedClient(inner LLMClient, breaker *CircuitBreaker, logger *zap.Logger) *GuardedClient {
	return &GuardedClient{
		inner:   inner,
		breaker: breaker,
		logger:  logger.Named("llm-breaker"),
	}
}

// GenerateResponse implements LLMClient.
func (g *GuardedClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	return g.call(ctx, func() (*GenerateResponseResult, error) {
		return g.inner.GenerateResponse(ctx, prompt, systemMessage, temperature)
	})
}

// GenerateChat implements LLMClient.
func (g *GuardedClient) GenerateChat(ctx context.Context, systemMessage string, messages []Message, temperature float64) (*GenerateResponseResult, error) {
	return g.call(ctx, func() (*GenerateResponseResult, error) {
		return g.inner.GenerateChat(ctx, systemMessage, messages, temperature)
	})
}

func (g *GuardedClient) call(ctx context.Context, fn func() (*GenerateResponseResult, error)) (*GenerateResponseResult, error) {
	if err := g.breaker.Allow(); err != nil {
		g.logger.Warn("Generator call rejected",
			zap.String("circuit_state", g.breaker.State().String()),
			zap.Int("consecutive_failures", g.breaker.ConsecutiveFailures()))
		return nil, err
	}

	result, err := fn()
	if err != nil {
		// A caller that gave up says nothing about provider health.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, err
		}
		g.breaker.RecordFailure()
		if g.breaker.State() == CircuitOpen {
			g.logger.Error("Generator circuit open",
				zap.Int("consecutive_failures", g.breaker.ConsecutiveFailures()),
				zap.Error(err))
		}
		return nil, err
	}

	g.breaker.RecordSuccess()
	return result, nil
}

// GetModel implements LLMClient.
func (g *GuardedClient) GetModel() string {
	return g.inner.GetModel()
}

// GetEndpoint implements LLMClient.
func (g *GuardedClient) GetEndpoint() string {
	return g.inner.GetEndpoint()
}
