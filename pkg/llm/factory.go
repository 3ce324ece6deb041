package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewProviderClient creates the client for cfg.Provider. An empty provider means OpenAI.
func NewProviderClient(cfg *Config, logger *zap.Logger) (LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return NewClient(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// NewGeneratorClient creates the provider client behind a circuit breaker.
func NewGeneratorClient(cfg *Config, breaker CircuitBreakerConfig, logger *zap.Logger) (LLMClient, error) {
	client, err := NewProviderClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}
	return NewGuardedClient(client, NewCircuitBreaker(breaker), logger), nil
}
