package llm

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockLLMClient is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests. Safe for concurrent use.
type MockLLMClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns an empty result and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GenerateChatFunc is called when GenerateChat is invoked.
	// If nil, returns an empty result and nil error.
	GenerateChatFunc func(ctx context.Context, systemMessage string, messages []Message, temperature float64) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// Call tracking for verification
	GenerateResponseCalls atomic.Int64
	GenerateChatCalls     atomic.Int64

	mu         sync.Mutex
	lastPrompt string
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// NewMockLLMClientWithResponse returns a mock whose GenerateResponse always yields content.
func NewMockLLMClientWithResponse(content string) *MockLLMClient {
	m := NewMockLLMClient()
	m.GenerateResponseFunc = func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
		return &GenerateResponseResult{Content: content}, nil
	}
	return m
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.GenerateResponseCalls.Add(1)
	m.mu.Lock()
	m.lastPrompt = prompt
	m.mu.Unlock()
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return &GenerateResponseResult{}, nil
}

// GenerateChat implements LLMClient.
func (m *MockLLMClient) GenerateChat(ctx context.Context, systemMessage string, messages []Message, temperature float64) (*GenerateResponseResult, error) {
	m.GenerateChatCalls.Add(1)
	if len(messages) > 0 {
		m.mu.Lock()
		m.lastPrompt = messages[len(messages)-1].Content
		m.mu.Unlock()
	}
	if m.GenerateChatFunc != nil {
		return m.GenerateChatFunc(ctx, systemMessage, messages, temperature)
	}
	return &GenerateResponseResult{}, nil
}

// LastPrompt returns the most recent user prompt seen by either method.
func (m *MockLLMClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements LLMClient.
func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Reset clears call tracking counters.
func (m *MockLLMClient) Reset() {
	m.GenerateResponseCalls.Store(0)
	m.GenerateChatCalls.Store(0)
	m.mu.Lock()
	m.lastPrompt = ""
	m.mu.Unlock()
}

// Ensure MockLLMClient implements LLMClient at compile time.
var _ LLMClient = (*MockLLMClient)(nil)
