package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/llm"
	"github.com/nutridive/nutridive/pkg/metrics"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/prompts"
	"github.com/nutridive/nutridive/pkg/repositories"
)

// ChatService answers follow-up questions about an analyzed product.
type ChatService interface {
	// Ask answers message using the stored analysis for barcode as context.
	// It never triggers an analysis.
	Ask(ctx context.Context, barcode, message string, history []models.ChatMessage) (string, error)
}

type chatService struct {
	store       repositories.AnalysisStore
	generator   llm.LLMClient
	metrics     *metrics.Metrics
	temperature float64
	logger      *zap.Logger
}

var _ ChatService = (*chatService)(nil)

// NewChatService creates a chat service answering at the given temperature.
func NewChatService(
	store repositories.AnalysisStore,
	generator llm.LLMClient,
	m *metrics.Metrics,
	temperature float64,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		store:       store,
		generator:   generator,
		metrics:     m,
		temperature: temperature,
		logger:      logger.Named("chat"),
	}
}

func (s *chatService) Ask(ctx context.Context, barcode, message string, history []models.ChatMessage) (string, error) {
	barcode, err := NormalizeBarcode(barcode)
	if err != nil {
		return "", err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.Validationf("message is required")
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for i, turn := range history {
		if turn.Role != models.ChatRoleUser && turn.Role != models.ChatRoleAssistant {
			return "", apperrors.Validationf("history[%d]: role must be %q or %q", i, models.ChatRoleUser, models.ChatRoleAssistant)
		}
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	record, err := s.store.Get(ctx, barcode)
	if err != nil {
		return "", fmt.Errorf("failed to look up analysis: %w", err)
	}
	if record == nil {
		return "", apperrors.NotFoundf("product %s not analyzed yet", barcode)
	}

	system, err := prompts.BuildChatSystemPrompt(record)
	if err != nil {
		return "", fmt.Errorf("failed to build chat context: %w", err)
	}

	start := time.Now()
	response, err := s.generator.GenerateChat(ctx, system, messages, s.temperature)
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.GeneratorLatency.WithLabelValues("chat", result).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Chat generation failed", zap.String("barcode", barcode), zap.Error(err))
		return "", fmt.Errorf("%w: %w", apperrors.ErrGeneration, err)
	}

	return response.Content, nil
}
