package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nutridive/nutridive/pkg/models"
)

// ChatSystemPrompt restricts follow-up answers to the stored analysis.
const ChatSystemPrompt = `You are a conversational food-analysis assistant.
Answer user questions ONLY using the previously analyzed product data.
ALWAYS respond in ENGLISH regardless of the question language.
If information is missing, clearly say so.
Be helpful, accurate, and concise.`

const notAvailable = "N/A"

// BuildChatSystemPrompt appends the product context block to ChatSystemPrompt.
func BuildChatSystemPrompt(record *models.AnalysisRecord) (string, error) {
	contextBlock, err := BuildChatContext(record)
	if err != nil {
		return "", err
	}
	return ChatSystemPrompt + "\n\nContext:\n" + contextBlock, nil
}

// BuildChatContext summarizes a stored analysis for the chat model and
// embeds the full record as JSON.
func BuildChatContext(record *models.AnalysisRecord) (string, error) {
	full, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis: %w", err)
	}

	keyIngredients := make([]string, 0, len(record.RelevantIngredients))
	for _, ing := range record.RelevantIngredients {
		keyIngredients = append(keyIngredients, ing.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", valueOr(record.ProductSummary.Name, models.UnknownValue))
	fmt.Fprintf(&b, "Brand: %s\n", valueOr(record.ProductSummary.Brand, models.UnknownValue))
	fmt.Fprintf(&b, "Key Ingredients: %s\n", strings.Join(keyIngredients, ", "))
	fmt.Fprintf(&b, "NutriScore: %s (%s/5)\n",
		valueOr(record.NutriScore.Grade, notAvailable),
		valueOr(record.NutriScore.ScoreOutOf5, notAvailable))
	fmt.Fprintf(&b, "Assessment: %s\n", valueOr(record.NutritionalInsights.OverallAssessment, notAvailable))
	fmt.Fprintf(&b, "Full Data: %s", full)
	return b.String(), nil
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
