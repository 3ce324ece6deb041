// Package prompts holds the fixed system prompts and the builders that turn
// product data and stored analyses into generator input.
package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/nutridive/nutridive/pkg/models"
)

// AnalysisSystemPrompt instructs the generator to return the analysis JSON document.
const AnalysisSystemPrompt = `You are a Food Product Ingredient & Health Impact Analyst AI.

IMPORTANT RULES:
1. ALL output text MUST be in ENGLISH only, regardless of input language
2. Translate any non-English product names, ingredients, or descriptions to English
3. Follow strict JSON output format
4. Do NOT give medical advice or exaggerate risks
5. Use neutral, scientific tone

NutriScore Mapping (CRITICAL):
- Grade A = 5/5 (Excellent nutritional quality)
- Grade B = 4/5 (Good nutritional quality)
- Grade C = 3/5 (Average nutritional quality)
- Grade D = 2/5 (Poor nutritional quality)
- Grade E = 1/5 (Bad nutritional quality)

Determine the grade based on: sugar content, saturated fat, sodium, calories, fiber, protein, fruits/vegetables content.

Output Format (STRICT JSON):
{
  "product_summary": {
    "name": "Product name in English",
    "brand": "Brand name",
    "barcode": "barcode",
    "quantity": "quantity",
    "categories": ["category1", "category2"],
    "food_type": "veg|non-veg|egg"
  },
  "relevant_ingredients": [
    {
      "name": "Ingredient in English",
      "estimated_concentration": "X%",
      "health_impact": "Impact description in English",
      "long_term_effects": "Effects description in English"
    }
  ],
  "all_ingredients": [
    {"name": "Ingredient 1 in English", "percentage": "X%"},
    {"name": "Ingredient 2 in English", "percentage": null}
  ],
  "minority_ingredients": [
    {
      "name": "Ingredient in English",
      "reason_for_attention": "Reason in English",
      "potential_long_term_risk": "Risk in English"
    }
  ],
  "nutritional_insights": {
    "overall_assessment": "Assessment in English",
    "who_should_limit_consumption": "Groups in English",
    "usage_recommendation": "Recommendation in English"
  },
  "nutriscore": {
    "score_out_of_5": "5|4|3|2|1",
    "grade": "A|B|C|D|E",
    "justification": "Justification in English"
  },
  "confidence_meter": {
    "confidence_percentage": "X%",
    "confidence_explanation": "Explanation in English"
  }
}`

// analysisPayload is the product description sent to the generator.
type analysisPayload struct {
	models.RawProductData
	IngredientsList []json.RawMessage `json:"ingredients_list"`
}

// BuildAnalysisPrompt renders the user message for an analysis request.
// The structured ingredient list from the source is included when present.
func BuildAnalysisPrompt(product models.RawProductData, ingredients []json.RawMessage) (string, error) {
	if ingredients == nil {
		ingredients = []json.RawMessage{}
	}
	body, err := json.MarshalIndent(analysisPayload{RawProductData: product, IngredientsList: ingredients}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode product payload: %w", err)
	}
	return "Analyze this food product (respond in ENGLISH only):\n\n" + string(body), nil
}
