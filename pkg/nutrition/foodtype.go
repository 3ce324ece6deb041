// Package nutrition holds the deterministic product analyzers: food-type
// classification, nutrition fact extraction and allergen matching.
//
// All three are keyword or table driven, never fail, and degrade to safe
// defaults. Substring matching over-matches and under-matches by nature
// ("nut" hits "nutmeg", "egg" hits "eggplant").
package nutrition

import (
	"strings"

	"github.com/nutridive/nutridive/pkg/models"
)

// nonVegKeywords are checked first; any hit wins over egg keywords.
var nonVegKeywords = []string{
	"meat", "chicken", "beef", "pork", "fish", "seafood", "mutton", "lamb",
	"bacon", "ham", "turkey", "duck", "gelatin", "lard", "anchovies",
}

var eggKeywords = []string{
	"egg", "eggs", "albumin", "lysozyme", "mayonnaise", "meringue",
}

// ClassifyFoodType returns veg, non-veg or egg for the combined product text.
// Ambiguous or empty input is veg.
func ClassifyFoodType(text string) string {
	combined := strings.ToLower(text)

	for _, keyword := range nonVegKeywords {
		if strings.Contains(combined, keyword) {
			return models.FoodTypeNonVeg
		}
	}

	for _, keyword := range eggKeywords {
		if strings.Contains(combined, keyword) {
			return models.FoodTypeEgg
		}
	}

	// Explicit vegan/vegetarian labels and the default land on the same answer.
	if strings.Contains(combined, "vegan") || strings.Contains(combined, "vegetarian") {
		return models.FoodTypeVeg
	}
	return models.FoodTypeVeg
}

// ClassifyProduct classifies a product from its ingredients, categories and labels.
func ClassifyProduct(p *models.ProductRecord) string {
	if p == nil {
		return models.FoodTypeVeg
	}
	return ClassifyFoodType(p.ClassificationText())
}
