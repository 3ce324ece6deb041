package nutrition

import (
	"strings"

	"github.com/nutridive/nutridive/pkg/models"
)

// SeverityHigh is the only severity the keyword matcher emits.
const SeverityHigh = "high"

// allergenKeywords maps the recognized categories to keywords in scan order.
var allergenKeywords = map[string][]string{
	"nuts":      {"nut", "almond", "cashew", "walnut", "pecan", "pistachio", "hazelnut", "macadamia"},
	"dairy":     {"milk", "cream", "cheese", "butter", "lactose", "whey", "casein", "yogurt"},
	"gluten":    {"wheat", "gluten", "barley", "rye", "oat", "semolina", "spelt"},
	"soy":       {"soy", "soya", "lecithin"},
	"eggs":      {"egg", "albumin", "lysozyme"},
	"shellfish": {"shrimp", "crab", "lobster", "shellfish", "prawn", "crawfish"},
}

// KnownAllergens lists the recognized allergen categories.
func KnownAllergens() []string {
	return []string{"nuts", "dairy", "gluten", "soy", "eggs", "shellfish"}
}

// IsKnownAllergen reports whether the category is recognized, ignoring case.
func IsKnownAllergen(category string) bool {
	_, ok := allergenKeywords[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// MatchAllergens checks the user's declared categories against the ingredient
// text. Output follows the declared order with at most one warning per
// category, carrying the first keyword found. Unknown categories are skipped.
func MatchAllergens(ingredients string, declared []string) []models.AllergenWarning {
	warnings := make([]models.AllergenWarning, 0)
	text := strings.ToLower(ingredients)
	seen := make(map[string]bool, len(declared))

	for _, allergen := range declared {
		category := strings.ToLower(strings.TrimSpace(allergen))
		keywords, ok := allergenKeywords[category]
		if !ok || seen[category] {
			continue
		}
		seen[category] = true

		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				warnings = append(warnings, models.AllergenWarning{
					Allergen: allergen,
					FoundIn:  []string{keyword},
					Severity: SeverityHigh,
				})
				break
			}
		}
	}
	return warnings
}
