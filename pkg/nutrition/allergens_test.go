package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutridive/nutridive/pkg/models"
)

func TestMatchAllergens_DairyOnly(t *testing.T) {
	warnings := MatchAllergens("milk, whey, sugar", []string{"dairy", "nuts"})

	require.Len(t, warnings, 1)
	assert.Equal(t, models.AllergenWarning{
		Allergen: "dairy",
		FoundIn:  []string{"milk"},
		Severity: SeverityHigh,
	}, warnings[0])
}

func TestMatchAllergens_FollowsDeclaredOrder(t *testing.T) {
	warnings := MatchAllergens("Wheat flour, SOY lecithin, hazelnuts", []string{"soy", "Gluten", "nuts"})

	require.Len(t, warnings, 3)
	assert.Equal(t, "soy", warnings[0].Allergen)
	assert.Equal(t, []string{"soy"}, warnings[0].FoundIn)
	assert.Equal(t, "Gluten", warnings[1].Allergen, "the caller's spelling is echoed")
	assert.Equal(t, []string{"wheat"}, warnings[1].FoundIn)
	assert.Equal(t, "nuts", warnings[2].Allergen)
	assert.Equal(t, []string{"nut"}, warnings[2].FoundIn)
}

func TestMatchAllergens_UnknownAndDuplicateCategories(t *testing.T) {
	warnings := MatchAllergens("shrimp, crab", []string{"sesame", "shellfish", " SHELLFISH "})

	require.Len(t, warnings, 1)
	assert.Equal(t, "shellfish", warnings[0].Allergen)
	assert.Equal(t, []string{"shrimp"}, warnings[0].FoundIn)
}

func TestMatchAllergens_NoInput(t *testing.T) {
	assert.Empty(t, MatchAllergens("", []string{"dairy"}))
	assert.Empty(t, MatchAllergens("milk", nil))
	assert.NotNil(t, MatchAllergens("milk", nil))
}

func TestIsKnownAllergen(t *testing.T) {
	for _, a := range KnownAllergens() {
		assert.True(t, IsKnownAllergen(a), a)
	}
	assert.True(t, IsKnownAllergen(" Dairy "))
	assert.False(t, IsKnownAllergen("sesame"))
}
