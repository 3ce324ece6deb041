package models

import (
	"encoding/json"
	"strings"
)

// Placeholders used when the product source omits a field.
const (
	UnknownValue        = "Unknown"
	IngredientsNotFound = "Not available"
)

// ProductRecord holds the raw fields returned by the external product source.
// It lives for a single request; a trimmed copy survives as RawProductData.
type ProductRecord struct {
	Barcode         string            `json:"code"`
	Name            string            `json:"product_name"`
	Brand           string            `json:"brands"`
	Quantity        string            `json:"quantity"`
	IngredientsText string            `json:"ingredients_text"`
	Ingredients     []json.RawMessage `json:"ingredients,omitempty"`
	Nutriments      map[string]any    `json:"nutriments,omitempty"`
	Categories      string            `json:"categories"`
	Labels          string            `json:"labels"`
	NutriscoreGrade string            `json:"nutriscore_grade"`
	NovaGroup       json.RawMessage   `json:"nova_group,omitempty"`
}

// ClassificationText returns the case-folded text used for food-type detection:
// ingredients, categories and labels joined by spaces.
func (p *ProductRecord) ClassificationText() string {
	return strings.ToLower(p.IngredientsText + " " + p.Categories + " " + p.Labels)
}

// CategoryList splits the comma separated category text, dropping blanks.
func (p *ProductRecord) CategoryList() []string {
	categories := make([]string, 0)
	if p.Categories == "" {
		return categories
	}
	for _, c := range strings.Split(p.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return categories
}

// Snapshot builds the trimmed copy of the product kept on the analysis record.
// Missing descriptive fields fall back to placeholders.
func (p *ProductRecord) Snapshot(barcode string) RawProductData {
	return RawProductData{
		Name:            orDefault(p.Name, UnknownValue),
		Brand:           orDefault(p.Brand, UnknownValue),
		Barcode:         barcode,
		Quantity:        orDefault(p.Quantity, UnknownValue),
		Ingredients:     orDefault(p.IngredientsText, IngredientsNotFound),
		Nutriments:      p.Nutriments,
		Categories:      p.CategoryList(),
		Labels:          p.Labels,
		NutriscoreGrade: orDefault(p.NutriscoreGrade, UnknownValue),
		NovaGroup:       novaGroupString(p.NovaGroup),
	}
}

// RawProductData is the subset of a ProductRecord retained on an AnalysisRecord.
// Ingredients is re-read on every request to recompute allergen warnings.
type RawProductData struct {
	Name            string         `json:"name"`
	Brand           string         `json:"brand"`
	Barcode         string         `json:"barcode"`
	Quantity        string         `json:"quantity"`
	Ingredients     string         `json:"ingredients"`
	Nutriments      map[string]any `json:"nutriments,omitempty"`
	Categories      []string       `json:"categories"`
	Labels          string         `json:"labels,omitempty"`
	NutriscoreGrade string         `json:"nutriscore_grade"`
	NovaGroup       string         `json:"nova_group"`
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func novaGroupString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return UnknownValue
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return orDefault(s, UnknownValue)
	}
	return string(raw)
}
