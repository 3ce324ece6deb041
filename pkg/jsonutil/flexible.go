// Package jsonutil decodes scalar values from loosely-typed JSON produced by
// language models, which routinely emit numbers where strings were requested
// and the reverse.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleIntValue coerces a scalar to an integer. Strings are trimmed and
// parsed; fractional values are truncated toward zero. Anything else, including
// null, returns fallback.
func FlexibleIntValue(raw json.RawMessage, fallback int) int {
	s := strings.TrimSpace(FlexibleStringValue(raw))
	if s == "" {
		return fallback
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return int(f)
}

// FlexibleString is a string field that also accepts JSON numbers and booleans.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	*s = FlexibleString(FlexibleStringValue(data))
	return nil
}

// String returns the plain string value.
func (s FlexibleString) String() string {
	return string(s)
}

// OptionalString is a FlexibleString that remembers whether the value was null
// or absent.
type OptionalString struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *OptionalString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = OptionalString{}
		return nil
	}
	*s = OptionalString{Value: FlexibleStringValue(data), Valid: true}
	return nil
}

// Ptr returns nil for a null value, otherwise a pointer to the string.
func (s OptionalString) Ptr() *string {
	if !s.Valid {
		return nil
	}
	v := s.Value
	return &v
}
