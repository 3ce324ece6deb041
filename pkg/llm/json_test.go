package llm

import (
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no fence", "  {\"a\": 1}  ", `{"a": 1}`},
		{"only leading fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"fence inside text untouched", `{"note": "use ``` here"}`, `{"note": "use ` + "```" + ` here"}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain object", `{"name": "test", "value": 123}`, `{"name": "test", "value": 123}`},
		{"plain array", `[{"item": 1}, {"item": 2}]`, `[{"item": 1}, {"item": 2}]`},
		{"nested", `{"items": [{"nested": {"array": [1, 2, 3]}}]}`, `{"items": [{"nested": {"array": [1, 2, 3]}}]}`},
		{"think tags", "<think>\nLet me analyze this.\n</think>\n{\"grade\": \"B\"}", `{"grade": "B"}`},
		{"fenced", "```json\n{\"grade\": \"B\"}\n```", `{"grade": "B"}`},
		{"text before", "Here is the JSON response:\n{\"name\": \"test\"}", `{"name": "test"}`},
		{"text after", "{\"name\": \"test\"}\nLet me know if you need anything else.", `{"name": "test"}`},
		{"brackets in strings", `{"message": "Use {braces} and [brackets]", "count": 1}`, `{"message": "Use {braces} and [brackets]", "count": 1}`},
		{"escaped quotes", `{"message": "He said \"hello\"", "valid": true}`, `{"message": "He said \"hello\"", "valid": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	for name, input := range map[string]string{
		"plain text": "This is just plain text with no JSON.",
		"unclosed":   `{"unclosed": "object"`,
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ExtractJSON(input); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"think then fence", "<think>hm</think>\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced null", "```json\nnull\n```", "null"},
		{"prose kept", "Sure: {}", "Sure: {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanResponse(tt.input); got != tt.want {
				t.Errorf("CleanResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}
