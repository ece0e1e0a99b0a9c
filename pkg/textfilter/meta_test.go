package textfilter

import (
	"testing"
)

func TestMetaFilter_Clean(t *testing.T) {
	filter := NewMetaFilter()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips trailing json block",
			input:    "The goblin falls.\n\n```json\n{\"gold\": 12}\n```",
			expected: "The goblin falls.",
		},
		{
			name:     "strips intro line and block",
			input:    "You open the chest.\n\nHere is your updated state:\n```json\n{\"gold\": 12}\n```\n",
			expected: "You open the chest.",
		},
		{
			name:     "strips portuguese intro line",
			input:    "Você abre o baú.\nAqui está o estado atualizado:\n```json\n{}\n```",
			expected: "Você abre o baú.",
		},
		{
			name:     "strips label lines",
			input:    "The door creaks.\n\n(Updated state)\n\nEstado atualizado:\n",
			expected: "The door creaks.",
		},
		{
			name:     "keeps untagged fences",
			input:    "The bard sings:\n```\nOh the road is long\n```",
			expected: "The bard sings:\n```\nOh the road is long\n```",
		},
		{
			name:     "keeps story lines mentioning state",
			input:    "Here is the state of the kingdom: ruined.\nThe king is dead.",
			expected: "Here is the state of the kingdom: ruined.\nThe king is dead.",
		},
		{
			name:     "collapses blank runs",
			input:    "One.\n\n\n\n\nTwo.",
			expected: "One.\n\nTwo.",
		},
		{
			name:     "strips every json block",
			input:    "A\n```json\n{}\n```\nB\n```JSON\n{}\n```",
			expected: "A\n\nB",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMetaFilter_ContainsMeta(t *testing.T) {
	filter := NewMetaFilter()

	if !filter.ContainsMeta("text\n```json\n{}\n```") {
		t.Error("expected json block to be detected")
	}
	if !filter.ContainsMeta("Updated stats:") {
		t.Error("expected label line to be detected")
	}
	if filter.ContainsMeta("Just a story.") {
		t.Error("expected plain story to pass")
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Inteligência":                "inteligencia",
		"CONSTITUIÇÃO":                "constituicao",
		"Força":                       "forca",
		"Recuperação de Vida Extrema": "recuperacao de vida extrema",
		"plain":                       "plain",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("cajado de carvalho", "staff", "cajado") {
		t.Error("expected match")
	}
	if ContainsAny("espada", "arco", "adaga") {
		t.Error("expected no match")
	}
}
