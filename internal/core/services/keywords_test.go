package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"question", "What is the term of the confidentiality agreement?", []string{"term", "confidentiality", "agreement"}},
		{"short tokens dropped", "an NDA is ok", []string{"nda"}},
		{"duplicates keep first position", "Term, TERM and term-sheet", []string{"term", "sheet"}},
		{"punctuation splits", "non-disclosure/obligations", []string{"non", "disclosure", "obligations"}},
		{"digits kept", "expires 2026", []string{"expires", "2026"}},
		{"all stop words", "what does this have", []string{}},
		{"empty", "", []string{}},
		{"unicode", "Geheimhaltung Vertrag", []string{"geheimhaltung", "vertrag"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.query))
		})
	}
}

func TestExtractKeywords_Deterministic(t *testing.T) {
	q := "governing law jurisdiction governing courts"
	assert.Equal(t, ExtractKeywords(q), ExtractKeywords(q))
}
