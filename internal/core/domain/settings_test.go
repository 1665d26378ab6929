package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 0.4, s.Search.LexicalWeight)
	assert.Equal(t, 10, s.Search.MaxResults)
	assert.Equal(t, 50, s.Search.CandidateLimit)
	assert.Equal(t, 5*time.Second, s.Search.OracleTimeout)
	assert.Equal(t, 90, s.Expiration.NearThresholdDays)
	assert.Equal(t, 120*time.Second, s.Processing.FactTimeout)
	assert.Equal(t, 4, s.Processing.EmbedConcurrency)
	assert.Equal(t, 1000, s.Processing.ChunkSize)
	assert.Equal(t, 200, s.Processing.ChunkOverlap)
	assert.False(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())
	assert.NoError(t, s.Validate())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"weight above one", func(s *AppSettings) { s.Search.LexicalWeight = 1.5 }},
		{"negative weight", func(s *AppSettings) { s.Search.LexicalWeight = -0.1 }},
		{"zero max results", func(s *AppSettings) { s.Search.MaxResults = 0 }},
		{"zero candidate limit", func(s *AppSettings) { s.Search.CandidateLimit = 0 }},
		{"zero oracle timeout", func(s *AppSettings) { s.Search.OracleTimeout = 0 }},
		{"negative threshold", func(s *AppSettings) { s.Expiration.NearThresholdDays = -1 }},
		{"zero fact timeout", func(s *AppSettings) { s.Processing.FactTimeout = 0 }},
		{"zero concurrency", func(s *AppSettings) { s.Processing.EmbedConcurrency = 0 }},
		{"overlap too large", func(s *AppSettings) { s.Processing.ChunkOverlap = 1000 }},
		{"zero rate", func(s *AppSettings) { s.Processing.LLMRatePerSecond = 0 }},
		{"unknown provider", func(s *AppSettings) { s.LLM.Provider = "openai" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			err := s.Validate()
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestAppSettings_ValidateBoundaryWeights(t *testing.T) {
	s := DefaultAppSettings()
	s.Search.LexicalWeight = 0
	assert.NoError(t, s.Validate())
	s.Search.LexicalWeight = 1
	assert.NoError(t, s.Validate())
}

func TestSearchMode(t *testing.T) {
	assert.True(t, SearchModeHybrid.IsValid())
	assert.True(t, SearchModeHybrid.RequiresEmbedding())
	assert.False(t, SearchModeLexicalOnly.RequiresEmbedding())
	assert.False(t, SearchMode("full").IsValid())
	assert.Equal(t, unknownDescription, SearchMode("invalid").Description())
}

func TestAIProvider(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.False(t, AIProviderNone.IsValid())
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("anthropic").Description())
	assert.Equal(t, "nomic-embed-text", DefaultEmbeddingModels()[AIProviderOllama])
}
