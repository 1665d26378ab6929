package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// SearchMode describes which retrieval signals contributed to a search.
type SearchMode string

// Available search modes.
const (
	// SearchModeLexicalOnly uses only keyword matching.
	SearchModeLexicalOnly SearchMode = "lexical_only"

	// SearchModeHybrid fuses keyword matching with vector similarity.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeLexicalOnly, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode needs an embedding provider.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeHybrid
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeLexicalOnly:
		return "Lexical only (keyword matching)"
	case SearchModeHybrid:
		return "Hybrid (keyword + vector similarity)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderNone disables the collaborator.
	AIProviderNone AIProvider = ""

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderNone:
		return "Not configured"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// SearchSettings holds retrieval configuration.
type SearchSettings struct {
	// LexicalWeight is the share of the fused score given to keyword matching.
	// The vector signal receives 1 - LexicalWeight.
	LexicalWeight float64

	// MaxResults is the default number of results returned.
	MaxResults int

	// CandidateLimit caps the number of lexical candidates fed to fusion.
	CandidateLimit int

	// OracleTimeout bounds the query embedding and similarity lookup.
	OracleTimeout time.Duration
}

// ExpirationSettings holds expiration classification configuration.
type ExpirationSettings struct {
	// NearThresholdDays is the window in which a contract counts as near expiration.
	NearThresholdDays int
}

// ProcessingSettings holds ingestion pipeline configuration.
type ProcessingSettings struct {
	// FactTimeout bounds fact extraction for one document.
	FactTimeout time.Duration

	// EmbedConcurrency is the number of fragments embedded in parallel.
	EmbedConcurrency int

	// ChunkSize is the target fragment size in runes.
	ChunkSize int

	// ChunkOverlap is the overlap between adjacent fragments in runes.
	ChunkOverlap int

	// LLMRatePerSecond throttles fact-extraction calls.
	LLMRatePerSecond float64
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid()
}

// LLMSettings holds fact-extraction LLM configuration.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid()
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search     SearchSettings
	Expiration ExpirationSettings
	Processing ProcessingSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The default lexical weight favours the vector signal without ever zeroing
// the lexical one. AI providers are left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			LexicalWeight:  0.4,
			MaxResults:     10,
			CandidateLimit: 50,
			OracleTimeout:  5 * time.Second,
		},
		Expiration: ExpirationSettings{
			NearThresholdDays: DefaultNearThresholdDays,
		},
		Processing: ProcessingSettings{
			FactTimeout:      120 * time.Second,
			EmbedConcurrency: 4,
			ChunkSize:        1000,
			ChunkOverlap:     200,
			LLMRatePerSecond: 2,
		},
	}
}

// Validate checks settings for values the engine cannot run with.
func (s AppSettings) Validate() error {
	if s.Search.LexicalWeight < 0 || s.Search.LexicalWeight > 1 {
		return fmt.Errorf("%w: search.lexical_weight must be within [0,1], got %v",
			ErrInvalidInput, s.Search.LexicalWeight)
	}
	if s.Search.MaxResults <= 0 {
		return fmt.Errorf("%w: search.max_results must be positive", ErrInvalidInput)
	}
	if s.Search.CandidateLimit <= 0 {
		return fmt.Errorf("%w: search.candidate_limit must be positive", ErrInvalidInput)
	}
	if s.Search.OracleTimeout <= 0 {
		return fmt.Errorf("%w: search.oracle_timeout must be positive", ErrInvalidInput)
	}
	if s.Expiration.NearThresholdDays < 0 {
		return fmt.Errorf("%w: expiration.near_threshold_days must not be negative", ErrInvalidInput)
	}
	if s.Processing.FactTimeout <= 0 {
		return fmt.Errorf("%w: processing.fact_timeout must be positive", ErrInvalidInput)
	}
	if s.Processing.EmbedConcurrency <= 0 {
		return fmt.Errorf("%w: processing.embed_concurrency must be positive", ErrInvalidInput)
	}
	if s.Processing.ChunkSize <= 0 {
		return fmt.Errorf("%w: processing.chunk_size must be positive", ErrInvalidInput)
	}
	if s.Processing.ChunkOverlap < 0 || s.Processing.ChunkOverlap >= s.Processing.ChunkSize {
		return fmt.Errorf("%w: processing.chunk_overlap must be within [0, chunk_size)", ErrInvalidInput)
	}
	if s.Processing.LLMRatePerSecond <= 0 {
		return fmt.Errorf("%w: processing.llm_rate_per_second must be positive", ErrInvalidInput)
	}
	if s.Embedding.Provider != AIProviderNone && !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.LLM.Provider != AIProviderNone && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
	}
}
