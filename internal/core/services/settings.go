package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyLexicalWeight     = "search.lexical_weight"
	keyMaxResults        = "search.max_results"
	keyCandidateLimit    = "search.candidate_limit"
	keyOracleTimeout     = "search.oracle_timeout"
	keyNearThresholdDays = "expiration.near_threshold_days"
	keyFactTimeout       = "processing.fact_timeout"
	keyEmbedConcurrency  = "processing.embed_concurrency"
	keyChunkSize         = "processing.chunk_size"
	keyChunkOverlap      = "processing.chunk_overlap"
	keyLLMRate           = "processing.llm_rate_per_second"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
)

// settingKind is the storage type of a setting.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindDuration
)

var settingKinds = map[string]settingKind{
	keyLexicalWeight:     kindFloat,
	keyMaxResults:        kindInt,
	keyCandidateLimit:    kindInt,
	keyOracleTimeout:     kindDuration,
	keyNearThresholdDays: kindInt,
	keyFactTimeout:       kindDuration,
	keyEmbedConcurrency:  kindInt,
	keyChunkSize:         kindInt,
	keyChunkOverlap:      kindInt,
	keyLLMRate:           kindFloat,
	keyEmbedProvider:     kindString,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyLLMProvider:       kindString,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
}

// DefaultOllamaURL is used when an Ollama provider has no base URL.
const DefaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings with defaults filled in.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			LexicalWeight:  s.getFloat(keyLexicalWeight, d.Search.LexicalWeight),
			MaxResults:     s.getInt(keyMaxResults, d.Search.MaxResults),
			CandidateLimit: s.getInt(keyCandidateLimit, d.Search.CandidateLimit),
			OracleTimeout:  s.getDuration(keyOracleTimeout, d.Search.OracleTimeout),
		},
		Expiration: domain.ExpirationSettings{
			NearThresholdDays: s.getInt(keyNearThresholdDays, d.Expiration.NearThresholdDays),
		},
		Processing: domain.ProcessingSettings{
			FactTimeout:      s.getDuration(keyFactTimeout, d.Processing.FactTimeout),
			EmbedConcurrency: s.getInt(keyEmbedConcurrency, d.Processing.EmbedConcurrency),
			ChunkSize:        s.getInt(keyChunkSize, d.Processing.ChunkSize),
			ChunkOverlap:     s.getInt(keyChunkOverlap, d.Processing.ChunkOverlap),
			LLMRatePerSecond: s.getFloat(keyLLMRate, d.Processing.LLMRatePerSecond),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProvider(s.configStore.GetString(keyEmbedProvider)),
			Model:    s.configStore.GetString(keyEmbedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProvider(s.configStore.GetString(keyLLMProvider)),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
		},
	}

	if settings.Embedding.IsConfigured() {
		if settings.Embedding.Model == "" {
			settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
		}
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = DefaultOllamaURL
		}
	}
	if settings.LLM.IsConfigured() {
		if settings.LLM.Model == "" {
			settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
		}
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = DefaultOllamaURL
		}
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// Set validates and persists a single setting.
// The value is parsed according to the key's type, and the resulting
// settings must pass validation before anything is written.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		typed = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindDuration:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration like 5s", domain.ErrInvalidInput, key)
		}
		typed = dur.String()
	default:
		typed = value
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if _, err := s.Get(); err != nil {
		// Roll back so an invalid value never sticks.
		if existed {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Set(key, defaultValue(key))
		}
		return err
	}
	return nil
}

// Keys lists the supported setting keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// defaultValue returns the stored form of a key's default.
func defaultValue(key string) any {
	d := domain.DefaultAppSettings()
	switch key {
	case keyLexicalWeight:
		return d.Search.LexicalWeight
	case keyMaxResults:
		return int64(d.Search.MaxResults)
	case keyCandidateLimit:
		return int64(d.Search.CandidateLimit)
	case keyOracleTimeout:
		return d.Search.OracleTimeout.String()
	case keyNearThresholdDays:
		return int64(d.Expiration.NearThresholdDays)
	case keyFactTimeout:
		return d.Processing.FactTimeout.String()
	case keyEmbedConcurrency:
		return int64(d.Processing.EmbedConcurrency)
	case keyChunkSize:
		return int64(d.Processing.ChunkSize)
	case keyChunkOverlap:
		return int64(d.Processing.ChunkOverlap)
	case keyLLMRate:
		return d.Processing.LLMRatePerSecond
	default:
		return ""
	}
}

func (s *SettingsService) getInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, def time.Duration) time.Duration {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
