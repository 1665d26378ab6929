// Package ai builds the optional AI collaborators (embedding, LLM, fact
// extraction) from application settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/ndavault/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/ndavault/internal/adapters/driven/facts"
	"github.com/custodia-labs/ndavault/internal/adapters/driven/facts/heuristic"
	ollamallm "github.com/custodia-labs/ndavault/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	// EmbeddingService is nil when embeddings are off; search is then lexical-only.
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService

	// FactExtractor is never nil: it is the heuristic extractor, or the LLM
	// extractor falling back to it.
	FactExtractor driven.FactExtractor

	// Warnings lists non-fatal issues that caused fallback.
	Warnings []string
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Initialise creates the services configured in settings. With validate set,
// unreachable services are dropped with a warning instead of failing later
// in the middle of a processing task.
func Initialise(ctx context.Context, settings domain.AppSettings, prompts driven.PromptStore, validate bool) *InitResult {
	result := &InitResult{FactExtractor: heuristic.New()}

	if svc, err := CreateEmbeddingService(&settings.Embedding); err != nil {
		result.warn("embedding: %v", err)
	} else if svc != nil {
		if err := ping(ctx, validate, svc.Ping); err != nil {
			_ = svc.Close()
			result.warn("%v: %v; search is lexical-only", domain.ErrEmbeddingUnavailable, err)
		} else {
			result.EmbeddingService = svc
		}
	}

	if svc, err := CreateLLMService(&settings.LLM, settings.Processing.LLMRatePerSecond); err != nil {
		result.warn("llm: %v", err)
	} else if svc != nil {
		if err := ping(ctx, validate, svc.Ping); err != nil {
			_ = svc.Close()
			result.warn("%v: %v; using heuristic fact extraction", domain.ErrLLMUnavailable, err)
		} else {
			result.LLMService = svc
			result.FactExtractor = facts.NewFallback(ollamallm.NewFactExtractor(svc, prompts), result.FactExtractor)
		}
	}

	return result
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
}

func ping(ctx context.Context, validate bool, fn func(context.Context) error) error {
	if !validate {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
// An unconfigured provider is valid.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, true, svc.Ping)
}

// ValidateLLMConfig creates an LLM service and pings it.
// An unconfigured provider is valid.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings, 0)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, true, svc.Ping)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == domain.AIProviderNone {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings, ratePerSecond float64) (driven.LLMService, error) {
	if settings == nil || settings.Provider == domain.AIProviderNone {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			RequestsPerSecond: ratePerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
