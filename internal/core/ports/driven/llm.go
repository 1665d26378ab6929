// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides language model completion.
// This is an optional service - when nil, fact extraction falls back to the
// heuristic extractor.
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSON asks the model for a JSON object response.
	JSON bool
}

// FactExtractor pulls structured facts out of contract text.
// Keys follow domain.FactExpirationDate and domain.FactEffectiveDate; other
// keys (parties, governing_law, ...) are free-form. A missing expiration date
// is not an error.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, text string) (map[string]string, error)

	// Name identifies the extractor in logs.
	Name() string
}
