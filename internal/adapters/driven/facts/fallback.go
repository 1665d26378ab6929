// Package facts composes fact extractors.
package facts

import (
	"context"
	"errors"

	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// Ensure Fallback implements the interface.
var _ driven.FactExtractor = (*Fallback)(nil)

// Fallback runs primary and, when it fails, secondary.
// Cancellation and deadlines are not retried: the task is out of time.
type Fallback struct {
	primary   driven.FactExtractor
	secondary driven.FactExtractor
}

// NewFallback creates a fallback chain.
func NewFallback(primary, secondary driven.FactExtractor) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// Name identifies the extractor in logs.
func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

// ExtractFacts returns the primary's facts, or the secondary's on failure.
func (f *Fallback) ExtractFacts(ctx context.Context, text string) (map[string]string, error) {
	facts, err := f.primary.ExtractFacts(ctx, text)
	if err == nil {
		return facts, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	logger.Warn("%s fact extraction failed, using %s: %v", f.primary.Name(), f.secondary.Name(), err)
	return f.secondary.ExtractFacts(ctx, text)
}
