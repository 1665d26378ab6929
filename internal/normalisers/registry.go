package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/logger"
	"github.com/custodia-labs/ndavault/internal/normalisers/docx"
	"github.com/custodia-labs/ndavault/internal/normalisers/pdf"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry selects a normaliser by file extension and chunks its output.
type Registry struct {
	byExtension map[string]driven.Normaliser
	chunker     driven.Chunker
}

// NewRegistry creates an empty registry that chunks with chunker.
func NewRegistry(chunker driven.Chunker) *Registry {
	return &Registry{
		byExtension: make(map[string]driven.Normaliser),
		chunker:     chunker,
	}
}

// NewDefaultRegistry registers the PDF and DOCX normalisers.
func NewDefaultRegistry(chunker driven.Chunker) *Registry {
	r := NewRegistry(chunker)
	r.Register(pdf.New())
	r.Register(docx.New())
	return r
}

// Register adds a normaliser for each of its extensions.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(n driven.Normaliser) {
	for _, ext := range n.Extensions() {
		r.byExtension[strings.ToLower(ext)] = n
	}
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract normalises data according to the extension of filename.
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (*driven.Extraction, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	n, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext)
	}

	text, err := n.Normalise(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailed, filename, err)
	}

	fragments := r.chunker.Chunk(filename, text)
	if len(fragments) == 0 {
		return nil, fmt.Errorf("%w: %s: no text found", domain.ErrExtractionFailed, filename)
	}

	logger.Debug("extract: %s -> %d chars, %d fragments", filename, len(text), len(fragments))
	return &driven.Extraction{Text: text, Fragments: fragments}, nil
}
