package driven

import (
	"context"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// TextExtractor turns an uploaded file into retrievable fragments.
type TextExtractor interface {
	// Extract reads the file and returns its text and fragments.
	// Returns domain.ErrUnsupportedType for unknown formats and
	// domain.ErrExtractionFailed (wrapped) when no text can be read.
	Extract(ctx context.Context, filename string, data []byte) (*Extraction, error)
}

// Extraction is the output of text extraction.
type Extraction struct {
	// Text is the full plain text, used for fact extraction.
	Text string

	// Fragments are non-empty UTF-8 chunks of Text in position order.
	Fragments []domain.Fragment
}

// Normaliser extracts plain text from one file format.
type Normaliser interface {
	// Extensions returns the lowercased file extensions handled (e.g. ".pdf").
	Extensions() []string

	// Normalise returns the document's plain text.
	Normalise(ctx context.Context, data []byte) (string, error)
}
