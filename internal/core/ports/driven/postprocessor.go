package driven

import "github.com/custodia-labs/ndavault/internal/core/domain"

// Chunker splits document text into fragments.
type Chunker interface {
	// Chunk returns fragments with fresh IDs and sequential positions.
	Chunk(filename, text string) []domain.Fragment
}
