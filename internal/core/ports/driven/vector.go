package driven

import "context"

// VectorIndex is the vector similarity oracle.
// It stores fragment embeddings and scores candidates against a query vector.
// This is optional: when nil, retrieval runs lexical-only.
type VectorIndex interface {
	// Add inserts or replaces the vector for a fragment.
	Add(ctx context.Context, fragmentID string, embedding []float32) error

	// Delete removes vectors. Unknown IDs are ignored.
	Delete(ctx context.Context, fragmentIDs []string) error

	// Similar returns the similarity of each candidate that has a vector.
	// Candidates without a vector are omitted. An empty candidate list scores
	// every stored vector.
	Similar(ctx context.Context, query []float32, candidateIDs []string) (map[string]float64, error)
}
