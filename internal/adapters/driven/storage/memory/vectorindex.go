package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory cosine similarity oracle.
type VectorIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewVectorIndex creates an empty index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{vectors: make(map[string][]float32)}
}

// Add inserts or replaces the vector for a fragment.
func (v *VectorIndex) Add(_ context.Context, fragmentID string, embedding []float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vectors[fragmentID] = append([]float32(nil), embedding...)
	return nil
}

// Delete removes vectors.
func (v *VectorIndex) Delete(_ context.Context, fragmentIDs []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range fragmentIDs {
		delete(v.vectors, id)
	}
	return nil
}

// Similar scores candidates against the query.
func (v *VectorIndex) Similar(ctx context.Context, query []float32, candidateIDs []string) (map[string]float64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]float64)
	if len(candidateIDs) == 0 {
		for id, vec := range v.vectors {
			out[id] = vecmath.Cosine(query, vec)
		}
		return out, ctx.Err()
	}
	for _, id := range candidateIDs {
		if vec, ok := v.vectors[id]; ok {
			out[id] = vecmath.Cosine(query, vec)
		}
	}
	return out, ctx.Err()
}

// Len returns the number of stored vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.vectors)
}
