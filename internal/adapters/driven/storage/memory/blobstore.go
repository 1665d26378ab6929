package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore is an in-memory implementation of driven.BlobStore.
type BlobStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{files: make(map[string][]byte)}
}

// Put stores the file.
func (s *BlobStore) Put(_ context.Context, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = append([]byte(nil), data...)
	return nil
}

// Get returns the file.
func (s *BlobStore) Get(_ context.Context, filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[filename]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", filename, domain.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the file.
func (s *BlobStore) Delete(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, filename)
	return nil
}
