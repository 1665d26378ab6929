package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.RecordStore   = (*RecordStore)(nil)
	_ driven.FragmentStore = (*FragmentStore)(nil)
)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu         sync.RWMutex
	records    map[string]*domain.DocumentRecord
	migrations map[string]struct{}
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records:    make(map[string]*domain.DocumentRecord),
		migrations: make(map[string]struct{}),
	}
}

// Create stores a new record.
func (s *RecordStore) Create(_ context.Context, rec *domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.Filename]; ok {
		return fmt.Errorf("record %s: %w", rec.Filename, domain.ErrAlreadyExists)
	}
	s.records[rec.Filename] = rec.Clone()
	return nil
}

// Get retrieves a record by filename.
func (s *RecordStore) Get(_ context.Context, filename string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[filename]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", filename, domain.ErrNotFound)
	}
	return rec.Clone(), nil
}

// List returns all records ordered by filename.
func (s *RecordStore) List(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DocumentRecord, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, *rec.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Filename < result[j].Filename })
	return result, nil
}

// Update applies fn to a copy of the record and stores it if fn succeeds.
func (s *RecordStore) Update(
	_ context.Context, filename string, fn func(rec *domain.DocumentRecord) error,
) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[filename]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", filename, domain.ErrNotFound)
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Filename = filename
	s.records[filename] = next
	return next.Clone(), nil
}

// Delete removes a record.
func (s *RecordStore) Delete(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[filename]; !ok {
		return fmt.Errorf("record %s: %w", filename, domain.ErrNotFound)
	}
	delete(s.records, filename)
	return nil
}

// RunDataMigration applies fn to every record once per migration name.
func (s *RecordStore) RunDataMigration(
	_ context.Context, name string, fn func(rec *domain.DocumentRecord) bool,
) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.migrations[name]; done {
		return false, 0, nil
	}
	changed := 0
	for filename, rec := range s.records {
		next := rec.Clone()
		if fn(next) {
			s.records[filename] = next
			changed++
		}
	}
	s.migrations[name] = struct{}{}
	return true, changed, nil
}

// FragmentStore is an in-memory implementation of driven.FragmentStore.
type FragmentStore struct {
	mu        sync.RWMutex
	fragments map[string][]domain.Fragment
}

// NewFragmentStore creates a new in-memory fragment store.
func NewFragmentStore() *FragmentStore {
	return &FragmentStore{fragments: make(map[string][]domain.Fragment)}
}

// Replace swaps all fragments of a document.
func (s *FragmentStore) Replace(_ context.Context, filename string, fragments []domain.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(fragments) == 0 {
		delete(s.fragments, filename)
		return nil
	}
	stored := make([]domain.Fragment, len(fragments))
	copy(stored, fragments)
	for i := range stored {
		stored[i].Filename = filename
		stored[i].Embedding = nil
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Position < stored[j].Position })
	s.fragments[filename] = stored
	return nil
}

// List returns a document's fragments in position order.
func (s *FragmentStore) List(_ context.Context, filename string) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Fragment(nil), s.fragments[filename]...), nil
}

// ListAll returns fragments of the given documents, or of all documents.
func (s *FragmentStore) ListAll(_ context.Context, filenames []string) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(filenames) == 0 {
		filenames = make([]string, 0, len(s.fragments))
		for name := range s.fragments {
			filenames = append(filenames, name)
		}
	}
	names := append([]string(nil), filenames...)
	sort.Strings(names)

	var result []domain.Fragment
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}
		result = append(result, s.fragments[name]...)
	}
	return result, nil
}

// Delete removes all fragments of a document.
func (s *FragmentStore) Delete(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fragments, filename)
	return nil
}
