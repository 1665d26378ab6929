package driven

import (
	"context"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// RecordStore persists document records keyed by filename.
// Every method observes the latest committed state; Update is atomic with
// respect to concurrent reads and writes.
type RecordStore interface {
	// Create stores a new record. Returns domain.ErrAlreadyExists if the
	// filename is taken.
	Create(ctx context.Context, rec *domain.DocumentRecord) error

	// Get retrieves a record by filename. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, filename string) (*domain.DocumentRecord, error)

	// List returns all records ordered by filename.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Update applies fn to the current record and stores the result atomically.
	// Returns domain.ErrNotFound if the record does not exist, or fn's error
	// (leaving the record unchanged).
	Update(ctx context.Context, filename string, fn func(rec *domain.DocumentRecord) error) (*domain.DocumentRecord, error)

	// Delete removes a record. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, filename string) error

	// RunDataMigration applies fn to every record once per migration name.
	// fn returns true when it changed the record. The migration marker and the
	// changed records are committed together. Returns whether the migration
	// ran and how many records changed.
	RunDataMigration(ctx context.Context, name string, fn func(rec *domain.DocumentRecord) bool) (ran bool, changed int, err error)
}

// FragmentStore persists the fragments extracted from documents.
type FragmentStore interface {
	// Replace swaps all fragments of a document for the given set.
	Replace(ctx context.Context, filename string, fragments []domain.Fragment) error

	// List returns a document's fragments in position order.
	List(ctx context.Context, filename string) ([]domain.Fragment, error)

	// ListAll returns fragments of the given documents (all documents when
	// filenames is empty), ordered by filename then position.
	ListAll(ctx context.Context, filenames []string) ([]domain.Fragment, error)

	// Delete removes all fragments of a document. Deleting nothing is not an error.
	Delete(ctx context.Context, filename string) error
}
