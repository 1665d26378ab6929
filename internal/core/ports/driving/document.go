package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// DocumentService manages uploaded contracts and their processing lifecycle.
type DocumentService interface {
	// Upload validates and stores a file, then starts processing in the
	// background. Re-uploading an idle document replaces it and reprocesses.
	// Returns a validation error for non-PDF/DOCX files and a conflict while a
	// task holds the filename.
	Upload(ctx context.Context, filename string, data []byte) (*domain.DocumentRecord, error)

	// Reprocess starts reprocessing a processed or failed document.
	Reprocess(ctx context.Context, filename string) (*domain.DocumentRecord, error)

	// Delete removes a document in any state. An in-flight task discards its result.
	Delete(ctx context.Context, filename string) error

	// Get retrieves a record by filename.
	Get(ctx context.Context, filename string) (*domain.DocumentRecord, error)

	// List returns all records ordered by filename.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// View returns the record with its display state.
	View(ctx context.Context, filename string) (*DocumentView, error)

	// Fragments returns a document's fragments in position order.
	Fragments(ctx context.Context, filename string) ([]domain.Fragment, error)

	// ExpirationReport classifies every document by expiration date.
	ExpirationReport(ctx context.Context, now time.Time) (*domain.ExpirationReport, error)

	// Wait blocks until all in-flight processing tasks have finished.
	Wait()
}

// DocumentView is the display state of a record.
type DocumentView struct {
	Record *domain.DocumentRecord

	// DisplayStatus reports reprocessing as processing.
	DisplayStatus domain.ProcessingStatus

	Expiration     domain.ExpirationClass
	ExpirationDate *time.Time
	DaysRemaining  *int
	FragmentCount  int
}
