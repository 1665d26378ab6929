package driven

import "context"

// BlobStore keeps uploaded originals so documents can be reprocessed.
type BlobStore interface {
	// Put stores the file, replacing any previous content.
	Put(ctx context.Context, filename string, data []byte) error

	// Get returns the file. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, filename string) ([]byte, error)

	// Delete removes the file. Deleting a missing file is not an error.
	Delete(ctx context.Context, filename string) error
}
