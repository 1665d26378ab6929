// Package filesystem stores uploaded contract files on local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore keeps one file per document under a directory.
type BlobStore struct {
	dir string
}

// NewBlobStore creates the directory if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating file directory: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *BlobStore) Dir() string {
	return s.dir
}

// Put writes the file atomically, replacing any previous version.
func (s *BlobStore) Put(_ context.Context, filename string, data []byte) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storing %s: %w", filename, err)
	}
	return nil
}

// Get reads a stored file.
func (s *BlobStore) Get(_ context.Context, filename string) ([]byte, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %s: %w", filename, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return data, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *BlobStore) Delete(_ context.Context, filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", filename, err)
	}
	return nil
}

func (s *BlobStore) path(filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: bad file name %q", domain.ErrInvalidInput, filename)
	}
	return filepath.Join(s.dir, filename), nil
}
