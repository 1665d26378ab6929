package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AcceptedExtensions are the upload types the engine ingests.
var AcceptedExtensions = []string{".pdf", ".docx"}

// ValidateUpload rejects filenames the engine cannot ingest.
// It runs before a record is created.
func ValidateUpload(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return fmt.Errorf("%w: filename %q must not contain a path", ErrInvalidInput, filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if strings.TrimSuffix(strings.ToLower(filename), ext) == "" {
		return fmt.Errorf("%w: filename %q has no name", ErrInvalidInput, filename)
	}
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (accepted: pdf, docx)", ErrUnsupportedType, filename)
}

// FileExtension returns the lowercased extension of a filename.
func FileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
