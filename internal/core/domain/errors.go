package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an upload whose file type is not accepted.
	// Only PDF and DOCX contracts are ingested.
	ErrUnsupportedType = errors.New("unsupported file type")

	// Lifecycle Errors.

	// ErrProcessingInProgress indicates a processing or reprocessing task
	// already holds the document. The caller may retry once it completes.
	ErrProcessingInProgress = errors.New("processing in progress")

	// ErrInvalidTransition indicates a processing status change that the
	// lifecycle does not allow (e.g. reprocess while pending).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidWorkflowStatus indicates a workflow status outside the enumerated set.
	ErrInvalidWorkflowStatus = errors.New("invalid workflow status")

	// ErrExtractionFailed indicates text or fact extraction failed for a document.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrOracleTimeout indicates the vector oracle or LLM did not answer in time.
	ErrOracleTimeout = errors.New("oracle timeout")

	// Collaborator Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Fact extraction falls back to the heuristic extractor.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector/semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	// Semantic similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)

// IsValidation reports whether err is a client error that must not be retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidWorkflowStatus)
}

// IsConflict reports whether err means another task holds the document.
// Conflicts are transient; the same request may succeed later.
func IsConflict(err error) bool {
	return errors.Is(err, ErrProcessingInProgress) || errors.Is(err, ErrInvalidTransition)
}
