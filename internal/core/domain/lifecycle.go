package domain

import "fmt"

// ProcessingStatus is a document's ingestion lifecycle state.
type ProcessingStatus string

// Lifecycle states.
const (
	// StatusPending means the upload was accepted and awaits processing.
	StatusPending ProcessingStatus = "pending"

	// StatusProcessing means extraction, embedding and fact extraction are running.
	StatusProcessing ProcessingStatus = "processing"

	// StatusProcessed means extraction finished successfully.
	StatusProcessed ProcessingStatus = "processed"

	// StatusFailed means extraction failed. Only a reprocess request recovers it.
	StatusFailed ProcessingStatus = "failed"

	// StatusReprocessing behaves like processing but tells collaborators that
	// previous facts and embeddings are superseded rather than merged.
	StatusReprocessing ProcessingStatus = "reprocessing"
)

// transitions lists the allowed successors of each state.
// Deletion is not a transition: it removes the record from any state.
var transitions = map[ProcessingStatus][]ProcessingStatus{
	StatusPending:      {StatusProcessing},
	StatusProcessing:   {StatusProcessed, StatusFailed},
	StatusProcessed:    {StatusReprocessing},
	StatusFailed:       {StatusReprocessing},
	StatusReprocessing: {StatusProcessed, StatusFailed},
}

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsActive returns true while a task is working on the document.
func (s ProcessingStatus) IsActive() bool {
	return s == StatusProcessing || s == StatusReprocessing
}

// CanReprocess returns true if a reprocess request is accepted from this state.
func (s ProcessingStatus) CanReprocess() bool {
	return s == StatusProcessed || s == StatusFailed
}

// CanTransitionTo reports whether next is an allowed successor.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DisplayStatus is the status reported to users. Reprocessing reports as processing.
func (s ProcessingStatus) DisplayStatus() ProcessingStatus {
	if s == StatusReprocessing {
		return StatusProcessing
	}
	return s
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// ValidateTransition returns ErrInvalidTransition when from → to is not allowed.
func ValidateTransition(from, to ProcessingStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
