package domain

import (
	"maps"
	"time"
)

// FactExpirationDate is the extracted fact holding a contract's expiration date.
const FactExpirationDate = "expiration_date"

// FactEffectiveDate is the extracted fact holding a contract's effective date.
const FactEffectiveDate = "effective_date"

// Free-form facts reported by the extractors.
const (
	FactPartyA       = "party_a"
	FactPartyB       = "party_b"
	FactTerm         = "term"
	FactGoverningLaw = "governing_law"
)

// DocumentRecord tracks an uploaded contract.
// The filename is the unique key. Processing status and workflow status are
// independent: a record can be processed while still a draft, or reprocessing
// while signed.
type DocumentRecord struct {
	// Filename is the unique key of the record (e.g. "green_nda.pdf").
	Filename string

	// ProcessingStatus is the ingestion lifecycle state.
	ProcessingStatus ProcessingStatus

	// WorkflowStatus is the legal/business state of the contract.
	WorkflowStatus WorkflowStatus

	// Facts holds extracted facts keyed by name (e.g. expiration_date).
	Facts map[string]string

	// LastError describes the most recent processing failure, if any.
	LastError string

	// Size is the uploaded file size in bytes.
	Size int64

	// CreatedAt is when the upload was accepted.
	CreatedAt time.Time

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time

	// ProcessedAt is when extraction last completed successfully.
	ProcessedAt *time.Time

	// TaskID identifies the task that owns the record while it is processing
	// or reprocessing. Empty when no task runs.
	TaskID string

	// Heartbeat is when the owning task last reported progress.
	Heartbeat *time.Time
}

// NewDocumentRecord creates a record for a freshly accepted upload.
func NewDocumentRecord(filename string, size int64, now time.Time) *DocumentRecord {
	return &DocumentRecord{
		Filename:         filename,
		ProcessingStatus: StatusPending,
		WorkflowStatus:   DefaultWorkflowStatus,
		Facts:            make(map[string]string),
		Size:             size,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Clone returns a deep copy so callers never share the facts map with a store.
func (r *DocumentRecord) Clone() *DocumentRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Facts = maps.Clone(r.Facts)
	if r.ProcessedAt != nil {
		t := *r.ProcessedAt
		c.ProcessedAt = &t
	}
	if r.Heartbeat != nil {
		t := *r.Heartbeat
		c.Heartbeat = &t
	}
	return &c
}

// LastActivity returns the later of the task heartbeat and the last update.
func (r *DocumentRecord) LastActivity() time.Time {
	if r.Heartbeat != nil && r.Heartbeat.After(r.UpdatedAt) {
		return *r.Heartbeat
	}
	return r.UpdatedAt
}

// ExpirationDate parses the extracted expiration date, if any.
func (r *DocumentRecord) ExpirationDate() (time.Time, bool) {
	if r == nil || r.Facts == nil {
		return time.Time{}, false
	}
	raw, ok := r.Facts[FactExpirationDate]
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := ParseFactDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Fragment is a chunk of extracted document text, the unit of retrieval.
// Fragments are immutable once created; reprocessing replaces them wholesale.
type Fragment struct {
	// ID is the stable identifier for the fragment.
	ID string

	// Filename links to the owning DocumentRecord.
	Filename string

	// Position is the ordinal position within the document.
	Position int

	// Content is the text content of this fragment.
	Content string

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}
