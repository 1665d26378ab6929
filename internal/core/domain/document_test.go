package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentRecord(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := NewDocumentRecord("green_nda.pdf", 2048, now)

	assert.Equal(t, "green_nda.pdf", rec.Filename)
	assert.Equal(t, StatusPending, rec.ProcessingStatus)
	assert.Equal(t, WorkflowCreated, rec.WorkflowStatus)
	assert.NotNil(t, rec.Facts)
	assert.Empty(t, rec.Facts)
	assert.Equal(t, int64(2048), rec.Size)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, now, rec.UpdatedAt)
	assert.Nil(t, rec.ProcessedAt)
}

func TestDocumentRecord_Clone(t *testing.T) {
	processed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := &DocumentRecord{
		Filename:    "a.pdf",
		Facts:       map[string]string{FactExpirationDate: "2026-01-01"},
		ProcessedAt: &processed,
	}

	c := rec.Clone()
	c.Facts[FactExpirationDate] = "2030-01-01"
	*c.ProcessedAt = processed.Add(time.Hour)

	assert.Equal(t, "2026-01-01", rec.Facts[FactExpirationDate])
	assert.Equal(t, processed, *rec.ProcessedAt)

	var nilRec *DocumentRecord
	assert.Nil(t, nilRec.Clone())
}

func TestDocumentRecord_LastActivity(t *testing.T) {
	updated := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := &DocumentRecord{UpdatedAt: updated}
	assert.Equal(t, updated, rec.LastActivity())

	beat := updated.Add(time.Minute)
	rec.Heartbeat = &beat
	assert.Equal(t, beat, rec.LastActivity())

	c := rec.Clone()
	*c.Heartbeat = beat.Add(time.Hour)
	assert.Equal(t, beat, *rec.Heartbeat)

	old := updated.Add(-time.Minute)
	rec.Heartbeat = &old
	assert.Equal(t, updated, rec.LastActivity())
}

func TestDocumentRecord_ExpirationDate(t *testing.T) {
	t.Run("parsed", func(t *testing.T) {
		rec := &DocumentRecord{Facts: map[string]string{FactExpirationDate: "2026-01-01"}}
		d, ok := rec.ExpirationDate()
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("missing", func(t *testing.T) {
		rec := &DocumentRecord{Facts: map[string]string{}}
		_, ok := rec.ExpirationDate()
		assert.False(t, ok)
	})

	t.Run("unparseable", func(t *testing.T) {
		rec := &DocumentRecord{Facts: map[string]string{FactExpirationDate: "upon termination"}}
		_, ok := rec.ExpirationDate()
		assert.False(t, ok)
	})

	t.Run("nil facts", func(t *testing.T) {
		rec := &DocumentRecord{}
		_, ok := rec.ExpirationDate()
		assert.False(t, ok)
	})
}
