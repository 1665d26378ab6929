package docdetails

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

func sampleDocument() *driving.DocumentView {
	expires := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	days := 45
	return &driving.DocumentView{
		Record: &domain.DocumentRecord{
			Filename:         "acme.pdf",
			ProcessingStatus: domain.StatusProcessed,
			WorkflowStatus:   domain.WorkflowApproved,
			Size:             1536,
			CreatedAt:        time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC),
			Facts: map[string]string{
				domain.FactPartyA:         "Acme Corp",
				domain.FactPartyB:         "Globex LLC",
				domain.FactExpirationDate: "2026-12-01",
			},
		},
		DisplayStatus:  domain.StatusProcessed,
		Expiration:     domain.ExpirationNear,
		ExpirationDate: &expires,
		DaysRemaining:  &days,
		FragmentCount:  4,
	}
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil)

	require.NotNil(t, view)
	assert.Nil(t, view.Document())
	assert.Equal(t, messages.ViewDocuments, view.Back())
	assert.Nil(t, view.Init())
	assert.Contains(t, view.View(), "No document selected")
}

func TestView_View_ShowsStateAndFacts(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDimensions(100, 40)
	view.SetDocument(sampleDocument(), messages.ViewSearch)

	out := view.View()

	assert.Contains(t, out, "acme.pdf")
	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "approved")
	assert.Contains(t, out, "Near expiration (2026-12-01, in 45 days)")
	assert.Contains(t, out, "1.5 KiB")
	assert.Contains(t, out, "Facts")
	assert.Contains(t, out, "Globex LLC")
	assert.NotContains(t, out, "Last error")
}

func TestView_View_LastError(t *testing.T) {
	doc := sampleDocument()
	doc.Record.LastError = "extract text: encrypted PDF"
	doc.DisplayStatus = domain.StatusFailed
	view := NewView(nil, nil)
	view.SetDimensions(100, 40)
	view.SetDocument(doc, messages.ViewDocuments)

	assert.Contains(t, view.View(), "extract text: encrypted PDF")
}

func TestView_SetError(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDocument(sampleDocument(), messages.ViewDocuments)

	view.SetError(errors.New("not found"), messages.ViewSearch)

	assert.Nil(t, view.Document())
	assert.Contains(t, view.View(), "Error: not found")
	assert.Equal(t, messages.ViewSearch, view.Back())
}

func TestView_Update_EscReturnsToOrigin(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDocument(sampleDocument(), messages.ViewSearch)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}

func TestView_Update_FragmentsKey(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDocument(sampleDocument(), messages.ViewDocuments)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.FragmentsRequested{Filename: "acme.pdf", Back: messages.ViewDocDetails}, cmd())
}

func TestView_Update_FragmentsKeyWithoutFragments(t *testing.T) {
	doc := sampleDocument()
	doc.FragmentCount = 0
	view := NewView(nil, nil)
	view.SetDocument(doc, messages.ViewDocuments)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})

	assert.Nil(t, cmd)
}

func TestView_Update_Scroll(t *testing.T) {
	doc := sampleDocument()
	for i := range 20 {
		doc.Record.Facts[fmt.Sprintf("clause_%02d", i)] = "value"
	}
	view := NewView(nil, nil)
	view.SetDimensions(100, 17)
	view.SetDocument(doc, messages.ViewDocuments)

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.scrollOffset)

	// 7 fields, a spacer, the facts header and 23 facts.
	maxOffset := 32 - view.visibleLines()
	for range 50 {
		view.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, maxOffset, view.scrollOffset)
	assert.Contains(t, view.View(), fmt.Sprintf("[Line %d-32 of 32]", maxOffset+1))

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, maxOffset-1, view.scrollOffset)
}

func TestExpiration(t *testing.T) {
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	zero, past := 0, -3

	assert.Equal(t, "No expiration date", expiration(&driving.DocumentView{Expiration: domain.ExpirationNoDate}))
	assert.Equal(t, "Near expiration (2025-01-10, today)", expiration(&driving.DocumentView{
		Expiration: domain.ExpirationNear, ExpirationDate: &date, DaysRemaining: &zero,
	}))
	assert.Equal(t, "Expired (2025-01-10, 3 days ago)", expiration(&driving.DocumentView{
		Expiration: domain.ExpirationPassed, ExpirationDate: &date, DaysRemaining: &past,
	}))
}
