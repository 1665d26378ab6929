// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the query input and ranked fragments.
	ViewSearch
	// ViewDocuments lists every uploaded contract.
	ViewDocuments
	// ViewDocDetails shows one contract's state and facts.
	ViewDocDetails
	// ViewFragments shows a contract's text fragment by fragment.
	ViewFragments
	// ViewHelp lists the keybindings.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewDocDetails:
		return "doc_details"
	case ViewFragments:
		return "fragments"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries a search response back to the search view.
type SearchCompleted struct {
	Query    string
	Response *domain.SearchResponse
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the display state of every document.
type DocumentsLoaded struct {
	Documents []driving.DocumentView
	Err       error
}

// DocumentSelected asks for a document's details. Back is the view Esc
// returns to.
type DocumentSelected struct {
	Filename string
	Back     ViewType
}

// DocumentDetailsLoaded carries one document's display state.
type DocumentDetailsLoaded struct {
	Filename string
	View     *driving.DocumentView
	Err      error
}

// FragmentsRequested opens the fragment view on a document, scrolled to
// the fragment at Position. Lines containing one of Keywords are marked.
type FragmentsRequested struct {
	Filename string
	Position int
	Keywords []string
	Back     ViewType
}

// FragmentsLoaded carries a document's fragments in position order.
type FragmentsLoaded struct {
	Filename  string
	Fragments []domain.Fragment
	Err       error
}

// DocumentReprocessed signals a reprocess request was accepted or refused.
type DocumentReprocessed struct {
	Filename string
	Err      error
}

// DocumentDeleted signals a document was removed.
type DocumentDeleted struct {
	Filename string
	Err      error
}
