// Package status provides the search status bar for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// State represents the search state shown on the left of the bar.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateError     State = "error"
)

// Bar displays the search state, the retrieval mode and key hints.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	state       State
	message     string
	resultCount int
	mode        domain.SearchMode
	degraded    bool
	filter      string
	width       int
}

// NewBar creates a new status bar.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// View renders the bar across the full width.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// Hints are dropped rather than wrapped onto a second line.
	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	if lipgloss.Width(left)+lipgloss.Width(right)+1 > inner {
		right = ""
	}
	padding := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		return s.renderResults()
	}
	if s.message != "" {
		return s.styles.Muted.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderResults() string {
	parts := []string{s.styles.Normal.Render(fmt.Sprintf("%d results", s.resultCount))}
	switch {
	case s.degraded:
		parts = append(parts, s.styles.Warning.Render("keywords only (vector search unavailable)"))
	case s.mode == domain.SearchModeLexicalOnly:
		parts = append(parts, s.styles.Muted.Render("keywords only"))
	case s.mode != "":
		parts = append(parts, s.styles.Muted.Render(string(s.mode)))
	}
	if s.filter != "" {
		parts = append(parts, s.styles.Subtitle.Render("in "+s.filter))
	}
	if s.message != "" {
		parts = append(parts, s.styles.Muted.Render(s.message))
	}
	return strings.Join(parts, s.styles.Muted.Render(" · "))
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	}
	return s.styles.Muted.Render(hints(bindings))
}

func hints(bindings []key.Binding) string {
	out := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, h.Key+": "+h.Desc)
	}
	return strings.Join(out, " | ")
}

// SetResponse shows the outcome of a search.
func (s *Bar) SetResponse(resp *domain.SearchResponse) {
	s.state = StateResults
	s.message = ""
	if resp == nil {
		s.resultCount, s.mode, s.degraded = 0, "", false
		return
	}
	s.resultCount = len(resp.Results)
	s.mode = resp.Mode
	s.degraded = resp.Degraded
}

func (s *Bar) SetState(state State) { s.state = state }

func (s *Bar) State() State { return s.state }

func (s *Bar) SetMessage(message string) { s.message = message }

func (s *Bar) Message() string { return s.message }

// SetFilter names the document a search is restricted to; empty clears it.
func (s *Bar) SetFilter(filename string) { s.filter = filename }

func (s *Bar) ResultCount() int { return s.resultCount }

func (s *Bar) SetWidth(width int) { s.width = width }

// Clear resets the bar to its initial state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
	s.mode = ""
	s.degraded = false
	s.filter = ""
}
