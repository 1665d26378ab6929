// Package input provides the query input for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"
)

// maxQueryLength bounds a query. Longer questions belong in an MCP client.
const maxQueryLength = 512

// SearchInput wraps a bubbles textinput with a label.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewSearchInput creates a focused, empty query input.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "e.g. governing law of the Acme NDA"
	ti.CharLimit = maxQueryLength
	ti.Width = 50
	ti.Focus()

	return &SearchInput{textinput: ti, styles: s, width: 50}
}

// Init starts the cursor blinking.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the label and the input box side by side.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render("Query: ")
	field := s.styles.InputField.Render(s.textinput.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

func (s *SearchInput) Value() string { return s.textinput.Value() }

func (s *SearchInput) SetValue(value string) { s.textinput.SetValue(value) }

func (s *SearchInput) Focus() tea.Cmd { return s.textinput.Focus() }

func (s *SearchInput) Blur() { s.textinput.Blur() }

func (s *SearchInput) Focused() bool { return s.textinput.Focused() }

// SetWidth sizes the input box, leaving room for the label and border.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(width-12, 20)
}

func (s *SearchInput) Width() int { return s.width }

// Reset clears the input.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
}
