// Package search provides the search view of the TUI.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// ErrNoSearchService is returned when a search runs without a service.
var ErrNoSearchService = errors.New("search service not available")

// Actions offered on a selected result.
const (
	ActionViewFragment = "View fragment in context"
	ActionDetails      = "Document details"
	ActionOnlyDocument = "Search only this document"
	ActionCancel       = "Cancel"
)

// ActionMenu is the overlay listing actions on one result.
type ActionMenu struct {
	actions  []string
	selected int
	result   domain.SearchResult
}

// View is the search view: query input, ranked fragments and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	ctx           context.Context

	// lexicalOnly and filter shape the options of every search.
	lexicalOnly bool
	filter      string
	lastQuery   string
	keywords    []string

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
	actionMenu *ActionMenu
}

// NewView creates a search view in input mode.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	// Cursor blink and other input ticks.
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.actionMenu != nil {
		return v.handleActionMenuKey(msg)
	}

	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if key.Matches(msg, v.keymap.Search) {
			return v, v.submit(v.input.Value())
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Actions):
		if result := v.list.SelectedResult(); result != nil {
			v.actionMenu = &ActionMenu{
				actions: []string{ActionViewFragment, ActionDetails, ActionOnlyDocument, ActionCancel},
				result:  *result,
			}
		}
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case key.Matches(msg, v.keymap.LexicalOnly):
		v.lexicalOnly = !v.lexicalOnly
		return v, v.submit(v.lastQuery)
	case key.Matches(msg, v.keymap.AllDocuments):
		if v.filter != "" {
			v.filter = ""
			return v, v.submit(v.lastQuery)
		}
	}

	return v, nil
}

func (v *View) handleActionMenuKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.actionMenu.selected > 0 {
			v.actionMenu.selected--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.actionMenu.selected < len(v.actionMenu.actions)-1 {
			v.actionMenu.selected++
		}
	case key.Matches(msg, v.keymap.Select):
		menu := v.actionMenu
		v.actionMenu = nil
		return v, v.executeAction(menu.actions[menu.selected], menu.result)
	case key.Matches(msg, v.keymap.Back):
		v.actionMenu = nil
	}
	return v, nil
}

func (v *View) executeAction(action string, result domain.SearchResult) tea.Cmd {
	filename := result.Fragment.Filename
	switch action {
	case ActionViewFragment:
		keywords := v.keywords
		return func() tea.Msg {
			return messages.FragmentsRequested{
				Filename: filename,
				Position: result.Fragment.Position,
				Keywords: keywords,
				Back:     messages.ViewSearch,
			}
		}
	case ActionDetails:
		return func() tea.Msg {
			return messages.DocumentSelected{Filename: filename, Back: messages.ViewSearch}
		}
	case ActionOnlyDocument:
		v.filter = filename
		return v.submit(v.lastQuery)
	}
	return nil
}

// submit runs query with the current options. An empty query does nothing.
func (v *View) submit(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	v.lastQuery = query
	v.statusbar.SetState(status.StateSearching)
	v.focusInput = false
	v.input.Blur()
	return v.performSearch(query, v.options())
}

// options builds the search options from the toggles.
func (v *View) options() domain.SearchOptions {
	opts := domain.SearchOptions{LexicalOnly: v.lexicalOnly}
	if v.filter != "" {
		opts.Filenames = []string{v.filter}
	}
	return opts
}

func (v *View) performSearch(query string, opts domain.SearchOptions) tea.Cmd {
	svc, ctx := v.searchService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		resp, err := svc.Search(ctx, query, opts)
		return messages.SearchCompleted{Query: query, Response: resp, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	var results []domain.SearchResult
	v.keywords = nil
	if msg.Response != nil {
		results = msg.Response.Results
		v.keywords = msg.Response.Keywords
	}
	v.list.SetResults(results)
	v.statusbar.SetResponse(msg.Response)
	v.statusbar.SetFilter(v.filter)
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Search contracts"), "", v.input.View(), ""}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())

	if v.actionMenu != nil {
		sections = append(sections, "", v.renderActionMenu())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderActionMenu() string {
	lines := make([]string, 0, len(v.actionMenu.actions)+1)
	lines = append(lines, v.styles.Subtitle.Render(v.actionMenu.result.Fragment.Filename))
	for i, action := range v.actionMenu.actions {
		if i == v.actionMenu.selected {
			lines = append(lines, v.styles.Selected.Render("> "+action))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+action))
		}
	}
	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetDimensions sizes the view and its components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Header, input box, spacing and status bar take ten lines.
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Reset returns to an empty query in input mode over all documents. The
// keywords-only toggle is kept.
func (v *View) Reset() {
	v.focusInput = true
	v.filter = ""
	v.lastQuery = ""
	v.input.Reset()
	v.input.Focus()
	v.list.SetResults(nil)
	v.actionMenu = nil
	v.err = nil
	v.statusbar.Clear()
}

func (v *View) Ready() bool { return v.ready }

func (v *View) Query() string { return v.input.Value() }

func (v *View) SetQuery(query string) { v.input.SetValue(query) }

func (v *View) Results() []domain.SearchResult { return v.list.Results() }

func (v *View) SelectedIndex() int { return v.list.Selected() }

func (v *View) Err() error { return v.err }

func (v *View) InputFocused() bool { return v.focusInput }

// LexicalOnly reports whether vector similarity is switched off.
func (v *View) LexicalOnly() bool { return v.lexicalOnly }

// Filter returns the document searches are restricted to, if any.
func (v *View) Filter() string { return v.filter }

// ActionMenuOpen reports whether the action overlay is visible.
func (v *View) ActionMenuOpen() bool { return v.actionMenu != nil }
