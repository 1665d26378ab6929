// Package fragments provides the fragment-in-context view of the TUI.
package fragments

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// ErrNoDocumentService is returned when the view has no document service.
var ErrNoDocumentService = errors.New("document service not available")

const gutter = "▌ "

// View shows every fragment of a document in order, scrolled to the
// fragment that was selected, with keyword lines marked in the gutter.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	ctx             context.Context

	filename  string
	position  int
	keywords  []string
	back      messages.ViewType
	fragments []domain.Fragment

	// lines is the wrapped text; starts holds the line index of each
	// fragment header and marked flags lines containing a keyword.
	lines  []string
	starts []int
	marked []bool

	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
}

// NewView creates a fragments view.
func NewView(s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:          s,
		keymap:          km,
		documentService: documentService,
		ctx:             context.Background(),
		back:            messages.ViewDocuments,
		width:           80,
		height:          24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument loads the fragments of filename and focuses the fragment at
// position once they arrive.
func (v *View) SetDocument(filename string, position int, keywords []string, back messages.ViewType) tea.Cmd {
	v.filename = filename
	v.position = position
	v.keywords = keywords
	v.back = back
	v.fragments = nil
	v.lines, v.starts, v.marked = nil, nil, nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadFragments()
}

func (v *View) Init() tea.Cmd { return nil }

func (v *View) loadFragments() tea.Cmd {
	svc, ctx, filename := v.documentService, v.ctx, v.filename
	return func() tea.Msg {
		if svc == nil {
			return messages.FragmentsLoaded{Filename: filename, Err: ErrNoDocumentService}
		}
		frags, err := svc.Fragments(ctx, filename)
		return messages.FragmentsLoaded{Filename: filename, Fragments: frags, Err: err}
	}
}

// Update handles messages for the fragments view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	case messages.FragmentsLoaded:
		// A load for a document that is no longer shown.
		if msg.Filename != v.filename {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.fragments = msg.Fragments
		v.layout()
		v.focus(v.indexOfPosition(v.position))
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		v.scrollOffset = max(v.scrollOffset-1, 0)
	case key.Matches(msg, v.keymap.Down):
		v.scrollOffset = min(v.scrollOffset+1, v.maxScrollOffset())
	case key.Matches(msg, v.keymap.PageUp):
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case key.Matches(msg, v.keymap.PageDown):
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case key.Matches(msg, v.keymap.Top):
		v.scrollOffset = 0
	case key.Matches(msg, v.keymap.Bottom):
		v.scrollOffset = v.maxScrollOffset()
	case key.Matches(msg, v.keymap.NextFragment):
		for _, start := range v.starts {
			if start > v.scrollOffset {
				v.scrollOffset = min(start, v.maxScrollOffset())
				break
			}
		}
	case key.Matches(msg, v.keymap.PrevFragment):
		for i := len(v.starts) - 1; i >= 0; i-- {
			if v.starts[i] < v.scrollOffset {
				v.scrollOffset = v.starts[i]
				break
			}
		}
	case key.Matches(msg, v.keymap.Back):
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}
	return v, nil
}

// layout wraps every fragment to the current width.
func (v *View) layout() {
	v.lines, v.starts, v.marked = nil, nil, nil
	contentWidth := max(v.width-6, 20)
	keywords := make([]string, 0, len(v.keywords))
	for _, kw := range v.keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	for i, f := range v.fragments {
		if i > 0 {
			v.add("", false)
		}
		v.starts = append(v.starts, len(v.lines))
		header := fmt.Sprintf("── [%d] ", f.Position)
		v.add(header+strings.Repeat("─", max(min(contentWidth, 60)-ansi.StringWidth(header), 0)), false)
		for _, line := range strings.Split(ansi.Wrap(f.Content, contentWidth, ""), "\n") {
			v.add(line, containsAny(strings.ToLower(line), keywords))
		}
	}
}

func (v *View) add(line string, marked bool) {
	v.lines = append(v.lines, line)
	v.marked = append(v.marked, marked)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// indexOfPosition returns the fragment index holding position, or 0.
func (v *View) indexOfPosition(position int) int {
	for i, f := range v.fragments {
		if f.Position == position {
			return i
		}
	}
	return 0
}

func (v *View) focus(index int) {
	if index < 0 || index >= len(v.starts) {
		v.scrollOffset = 0
		return
	}
	v.scrollOffset = min(v.starts[index], v.maxScrollOffset())
}

// CurrentFragment returns the index of the fragment at the top of the view.
func (v *View) CurrentFragment() int {
	current := 0
	for i, start := range v.starts {
		if start <= v.scrollOffset {
			current = i
		}
	}
	return current
}

// visibleLines leaves room for the title, the separator, the indicator
// and the help line.
func (v *View) visibleLines() int {
	return max(v.height-7, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the fragments view.
func (v *View) View() string {
	var b strings.Builder

	title := "Fragments"
	if v.filename != "" {
		title = v.filename
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(strings.Repeat("─", min(max(v.width-4, 1), 60))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading fragments..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No fragments)"))
	default:
		b.WriteString(v.renderLines())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [n/p] next/prev fragment  [g/G] top/bottom  [esc] back"))
	return b.String()
}

func (v *View) renderLines() string {
	var b strings.Builder
	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	for i := v.scrollOffset; i < end; i++ {
		switch {
		case v.marked[i]:
			b.WriteString(v.styles.Highlight.Render(gutter))
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
		case v.isHeader(i):
			b.WriteString("  ")
			b.WriteString(v.styles.Subtitle.Render(v.lines[i]))
		default:
			b.WriteString("  ")
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Fragment %d of %d] Line %d-%d of %d",
		v.CurrentFragment()+1, len(v.fragments), v.scrollOffset+1, end, len(v.lines))))
	return b.String()
}

func (v *View) isHeader(line int) bool {
	return slices.Contains(v.starts, line)
}

// SetDimensions sets the view dimensions, keeping the top fragment in view.
func (v *View) SetDimensions(width, height int) {
	current := v.CurrentFragment()
	v.width = width
	v.height = height
	v.ready = true
	if len(v.fragments) > 0 {
		v.layout()
		v.focus(current)
	}
}

func (v *View) Filename() string { return v.filename }

func (v *View) Fragments() []domain.Fragment { return v.fragments }

// Lines returns the wrapped text.
func (v *View) Lines() []string { return v.lines }

func (v *View) ScrollOffset() int { return v.scrollOffset }

func (v *View) Back() messages.ViewType { return v.back }

func (v *View) Err() error { return v.err }
