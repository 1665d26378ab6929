// Package docdetails provides the contract details view of the TUI.
package docdetails

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04"

// View shows one contract's processing state, workflow, expiration and
// extracted facts.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	document     *driving.DocumentView
	back         messages.ViewType
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a document details view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keymap: km, back: messages.ViewDocuments, width: 80, height: 24}
}

// SetDocument shows doc. Esc returns to back.
func (v *View) SetDocument(doc *driving.DocumentView, back messages.ViewType) {
	v.document = doc
	v.back = back
	v.scrollOffset = 0
	v.err = nil
}

// SetError replaces the details with an error.
func (v *View) SetError(err error, back messages.ViewType) {
	v.document = nil
	v.back = back
	v.err = err
}

func (v *View) Init() tea.Cmd { return nil }

// Update handles messages for the details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case key.Matches(msg, v.keymap.Fragments):
		if v.document != nil && v.document.FragmentCount > 0 {
			filename := v.document.Record.Filename
			return v, func() tea.Msg {
				return messages.FragmentsRequested{Filename: filename, Back: messages.ViewDocDetails}
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

// visibleLines leaves room for the title, the separator and the help line.
func (v *View) visibleLines() int {
	return max(v.height-7, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.buildContent())-v.visibleLines(), 0)
}

// buildContent lays out the details as rows.
func (v *View) buildContent() []string {
	if v.document == nil || v.document.Record == nil {
		return nil
	}
	doc := v.document
	rec := doc.Record

	lines := []string{
		v.field("File", rec.Filename),
		v.styledField("Status", string(doc.DisplayStatus), v.styles.ForProcessing(doc.DisplayStatus).Render),
		v.field("Workflow", rec.WorkflowStatus.String()),
		v.styledField("Expiration", expiration(doc), v.styles.ForExpiration(doc.Expiration).Render),
		v.field("Fragments", fmt.Sprintf("%d", doc.FragmentCount)),
		v.field("Size", humanize.IBytes(uint64(max(rec.Size, 0)))),
	}
	if !rec.CreatedAt.IsZero() {
		lines = append(lines, v.field("Uploaded", rec.CreatedAt.Local().Format(timeLayout)))
	}
	if rec.ProcessedAt != nil {
		lines = append(lines, v.field("Processed", rec.ProcessedAt.Local().Format(timeLayout)))
	}
	if rec.LastError != "" {
		lines = append(lines, v.styledField("Last error", rec.LastError, v.styles.Error.Render))
	}

	if len(rec.Facts) > 0 {
		lines = append(lines, "", v.styles.Subtitle.Render("Facts"))
		keys := make([]string, 0, len(rec.Facts))
		for k := range rec.Facts {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		valueWidth := max(v.width-24, 20)
		for _, k := range keys {
			lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("  %-18s ", k+":"))+
				v.styles.Normal.Render(ansi.Truncate(rec.Facts[k], valueWidth, "...")))
		}
	}
	return lines
}

func (v *View) field(label, value string) string {
	return v.styledField(label, value, v.styles.Normal.Render)
}

func (v *View) styledField(label, value string, render func(...string) string) string {
	return v.styles.Subtitle.Render(fmt.Sprintf("%-12s", label+":")) + " " + render(value)
}

// expiration renders the class, the date and the days left or passed.
func expiration(doc *driving.DocumentView) string {
	if doc.ExpirationDate == nil {
		return doc.Expiration.Description()
	}
	out := fmt.Sprintf("%s (%s", doc.Expiration.Description(), doc.ExpirationDate.Format("2006-01-02"))
	if doc.DaysRemaining != nil {
		switch days := *doc.DaysRemaining; {
		case days > 0:
			out += fmt.Sprintf(", in %d days", days)
		case days == 0:
			out += ", today"
		default:
			out += fmt.Sprintf(", %d days ago", -days)
		}
	}
	return out + ")"
}

// View renders the details view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document Details"
	if v.document != nil && v.document.Record != nil {
		title = v.document.Record.Filename
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(strings.Repeat("─", min(max(v.width-4, 1), 60))))
	b.WriteString("\n\n")

	lines := v.buildContent()
	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(lines) == 0:
		b.WriteString(v.styles.Muted.Render("No document selected"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(lines))
		b.WriteString(strings.Join(lines[v.scrollOffset:end], "\n"))
		if len(lines) > visible {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", v.scrollOffset+1, end, len(lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [f] fragments  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

func (v *View) Document() *driving.DocumentView { return v.document }

func (v *View) Back() messages.ViewType { return v.back }

func (v *View) Err() error { return v.err }
