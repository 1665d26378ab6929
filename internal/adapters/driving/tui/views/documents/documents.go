// Package documents provides the contract list view of the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
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

// ActionOption is an entry of the per-document action menu.
type ActionOption int

const (
	ActionShowDetails ActionOption = iota
	ActionShowFragments
	ActionReprocess
	ActionDelete
	ActionCancel
)

var actionLabels = map[ActionOption]string{
	ActionShowDetails:   "Show details",
	ActionShowFragments: "Show fragments",
	ActionReprocess:     "Reprocess",
	ActionDelete:        "Delete",
	ActionCancel:        "Cancel",
}

// View lists every contract with its processing, workflow and expiration
// state.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	ctx             context.Context

	documents    []driving.DocumentView
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
	notice       string

	showingMenu   bool
	menuSelected  ActionOption
	confirmDelete bool
}

// NewView creates a documents view.
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
		width:           80,
		height:          24,
	}
}

// WithContext sets the context service calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	v.confirmDelete = false
	return v.loadDocuments()
}

// loadDocuments lists the records and resolves each one's display state.
// Records deleted between the two calls are skipped.
func (v *View) loadDocuments() tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		records, err := svc.List(ctx)
		if err != nil {
			return messages.DocumentsLoaded{Err: err}
		}
		views := make([]driving.DocumentView, 0, len(records))
		for i := range records {
			view, err := svc.View(ctx, records[i].Filename)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return messages.DocumentsLoaded{Err: err}
			}
			views = append(views, *view)
		}
		return messages.DocumentsLoaded{Documents: views}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case v.confirmDelete:
			return v.handleConfirmKey(msg)
		case v.showingMenu:
			return v.handleMenuKey(msg)
		default:
			return v.handleKeyMsg(msg)
		}

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			v.selected = min(v.selected, max(len(v.documents)-1, 0))
			v.adjustScroll()
		}
		return v, nil

	case messages.DocumentReprocessed:
		return v.afterChange(msg.Err, "Reprocessing "+msg.Filename)

	case messages.DocumentDeleted:
		return v.afterChange(msg.Err, "Deleted "+msg.Filename)

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// afterChange reports the outcome of an action and reloads on success.
func (v *View) afterChange(err error, notice string) (*View, tea.Cmd) {
	if err != nil {
		v.err = err
		v.notice = ""
		return v, nil
	}
	v.err = nil
	v.notice = notice
	v.loading = true
	return v, v.loadDocuments()
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case key.Matches(msg, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case key.Matches(msg, v.keymap.Actions):
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowDetails
		}
	case key.Matches(msg, v.keymap.Fragments):
		if doc := v.SelectedDocument(); doc != nil {
			return v, fragmentsCmd(doc.Record.Filename)
		}
	case key.Matches(msg, v.keymap.Reload):
		v.notice = ""
		return v, v.Init()
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleMenuKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.menuSelected > ActionShowDetails {
			v.menuSelected--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case key.Matches(msg, v.keymap.Select):
		return v.handleMenuSelect()
	case key.Matches(msg, v.keymap.Back):
		v.showingMenu = false
	}
	return v, nil
}

func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	filename := doc.Record.Filename

	switch v.menuSelected {
	case ActionShowDetails:
		return v, func() tea.Msg {
			return messages.DocumentSelected{Filename: filename, Back: messages.ViewDocuments}
		}
	case ActionShowFragments:
		return v, fragmentsCmd(filename)
	case ActionReprocess:
		return v, v.reprocess(filename)
	case ActionDelete:
		v.confirmDelete = true
	case ActionCancel:
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirmDelete = false
	doc := v.SelectedDocument()
	if doc == nil || !key.Matches(msg, v.keymap.Confirm) {
		return v, nil
	}
	return v, v.delete(doc.Record.Filename)
}

func fragmentsCmd(filename string) tea.Cmd {
	return func() tea.Msg {
		return messages.FragmentsRequested{Filename: filename, Back: messages.ViewDocuments}
	}
}

func (v *View) reprocess(filename string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentReprocessed{Filename: filename, Err: ErrNoDocumentService}
		}
		_, err := svc.Reprocess(ctx, filename)
		return messages.DocumentReprocessed{Filename: filename, Err: err}
	}
}

func (v *View) delete(filename string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{Filename: filename, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{Filename: filename, Err: svc.Delete(ctx, filename)}
	}
}

// adjustScroll keeps the selected row visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// visibleItemCount leaves room for the title, the column header and the help line.
func (v *View) visibleItemCount() int {
	return max(v.height-9, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render(`No documents yet. Add one with "ndavault upload <file>".`))
	case v.confirmDelete:
		b.WriteString(v.renderConfirm())
		return b.String()
	case v.showingMenu:
		b.WriteString(v.renderActionMenu())
		return b.String()
	default:
		b.WriteString(v.renderList())
	}

	if v.notice != "" && v.err == nil {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Success.Render(v.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [f] fragments  [r] reload  [esc] back"))
	return b.String()
}

const (
	statusWidth   = 12
	workflowWidth = 20
)

func (v *View) renderList() string {
	nameWidth := max(v.width-statusWidth-workflowWidth-30, 16)

	var b strings.Builder
	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %s", nameWidth, "FILE", statusWidth, "STATUS", workflowWidth, "WORKFLOW", "EXPIRATION")
	b.WriteString(v.styles.Muted.Render(header))
	b.WriteString("\n")

	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i], nameWidth))
		b.WriteString("\n")
	}

	if len(v.documents) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *View) renderDocument(index int, doc *driving.DocumentView, nameWidth int) string {
	name := ansi.Truncate(doc.Record.Filename, nameWidth, "...")
	status := string(doc.DisplayStatus)
	workflow := doc.Record.WorkflowStatus.String()
	expiration := expirationLabel(doc)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s  %-*s  %-*s  %s",
			nameWidth, name, statusWidth, status, workflowWidth, workflow, expiration))
	}
	return v.styles.Normal.Render(fmt.Sprintf("  %-*s  ", nameWidth, name)) +
		v.styles.ForProcessing(doc.DisplayStatus).Render(fmt.Sprintf("%-*s", statusWidth, status)) + "  " +
		v.styles.Muted.Render(fmt.Sprintf("%-*s", workflowWidth, workflow)) + "  " +
		v.styles.ForExpiration(doc.Expiration).Render(expiration)
}

// expirationLabel renders the class with the date and days left, if known.
func expirationLabel(doc *driving.DocumentView) string {
	if doc.ExpirationDate == nil {
		return doc.Expiration.Description()
	}
	label := fmt.Sprintf("%s %s", doc.Expiration.Description(), doc.ExpirationDate.Format("2006-01-02"))
	if doc.DaysRemaining != nil {
		days := *doc.DaysRemaining
		if days >= 0 {
			label += fmt.Sprintf(" (%dd left)", days)
		} else {
			label += fmt.Sprintf(" (%dd ago)", -days)
		}
	}
	return label
}

func (v *View) renderActionMenu() string {
	var b strings.Builder
	if doc := v.SelectedDocument(); doc != nil {
		b.WriteString(v.styles.Subtitle.Render("Actions for " + doc.Record.Filename))
		b.WriteString("\n\n")
	}
	for opt := ActionShowDetails; opt <= ActionCancel; opt++ {
		if opt == v.menuSelected {
			b.WriteString(v.styles.Selected.Render("> " + actionLabels[opt]))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + actionLabels[opt]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))
	return b.String()
}

func (v *View) renderConfirm() string {
	doc := v.SelectedDocument()
	if doc == nil {
		return ""
	}
	return v.styles.Warning.Render(fmt.Sprintf("Delete %s with its fragments and vectors? [y/N]", doc.Record.Filename))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.adjustScroll()
}

func (v *View) Documents() []driving.DocumentView { return v.documents }

func (v *View) SelectedIndex() int { return v.selected }

// SelectedDocument returns the highlighted document, or nil if the list is empty.
func (v *View) SelectedDocument() *driving.DocumentView {
	if v.selected < 0 || v.selected >= len(v.documents) {
		return nil
	}
	return &v.documents[v.selected]
}

func (v *View) IsShowingMenu() bool { return v.showingMenu }

// IsConfirmingDelete reports whether the delete prompt is showing.
func (v *View) IsConfirmingDelete() bool { return v.confirmDelete }

func (v *View) Err() error { return v.err }
