package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/views/fragments"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui/views/search"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView       *menu.View
	searchView     *search.View
	documentsView  *documents.View
	docDetailsView *docdetails.View
	fragmentsView  *fragments.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		keymap:         km,
		menuView:       menu.NewView(s, km),
		searchView:     search.NewView(s, km, ports.Search),
		documentsView:  documents.NewView(s, km, ports.Document),
		docDetailsView: docdetails.NewView(s, km),
		fragmentsView:  fragments.NewView(s, km, ports.Document),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views. Cancelling it
// cancels in-flight searches and loads.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.fragmentsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("ndavault"),
		a.menuView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo,funlen // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.routeKey(msg)

	case messages.ViewChanged:
		previous := a.currentView
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			// Coming back from a result keeps the results.
			if previous != messages.ViewMenu {
				return a, nil
			}
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewMenu, messages.ViewDocDetails, messages.ViewFragments, messages.ViewHelp:
		}
		return a, nil

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		return a, a.loadDetails(msg.Filename, msg.Back)

	case messages.DocumentDetailsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.docDetailsView.SetError(msg.Err, a.docDetailsView.Back())
		} else {
			a.docDetailsView.SetDocument(msg.View, a.docDetailsView.Back())
		}
		a.currentView = messages.ViewDocDetails
		return a, nil

	case messages.FragmentsRequested:
		a.currentView = messages.ViewFragments
		return a, a.fragmentsView.SetDocument(msg.Filename, msg.Position, msg.Keywords, msg.Back)

	case messages.FragmentsLoaded:
		a.fragmentsView, cmd = a.fragmentsView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentReprocessed, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewDocDetails:
			a.docDetailsView, cmd = a.docDetailsView.Update(msg)
		case messages.ViewFragments:
			a.fragmentsView, cmd = a.fragmentsView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Cursor blink and other ticks go to the active view.
	if a.currentView == messages.ViewSearch {
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

// routeKey forwards a key press to the active view.
func (a *App) routeKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocDetails:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
	case messages.ViewFragments:
		a.fragmentsView, cmd = a.fragmentsView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// loadDetails fetches the display state of filename for the details view.
func (a *App) loadDetails(filename string, back messages.ViewType) tea.Cmd {
	// Esc from the details returns to the view that asked for them.
	a.docDetailsView.SetDocument(nil, back)
	svc, ctx := a.ports.Document, a.ctx
	return func() tea.Msg {
		view, err := svc.View(ctx, filename)
		return messages.DocumentDetailsLoaded{Filename: filename, View: view, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewFragments:
		return a.fragmentsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp lists every binding, one column group per section.
func (a *App) viewHelp() string {
	sections := []string{"Navigation", "Search", "Scrolling and fragments", "Documents"}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for i, column := range a.keymap.FullHelp() {
		if i < len(sections) {
			b.WriteString(a.styles.Subtitle.Render(sections[i]))
			b.WriteString("\n")
		}
		for _, binding := range column {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-14s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back to menu  [ctrl+c] quit"))
	return b.String()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
	a.fragmentsView.SetDimensions(width, height)
}
