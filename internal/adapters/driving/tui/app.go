package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studesprit/libsearch/internal/adapters/driving/tui/keymap"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/messages"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/styles"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/views/document"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/views/search"
)

// App is the TUI root model. It routes messages between the search view and
// the document view.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	searchView   *search.View
	documentView *document.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingRetrievalService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		searchView:   search.NewView(s, km, ports.Retrieval, ports.OwnerID, ports.limit()),
		documentView: document.NewView(s, km, ports.Document),
		currentView:  messages.ViewSearch,
	}, nil
}

// WithContext sets the context service calls run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.documentView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("libsearch"),
		a.searchView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ResultOpened:
		a.currentView = messages.ViewDocument
		return a, a.documentView.Open(msg.Result)

	case messages.DocumentLoaded:
		a.documentView, cmd = a.documentView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewDocument:
		a.documentView, cmd = a.documentView.Update(msg)
	default:
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewDocument {
		return a.documentView.View()
	}
	return a.searchView.View()
}

// SetDimensions sizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.searchView.SetDimensions(width, height)
	a.documentView.SetDimensions(width, height)
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Query returns the text in the search input.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Err returns the last error reported by a view.
func (a *App) Err() error {
	return a.err
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// SearchView returns the search view.
func (a *App) SearchView() *search.View {
	return a.searchView
}

// DocumentView returns the document view.
func (a *App) DocumentView() *document.View {
	return a.documentView
}
