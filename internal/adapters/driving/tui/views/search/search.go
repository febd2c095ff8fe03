// Package search provides the query and result view of the TUI.
package search

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studesprit/libsearch/internal/adapters/driving/tui/components/input"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/components/list"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/components/status"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/keymap"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/messages"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/styles"
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
)

// reservedLines is the height taken by the header, input and status bar.
const reservedLines = 10

// View represents the search view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	ownerID   string
	limit     int
	ctx       context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
	lastQuery  string
}

// NewView creates a search view scoped to ownerID returning at most limit
// paragraphs per query.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retrieval driving.RetrievalService,
	ownerID string,
	limit int,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		retrieval:  retrieval,
		ownerID:    ownerID,
		limit:      limit,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
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

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		return v.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.Open):
		result := v.list.SelectedResult()
		if result == nil {
			return v, nil
		}
		opened := *result
		return v, func() tea.Msg {
			return messages.ResultOpened{Result: opened}
		}
	case key.Matches(msg, v.keymap.NewSearch):
		v.input.SetValue("")
		return v, v.focus()
	case key.Matches(msg, v.keymap.Back):
		return v, v.focus()
	case key.Matches(msg, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Search):
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.err = nil
		v.lastQuery = query
		v.statusbar.SetState(status.StateSearching)
		return v, v.performSearch(query)

	case key.Matches(msg, v.keymap.Back):
		if v.list.IsEmpty() {
			return v, func() tea.Msg { return messages.Quit{} }
		}
		v.blur()
		v.statusbar.SetState(status.StateResults)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// performSearch runs the query off the update loop.
func (v *View) performSearch(query string) tea.Cmd {
	ctx := v.ctx
	retrieval := v.retrieval
	opts := domain.SearchOptions{OwnerID: v.ownerID, Limit: v.limit}

	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		results, err := retrieval.Search(ctx, query, opts)
		return messages.SearchCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	// A slower, older query must not overwrite the newest results.
	if msg.Query != "" && msg.Query != v.lastQuery {
		return
	}
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Results))

	if len(msg.Results) > 0 {
		v.blur()
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) focus() tea.Cmd {
	v.focusInput = true
	return v.input.Focus()
}

func (v *View) blur() {
	v.focusInput = false
	v.input.Blur()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("libsearch") + "  " + v.styles.Muted.Render("owner: "+v.ownerID)
	sections := []string{header, "", v.input.View(), ""}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-reservedLines)
	v.statusbar.SetWidth(width)
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery replaces the query text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset clears the query and results and focuses the input.
func (v *View) Reset() tea.Cmd {
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.err = nil
	v.lastQuery = ""
	v.statusbar.Clear()
	return v.focus()
}
