package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studesprit/libsearch/internal/adapters/driving/tui/messages"
	"github.com/studesprit/libsearch/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Retrieval: &MockRetrievalService{
			SearchFunc: func(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
				return []domain.SearchResult{
					{DocumentID: "doc-1", DocumentTitle: "Oceans", ParagraphIndex: 1, Text: "Tides follow the moon.", Similarity: 0.9},
				}, nil
			},
		},
		Document: &MockDocumentService{
			Docs: map[string]*domain.Document{
				"doc-1": {ID: "doc-1", OwnerID: "alice", Title: "Oceans"},
			},
			Paragraph: map[string][]domain.Paragraph{
				"doc-1": {
					{DocumentID: "doc-1", Index: 0, Text: "Seas cover most of the planet."},
					{DocumentID: "doc-1", Index: 1, Text: "Tides follow the moon."},
				},
			},
		},
		OwnerID: "alice",
		Limit:   4,
	}
}

func newReadyApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

// run executes cmd, feeds its message back into the app and returns the
// follow-up command.
func run(t *testing.T, app *App, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := app.Update(cmd())
	return next
}

func typeText(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Retrieval: &MockRetrievalService{}})

	assert.ErrorIs(t, err, ErrMissingDocumentService)
	assert.Nil(t, app)
}

func TestNewApp_NilPorts(t *testing.T) {
	app, err := NewApp(nil)

	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestApp_Init(t *testing.T) {
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app := newReadyApp(t)

	assert.True(t, app.Ready())
	assert.Equal(t, 100, app.width)
	assert.Contains(t, app.View(), "libsearch")
}

func TestApp_SearchOpenAndReturn(t *testing.T) {
	app := newReadyApp(t)

	typeText(app, "tides")
	assert.Equal(t, "tides", app.Query())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, app, cmd)
	require.Len(t, app.SearchView().Results(), 1)
	assert.Contains(t, app.View(), "Oceans")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	load := run(t, app, cmd)
	assert.Equal(t, messages.ViewDocument, app.CurrentView())
	require.True(t, app.DocumentView().Loading())

	run(t, app, load)

	assert.False(t, app.DocumentView().Loading())
	assert.Equal(t, 1, app.DocumentView().Focus())
	assert.Contains(t, app.View(), "Seas cover most of the planet.")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	run(t, app, cmd)
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Len(t, app.SearchView().Results(), 1)
}

func TestApp_SearchUsesOwnerAndLimit(t *testing.T) {
	ports := newTestPorts()
	var got domain.SearchOptions
	ports.Retrieval = &MockRetrievalService{
		SearchFunc: func(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
			got = opts
			return nil, nil
		},
	}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	typeText(app, "q")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, app, cmd)

	assert.Equal(t, domain.SearchOptions{OwnerID: "alice", Limit: 4}, got)
}

func TestApp_OpenMissingDocument(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.ResultOpened{Result: domain.SearchResult{DocumentID: "gone"}})
	run(t, app, cmd)

	assert.Equal(t, messages.ViewDocument, app.CurrentView())
	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
	assert.Contains(t, app.View(), "Error:")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_ErrorOccurredReachesActiveView(t *testing.T) {
	app := newReadyApp(t)

	app.Update(messages.ErrorOccurred{Err: domain.ErrNotFound})

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
	assert.ErrorIs(t, app.SearchView().Err(), domain.ErrNotFound)
}

func TestApp_WithContext(t *testing.T) {
	type ctxKey string
	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")
	ports := newTestPorts()
	seen := false
	ports.Retrieval = &MockRetrievalService{
		SearchFunc: func(got context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
			seen = got.Value(ctxKey("k")) == "v"
			return nil, nil
		},
	}
	app, err := NewApp(ports)
	require.NoError(t, err)

	result := app.WithContext(ctx)
	result.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	typeText(app, "tides")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, app, cmd)

	assert.Same(t, app, result)
	assert.True(t, seen)
}
