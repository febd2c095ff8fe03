// Package document shows the paragraphs of one document and scrolls to the
// paragraph a search result pointed at.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studesprit/libsearch/internal/adapters/driving/tui/components/status"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/keymap"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/messages"
	"github.com/studesprit/libsearch/internal/adapters/driving/tui/styles"
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service is required")

const (
	// headerLines covers the title, metadata line and separator.
	headerLines = 4
	// footerLines covers the blank line and key hints.
	footerLines = 2
	// noFocus scrolls to the top of the document.
	noFocus = -1
)

// View is the document reader.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	documents driving.DocumentService
	ctx       context.Context
	viewport  viewport.Model

	document   *domain.Document
	paragraphs []domain.Paragraph
	focus      int

	// offsets holds the first content line of each rendered paragraph.
	offsets []int

	width   int
	height  int
	loading bool
	err     error
}

// NewView creates a document view.
func NewView(s *styles.Styles, km *keymap.KeyMap, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		documents: documents,
		ctx:       context.Background(),
		focus:     noFocus,
	}
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the context documents are loaded under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open starts loading the document behind result.
func (v *View) Open(result domain.SearchResult) tea.Cmd {
	return v.Load(result.DocumentID, result.ParagraphIndex)
}

// Load starts loading documentID and will scroll to paragraph focus once it
// arrives. A negative focus shows the top of the document.
func (v *View) Load(documentID string, focus int) tea.Cmd {
	v.loading = true
	v.err = nil
	v.document = nil
	v.paragraphs = nil
	v.offsets = nil
	v.viewport.SetContent("")

	ctx := v.ctx
	documents := v.documents

	return func() tea.Msg {
		if documents == nil {
			return messages.DocumentLoaded{Focus: focus, Err: ErrNoDocumentService}
		}
		doc, err := documents.Get(ctx, documentID)
		if err != nil {
			return messages.DocumentLoaded{Focus: focus, Err: fmt.Errorf("loading document: %w", err)}
		}
		paragraphs, err := documents.Paragraphs(ctx, documentID)
		if err != nil {
			return messages.DocumentLoaded{Document: doc, Focus: focus, Err: fmt.Errorf("loading paragraphs: %w", err)}
		}
		return messages.DocumentLoaded{Document: doc, Paragraphs: paragraphs, Focus: focus}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentLoaded:
		v.loading = false
		v.err = msg.Err
		v.document = msg.Document
		v.paragraphs = msg.Paragraphs
		v.focus = msg.Focus
		v.render()
		v.scrollToFocus()
		return v, nil

	case messages.ErrorOccurred:
		v.loading = false
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Back), key.Matches(msg, v.keymap.Quit):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewSearch}
			}
		case key.Matches(msg, v.keymap.Top):
			v.viewport.GotoTop()
			return v, nil
		case key.Matches(msg, v.keymap.Bottom):
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// render lays the paragraphs out for the current width and records where
// each one starts.
func (v *View) render() {
	v.offsets = v.offsets[:0]
	if v.document == nil {
		v.viewport.SetContent("")
		return
	}

	width := max(v.width-4, 20)
	if len(v.paragraphs) == 0 {
		body := v.styles.Muted.Render("Not indexed; showing extracted text.") + "\n\n" +
			v.styles.Normal.Width(width).Render(v.document.Content)
		v.viewport.SetContent(body)
		return
	}

	blocks := make([]string, 0, len(v.paragraphs))
	line := 0
	for _, p := range v.paragraphs {
		label := v.styles.Muted.Render(fmt.Sprintf("¶%d", p.Index))
		var text string
		if p.Index == v.focus {
			text = v.styles.Match.Width(width).Render(p.Text)
		} else {
			text = v.styles.Normal.Width(width).Render(p.Text)
		}
		block := label + "\n" + text

		v.offsets = append(v.offsets, line)
		line += lipgloss.Height(block) + 1
		blocks = append(blocks, block)
	}
	v.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

func (v *View) scrollToFocus() {
	for i, p := range v.paragraphs {
		if p.Index == v.focus && i < len(v.offsets) {
			v.viewport.SetYOffset(v.offsets[i])
			return
		}
	}
	v.viewport.GotoTop()
}

// View renders the document view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.Title
		if title == "" {
			title = v.document.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(v.metadataLine()))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading document..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	default:
		b.WriteString(v.viewport.View())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(v.footer()))
	return b.String()
}

func (v *View) metadataLine() string {
	if v.document == nil {
		return ""
	}
	parts := []string{}
	if v.document.Filename != "" {
		parts = append(parts, v.document.Filename)
	}
	parts = append(parts, fmt.Sprintf("%d paragraphs", len(v.paragraphs)))
	if v.focus >= 0 && len(v.paragraphs) > 0 {
		parts = append(parts, fmt.Sprintf("match at ¶%d", v.focus))
	}
	return strings.Join(parts, " · ")
}

func (v *View) footer() string {
	hints := status.Hints(v.keymap.DocumentHelp())
	if v.viewport.TotalLineCount() > v.viewport.Height {
		hints = fmt.Sprintf("%3.f%%  %s", v.viewport.ScrollPercent()*100, hints)
	}
	return hints
}

// SetDimensions resizes the viewport and re-flows the paragraphs.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	vpHeight := max(height-headerLines-footerLines-2, 1)
	if v.viewport.Width == 0 && v.viewport.Height == 0 {
		v.viewport = viewport.New(width, vpHeight)
	} else {
		v.viewport.Width = width
		v.viewport.Height = vpHeight
	}
	v.render()
	if v.document != nil {
		v.scrollToFocus()
	}
}

// Document returns the loaded document, if any.
func (v *View) Document() *domain.Document {
	return v.document
}

// Paragraphs returns the loaded paragraphs.
func (v *View) Paragraphs() []domain.Paragraph {
	return v.paragraphs
}

// Focus returns the paragraph index being highlighted, or -1.
func (v *View) Focus() int {
	return v.focus
}

// YOffset returns the first visible content line.
func (v *View) YOffset() int {
	return v.viewport.YOffset
}

// Loading reports whether a document load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
