// Package input provides the query input of the search view.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studesprit/libsearch/internal/adapters/driving/tui/styles"
)

const (
	maxQueryLength = 512
	minInputWidth  = 20

	// labelWidth covers the label plus the field border and padding.
	labelWidth = 12
)

// QueryInput wraps a bubbles textinput for natural-language queries.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQueryInput creates a focused query input.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask your library..."
	ti.Prompt = "› "
	ti.CharLimit = maxQueryLength
	ti.Width = 50
	ti.Focus()

	return &QueryInput{
		textinput: ti,
		styles:    s,
		width:     50 + labelWidth,
	}
}

// Init starts the cursor blinking.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards messages to the text input.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the labelled input field.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Query ")
	field := q.styles.InputField.Render(q.textinput.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the query as typed.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue replaces the query.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus gives the input keyboard focus.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes keyboard focus.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused reports whether the input has keyboard focus.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth fits the field to the terminal width.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-labelWidth, minInputWidth)
}

// Width returns the width the input was sized for.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the query.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
}
