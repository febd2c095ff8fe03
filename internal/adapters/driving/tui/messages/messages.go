// Package messages defines the Bubbletea messages exchanged by the TUI views.
package messages

import (
	"github.com/studesprit/libsearch/internal/core/domain"
)

// SearchCompleted carries the paragraphs returned for a query.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// ResultOpened asks the app to show the document behind a result.
type ResultOpened struct {
	Result domain.SearchResult
}

// DocumentLoaded carries a document and its paragraphs for display.
// Focus is the paragraph index to scroll to, or -1 for the top.
type DocumentLoaded struct {
	Document   *domain.Document
	Paragraphs []domain.Paragraph
	Focus      int
	Err        error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the query input and result list.
	ViewSearch ViewType = iota
	// ViewDocument shows the paragraphs of one document.
	ViewDocument
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewDocument:
		return "document"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
