// Package plaintext extracts text from plain text files.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt", ".text", ".rst", ".log", ".csv"}
}

// Extract decodes the file as UTF-8 text. Invalid sequences are dropped,
// a leading byte order mark is removed and line endings become "\n".
func (e *Extractor) Extract(_ context.Context, filename string, data []byte) (*driven.Extraction, error) {
	if data == nil {
		return nil, domain.ErrInvalidInput
	}

	return &driven.Extraction{
		Title:   TitleFromFilename(filename),
		Content: Clean(data),
		Metadata: map[string]any{
			"format": "text",
		},
	}, nil
}

// Clean converts raw bytes to normalised UTF-8 text.
func Clean(data []byte) string {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

// TitleFromFilename extracts a human-readable title from a file name.
func TitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}

	name = strings.TrimSuffix(name, filepath.Ext(name))

	// Replace underscores and dashes with spaces
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")

	return strings.Join(strings.Fields(name), " ")
}
