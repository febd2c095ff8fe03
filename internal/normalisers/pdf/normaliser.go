// Package pdf extracts text from PDF documents using a pure Go reader.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/normalisers/plaintext"
)

// maxTitleLength bounds the first-line title guess.
const maxTitleLength = 200

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// PageReader returns the plain text of each page in order.
type PageReader func(data []byte) ([]string, error)

// Extractor handles PDF documents.
type Extractor struct {
	readPages PageReader
}

// New creates a new PDF extractor backed by github.com/ledongthuc/pdf.
func New() *Extractor {
	return &Extractor{readPages: readPages}
}

// NewWithReader creates an extractor with a custom page reader.
func NewWithReader(reader PageReader) *Extractor {
	return &Extractor{readPages: reader}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract reads every page. Pages are separated by blank lines.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*driven.Extraction, error) {
	if len(data) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := e.readPages(data)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", domain.ErrInvalidInput, err)
	}

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		if text := strings.TrimSpace(plaintext.Clean([]byte(page))); text != "" {
			texts = append(texts, text)
		}
	}
	content := strings.Join(texts, "\n\n")

	return &driven.Extraction{
		Title:   extractTitle(content, filename),
		Content: content,
		Metadata: map[string]any{
			"format": "pdf",
			"pages":  len(pages),
		},
	}, nil
}

// readPages decodes data with the ledongthuc reader. The reader panics on
// some malformed files, so panics are converted to errors.
func readPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			font := page.Font(name)
			fonts[name] = &font
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}

// extractTitle uses the first short non-empty line, falling back to the filename.
func extractTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLength {
			return line
		}
	}
	return plaintext.TitleFromFilename(filename)
}
