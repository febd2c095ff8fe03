package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/normalisers/docx"
	"github.com/studesprit/libsearch/internal/normalisers/html"
	"github.com/studesprit/libsearch/internal/normalisers/markdown"
	"github.com/studesprit/libsearch/internal/normalisers/pdf"
	"github.com/studesprit/libsearch/internal/normalisers/plaintext"
)

// excerptLength is the number of characters kept in the "excerpt" metadata.
const excerptLength = 400

// Registry maps file extensions to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]driven.Extractor)}
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds an extractor for all of its extensions.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.SupportedExtensions() {
		r.extractors[strings.ToLower(ext)] = e
	}
}

// For returns the extractor handling filename.
func (r *Registry) For(filename string) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[strings.ToLower(filepath.Ext(filename))]
	return e, ok
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.For(filename)
	return ok
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract selects the extractor for filename and runs it. The returned
// metadata always carries "extractor", "chars" and "excerpt".
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (*driven.Extraction, error) {
	e, ok := r.For(filename)
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %q", domain.ErrUnsupportedType, filepath.Ext(filename))
	}

	result, err := e.Extract(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	if result.Metadata == nil {
		result.Metadata = make(map[string]any)
	}
	runes := []rune(result.Content)
	result.Metadata["extractor"] = e.Name()
	result.Metadata["chars"] = len(runes)
	result.Metadata["excerpt"] = strings.Join(strings.Fields(string(runes[:min(len(runes), excerptLength)])), " ")

	return result, nil
}

// TitleFromFilename builds a human-readable title from a file name.
func TitleFromFilename(filename string) string {
	return plaintext.TitleFromFilename(filename)
}
