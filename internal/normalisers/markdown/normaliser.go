// Package markdown extracts plain text from Markdown files.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/normalisers/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var (
	frontMatter   = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	codeFence     = regexp.MustCompile("(?m)^```.*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	strong        = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	emphasisStar  = regexp.MustCompile(`\*([^*\n]+)\*`)
	emphasisUnder = regexp.MustCompile(`(^|\W)_([^_\n]+)_(\W|$)`)
	blockquote    = regexp.MustCompile(`(?m)^>[ \t]?`)
	rule          = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullet        = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numbered      = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	tableRule     = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t:|-]+\|[ \t:|-]*$`)
	htmlTag       = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	extraNewlines = regexp.MustCompile(`\n{3,}`)
)

// Extractor handles Markdown files.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "markdown"
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

// Extract strips Markdown syntax. Paragraph breaks survive as blank lines.
func (e *Extractor) Extract(_ context.Context, filename string, data []byte) (*driven.Extraction, error) {
	if data == nil {
		return nil, domain.ErrInvalidInput
	}

	raw := frontMatter.ReplaceAllString(plaintext.Clean(data), "")

	title := extractTitle(raw)
	if title == "" {
		title = plaintext.TitleFromFilename(filename)
	}

	return &driven.Extraction{
		Title:   title,
		Content: Strip(raw),
		Metadata: map[string]any{
			"format": "markdown",
		},
	}, nil
}

// extractTitle returns the text of the first level-one heading.
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// Strip removes common Markdown formatting. Code block contents are kept
// since course notes often explain code.
func Strip(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = tableRule.ReplaceAllString(content, "")
	content = bullet.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$2")
	content = emphasisStar.ReplaceAllString(content, "$1")
	content = emphasisUnder.ReplaceAllString(content, "$1$2$3")
	content = htmlTag.ReplaceAllString(content, "")
	content = extraNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
