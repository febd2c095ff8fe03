// Package paragraph provides the paragraph segmenter that feeds embedding.
//
// Text is split on blank lines to recover the author's paragraphs,
// whitespace is collapsed per paragraph, short paragraphs are dropped and
// long ones are re-split at sentence boundaries.
package paragraph

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// DefaultMinLength is the default minimum paragraph length in characters.
const DefaultMinLength = 100

// DefaultMaxLength is the default maximum paragraph length in characters.
const DefaultMaxLength = 1000

// blankLine matches two or more newlines separated only by whitespace.
var blankLine = regexp.MustCompile(`\n\s*\n`)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits text into length-bounded paragraphs.
// It implements the PostProcessor interface.
type Processor struct {
	minLength int
	maxLength int
}

// Option configures the paragraph processor.
type Option func(*Processor)

// WithMinLength sets the minimum paragraph length in characters.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// WithMaxLength sets the maximum paragraph length in characters.
func WithMaxLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLength = n
		}
	}
}

// New creates a new paragraph processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		minLength: DefaultMinLength,
		maxLength: DefaultMaxLength,
	}

	for _, opt := range opts {
		opt(p)
	}

	// A minimum above the maximum would discard everything
	if p.minLength > p.maxLength {
		p.minLength = p.maxLength
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "paragraph"
}

// MinLength returns the configured minimum length.
func (p *Processor) MinLength() int {
	return p.minLength
}

// MaxLength returns the configured maximum length.
func (p *Processor) MaxLength() int {
	return p.maxLength
}

// Process splits text into paragraphs.
func (p *Processor) Process(_ context.Context, text string) ([]string, error) {
	return p.Segment(text), nil
}

// Segment returns the ordered paragraphs of text.
//
// Every returned paragraph is at least MinLength characters. A paragraph is
// at most MaxLength characters unless it is a single sentence that is itself
// longer; such sentences are kept whole rather than truncated.
func (p *Processor) Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	paragraphs := make([]string, 0)
	for _, candidate := range blankLine.Split(text, -1) {
		candidate = collapseWhitespace(candidate)
		n := runeLen(candidate)
		if n == 0 || n < p.minLength {
			continue
		}

		if n <= p.maxLength {
			paragraphs = append(paragraphs, candidate)
			continue
		}

		for _, chunk := range p.packSentences(splitSentences(candidate)) {
			if runeLen(chunk) >= p.minLength {
				paragraphs = append(paragraphs, chunk)
			}
		}
	}

	return paragraphs
}

// packSentences greedily joins sentences into chunks of at most maxLength.
func (p *Processor) packSentences(sentences []string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := runeLen(sentence)
		if currentLen > 0 && currentLen+1+sentenceLen > p.maxLength {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}

		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitSentences splits normalised text after ". ", "! " and "? ".
// The terminator stays with its sentence; the separating space is dropped.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' {
				sentences = append(sentences, text[start:i+1])
				start = i + 2
				i++
			}
		}
	}

	if start < len(text) {
		sentences = append(sentences, text[start:])
	}

	return sentences
}

// collapseWhitespace trims s and replaces every whitespace run with one space.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false

	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
