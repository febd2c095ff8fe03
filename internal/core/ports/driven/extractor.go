package driven

import "context"

// Extractor pulls plain text out of an uploaded file.
// Each extractor handles specific file extensions (e.g., .pdf, .md).
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// SupportedExtensions returns lower-case extensions including the dot.
	SupportedExtensions() []string

	// Extract returns the document text and extraction metadata.
	Extract(ctx context.Context, filename string, data []byte) (*Extraction, error)
}

// Extraction is the output of text extraction.
type Extraction struct {
	// Title is a suggested document title, may be empty.
	Title string

	// Content is the extracted plain text.
	Content string

	// Metadata contains extractor-specific details (page count, etc).
	Metadata map[string]any
}
