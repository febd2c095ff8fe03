package driven

import "context"

// PostProcessor turns extracted document text into retrievable units.
// The paragraph segmenter is the built-in processor.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process splits text into an ordered list of paragraph strings.
	// The whole list is returned at once so indices are stable before persistence.
	Process(ctx context.Context, text string) ([]string, error)
}
