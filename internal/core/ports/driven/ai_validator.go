package driven

import "github.com/studesprit/libsearch/internal/core/domain"

// EmbeddingValidator checks that an embedding configuration can actually
// serve requests, typically by building the backend and pinging it.
type EmbeddingValidator interface {
	// ValidateEmbedding returns an error describing why the configuration
	// cannot be used. Unconfigured settings are not an error.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
}
