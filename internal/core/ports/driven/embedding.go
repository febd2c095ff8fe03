// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations include:
//   - Deterministic SHA-256 chain (always available, no network)
//   - Ollama (all-minilm)
//   - OpenAI (text-embedding-3-small shortened to 384 dimensions)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// It returns exactly one vector per input or an error.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	// Retrieval only accepts services reporting domain.EmbeddingDimensions.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// It is stamped on every stored paragraph set.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to decide whether to fall back to the deterministic embedder.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
