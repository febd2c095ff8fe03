// Package deterministic provides a hash-based embedding service.
//
// Vectors are derived from a SHA-256 chain over the input text. They carry
// no semantic meaning but are stable across runs and machines, which makes
// them a usable stand-in when no embedding model is reachable.
package deterministic

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService generates deterministic embeddings.
// It holds no state and is safe for concurrent use.
type EmbeddingService struct{}

// NewEmbeddingService creates a new deterministic embedding service.
func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

// Embed returns the vector for text. It never fails.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return Vector(text), nil
}

// EmbedBatch returns one vector per text, in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = Vector(text)
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return domain.EmbeddingDimensions
}

// ModelName returns the name stamped on stored paragraph sets.
func (s *EmbeddingService) ModelName() string {
	return domain.DeterministicModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// Vector computes the L2-normalised embedding of text.
//
// The seed starts as the UTF-8 bytes of text. Each round hashes the seed,
// reads the digest as big-endian uint16 pairs mapped to
// ((val % 1000) / 500) - 1, then uses the digest as the next seed.
// An all-zero vector is returned unnormalised.
func Vector(text string) []float32 {
	values := make([]float64, 0, domain.EmbeddingDimensions)
	seed := []byte(text)

	for len(values) < domain.EmbeddingDimensions {
		digest := sha256.Sum256(seed)
		for i := 0; i+1 < len(digest) && len(values) < domain.EmbeddingDimensions; i += 2 {
			val := binary.BigEndian.Uint16(digest[i : i+2])
			values = append(values, float64(val%1000)/500.0-1.0)
		}
		seed = digest[:]
	}

	var sum float64
	for _, v := range values {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	vec := make([]float32, len(values))
	for i, v := range values {
		if norm > 0 {
			v /= norm
		}
		vec[i] = float32(v)
	}

	return vec
}
