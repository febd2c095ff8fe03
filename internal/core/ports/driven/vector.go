package driven

import (
	"context"

	"github.com/studesprit/libsearch/internal/core/domain"
)

// VectorIndex is the optional approximate nearest neighbour delegate.
// Backed by Qdrant. Callers must treat every error, and an empty result,
// as a signal to fall back to the exact scan.
type VectorIndex interface {
	// Upsert replaces all vectors stored for set.DocumentID.
	Upsert(ctx context.Context, set domain.ParagraphSet) error

	// Delete removes every vector of a document.
	Delete(ctx context.Context, documentID string) error

	// Search finds the k nearest paragraphs to query among documents in scope.
	Search(ctx context.Context, query []float32, scope []string, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// DocumentID is the document the paragraph belongs to.
	DocumentID string

	// Position is the paragraph index within the document.
	Position int

	// Similarity is the cosine similarity score.
	Similarity float64
}
