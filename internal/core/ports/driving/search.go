package driving

import (
	"context"

	"github.com/studesprit/libsearch/internal/core/domain"
)

// RetrievalService finds the paragraphs across a user's documents that are
// most relevant to a query.
type RetrievalService interface {
	// Search returns up to opts.Limit paragraphs from opts.OwnerID's processed
	// documents, ordered by descending similarity. An empty scope, a limit of
	// zero or less, or no candidates all yield an empty list, never an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Reindex segments and embeds content and replaces the document's whole
	// paragraph set. On failure nothing is persisted and the document is
	// left unprocessed.
	Reindex(ctx context.Context, documentID, content string) error
}
