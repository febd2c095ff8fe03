package domain

// DefaultSearchLimit is the number of results returned when no limit is given.
const DefaultSearchLimit = 5

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// OwnerID scopes the search to documents owned by this user.
	OwnerID string

	// Limit is the maximum number of results (k).
	// A limit of zero or less yields no results.
	Limit int
}

// SearchResult represents a single ranked paragraph match.
// It is never persisted.
type SearchResult struct {
	// DocumentID is the document the paragraph belongs to.
	DocumentID string

	// DocumentTitle is the owning document's title, for attribution.
	DocumentTitle string

	// ParagraphIndex is the paragraph position within the document.
	ParagraphIndex int

	// Text is the paragraph text.
	Text string

	// Similarity is the cosine similarity to the query in [-1, 1].
	Similarity float64
}
