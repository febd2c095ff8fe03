package driven

import (
	"context"

	"github.com/studesprit/libsearch/internal/core/domain"
)

// DocumentStore persists document metadata.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document and, in the same write, its paragraphs.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns documents owned by ownerID, newest first.
	ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error)

	// MarkUnprocessed clears the processed flag without touching content.
	MarkUnprocessed(ctx context.Context, id string) error
}

// ParagraphStore persists the paragraph set of each document.
//
// ReplaceParagraphs is the only write path and must be atomic per document:
// a reader starting after it returns sees the complete new set, and no
// reader ever observes a mix of old and new paragraphs.
type ParagraphStore interface {
	// ReplaceParagraphs swaps the whole paragraph set of set.DocumentID and
	// updates the document's processed flag, model and paragraph count in
	// the same write. An empty set leaves the document unprocessed.
	// When set.ContentHash is non-empty and the stored content no longer
	// hashes to it, nothing is written and domain.ErrConflict is returned.
	// Every replace marks the document's vectors as not mirrored.
	ReplaceParagraphs(ctx context.Context, set domain.ParagraphSet) error

	// ListParagraphs returns the paragraph sets of the given processed
	// documents, in the order of documentIDs. Unknown or unprocessed IDs
	// are omitted.
	ListParagraphs(ctx context.Context, documentIDs []string) ([]domain.ParagraphSet, error)

	// GetParagraphs returns the stored set of a single document.
	GetParagraphs(ctx context.Context, documentID string) (*domain.ParagraphSet, error)

	// MarkVectorsSynced records that the vector index holds the current
	// paragraph set of documentID.
	MarkVectorsSynced(ctx context.Context, documentID string) error

	// UnsyncedDocuments returns the documents of documentIDs whose current
	// paragraph set is not mirrored in the vector index. Unknown IDs are
	// omitted.
	UnsyncedDocuments(ctx context.Context, documentIDs []string) ([]string, error)
}
