package driven

import "context"

// DocumentCatalog is the document-metadata provider consulted by retrieval.
// Retrieval never owns document metadata; it only asks which documents are
// in scope and what they are called.
type DocumentCatalog interface {
	// ListProcessedDocumentIDs returns the IDs of ownerID's processed documents.
	ListProcessedDocumentIDs(ctx context.Context, ownerID string) ([]string, error)

	// DocumentTitle returns the display title of a document.
	DocumentTitle(ctx context.Context, documentID string) (string, error)
}
