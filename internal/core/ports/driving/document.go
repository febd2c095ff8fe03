package driving

import (
	"context"

	"github.com/studesprit/libsearch/internal/core/domain"
)

// DocumentService manages the lifecycle of library documents.
type DocumentService interface {
	// Add creates a document for ownerID and processes its content inline.
	// The returned document reflects the processing outcome; a processing
	// failure is returned alongside the created document.
	Add(ctx context.Context, req AddDocumentRequest) (*domain.Document, error)

	// List returns documents owned by ownerID, newest first.
	List(ctx context.Context, ownerID string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Content returns the document's extracted text.
	Content(ctx context.Context, documentID string) (string, error)

	// Paragraphs returns the stored paragraphs of a document.
	Paragraphs(ctx context.Context, documentID string) ([]domain.Paragraph, error)

	// Delete removes a document owned by ownerID with all derived data.
	Delete(ctx context.Context, ownerID, documentID string) error

	// Reprocess re-runs segmentation and embedding over the stored content.
	Reprocess(ctx context.Context, documentID string) error

	// UpdateContent replaces the document's content, merges metadata and
	// reprocesses it.
	UpdateContent(ctx context.Context, documentID, content string, metadata map[string]any) error
}

// AddDocumentRequest carries the fields of a new upload.
type AddDocumentRequest struct {
	// OwnerID is the uploading user.
	OwnerID string

	// Title is the display title. Defaults to the filename.
	Title string

	// Filename is the original upload filename.
	Filename string

	// URI is the original location, if any.
	URI string

	// Content is the extracted plain text.
	Content string

	// Metadata carries extractor details.
	Metadata map[string]any
}
