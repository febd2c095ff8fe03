package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
//
// The processed flag, model and paragraph count belong to ReplaceParagraphs:
// a new document starts unprocessed, and an update can clear the flag but
// never set it.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	createdAt, updatedAt := doc.CreatedAt, doc.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, owner_id, title, filename, uri, content, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			title = excluded.title,
			filename = excluded.filename,
			uri = excluded.uri,
			content = excluded.content,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at,
			is_processed = CASE WHEN ? THEN documents.is_processed ELSE 0 END
	`, doc.ID, doc.OwnerID, doc.Title, doc.Filename, doc.URI, doc.Content,
		string(metadataJSON), createdAt, updatedAt, doc.IsProcessed)
	if err != nil {
		return storageErr("saving document", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// DeleteDocument removes a document and its paragraphs in one transaction.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM paragraphs WHERE document_id = ?", id); err != nil {
		return storageErr("deleting paragraphs", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return storageErr("deleting document", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing transaction", err)
	}
	return nil
}

// ListDocuments returns documents owned by ownerID, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE owner_id = ? ORDER BY created_at DESC, id",
		ownerID)
	if err != nil {
		return nil, storageErr("querying documents", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating documents", err)
	}

	return docs, nil
}

// MarkUnprocessed clears the processed flag of a document.
func (s *documentStore) MarkUnprocessed(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET is_processed = 0, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return storageErr("marking document unprocessed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("marking document unprocessed", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
