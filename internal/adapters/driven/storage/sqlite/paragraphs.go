package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// maxInParams bounds the IN list of one query below SQLite's variable limit.
const maxInParams = 500

// paragraphStore implements driven.ParagraphStore.
type paragraphStore struct {
	store *Store
}

var _ driven.ParagraphStore = (*paragraphStore)(nil)

// ReplaceParagraphs swaps the whole paragraph set of a document and updates
// its processed flag, model and count in one transaction.
func (s *paragraphStore) ReplaceParagraphs(ctx context.Context, set domain.ParagraphSet) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var content string
	err = tx.QueryRowContext(ctx, "SELECT content FROM documents WHERE id = ?", set.DocumentID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("replace paragraphs of %s: %w", set.DocumentID, domain.ErrNotFound)
	}
	if err != nil {
		return storageErr("checking document", err)
	}
	if set.ContentHash != "" && domain.ContentHash(content) != set.ContentHash {
		return fmt.Errorf("replace paragraphs of %s: content changed: %w", set.DocumentID, domain.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM paragraphs WHERE document_id = ?", set.DocumentID); err != nil {
		return storageErr("deleting paragraphs", err)
	}

	if len(set.Paragraphs) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO paragraphs (document_id, position, text, embedding) VALUES (?, ?, ?, ?)")
		if err != nil {
			return storageErr("preparing insert", err)
		}
		defer stmt.Close()

		for i, p := range set.Paragraphs {
			if _, err := stmt.ExecContext(ctx, set.DocumentID, i, p.Text, float32SliceToBytes(p.Embedding)); err != nil {
				return storageErr("inserting paragraph", err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE documents
		SET is_processed = ?, embedding_model = ?, paragraph_count = ?, vectors_synced = 0, updated_at = ?
		WHERE id = ?
	`, len(set.Paragraphs) > 0, set.Model, len(set.Paragraphs), time.Now(), set.DocumentID)
	if err != nil {
		return storageErr("updating document", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing transaction", err)
	}
	return nil
}

// ListParagraphs returns the sets of processed documents in documentIDs order.
// Unknown, unprocessed and repeated IDs are skipped.
func (s *paragraphStore) ListParagraphs(ctx context.Context, documentIDs []string) ([]domain.ParagraphSet, error) {
	ids := dedupe(documentIDs)
	byID := make(map[string]*domain.ParagraphSet, len(ids))

	err := s.store.withReadTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(ids); start += maxInParams {
			end := min(start+maxInParams, len(ids))
			if err := loadParagraphs(ctx, tx, ids[start:end], byID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sets := make([]domain.ParagraphSet, 0, len(byID))
	for _, id := range ids {
		if set, ok := byID[id]; ok {
			sets = append(sets, *set)
		}
	}
	return sets, nil
}

func loadParagraphs(ctx context.Context, tx *sql.Tx, ids []string, into map[string]*domain.ParagraphSet) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT p.document_id, d.embedding_model, p.position, p.text, p.embedding
		FROM paragraphs p
		JOIN documents d ON d.id = p.document_id
		WHERE d.is_processed = 1 AND p.document_id IN (`+placeholders(len(ids))+`)
		ORDER BY p.document_id, p.position
	`, args...)
	if err != nil {
		return storageErr("querying paragraphs", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Paragraph
		var model string
		var embedding []byte
		if err := rows.Scan(&p.DocumentID, &model, &p.Index, &p.Text, &embedding); err != nil {
			return storageErr("scanning paragraph", err)
		}
		p.Embedding = bytesToFloat32Slice(embedding)

		set, ok := into[p.DocumentID]
		if !ok {
			set = &domain.ParagraphSet{DocumentID: p.DocumentID, Model: model}
			into[p.DocumentID] = set
		}
		set.Paragraphs = append(set.Paragraphs, p)
	}

	if err := rows.Err(); err != nil {
		return storageErr("iterating paragraphs", err)
	}
	return nil
}

// GetParagraphs returns the stored set of a single document.
func (s *paragraphStore) GetParagraphs(ctx context.Context, documentID string) (*domain.ParagraphSet, error) {
	set := &domain.ParagraphSet{DocumentID: documentID, Paragraphs: []domain.Paragraph{}}

	err := s.store.withReadTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT embedding_model FROM documents WHERE id = ?", documentID).Scan(&set.Model)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return storageErr("querying document", err)
		}

		rows, err := tx.QueryContext(ctx,
			"SELECT position, text, embedding FROM paragraphs WHERE document_id = ? ORDER BY position",
			documentID)
		if err != nil {
			return storageErr("querying paragraphs", err)
		}
		defer rows.Close()

		for rows.Next() {
			p := domain.Paragraph{DocumentID: documentID}
			var embedding []byte
			if err := rows.Scan(&p.Index, &p.Text, &embedding); err != nil {
				return storageErr("scanning paragraph", err)
			}
			p.Embedding = bytesToFloat32Slice(embedding)
			set.Paragraphs = append(set.Paragraphs, p)
		}
		if err := rows.Err(); err != nil {
			return storageErr("iterating paragraphs", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// MarkVectorsSynced records that the vector index mirrors the current set.
func (s *paragraphStore) MarkVectorsSynced(ctx context.Context, documentID string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET vectors_synced = 1 WHERE id = ?", documentID)
	if err != nil {
		return storageErr("marking vectors synced", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UnsyncedDocuments returns the known documents of documentIDs whose set is
// not mirrored in the vector index, in documentIDs order.
func (s *paragraphStore) UnsyncedDocuments(ctx context.Context, documentIDs []string) ([]string, error) {
	ids := dedupe(documentIDs)
	unsynced := make(map[string]bool)

	err := s.store.withReadTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(ids); start += maxInParams {
			end := min(start+maxInParams, len(ids))
			args := make([]any, end-start)
			for i, id := range ids[start:end] {
				args[i] = id
			}

			rows, err := tx.QueryContext(ctx,
				"SELECT id FROM documents WHERE vectors_synced = 0 AND id IN ("+placeholders(len(args))+")",
				args...)
			if err != nil {
				return storageErr("querying vector sync state", err)
			}
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return storageErr("scanning document id", err)
				}
				unsynced[id] = true
			}
			err = rows.Err()
			rows.Close()
			if err != nil {
				return storageErr("iterating vector sync state", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(unsynced))
	for _, id := range ids {
		if unsynced[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// catalog implements driven.DocumentCatalog.
type catalog struct {
	store *Store
}

var _ driven.DocumentCatalog = (*catalog)(nil)

// ListProcessedDocumentIDs returns the IDs of ownerID's processed documents.
func (c *catalog) ListProcessedDocumentIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT id FROM documents WHERE owner_id = ? AND is_processed = 1 ORDER BY created_at DESC, id",
		ownerID)
	if err != nil {
		return nil, storageErr("querying processed documents", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scanning document id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating document ids", err)
	}
	return ids, nil
}

// DocumentTitle returns the display title of a document.
func (c *catalog) DocumentTitle(ctx context.Context, documentID string) (string, error) {
	var title string
	err := c.store.db.QueryRowContext(ctx, "SELECT title FROM documents WHERE id = ?", documentID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", storageErr("querying title", err)
	}
	return title, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
