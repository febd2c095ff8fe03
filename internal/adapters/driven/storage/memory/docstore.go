package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentStore   = (*DocumentStore)(nil)
	_ driven.ParagraphStore  = (*DocumentStore)(nil)
	_ driven.DocumentCatalog = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of the document, paragraph
// and catalog ports. Paragraph sets are copied on write and swapped under
// the write lock, so readers never see a partially replaced set.
type DocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	paragraphs map[string]domain.ParagraphSet
	synced     map[string]bool
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[string]domain.Document),
		paragraphs: make(map[string]domain.ParagraphSet),
		synced:     make(map[string]bool),
	}
}

// SaveDocument stores or updates a document.
// Processing state is owned by ReplaceParagraphs: a new document starts
// unprocessed and an update can clear the flag but never set it.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	if existing, ok := s.documents[doc.ID]; ok {
		stored.IsProcessed = existing.IsProcessed && doc.IsProcessed
		stored.EmbeddingModel = existing.EmbeddingModel
		stored.ParagraphCount = existing.ParagraphCount
	} else {
		stored.IsProcessed = false
		stored.EmbeddingModel = ""
		stored.ParagraphCount = 0
	}
	s.documents[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// DeleteDocument removes a document and its paragraphs.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.paragraphs, id)
	delete(s.synced, id)
	return nil
}

// ListDocuments returns documents owned by ownerID, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, ownerID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownedLocked(ownerID), nil
}

// MarkUnprocessed clears the processed flag of a document.
func (s *DocumentStore) MarkUnprocessed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.IsProcessed = false
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// ReplaceParagraphs swaps the paragraph set of a document and updates its
// processed flag, model and paragraph count under one lock.
func (s *DocumentStore) ReplaceParagraphs(_ context.Context, set domain.ParagraphSet) error {
	stored := copySet(set)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[set.DocumentID]
	if !ok {
		return fmt.Errorf("replace paragraphs of %s: %w", set.DocumentID, domain.ErrNotFound)
	}
	if set.ContentHash != "" && domain.ContentHash(doc.Content) != set.ContentHash {
		return fmt.Errorf("replace paragraphs of %s: content changed: %w", set.DocumentID, domain.ErrConflict)
	}

	s.paragraphs[set.DocumentID] = stored
	s.synced[set.DocumentID] = false
	doc.IsProcessed = len(stored.Paragraphs) > 0
	doc.EmbeddingModel = stored.Model
	doc.ParagraphCount = len(stored.Paragraphs)
	doc.UpdatedAt = time.Now()
	s.documents[set.DocumentID] = doc
	return nil
}

// ListParagraphs returns the sets of processed documents in documentIDs order.
func (s *DocumentStore) ListParagraphs(_ context.Context, documentIDs []string) ([]domain.ParagraphSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sets := make([]domain.ParagraphSet, 0, len(documentIDs))
	seen := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		doc, ok := s.documents[id]
		if !ok || !doc.IsProcessed {
			continue
		}
		if set, ok := s.paragraphs[id]; ok {
			sets = append(sets, set)
		}
	}
	return sets, nil
}

// GetParagraphs returns the stored set of a single document.
func (s *DocumentStore) GetParagraphs(_ context.Context, documentID string) (*domain.ParagraphSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.documents[documentID]; !ok {
		return nil, domain.ErrNotFound
	}
	set, ok := s.paragraphs[documentID]
	if !ok {
		return &domain.ParagraphSet{DocumentID: documentID, Paragraphs: []domain.Paragraph{}}, nil
	}
	return &set, nil
}

// MarkVectorsSynced records that the vector index mirrors the current set.
func (s *DocumentStore) MarkVectorsSynced(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	s.synced[documentID] = true
	return nil
}

// UnsyncedDocuments returns the known documents of documentIDs whose set is
// not mirrored in the vector index.
func (s *DocumentStore) UnsyncedDocuments(_ context.Context, documentIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, id := range documentIDs {
		if _, ok := s.documents[id]; ok && !s.synced[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListProcessedDocumentIDs returns the IDs of ownerID's processed documents.
func (s *DocumentStore) ListProcessedDocumentIDs(_ context.Context, ownerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, doc := range s.ownedLocked(ownerID) {
		if doc.IsProcessed {
			ids = append(ids, doc.ID)
		}
	}
	return ids, nil
}

// DocumentTitle returns the title of a document.
func (s *DocumentStore) DocumentTitle(_ context.Context, documentID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return doc.Title, nil
}

// ownedLocked returns ownerID's documents, newest first. Caller holds mu.
func (s *DocumentStore) ownedLocked(ownerID string) []domain.Document {
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.OwnerID == ownerID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// copySet deep-copies a paragraph set so callers cannot mutate stored vectors.
func copySet(set domain.ParagraphSet) domain.ParagraphSet {
	paragraphs := make([]domain.Paragraph, len(set.Paragraphs))
	for i, p := range set.Paragraphs {
		embedding := make([]float32, len(p.Embedding))
		copy(embedding, p.Embedding)
		paragraphs[i] = domain.Paragraph{
			DocumentID: set.DocumentID,
			Index:      p.Index,
			Text:       p.Text,
			Embedding:  embedding,
		}
	}
	return domain.ParagraphSet{
		DocumentID: set.DocumentID,
		Model:      set.Model,
		Paragraphs: paragraphs,
	}
}
