package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
	"github.com/studesprit/libsearch/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService composes segmentation, embedding and the similarity
// index into the user-facing search and reindex operations.
type RetrievalService struct {
	catalog   driven.DocumentCatalog
	docStore  driven.DocumentStore
	index     *SimilarityIndex
	segmenter driven.PostProcessor
	embedder  driven.EmbeddingService

	locks *keyedMutex
}

// NewRetrievalService creates a new retrieval service.
// The embedder is injected once and used for both indexing and querying.
func NewRetrievalService(
	catalog driven.DocumentCatalog,
	docStore driven.DocumentStore,
	index *SimilarityIndex,
	segmenter driven.PostProcessor,
	embedder driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		catalog:   catalog,
		docStore:  docStore,
		index:     index,
		segmenter: segmenter,
		embedder:  embedder,
		locks:     newKeyedMutex(),
	}
}

// Search returns the paragraphs of opts.OwnerID's processed documents most
// similar to query.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q, owner: %q, limit: %d", query, opts.OwnerID, opts.Limit)

	if opts.Limit <= 0 {
		return []domain.SearchResult{}, nil
	}

	scope, err := s.catalog.ListProcessedDocumentIDs(ctx, opts.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve scope: %w", err)
	}
	if len(scope) == 0 {
		logger.Debug("No processed documents, skipping embedding")
		return []domain.SearchResult{}, nil
	}
	logger.Debug("Scope: %d documents", len(scope))

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingBackend, err)
	}

	matches, err := s.index.Query(ctx, vector, scope, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(matches))
	titles := make(map[string]string)
	for _, m := range matches {
		title, ok := titles[m.DocumentID]
		if !ok {
			title, err = s.catalog.DocumentTitle(ctx, m.DocumentID)
			if err != nil {
				logger.Warn("No title for %s: %v", m.DocumentID, err)
				title = ""
			}
			titles[m.DocumentID] = title
		}
		results = append(results, domain.SearchResult{
			DocumentID:     m.DocumentID,
			DocumentTitle:  title,
			ParagraphIndex: m.Index,
			Text:           m.Text,
			Similarity:     m.Similarity,
		})
	}
	logger.Info("Search returned %d results", len(results))

	return results, nil
}

// Reindex segments and embeds content, then replaces the document's whole
// paragraph set. On any failure the document is marked unprocessed and no
// new paragraphs are written. If the stored content no longer equals
// content the write is refused with domain.ErrConflict and the document is
// left to whoever changed it.
func (s *RetrievalService) Reindex(ctx context.Context, documentID, content string) error {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	logger.Section("Reindex")
	logger.Debug("Document: %s (%d bytes)", documentID, len(content))

	if err := s.reindex(ctx, documentID, content); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logger.Warn("Content of %s changed during reindex, dropping stale paragraphs", documentID)
			return err
		}
		if markErr := s.docStore.MarkUnprocessed(ctx, documentID); markErr != nil && !errors.Is(markErr, domain.ErrNotFound) {
			logger.Error("mark %s unprocessed: %v", documentID, markErr)
		}
		return err
	}
	return nil
}

func (s *RetrievalService) reindex(ctx context.Context, documentID, content string) error {
	paragraphs, err := s.segmenter.Process(ctx, content)
	if err != nil {
		return fmt.Errorf("segment %s: %w", documentID, err)
	}
	logger.Debug("Segmented into %d paragraphs", len(paragraphs))

	var embeddings [][]float32
	if len(paragraphs) > 0 {
		if s.embedder == nil {
			return domain.ErrEmbeddingUnavailable
		}
		embeddings, err = s.embedder.EmbedBatch(ctx, paragraphs)
		if err != nil {
			return fmt.Errorf("embed %s: %w: %w", documentID, domain.ErrEmbeddingBackend, err)
		}
	}

	return s.index.UpsertContent(ctx, documentID, content, paragraphs, embeddings)
}

// keyedMutex serialises work per key while different keys run in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
