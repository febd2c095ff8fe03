package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/logger"
)

// Match is a scored paragraph returned by SimilarityIndex.Query.
type Match struct {
	DocumentID string
	Index      int
	Text       string
	Similarity float64
}

// SimilarityIndex stores paragraph vectors per document and ranks them
// against a query vector by cosine similarity.
//
// Queries go to the optional VectorIndex delegate first and fall back to an
// exact scan over the ParagraphStore whenever the delegate is missing,
// fails or finds nothing.
type SimilarityIndex struct {
	store    driven.ParagraphStore
	delegate driven.VectorIndex
	model    string
}

// SimilarityOption configures a SimilarityIndex.
type SimilarityOption func(*SimilarityIndex)

// WithVectorIndex sets the approximate nearest neighbour delegate.
func WithVectorIndex(v driven.VectorIndex) SimilarityOption {
	return func(s *SimilarityIndex) {
		s.delegate = v
	}
}

// NewSimilarityIndex creates an index over store. Paragraph sets are stamped
// with model on write, and sets stamped with another model are ignored on read.
func NewSimilarityIndex(store driven.ParagraphStore, model string, opts ...SimilarityOption) *SimilarityIndex {
	s := &SimilarityIndex{
		store: store,
		model: model,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the embedding model the index accepts.
func (s *SimilarityIndex) Model() string {
	return s.model
}

// Upsert replaces every stored paragraph of documentID in one write.
// It fails with domain.ErrDimensionMismatch, writing nothing, when counts
// disagree or a vector does not have domain.EmbeddingDimensions values.
func (s *SimilarityIndex) Upsert(ctx context.Context, documentID string, paragraphs []string, embeddings [][]float32) error {
	return s.upsert(ctx, documentID, "", paragraphs, embeddings)
}

// UpsertContent is Upsert for paragraphs cut from content. The write fails
// with domain.ErrConflict, changing nothing, if the document's stored
// content is no longer content when the store applies it.
func (s *SimilarityIndex) UpsertContent(
	ctx context.Context, documentID, content string, paragraphs []string, embeddings [][]float32,
) error {
	return s.upsert(ctx, documentID, domain.ContentHash(content), paragraphs, embeddings)
}

func (s *SimilarityIndex) upsert(
	ctx context.Context, documentID, contentHash string, paragraphs []string, embeddings [][]float32,
) error {
	if err := domain.ValidateEmbeddings(paragraphs, embeddings); err != nil {
		return fmt.Errorf("upsert %s: %w", documentID, err)
	}

	set := domain.ParagraphSet{
		DocumentID:  documentID,
		Model:       s.model,
		Paragraphs:  make([]domain.Paragraph, len(paragraphs)),
		ContentHash: contentHash,
	}
	for i, text := range paragraphs {
		set.Paragraphs[i] = domain.Paragraph{
			DocumentID: documentID,
			Index:      i,
			Text:       text,
			Embedding:  embeddings[i],
		}
	}

	if err := s.store.ReplaceParagraphs(ctx, set); err != nil {
		return fmt.Errorf("upsert %s: %w", documentID, err)
	}
	logger.Debug("Stored %d paragraphs for %s", len(paragraphs), documentID)

	if s.delegate != nil {
		s.mirror(ctx, set)
	}

	return nil
}

// mirror copies set into the delegate. The store keeps the document marked
// unsynced until this succeeds, so queries over it use the exact scan
// instead of vectors the delegate may still hold for an older set.
func (s *SimilarityIndex) mirror(ctx context.Context, set domain.ParagraphSet) {
	if err := s.delegate.Upsert(ctx, set); err != nil {
		logger.Error("vector index upsert failed for %s, exact scan serves it until reindexed: %v", set.DocumentID, err)
		if delErr := s.delegate.Delete(ctx, set.DocumentID); delErr != nil {
			logger.Warn("Vector index cleanup failed for %s: %v", set.DocumentID, delErr)
		}
		return
	}
	if err := s.store.MarkVectorsSynced(ctx, set.DocumentID); err != nil {
		logger.Warn("Could not mark %s synced: %v", set.DocumentID, err)
	}
}

// Delete removes the paragraph set of documentID and its delegate vectors.
func (s *SimilarityIndex) Delete(ctx context.Context, documentID string) error {
	if s.delegate != nil {
		if err := s.delegate.Delete(ctx, documentID); err != nil {
			logger.Warn("Vector index delete failed for %s: %v", documentID, err)
		}
	}

	err := s.store.ReplaceParagraphs(ctx, domain.ParagraphSet{DocumentID: documentID, Model: s.model})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete paragraphs of %s: %w", documentID, err)
	}
	return nil
}

// Query returns up to k paragraphs from scope ordered by descending cosine
// similarity to vector. Ties keep scope order, then paragraph order.
// k <= 0 and an empty scope return an empty list.
func (s *SimilarityIndex) Query(ctx context.Context, vector []float32, scope []string, k int) ([]Match, error) {
	if k <= 0 || len(scope) == 0 {
		return []Match{}, nil
	}
	if len(vector) != domain.EmbeddingDimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			domain.ErrDimensionMismatch, len(vector), domain.EmbeddingDimensions)
	}

	if s.delegate != nil {
		matches, err := s.queryDelegate(ctx, vector, scope, k)
		switch {
		case err != nil:
			logger.Fallback("similarity", "vector index", "exact scan", err)
		case len(matches) == 0:
			logger.Fallback("similarity", "vector index", "exact scan", errors.New("no results"))
		default:
			return matches, nil
		}
	}

	return s.exactScan(ctx, vector, scope, k)
}

// exactScan scores every stored paragraph in scope.
func (s *SimilarityIndex) exactScan(ctx context.Context, vector []float32, scope []string, k int) ([]Match, error) {
	sets, err := s.store.ListParagraphs(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("exact scan: %w", err)
	}

	var candidates []Match
	for _, set := range sets {
		if !s.acceptsModel(set) {
			continue
		}
		for _, p := range set.Paragraphs {
			if m, ok := score(vector, p); ok {
				candidates = append(candidates, m)
			}
		}
	}
	logger.Debug("Exact scan scored %d paragraphs across %d documents", len(candidates), len(sets))

	return topK(candidates, k), nil
}

// errUnsynced routes a query to the exact scan when part of its scope is
// not mirrored in the delegate.
var errUnsynced = errors.New("documents not mirrored in vector index")

// queryDelegate runs the delegate search and re-scores its hits against
// the stored paragraphs. Hits outside scope or no longer stored are dropped.
// A scope holding unsynced documents is refused with errUnsynced.
func (s *SimilarityIndex) queryDelegate(ctx context.Context, vector []float32, scope []string, k int) ([]Match, error) {
	unsynced, err := s.store.UnsyncedDocuments(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(unsynced) > 0 {
		return nil, fmt.Errorf("%w: %d of %d", errUnsynced, len(unsynced), len(scope))
	}

	hits, err := s.delegate.Search(ctx, vector, scope, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	inScope := make(map[string]bool, len(scope))
	for _, id := range scope {
		inScope[id] = true
	}

	// Load each hit document once, in scope order.
	wanted := make(map[string]bool)
	for _, hit := range hits {
		if inScope[hit.DocumentID] {
			wanted[hit.DocumentID] = true
		} else {
			logger.Warn("Vector index returned out-of-scope document %s", hit.DocumentID)
		}
	}
	ids := make([]string, 0, len(wanted))
	for _, id := range scope {
		if wanted[id] {
			ids = append(ids, id)
			delete(wanted, id)
		}
	}

	sets, err := s.store.ListParagraphs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byDoc := make(map[string]domain.ParagraphSet, len(sets))
	for _, set := range sets {
		if s.acceptsModel(set) {
			byDoc[set.DocumentID] = set
		}
	}

	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		set, ok := byDoc[hit.DocumentID]
		if !ok || hit.Position < 0 || hit.Position >= len(set.Paragraphs) {
			continue
		}
		if m, ok := score(vector, set.Paragraphs[hit.Position]); ok {
			matches = append(matches, m)
		}
	}

	return topK(matches, k), nil
}

func (s *SimilarityIndex) acceptsModel(set domain.ParagraphSet) bool {
	if s.model == "" || set.Model == "" || set.Model == s.model {
		return true
	}
	logger.Warn("Skipping %s: embedded with %q, index uses %q", set.DocumentID, set.Model, s.model)
	return false
}

// score computes the cosine similarity of one stored paragraph.
// Rows with the wrong dimension or a zero norm are skipped.
func score(vector []float32, p domain.Paragraph) (Match, bool) {
	if len(p.Embedding) != len(vector) {
		logger.Error("skipping %s/%d: embedding has %d dimensions, want %d",
			p.DocumentID, p.Index, len(p.Embedding), len(vector))
		return Match{}, false
	}
	sim, ok := domain.CosineSimilarity(vector, p.Embedding)
	if !ok {
		logger.Debug("Skipping %s/%d: zero norm", p.DocumentID, p.Index)
		return Match{}, false
	}
	return Match{
		DocumentID: p.DocumentID,
		Index:      p.Index,
		Text:       p.Text,
		Similarity: sim,
	}, true
}

// topK stable-sorts by descending similarity and keeps the first k.
func topK(matches []Match, k int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	if matches == nil {
		return []Match{}
	}
	return matches
}
