package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studesprit/libsearch/internal/adapters/driven/embedding/deterministic"
	"github.com/studesprit/libsearch/internal/adapters/driven/storage/memory"
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/postprocessors/paragraph"
)

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu       sync.Mutex
	embedErr error
	batchErr error
	dims     int
	calls    int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	dims := m.dims
	if dims == 0 {
		dims = domain.EmbeddingDimensions
	}
	v := make([]float32, dims)
	v[len(text)%dims] = 1
	return v
}

func (m *mockEmbeddingService) Dimensions() int              { return m.dims }
func (m *mockEmbeddingService) ModelName() string            { return "mock" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

const (
	photosynthesis = "Photosynthesis is the process by which green plants use sunlight, water and carbon dioxide to produce glucose and oxygen."
	mitochondria   = "Mitochondria are membrane-bound organelles that generate most of the chemical energy needed to power the cell's reactions."
	revolution     = "The French Revolution was a period of political and societal change in France that began with the Estates General of 1789."
)

type retrievalFixture struct {
	svc      *RetrievalService
	store    *memory.DocumentStore
	index    *SimilarityIndex
	embedder *deterministic.EmbeddingService
}

func newRetrievalFixture(t *testing.T) *retrievalFixture {
	t.Helper()
	store := memory.NewDocumentStore()
	embedder := deterministic.NewEmbeddingService()
	index := NewSimilarityIndex(store, embedder.ModelName())
	svc := NewRetrievalService(store, store, index, paragraph.New(), embedder)
	return &retrievalFixture{svc: svc, store: store, index: index, embedder: embedder}
}

func (f *retrievalFixture) addDocument(t *testing.T, id, owner, title, content string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.SaveDocument(ctx, &domain.Document{
		ID: id, OwnerID: owner, Title: title, Content: content, CreatedAt: time.Now(),
	}))
	require.NoError(t, f.svc.Reindex(ctx, id, content))
}

func (f *retrievalFixture) setContent(t *testing.T, id, content string) {
	t.Helper()
	ctx := context.Background()
	doc, err := f.store.GetDocument(ctx, id)
	require.NoError(t, err)
	doc.Content = content
	require.NoError(t, f.store.SaveDocument(ctx, doc))
}

func TestRetrievalService_Reindex(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	f.addDocument(t, "doc1", "alice", "Biology", photosynthesis+"\n\n"+mitochondria+"\n\nshort")

	doc, err := f.store.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, doc.IsProcessed)
	assert.Equal(t, 2, doc.ParagraphCount)
	assert.Equal(t, domain.DeterministicModelName, doc.EmbeddingModel)

	set, err := f.store.GetParagraphs(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, set.Paragraphs, 2)
	assert.Equal(t, photosynthesis, set.Paragraphs[0].Text)
	assert.Equal(t, deterministic.Vector(photosynthesis), set.Paragraphs[0].Embedding)
}

func TestRetrievalService_Reindex_ReplacesWholeSet(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()
	f.addDocument(t, "doc1", "alice", "Notes", photosynthesis+"\n\n"+mitochondria)
	f.setContent(t, "doc1", revolution)

	require.NoError(t, f.svc.Reindex(ctx, "doc1", revolution))

	set, err := f.store.GetParagraphs(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, set.Paragraphs, 1)
	assert.Equal(t, revolution, set.Paragraphs[0].Text)
}

func TestRetrievalService_Reindex_NoParagraphs(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()
	f.addDocument(t, "doc1", "alice", "Notes", photosynthesis)
	f.setContent(t, "doc1", strings.Repeat("A", 50))

	require.NoError(t, f.svc.Reindex(ctx, "doc1", strings.Repeat("A", 50)))

	doc, _ := f.store.GetDocument(ctx, "doc1")
	assert.False(t, doc.IsProcessed)
	assert.Zero(t, doc.ParagraphCount)
}

func TestRetrievalService_Reindex_EmbeddingFailure(t *testing.T) {
	store := memory.NewDocumentStore()
	ctx := context.Background()
	index := NewSimilarityIndex(store, deterministic.NewEmbeddingService().ModelName())
	good := NewRetrievalService(store, store, index, paragraph.New(), deterministic.NewEmbeddingService())

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc1", OwnerID: "alice", Content: photosynthesis}))
	require.NoError(t, good.Reindex(ctx, "doc1", photosynthesis))

	failing := NewRetrievalService(store, store, index, paragraph.New(),
		&mockEmbeddingService{batchErr: errors.New("model crashed")})

	err := failing.Reindex(ctx, "doc1", mitochondria)
	require.ErrorIs(t, err, domain.ErrEmbeddingBackend)

	doc, _ := store.GetDocument(ctx, "doc1")
	assert.False(t, doc.IsProcessed)

	// The previous paragraphs are untouched
	set, err := store.GetParagraphs(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, set.Paragraphs, 1)
	assert.Equal(t, photosynthesis, set.Paragraphs[0].Text)
}

func TestRetrievalService_Reindex_WrongDimensions(t *testing.T) {
	store := memory.NewDocumentStore()
	ctx := context.Background()
	index := NewSimilarityIndex(store, "mock")
	svc := NewRetrievalService(store, store, index, paragraph.New(), &mockEmbeddingService{dims: 768})
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc1", Content: photosynthesis}))

	err := svc.Reindex(ctx, "doc1", photosynthesis)

	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	doc, _ := store.GetDocument(ctx, "doc1")
	assert.False(t, doc.IsProcessed)
}

func TestRetrievalService_Reindex_StaleContent(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()
	f.addDocument(t, "doc1", "alice", "Notes", photosynthesis)
	f.setContent(t, "doc1", mitochondria)

	err := f.svc.Reindex(ctx, "doc1", photosynthesis)
	require.ErrorIs(t, err, domain.ErrConflict)

	// The refused write leaves state for the newer content's own reindex
	doc, _ := f.store.GetDocument(ctx, "doc1")
	assert.True(t, doc.IsProcessed)
	require.NoError(t, f.svc.Reindex(ctx, "doc1", mitochondria))
	set, err := f.store.GetParagraphs(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, set.Paragraphs, 1)
	assert.Equal(t, mitochondria, set.Paragraphs[0].Text)
}

func TestRetrievalService_Search(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()
	f.addDocument(t, "doc1", "alice", "Biology", photosynthesis+"\n\n"+mitochondria)
	f.addDocument(t, "doc2", "alice", "History", revolution)

	results, err := f.svc.Search(ctx, mitochondria, domain.SearchOptions{OwnerID: "alice", Limit: 5})
	require.NoError(t, err)
	require.Len(t, results, 3)

	top := results[0]
	assert.Equal(t, "doc1", top.DocumentID)
	assert.Equal(t, "Biology", top.DocumentTitle)
	assert.Equal(t, 1, top.ParagraphIndex)
	assert.Equal(t, mitochondria, top.Text)
	assert.InDelta(t, 1.0, top.Similarity, 1e-6)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestRetrievalService_Search_Limit(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()
	f.addDocument(t, "doc1", "alice", "Biology", photosynthesis+"\n\n"+mitochondria+"\n\n"+revolution)

	results, err := f.svc.Search(ctx, "energy", domain.SearchOptions{OwnerID: "alice", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = f.svc.Search(ctx, "energy", domain.SearchOptions{OwnerID: "alice", Limit: 0})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRetrievalService_Search_ScopeIsolation(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()
	f.addDocument(t, "docA", "alice", "Alice's notes", photosynthesis)
	// Bob's paragraph is identical to the query and would rank first
	f.addDocument(t, "docB", "bob", "Bob's notes", revolution)

	results, err := f.svc.Search(ctx, revolution, domain.SearchOptions{OwnerID: "alice", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "docA", r.DocumentID)
	}
}

func TestRetrievalService_Search_EmptyScopeSkipsEmbedding(t *testing.T) {
	store := memory.NewDocumentStore()
	embedder := &mockEmbeddingService{}
	svc := NewRetrievalService(store, store, NewSimilarityIndex(store, "mock"), paragraph.New(), embedder)

	results, err := svc.Search(context.Background(), "anything", domain.SearchOptions{OwnerID: "nobody", Limit: 5})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, embedder.calls)
}

func TestRetrievalService_Search_EmbeddingFailure(t *testing.T) {
	store := memory.NewDocumentStore()
	ctx := context.Background()
	index := NewSimilarityIndex(store, "mock")
	_ = store.SaveDocument(ctx, &domain.Document{ID: "doc1", OwnerID: "alice"})
	require.NoError(t, index.Upsert(ctx, "doc1", []string{"p"}, [][]float32{axis(0, 0, 0)}))

	svc := NewRetrievalService(store, store, index, paragraph.New(),
		&mockEmbeddingService{embedErr: errors.New("timeout")})

	_, err := svc.Search(ctx, "query", domain.SearchOptions{OwnerID: "alice", Limit: 5})
	assert.ErrorIs(t, err, domain.ErrEmbeddingBackend)
}

func TestRetrievalService_Search_NilEmbedder(t *testing.T) {
	store := memory.NewDocumentStore()
	ctx := context.Background()
	index := NewSimilarityIndex(store, "")
	_ = store.SaveDocument(ctx, &domain.Document{ID: "doc1", OwnerID: "alice"})
	require.NoError(t, index.Upsert(ctx, "doc1", []string{"p"}, [][]float32{axis(0, 0, 0)}))

	svc := NewRetrievalService(store, store, index, paragraph.New(), nil)

	_, err := svc.Search(ctx, "query", domain.SearchOptions{OwnerID: "alice", Limit: 5})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrievalService_ConcurrentReindex(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()
	contents := []string{photosynthesis, mitochondria, revolution}
	for i, id := range []string{"d0", "d1", "d2"} {
		require.NoError(t, f.store.SaveDocument(ctx, &domain.Document{ID: id, OwnerID: "alice", Content: contents[i]}))
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := []string{"d0", "d1", "d2"}[n%3]
			assert.NoError(t, f.svc.Reindex(ctx, id, contents[n%3]))
		}(i)
	}
	wg.Wait()

	for i, id := range []string{"d0", "d1", "d2"} {
		set, err := f.store.GetParagraphs(ctx, id)
		require.NoError(t, err)
		require.Len(t, set.Paragraphs, 1)
		assert.Equal(t, contents[i], set.Paragraphs[0].Text)
	}
	assert.Empty(t, f.svc.locks.locks)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	var mu sync.Mutex
	active := map[string]int{}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := []string{"a", "b"}[n%2]
			unlock := k.Lock(key)
			defer unlock()

			mu.Lock()
			active[key]++
			assert.Equal(t, 1, active[key])
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active[key]--
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Empty(t, k.locks)
}
