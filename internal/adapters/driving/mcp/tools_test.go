package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studesprit/libsearch/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			results: []domain.SearchResult{
				{
					DocumentID:     "doc-1",
					DocumentTitle:  "Cell Biology",
					ParagraphIndex: 2,
					Text:           "Mitochondria produce ATP.",
					Similarity:     0.91,
				},
			},
		}

		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		input := SearchInput{Query: "energy in cells", Owner: "u1", Limit: 3}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, "Cell Biology", output.Results[0].Title)
		assert.Equal(t, 2, output.Results[0].ParagraphIndex)
		assert.Equal(t, "Mitochondria produce ATP.", output.Results[0].Text)
		assert.InDelta(t, 0.91, output.Results[0].Similarity, 1e-9)

		assert.Equal(t, domain.SearchOptions{OwnerID: "u1", Limit: 3}, mockRetrieval.lastOpts)
	})

	t.Run("default limit applied", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
		assert.Equal(t, domain.DefaultSearchLimit, mockRetrieval.lastOpts.Limit)
	})

	t.Run("missing owner uses server owner", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval, DefaultOwner: "alice"})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "photosynthesis"})

		require.NoError(t, err)
		assert.Equal(t, "alice", mockRetrieval.lastOpts.OwnerID)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "   "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{err: errors.New("search failed")}
		server, err := NewServer(&Ports{Retrieval: mockRetrieval})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleReindex(t *testing.T) {
	ctx := context.Background()

	t.Run("reprocesses and reports state", func(t *testing.T) {
		docs := &mockDocumentService{
			document: &domain.Document{
				ID:             "doc-1",
				OwnerID:        "alice",
				IsProcessed:    true,
				ParagraphCount: 4,
				EmbeddingModel: domain.DeterministicModelName,
			},
		}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Document: docs, DefaultOwner: "alice"})
		require.NoError(t, err)

		_, output, err := server.handleReindex(ctx, nil, ReindexInput{DocumentID: "doc-1"})

		require.NoError(t, err)
		assert.Equal(t, []string{"doc-1"}, docs.reprocessed)
		assert.Equal(t, ReindexOutput{
			DocumentID:     "doc-1",
			Processed:      true,
			ParagraphCount: 4,
			Model:          domain.DeterministicModelName,
		}, output)
	})

	t.Run("missing document id", func(t *testing.T) {
		docs := &mockDocumentService{}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Document: docs})
		require.NoError(t, err)

		_, _, err = server.handleReindex(ctx, nil, ReindexInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, docs.reprocessed)
	})

	t.Run("reprocess failure returned", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Document: docs})
		require.NoError(t, err)

		_, _, err = server.handleReindex(ctx, nil, ReindexInput{DocumentID: "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("other owner's document refused", func(t *testing.T) {
		tests := []struct {
			name  string
			owner string
		}{
			{"default owner", ""},
			{"named owner", "mallory"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				docs := &mockDocumentService{document: &domain.Document{ID: "doc-bob", OwnerID: "bob"}}
				server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Document: docs, DefaultOwner: "alice"})
				require.NoError(t, err)

				_, _, err = server.handleReindex(ctx, nil, ReindexInput{DocumentID: "doc-bob", Owner: tt.owner})
				assert.ErrorIs(t, err, domain.ErrForbidden)
				assert.Empty(t, docs.reprocessed)
			})
		}
	})

	t.Run("named owner reindexes own document", func(t *testing.T) {
		docs := &mockDocumentService{document: &domain.Document{ID: "doc-bob", OwnerID: "bob"}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Document: docs, DefaultOwner: "alice"})
		require.NoError(t, err)

		_, _, err = server.handleReindex(ctx, nil, ReindexInput{DocumentID: "doc-bob", Owner: "bob"})
		require.NoError(t, err)
		assert.Equal(t, []string{"doc-bob"}, docs.reprocessed)
	})
}
