package mcp

import (
	"context"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
	reindex  []string
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockRetrievalService) Reindex(_ context.Context, documentID, _ string) error {
	m.reindex = append(m.reindex, documentID)
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents   []domain.Document
	document    *domain.Document
	content     string
	err         error
	reprocessed []string
	listedOwner string
}

func (m *mockDocumentService) Add(_ context.Context, _ driving.AddDocumentRequest) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, ownerID string) ([]domain.Document, error) {
	m.listedOwner = ownerID
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Content(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) Paragraphs(_ context.Context, _ string) ([]domain.Paragraph, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockDocumentService) Reprocess(_ context.Context, documentID string) error {
	m.reprocessed = append(m.reprocessed, documentID)
	return m.err
}

func (m *mockDocumentService) UpdateContent(_ context.Context, _, _ string, _ map[string]any) error {
	return m.err
}
