package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
	"github.com/studesprit/libsearch/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages library documents and keeps their paragraph
// index in step with their content.
type DocumentService struct {
	docStore   driven.DocumentStore
	paragraphs driven.ParagraphStore
	retrieval  driving.RetrievalService
	index      *SimilarityIndex
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	paragraphs driven.ParagraphStore,
	retrieval driving.RetrievalService,
	index *SimilarityIndex,
) *DocumentService {
	return &DocumentService{
		docStore:   docStore,
		paragraphs: paragraphs,
		retrieval:  retrieval,
		index:      index,
	}
}

// Add stores a new document and processes it inline.
func (s *DocumentService) Add(ctx context.Context, req driving.AddDocumentRequest) (*domain.Document, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.Filename
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title or filename is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		OwnerID:   req.OwnerID,
		Title:     title,
		Filename:  req.Filename,
		URI:       req.URI,
		Content:   req.Content,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	logger.Info("Added document %s (%s)", doc.ID, doc.Title)

	procErr := s.retrieval.Reindex(ctx, doc.ID, doc.Content)

	saved, err := s.docStore.GetDocument(ctx, doc.ID)
	if err != nil {
		return doc, fmt.Errorf("reload document: %w", err)
	}
	if procErr != nil {
		return saved, fmt.Errorf("process document: %w", procErr)
	}
	return saved, nil
}

// List returns documents owned by ownerID, newest first.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, ownerID)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// Content returns the document's extracted text.
func (s *DocumentService) Content(ctx context.Context, documentID string) (string, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// Paragraphs returns the stored paragraphs of a document, in order.
func (s *DocumentService) Paragraphs(ctx context.Context, documentID string) ([]domain.Paragraph, error) {
	set, err := s.paragraphs.GetParagraphs(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return set.Paragraphs, nil
}

// Delete removes a document owned by ownerID, its paragraphs and its
// vector index entries.
func (s *DocumentService) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != ownerID {
		return fmt.Errorf("%w: document %s belongs to another user", domain.ErrForbidden, documentID)
	}

	if s.index != nil {
		if err := s.index.Delete(ctx, documentID); err != nil {
			return err
		}
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}

// reprocessAttempts bounds how often Reprocess re-reads content that keeps
// changing underneath it.
const reprocessAttempts = 3

// Reprocess re-runs segmentation and embedding over the stored content.
func (s *DocumentService) Reprocess(ctx context.Context, documentID string) error {
	var err error
	for range reprocessAttempts {
		var doc *domain.Document
		doc, err = s.docStore.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		err = s.retrieval.Reindex(ctx, documentID, doc.Content)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		logger.Debug("Content of %s changed, reading it again", documentID)
	}
	return err
}

// UpdateContent replaces the stored content, merges metadata into the
// existing metadata and reprocesses the document.
func (s *DocumentService) UpdateContent(ctx context.Context, documentID, content string, metadata map[string]any) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if len(metadata) > 0 && doc.Metadata == nil {
		doc.Metadata = make(map[string]any, len(metadata))
	}
	for k, v := range metadata {
		doc.Metadata[k] = v
	}
	doc.Content = content
	doc.IsProcessed = false
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	return s.retrieval.Reindex(ctx, documentID, content)
}
