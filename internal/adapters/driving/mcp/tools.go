package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studesprit/libsearch/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or phrase to look for"`
	Owner string `json:"owner,omitempty" jsonschema:"the user whose documents are searched (default: the server's owner)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of paragraphs to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single matching paragraph.
type SearchResultOutput struct {
	DocumentID     string  `json:"document_id"`
	Title          string  `json:"title"`
	ParagraphIndex int     `json:"paragraph_index"`
	Text           string  `json:"text"`
	Similarity     float64 `json:"similarity"`
}

// ReindexInput is the input schema for the reindex tool.
type ReindexInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to segment and embed again"`
	Owner      string `json:"owner,omitempty" jsonschema:"the user who owns the document (default: the server's owner)"`
}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	DocumentID     string `json:"document_id"`
	Processed      bool   `json:"processed"`
	ParagraphCount int    `json:"paragraph_count"`
	Model          string `json:"model,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the paragraphs in a user's library most relevant to a query",
	}, s.handleSearch)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reindex",
			Description: "Re-run paragraph segmentation and embedding for one document",
		}, s.handleReindex)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	opts := domain.SearchOptions{
		OwnerID: s.ports.searchOwner(input.Owner),
		Limit:   s.ports.searchLimit(input.Limit),
	}
	results, err := s.ports.Retrieval.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID:     results[i].DocumentID,
			Title:          results[i].DocumentTitle,
			ParagraphIndex: results[i].ParagraphIndex,
			Text:           results[i].Text,
			Similarity:     results[i].Similarity,
		}
	}

	return nil, output, nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, ReindexOutput{}, fmt.Errorf("%w: document_id is required", domain.ErrInvalidInput)
	}

	doc, err := s.ports.Document.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	if owner := s.ports.searchOwner(input.Owner); doc.OwnerID != owner {
		return nil, ReindexOutput{}, fmt.Errorf("%w: document %s is not owned by %q", domain.ErrForbidden, input.DocumentID, owner)
	}

	if err = s.ports.Document.Reprocess(ctx, input.DocumentID); err != nil {
		return nil, ReindexOutput{}, err
	}

	doc, err = s.ports.Document.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, ReindexOutput{}, err
	}

	return nil, ReindexOutput{
		DocumentID:     doc.ID,
		Processed:      doc.IsProcessed,
		ParagraphCount: doc.ParagraphCount,
		Model:          doc.EmbeddingModel,
	}, nil
}
