package mcp

import (
	"github.com/studesprit/libsearch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval provides paragraph search.
	Retrieval driving.RetrievalService

	// Document manages library documents. Without it the reindex tool and
	// the document resources are not registered.
	Document driving.DocumentService

	// DefaultOwner scopes search calls that name no owner.
	DefaultOwner string

	// DefaultLimit is used when a search call gives no limit.
	DefaultLimit int
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}

func (p *Ports) searchOwner(requested string) string {
	if requested != "" {
		return requested
	}
	return p.DefaultOwner
}

func (p *Ports) searchLimit(requested int) int {
	if requested > 0 {
		return requested
	}
	if p.DefaultLimit > 0 {
		return p.DefaultLimit
	}
	return defaultSearchLimit
}
