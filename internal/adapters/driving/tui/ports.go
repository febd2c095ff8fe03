// Package tui provides an interactive terminal search over a user's library.
// It is a driving adapter like the cli and mcp packages.
package tui

import (
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
)

// Ports aggregates the driving ports and session scope the TUI needs.
type Ports struct {
	// Retrieval answers queries.
	Retrieval driving.RetrievalService

	// Document loads documents and their paragraphs for reading.
	Document driving.DocumentService

	// OwnerID scopes every query.
	OwnerID string

	// Limit is the number of paragraphs per query. Zero or less means
	// domain.DefaultSearchLimit.
	Limit int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.OwnerID == "" {
		return ErrMissingOwner
	}
	return nil
}

func (p *Ports) limit() int {
	if p.Limit <= 0 {
		return domain.DefaultSearchLimit
	}
	return p.Limit
}
