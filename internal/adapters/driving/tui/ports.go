// Package tui provides an interactive terminal interface for searching and
// browsing stored contracts. It is a driving adapter like the CLI and the
// MCP server.
package tui

import (
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Search ranks fragments against a query.
	Search driving.SearchService

	// Document lists, inspects, reprocesses and deletes contracts.
	Document driving.DocumentService
}

// NewPorts creates a Ports aggregate.
func NewPorts(search driving.SearchService, document driving.DocumentService) *Ports {
	return &Ports{Search: search, Document: document}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
