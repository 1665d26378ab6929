package mcp

import (
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides hybrid retrieval.
	Search driving.SearchService

	// Document manages uploaded contracts. Optional: without it the document
	// tools and resources report nothing.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
