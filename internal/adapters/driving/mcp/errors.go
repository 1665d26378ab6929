// Package mcp provides an MCP (Model Context Protocol) server adapter for ndavault.
// It lets AI assistants search contracts and review their expiration status.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
