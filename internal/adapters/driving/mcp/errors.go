// Package mcp provides an MCP (Model Context Protocol) server adapter for skywatch.
// It lets AI assistants look up publisher reputation before trusting an MCP server.
package mcp

import "errors"

// ErrMissingReputationService is returned when the reputation service is not provided.
var ErrMissingReputationService = errors.New("mcp: reputation service is required")
