// Package mcp provides an MCP (Model Context Protocol) server adapter for ragent.
// It lets AI assistants ask grounded questions, ingest documents and read
// session history.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrMissingIngestionService is returned when the ingestion service is not provided.
var ErrMissingIngestionService = errors.New("mcp: ingestion service is required")
