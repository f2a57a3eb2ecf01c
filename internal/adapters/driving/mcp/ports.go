package mcp

import (
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Query answers questions and exposes session history.
	Query driving.QueryService

	// Ingestion indexes documents and reports their status.
	Ingestion driving.IngestionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	return nil
}
