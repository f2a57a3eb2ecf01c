package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ragent resources.
	uriScheme = "ragent://"
)

// statusInfo is the JSON shape of an ingestion status resource.
type statusInfo struct {
	DocumentID string    `json:"document_id"`
	State      string    `json:"state"`
	Reason     string    `json:"reason,omitempty"`
	Chunks     int       `json:"chunks"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toStatusInfo(s domain.IngestionStatus) statusInfo {
	return statusInfo{
		DocumentID: s.DocumentID,
		State:      s.State.String(),
		Reason:     s.Reason,
		Chunks:     s.ChunkCount,
		UpdatedAt:  s.UpdatedAt,
	}
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Ingestion status of every known document",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-status",
		Description: "Ingestion status of a specific document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	statuses, err := s.ports.Ingestion.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]statusInfo, len(statuses))
	for i := range statuses {
		infos[i] = toStatusInfo(statuses[i])
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// ragent://documents/{documentId}; ids may contain slashes.
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Ingestion.Status(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document status: %w", err)
	}
	return jsonResource(req.Params.URI, toStatusInfo(*status))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like ragent://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
