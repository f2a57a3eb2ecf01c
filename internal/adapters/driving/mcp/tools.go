package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vippawar1104/RAG-agent/internal/connectors/filesystem"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// defaultHistoryTurns is used when the history tool is called without a limit.
const defaultHistoryTurns = 10

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query     string `json:"query" jsonschema:"the question to answer from the indexed documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation id; omit to start a new session"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

// IngestInput is the input schema for the ingest tool. Either Content or
// Path must be set.
type IngestInput struct {
	ID       string `json:"id,omitempty" jsonschema:"document id; defaults to the file name when path is set"`
	Content  string `json:"content,omitempty" jsonschema:"document text to index"`
	Path     string `json:"path,omitempty" jsonschema:"local file to read and index"`
	MIMEType string `json:"mime_type,omitempty" jsonschema:"content type; detected from the file extension for path, text/plain for content"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	State      string `json:"state"`
	Chunks     int    `json:"chunks"`
	Skipped    bool   `json:"skipped,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// HistoryInput is the input schema for the history tool.
type HistoryInput struct {
	SessionID string `json:"session_id" jsonschema:"conversation id"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of turns to return (default 10)"`
}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	Turns []TurnOutput `json:"turns"`
	Count int          `json:"count"`
}

// TurnOutput is a single conversation turn.
type TurnOutput struct {
	Index   int    `json:"index"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Index a document from text or a local file",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "history",
		Description: "Show recent turns of a conversation",
	}, s.handleHistory)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Query.Ask(ctx, domain.QueryRequest{
		Query:     input.Query,
		SessionID: input.SessionID,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := resp.Sources
	if sources == nil {
		sources = []string{}
	}
	return nil, AskOutput{
		Answer:    resp.Answer,
		Sources:   sources,
		SessionID: resp.SessionID,
	}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	raw, err := rawFromInput(input)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	status, err := s.ports.Ingestion.Ingest(ctx, raw)
	if status == nil {
		return nil, IngestOutput{}, err
	}

	// A failed document is a result, not a protocol error.
	return nil, IngestOutput{
		DocumentID: status.DocumentID,
		State:      status.State.String(),
		Chunks:     status.ChunkCount,
		Skipped:    status.Skipped,
		Reason:     status.Reason,
	}, nil
}

func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryTurns
	}

	turns, err := s.ports.Query.History(ctx, input.SessionID, limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	output := HistoryOutput{
		Turns: make([]TurnOutput, len(turns)),
		Count: len(turns),
	}
	for i, turn := range turns {
		output.Turns[i] = TurnOutput{
			Index:   turn.Index,
			Role:    turn.Role.String(),
			Content: turn.Content,
		}
	}
	return nil, output, nil
}

func rawFromInput(input IngestInput) (domain.RawDocument, error) {
	mimeType := strings.TrimSpace(input.MIMEType)

	switch {
	case input.Path != "" && input.Content != "":
		return domain.RawDocument{}, fmt.Errorf("%w: set content or path, not both", domain.ErrInvalidInput)
	case input.Path != "":
		content, err := os.ReadFile(input.Path)
		if err != nil {
			return domain.RawDocument{}, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, input.Path, err)
		}
		if mimeType == "" {
			mimeType = filesystem.DetectMIMEType(input.Path)
		}
		id := input.ID
		if id == "" {
			id = filepath.Base(input.Path)
		}
		return domain.RawDocument{ID: id, URI: input.Path, MIMEType: mimeType, Content: content}, nil
	case input.Content != "":
		if input.ID == "" {
			return domain.RawDocument{}, fmt.Errorf("%w: id is required with content", domain.ErrInvalidInput)
		}
		if mimeType == "" {
			mimeType = "text/plain"
		}
		return domain.RawDocument{ID: input.ID, MIMEType: mimeType, Content: []byte(input.Content)}, nil
	default:
		return domain.RawDocument{}, fmt.Errorf("%w: content or path is required", domain.ErrInvalidInput)
	}
}
