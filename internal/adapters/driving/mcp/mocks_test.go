package mcp

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response *domain.QueryResponse
	turns    []domain.SessionTurn
	err      error
	lastReq  domain.QueryRequest
	lastMax  int
}

func (m *mockQueryService) Ask(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastReq = req
	return m.response, m.err
}

func (m *mockQueryService) History(_ context.Context, _ string, maxTurns int) ([]domain.SessionTurn, error) {
	m.lastMax = maxTurns
	return m.turns, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	status   *domain.IngestionStatus
	statuses []domain.IngestionStatus
	err      error
	lastRaw  domain.RawDocument
}

func (m *mockIngestionService) Ingest(_ context.Context, raw domain.RawDocument) (*domain.IngestionStatus, error) {
	m.lastRaw = raw
	return m.status, m.err
}

func (m *mockIngestionService) IngestBatch(_ context.Context, raws []domain.RawDocument) []domain.IngestionStatus {
	out := make([]domain.IngestionStatus, len(raws))
	for i, raw := range raws {
		out[i] = domain.IngestionStatus{DocumentID: raw.ID, State: domain.IngestionComplete}
	}
	return out
}

func (m *mockIngestionService) Remove(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIngestionService) Status(_ context.Context, _ string) (*domain.IngestionStatus, error) {
	return m.status, m.err
}

func (m *mockIngestionService) List(_ context.Context) ([]domain.IngestionStatus, error) {
	return m.statuses, m.err
}

func (m *mockIngestionService) HandleChange(_ context.Context, _ domain.RawDocumentChange) error {
	return m.err
}

func newTestServer(q *mockQueryService, ing *mockIngestionService) (*Server, error) {
	return NewServer(&Ports{Query: q, Ingestion: ing})
}
