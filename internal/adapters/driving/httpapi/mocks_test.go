package httpapi

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

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

type mockIngestionService struct {
	status    *domain.IngestionStatus
	statuses  []domain.IngestionStatus
	err       error
	lastRaw   domain.RawDocument
	lastID    string
	removeErr error
}

func (m *mockIngestionService) Ingest(_ context.Context, raw domain.RawDocument) (*domain.IngestionStatus, error) {
	m.lastRaw = raw
	return m.status, m.err
}

func (m *mockIngestionService) IngestBatch(_ context.Context, _ []domain.RawDocument) []domain.IngestionStatus {
	return nil
}

func (m *mockIngestionService) Remove(_ context.Context, id string) error {
	m.lastID = id
	return m.removeErr
}

func (m *mockIngestionService) Status(_ context.Context, id string) (*domain.IngestionStatus, error) {
	m.lastID = id
	return m.status, m.err
}

func (m *mockIngestionService) List(_ context.Context) ([]domain.IngestionStatus, error) {
	return m.statuses, m.err
}

func (m *mockIngestionService) HandleChange(_ context.Context, _ domain.RawDocumentChange) error {
	return nil
}
