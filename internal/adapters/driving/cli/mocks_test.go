package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/memory"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/services"
)

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	answers  []*domain.QueryResponse
	turns    []domain.SessionTurn
	err      error
	requests []domain.QueryRequest
	lastMax  int
}

func (m *mockQueryService) Ask(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.answers) == 0 {
		return &domain.QueryResponse{Answer: domain.RefusalAnswer, Sources: []string{}, SessionID: "new-session"}, nil
	}
	resp := m.answers[0]
	if len(m.answers) > 1 {
		m.answers = m.answers[1:]
	}
	return resp, nil
}

func (m *mockQueryService) History(_ context.Context, _ string, maxTurns int) ([]domain.SessionTurn, error) {
	m.lastMax = maxTurns
	return m.turns, m.err
}

// mockIngestionService implements driving.IngestionService for testing.
type mockIngestionService struct {
	batch    []domain.RawDocument
	statuses []domain.IngestionStatus
	status   *domain.IngestionStatus
	failIDs  map[string]bool
	removed  []string
	err      error
}

func (m *mockIngestionService) Ingest(_ context.Context, raw domain.RawDocument) (*domain.IngestionStatus, error) {
	m.batch = append(m.batch, raw)
	return &domain.IngestionStatus{DocumentID: raw.ID, State: domain.IngestionComplete, ChunkCount: 1}, nil
}

func (m *mockIngestionService) IngestBatch(_ context.Context, raws []domain.RawDocument) []domain.IngestionStatus {
	m.batch = append(m.batch, raws...)
	out := make([]domain.IngestionStatus, len(raws))
	for i, raw := range raws {
		out[i] = domain.IngestionStatus{DocumentID: raw.ID, State: domain.IngestionComplete, ChunkCount: 2}
		if m.failIDs[raw.ID] {
			out[i] = domain.IngestionStatus{DocumentID: raw.ID, State: domain.IngestionFailed, Reason: "extraction failed"}
		}
	}
	return out
}

func (m *mockIngestionService) Remove(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
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

// mockRunner records the watcher it was built for.
type mockRunner struct {
	dir, schedule string
	ran           bool
}

func (r *mockRunner) Run(_ context.Context) error {
	r.ran = true
	return nil
}

type testServices struct {
	query     *mockQueryService
	ingestion *mockIngestionService
	runner    *mockRunner
}

// setupTestServices installs mocks behind the commands and returns a
// cleanup that restores the previous services.
func setupTestServices(t *testing.T) (*testServices, func()) {
	t.Helper()

	oldSettings, oldIngestion, oldQuery := settingsService, ingestionService, queryService
	oldWatcher, oldCheck, oldErr, oldBootstrap := newWatcher, checkProviders, pipelineErr, bootstrap

	ts := &testServices{
		query:     &mockQueryService{},
		ingestion: &mockIngestionService{failIDs: map[string]bool{}},
		runner:    &mockRunner{},
	}
	settingsService = services.NewSettingsService(memory.NewConfigStore(nil), func(string) (string, bool) { return "", false })
	ingestionService = ts.ingestion
	queryService = ts.query
	newWatcher = func(dir, schedule string) (Runner, error) {
		ts.runner.dir, ts.runner.schedule = dir, schedule
		return ts.runner, nil
	}
	checkProviders = func(context.Context) error { return nil }
	pipelineErr = nil
	bootstrap = nil

	return ts, func() {
		settingsService, ingestionService, queryService = oldSettings, oldIngestion, oldQuery
		newWatcher, checkProviders, pipelineErr, bootstrap = oldWatcher, oldCheck, oldErr, oldBootstrap
	}
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
