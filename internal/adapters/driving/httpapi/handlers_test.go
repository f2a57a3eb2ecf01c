package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

func newTestServer(t *testing.T, q *mockQueryService, ing *mockIngestionService) *httptest.Server {
	t.Helper()
	s, err := NewServer(Ports{Query: q, Ingestion: ing})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestNewServer_RequiresServices(t *testing.T) {
	_, err := NewServer(Ports{Query: &mockQueryService{}})
	assert.ErrorIs(t, err, ErrMissingService)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &mockQueryService{}, &mockIngestionService{})

	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestQuery(t *testing.T) {
	t.Run("answers", func(t *testing.T) {
		q := &mockQueryService{response: &domain.QueryResponse{
			Answer: "14 days [1].", Sources: []string{"policy.md"}, SessionID: "s1",
		}}
		ts := newTestServer(t, q, &mockIngestionService{})

		resp, body := do(t, http.MethodPost, ts.URL+"/v1/query", `{"query":"refunds?","session_id":"s1"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Equal(t, "14 days [1].", body["answer"])
		assert.Equal(t, []any{"policy.md"}, body["sources"])
		assert.Equal(t, "s1", body["session_id"])
		assert.Equal(t, domain.QueryRequest{Query: "refunds?", SessionID: "s1"}, q.lastReq)
	})

	t.Run("query field names", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want string
		}{
			{"query_text", `{"query_text":"refunds?","session_id":"s1"}`, "refunds?"},
			{"query alias", `{"query":"refunds?","session_id":"s1"}`, "refunds?"},
			{"query_text wins", `{"query_text":"refunds?","query":"returns?","session_id":"s1"}`, "refunds?"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				q := &mockQueryService{response: &domain.QueryResponse{Answer: "14 days [1].", SessionID: "s1"}}
				ts := newTestServer(t, q, &mockIngestionService{})

				resp, _ := do(t, http.MethodPost, ts.URL+"/v1/query", tt.body)

				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Equal(t, domain.QueryRequest{Query: tt.want, SessionID: "s1"}, q.lastReq)
			})
		}
	})

	t.Run("refusal has an empty source list", func(t *testing.T) {
		q := &mockQueryService{response: &domain.QueryResponse{Answer: domain.RefusalAnswer, SessionID: "s1"}}
		ts := newTestServer(t, q, &mockIngestionService{})

		_, body := do(t, http.MethodPost, ts.URL+"/v1/query", `{"query":"weather?"}`)

		assert.Equal(t, []any{}, body["sources"])
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, &mockQueryService{}, &mockIngestionService{})

		resp, body := do(t, http.MethodPost, ts.URL+"/v1/query", `{"query":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "invalid JSON")
	})

	t.Run("wrong method", func(t *testing.T) {
		ts := newTestServer(t, &mockQueryService{}, &mockIngestionService{})

		resp, _ := do(t, http.MethodGet, ts.URL+"/v1/query", "")

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("ask: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("status x: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrExtractionFailed, http.StatusUnprocessableEntity},
		{&domain.ProviderError{Kind: domain.ErrProviderRejected}, http.StatusBadGateway},
		{fmt.Errorf("%w: %w", domain.ErrQueryFailed, &domain.ProviderError{Kind: domain.ErrProviderUnavailable}), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", domain.ErrGenerationFailed), http.StatusBadGateway},
		{fmt.Errorf("%w: openai: %w: eof", domain.ErrGenerationFailed, domain.ErrProviderUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: disk", domain.ErrQueryFailed), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusCode(tt.err))
		})
	}
}

func TestIngest(t *testing.T) {
	t.Run("indexes text content", func(t *testing.T) {
		ing := &mockIngestionService{status: &domain.IngestionStatus{
			DocumentID: "notes.md", State: domain.IngestionComplete, ChunkCount: 3,
		}}
		ts := newTestServer(t, &mockQueryService{}, ing)

		resp, body := do(t, http.MethodPost, ts.URL+"/v1/documents",
			`{"id":"notes.md","mime_type":"text/markdown","content":"# Notes","metadata":{"title":"Notes"}}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "complete", body["state"])
		assert.EqualValues(t, 3, body["chunks"])
		assert.Equal(t, []byte("# Notes"), ing.lastRaw.Content)
		assert.Equal(t, "Notes", ing.lastRaw.Metadata["title"])
	})

	t.Run("decodes base64 content", func(t *testing.T) {
		ing := &mockIngestionService{status: &domain.IngestionStatus{DocumentID: "a", State: domain.IngestionComplete}}
		ts := newTestServer(t, &mockQueryService{}, ing)
		encoded := base64.StdEncoding.EncodeToString([]byte{0x50, 0x4b, 0x03, 0x04})

		resp, _ := do(t, http.MethodPost, ts.URL+"/v1/documents",
			`{"id":"a","mime_type":"application/octet-stream","content_base64":"`+encoded+`"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []byte{0x50, 0x4b, 0x03, 0x04}, ing.lastRaw.Content)
	})

	t.Run("failed run reports the status", func(t *testing.T) {
		ing := &mockIngestionService{
			status: &domain.IngestionStatus{DocumentID: "a.png", State: domain.IngestionFailed, Reason: "no extractor"},
			err:    fmt.Errorf("ingest a.png: %w", domain.ErrExtractionFailed),
		}
		ts := newTestServer(t, &mockQueryService{}, ing)

		resp, body := do(t, http.MethodPost, ts.URL+"/v1/documents", `{"id":"a.png","mime_type":"image/png","content":"x"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "failed", body["state"])
		assert.Equal(t, "no extractor", body["reason"])
	})

	t.Run("rejects invalid documents", func(t *testing.T) {
		tests := map[string]string{
			"missing id":    `{"mime_type":"text/plain","content":"x"}`,
			"missing type":  `{"id":"a","content":"x"}`,
			"both contents": `{"id":"a","mime_type":"text/plain","content":"x","content_base64":"eA=="}`,
			"bad base64":    `{"id":"a","mime_type":"text/plain","content_base64":"%%%"}`,
			"unknown field": `{"id":"a","mime_type":"text/plain","text":"x"}`,
		}
		ts := newTestServer(t, &mockQueryService{}, &mockIngestionService{})

		for name, body := range tests {
			t.Run(name, func(t *testing.T) {
				resp, _ := do(t, http.MethodPost, ts.URL+"/v1/documents", body)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})
		}
	})
}

func TestDocumentStatusAndRemove(t *testing.T) {
	t.Run("status of nested id", func(t *testing.T) {
		ing := &mockIngestionService{status: &domain.IngestionStatus{DocumentID: "notes/a.md", State: domain.IngestionComplete}}
		ts := newTestServer(t, &mockQueryService{}, ing)

		resp, body := do(t, http.MethodGet, ts.URL+"/v1/documents/notes/a.md", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "notes/a.md", ing.lastID)
		assert.Equal(t, "notes/a.md", body["document_id"])
	})

	t.Run("unknown document", func(t *testing.T) {
		ing := &mockIngestionService{err: fmt.Errorf("status x: %w", domain.ErrNotFound)}
		ts := newTestServer(t, &mockQueryService{}, ing)

		resp, _ := do(t, http.MethodGet, ts.URL+"/v1/documents/x", "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("remove", func(t *testing.T) {
		ing := &mockIngestionService{}
		ts := newTestServer(t, &mockQueryService{}, ing)

		resp, _ := do(t, http.MethodDelete, ts.URL+"/v1/documents/notes/a.md", "")

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "notes/a.md", ing.lastID)
	})

	t.Run("list", func(t *testing.T) {
		ing := &mockIngestionService{statuses: []domain.IngestionStatus{
			{DocumentID: "a", State: domain.IngestionComplete},
			{DocumentID: "b", State: domain.IngestionFailed},
		}}
		ts := newTestServer(t, &mockQueryService{}, ing)

		resp, body := do(t, http.MethodGet, ts.URL+"/v1/documents", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 2, body["total"])
	})
}

func TestHistory(t *testing.T) {
	t.Run("returns turns", func(t *testing.T) {
		q := &mockQueryService{turns: []domain.SessionTurn{
			{Index: 0, Role: domain.RoleUser, Content: "hi"},
			{Index: 1, Role: domain.RoleAssistant, Content: "hello"},
		}}
		ts := newTestServer(t, q, &mockIngestionService{})

		resp, body := do(t, http.MethodGet, ts.URL+"/v1/sessions/s1/history?limit=4", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 4, q.lastMax)
		assert.Equal(t, "s1", body["session_id"])
		turns, ok := body["turns"].([]any)
		require.True(t, ok)
		assert.Len(t, turns, 2)
	})

	t.Run("defaults the limit", func(t *testing.T) {
		q := &mockQueryService{}
		ts := newTestServer(t, q, &mockIngestionService{})

		do(t, http.MethodGet, ts.URL+"/v1/sessions/s1/history", "")

		assert.Equal(t, defaultHistoryTurns, q.lastMax)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		ts := newTestServer(t, &mockQueryService{}, &mockIngestionService{})

		resp, _ := do(t, http.MethodGet, ts.URL+"/v1/sessions/s1/history?limit=-1", "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServe_StopsOnCancel(t *testing.T) {
	s, err := NewServer(Ports{Query: &mockQueryService{}, Ingestion: &mockIngestionService{}})
	require.NoError(t, err)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	resp, _ := do(t, http.MethodGet, "http://"+listener.Addr().String()+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
