package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

const defaultHistoryTurns = 10

// queryRequest is the body of POST /v1/query. Query is the older name of
// QueryText and is used only when query_text is absent.
type queryRequest struct {
	QueryText string `json:"query_text"`
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func (req queryRequest) text() string {
	if req.QueryText != "" {
		return req.QueryText
	}
	return req.Query
}

// documentRequest is the body of POST /v1/documents. Exactly one of Content
// and ContentBase64 is set; binary formats use the latter.
type documentRequest struct {
	ID            string         `json:"id"`
	URI           string         `json:"uri,omitempty"`
	MIMEType      string         `json:"mime_type"`
	Content       string         `json:"content,omitempty"`
	ContentBase64 string         `json:"content_base64,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type statusResponse struct {
	DocumentID string    `json:"document_id"`
	State      string    `json:"state"`
	Reason     string    `json:"reason,omitempty"`
	Chunks     int       `json:"chunks"`
	Skipped    bool      `json:"skipped,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type turnResponse struct {
	Index     int       `json:"index"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func toStatusResponse(s *domain.IngestionStatus) statusResponse {
	return statusResponse{
		DocumentID: s.DocumentID,
		State:      s.State.String(),
		Reason:     s.Reason,
		Chunks:     s.ChunkCount,
		Skipped:    s.Skipped,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleQuery handles POST /v1/query
// Request: {"query_text": "...", "session_id": "..."}
// Response: {"answer": "...", "sources": [...], "session_id": "..."}
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.ports.Query.Ask(r.Context(), domain.QueryRequest{
		Query:     req.text(),
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleIngest handles POST /v1/documents
// Response: the document's ingestion status. A failed run is reported with
// the status code of its cause and the status in the body.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	raw, err := req.rawDocument()
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := s.ports.Ingestion.Ingest(r.Context(), raw)
	if status == nil {
		writeError(w, err)
		return
	}
	code := http.StatusOK
	if err != nil {
		code = statusCode(err)
	}
	writeJSON(w, code, toStatusResponse(status))
}

func (req documentRequest) rawDocument() (domain.RawDocument, error) {
	if req.ID == "" {
		return domain.RawDocument{}, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	if req.MIMEType == "" {
		return domain.RawDocument{}, fmt.Errorf("%w: mime_type is required", domain.ErrInvalidInput)
	}

	var content []byte
	switch {
	case req.Content != "" && req.ContentBase64 != "":
		return domain.RawDocument{}, fmt.Errorf("%w: set content or content_base64, not both", domain.ErrInvalidInput)
	case req.ContentBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			return domain.RawDocument{}, fmt.Errorf("%w: content_base64: %w", domain.ErrInvalidInput, err)
		}
		content = decoded
	default:
		content = []byte(req.Content)
	}

	return domain.RawDocument{
		ID:       req.ID,
		URI:      req.URI,
		MIMEType: req.MIMEType,
		Content:  content,
		Metadata: req.Metadata,
	}, nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.ports.Ingestion.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]statusResponse, len(statuses))
	for i := range statuses {
		out[i] = toStatusResponse(&statuses[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": out,
		"total":     len(out),
	})
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ports.Ingestion.Status(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(status))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Ingestion.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHistory handles GET /v1/sessions/{id}/history?limit=n
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryTurns
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessionID := mux.Vars(r)["id"]
	turns, err := s.ports.Query.History(r.Context(), sessionID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]turnResponse, len(turns))
	for i, t := range turns {
		out[i] = turnResponse{Index: t.Index, Role: t.Role.String(), Content: t.Content, Timestamp: t.Timestamp}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      out,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// statusCode classifies a service error.
func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidChunking):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrProviderRejected), errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		logger.Error("http: %v", err)
	}
	writeJSONError(w, code, err.Error())
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("http: encode response: %v", err)
	}
}
