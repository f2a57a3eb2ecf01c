// Package httpapi serves the query and ingestion services as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vippawar1104/RAG-agent/internal/core/ports/driving"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// maxBodyBytes bounds request bodies, including base64 document uploads.
const maxBodyBytes = 48 << 20

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("httpapi: query and ingestion services are required")

// Ports aggregates the driving ports the API calls.
type Ports struct {
	Query     driving.QueryService
	Ingestion driving.IngestionService
}

// Server is the HTTP entry point.
type Server struct {
	ports  Ports
	router *mux.Router
}

// NewServer builds the router for ports.
func NewServer(ports Ports) (*Server, error) {
	if ports.Query == nil || ports.Ingestion == nil {
		return nil, ErrMissingService
	}
	s := &Server{ports: ports, router: mux.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(logRequests)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	v1.HandleFunc("/documents", s.handleIngest).Methods(http.MethodPost)
	v1.HandleFunc("/documents", s.handleListDocuments).Methods(http.MethodGet)
	// Document ids are relative paths and may contain slashes.
	v1.HandleFunc("/documents/{id:.+}", s.handleDocumentStatus).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id:.+}", s.handleRemove).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/history", s.handleHistory).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http: shutdown: %v", err)
		}
	}()

	logger.Info("http: listening on %s", listener.Addr())
	err := httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http: %s %s status=%d duration=%s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
