package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/chunker"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driving"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// Metadata keys the coordinator adds to every indexed record.
const (
	MetaDocumentID = "document_id"
	MetaURI        = "uri"
	MetaTitle      = "title"
)

// IngestionConfig holds the pipeline parameters.
type IngestionConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Workers      int

	// EmbeddingModel is part of the fingerprint that decides whether an
	// unchanged document may skip re-indexing.
	EmbeddingModel string
}

// IngestionService drives documents through extract, chunk, embed and index.
// Runs for the same document id are serialised; different documents proceed
// concurrently.
type IngestionService struct {
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingClient
	index      driven.VectorIndex
	statuses   driven.IngestionStatusStore
	chunker    *chunker.Chunker
	cfg        IngestionConfig
	workers    int
	locks      *keyedMutex
	now        func() time.Time
}

// NewIngestionService creates an ingestion coordinator. It returns
// domain.ErrInvalidChunking for bad chunk parameters.
func NewIngestionService(
	extractors driven.ExtractorRegistry,
	embedder driven.EmbeddingClient,
	index driven.VectorIndex,
	statuses driven.IngestionStatusStore,
	cfg IngestionConfig,
) (*IngestionService, error) {
	c, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = domain.DefaultIngestionWorkers
	}
	return &IngestionService{
		extractors: extractors,
		embedder:   embedder,
		index:      index,
		statuses:   statuses,
		chunker:    c,
		cfg:        cfg,
		workers:    workers,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}, nil
}

// run tracks one document through the state machine and records every
// transition in the status store.
type run struct {
	svc    *IngestionService
	status domain.IngestionStatus
}

func (r *run) advance(ctx context.Context, next domain.IngestionState) {
	if !r.status.State.CanTransition(next) {
		// Unreachable with the fixed step order below.
		logger.Warn("ingestion: invalid transition document_id=%s from=%s to=%s",
			r.status.DocumentID, r.status.State, next)
	}
	r.status.State = next
	r.save(ctx)
}

func (r *run) fail(ctx context.Context, err error) (*domain.IngestionStatus, error) {
	failedIn := r.status.State
	r.status.State = domain.IngestionFailed
	r.status.Reason = err.Error()
	r.save(ctx)

	logger.Error("ingestion failed document_id=%s state=%s: %v", r.status.DocumentID, failedIn, err)
	status := r.status
	return &status, fmt.Errorf("ingest %s: %w", r.status.DocumentID, err)
}

func (r *run) save(ctx context.Context) {
	r.status.UpdatedAt = r.svc.now()
	// Status is advisory; the index is the record of truth.
	if err := r.svc.statuses.SaveStatus(context.WithoutCancel(ctx), r.status); err != nil {
		logger.Warn("ingestion: saving status document_id=%s state=%s: %v",
			r.status.DocumentID, r.status.State, err)
	}
}

// Ingest runs one document to a terminal state.
//
//nolint:gocyclo // Sequential pipeline steps, each with its own failure exit.
func (s *IngestionService) Ingest(ctx context.Context, raw domain.RawDocument) (*domain.IngestionStatus, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(raw.ID)
	defer unlock()

	previous, err := s.statuses.GetStatus(ctx, raw.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("ingestion: reading previous status document_id=%s: %v", raw.ID, err)
	}

	started := s.now()
	r := &run{svc: s, status: domain.IngestionStatus{
		DocumentID: raw.ID,
		State:      domain.IngestionPending,
		StartedAt:  started,
	}}
	r.save(ctx)
	logger.Debug("ingestion: start document_id=%s mime=%s bytes=%d", raw.ID, raw.MIMEType, len(raw.Content))

	// 1. Extract
	r.advance(ctx, domain.IngestionExtracting)
	doc, err := s.extractors.Extract(ctx, &raw)
	if err != nil {
		return r.fail(ctx, err)
	}
	hash := s.fingerprint(doc.Content)

	if s.unchanged(ctx, previous, hash) {
		r.status.State = domain.IngestionComplete
		r.status.ChunkCount = previous.ChunkCount
		r.status.ContentHash = hash
		r.status.Skipped = true
		r.save(ctx)
		logger.Info("ingestion: unchanged, skipped document_id=%s chunks=%d", raw.ID, previous.ChunkCount)
		status := r.status
		return &status, nil
	}

	// 2. Chunk
	r.advance(ctx, domain.IngestionChunking)
	chunks := s.chunker.Split(doc)

	// 3. Embed
	r.advance(ctx, domain.IngestionEmbedding)
	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return r.fail(ctx, err)
	}

	// 4. Index
	r.advance(ctx, domain.IngestionIndexing)
	records := buildRecords(doc, chunks, vectors)
	if err := s.index.ReplaceDocument(ctx, raw.ID, records); err != nil {
		return r.fail(ctx, err)
	}

	r.status.ChunkCount = len(records)
	r.status.ContentHash = hash
	r.advance(ctx, domain.IngestionComplete)
	logger.Info("ingestion: complete document_id=%s chunks=%d elapsed=%s",
		raw.ID, len(records), s.now().Sub(started).Round(time.Millisecond))

	status := r.status
	return &status, nil
}

// unchanged reports whether the last completed run indexed the same text with
// the same pipeline settings and the index still holds all of its records.
func (s *IngestionService) unchanged(ctx context.Context, previous *domain.IngestionStatus, hash string) bool {
	if previous == nil || previous.State != domain.IngestionComplete || previous.ContentHash != hash {
		return false
	}
	count, err := s.index.Count(ctx, previous.DocumentID)
	if err != nil {
		logger.Warn("ingestion: counting records document_id=%s: %v", previous.DocumentID, err)
		return false
	}
	return count == previous.ChunkCount
}

func (s *IngestionService) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	items := make([]driven.EmbedItem, len(chunks))
	for i, c := range chunks {
		items[i] = driven.EmbedItem{ID: c.ID(), Text: c.Content}
	}
	vectors, err := s.embedder.EmbedItems(ctx, items)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrProviderRejected, len(vectors), len(chunks))
	}
	return vectors, nil
}

func buildRecords(doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) []domain.IndexRecord {
	records := make([]domain.IndexRecord, len(chunks))
	for i, c := range chunks {
		meta := domain.CopyMetadata(c.Metadata)
		if meta == nil {
			meta = make(map[string]any, 3)
		}
		meta[MetaDocumentID] = doc.ID
		if doc.URI != "" {
			meta[MetaURI] = doc.URI
		}
		if doc.Title != "" {
			meta[MetaTitle] = doc.Title
		}
		records[i] = domain.IndexRecord{
			Key:      domain.RecordKey{DocumentID: c.DocumentID, ChunkIndex: c.Index},
			Vector:   vectors[i],
			Content:  c.Content,
			Metadata: meta,
		}
	}
	return records
}

// fingerprint hashes the extracted text together with every setting that
// shapes its records. Changing chunking or the embedding model therefore
// forces a fresh run.
func (s *IngestionService) fingerprint(text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "chunk_size=%d chunk_overlap=%d model=%s dims=%d\n",
		s.cfg.ChunkSize, s.cfg.ChunkOverlap, s.cfg.EmbeddingModel, s.embedder.Dimensions())
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// IngestBatch ingests documents on a bounded worker pool.
// The result has one status per input, in input order.
func (s *IngestionService) IngestBatch(ctx context.Context, raws []domain.RawDocument) []domain.IngestionStatus {
	results := make([]domain.IngestionStatus, len(raws))
	if len(raws) == 0 {
		return results
	}

	workers := s.workers
	if workers > len(raws) {
		workers = len(raws)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.ingestOne(ctx, raws[i])
			}
		}()
	}

	for i := range raws {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// ingestOne always yields a status, synthesising a failed one when Ingest
// rejects the input before a run starts.
func (s *IngestionService) ingestOne(ctx context.Context, raw domain.RawDocument) domain.IngestionStatus {
	if err := ctx.Err(); err != nil {
		return s.rejected(raw.ID, err)
	}
	status, err := s.Ingest(ctx, raw)
	if status == nil {
		return s.rejected(raw.ID, err)
	}
	return *status
}

func (s *IngestionService) rejected(documentID string, err error) domain.IngestionStatus {
	now := s.now()
	return domain.IngestionStatus{
		DocumentID: documentID,
		State:      domain.IngestionFailed,
		Reason:     err.Error(),
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Remove deletes a document's records and status. Unknown ids are not an error.
func (s *IngestionService) Remove(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	if err := s.index.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("remove %s: %w", documentID, err)
	}
	if err := s.statuses.DeleteStatus(ctx, documentID); err != nil {
		return fmt.Errorf("remove %s status: %w", documentID, err)
	}
	logger.Info("ingestion: removed document_id=%s", documentID)
	return nil
}

// Status returns the latest status for a document.
func (s *IngestionService) Status(ctx context.Context, documentID string) (*domain.IngestionStatus, error) {
	status, err := s.statuses.GetStatus(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("status %s: %w", documentID, err)
	}
	return status, nil
}

// List returns the latest status of every known document.
func (s *IngestionService) List(ctx context.Context) ([]domain.IngestionStatus, error) {
	statuses, err := s.statuses.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// HandleChange applies a trigger event.
func (s *IngestionService) HandleChange(ctx context.Context, change domain.RawDocumentChange) error {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		_, err := s.Ingest(ctx, change.Document)
		return err
	case domain.ChangeDeleted:
		return s.Remove(ctx, change.Document.ID)
	default:
		return fmt.Errorf("%w: unknown change type %d", domain.ErrInvalidInput, change.Type)
	}
}
