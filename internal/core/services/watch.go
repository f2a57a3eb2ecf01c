package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driving"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// RescanSummary counts the outcome of one full pass over a source.
type RescanSummary struct {
	Total   int
	Indexed int
	Skipped int
	Failed  int
	Removed int
}

// Add folds one document status into the summary.
func (s *RescanSummary) Add(status domain.IngestionStatus) {
	s.Total++
	switch {
	case status.Failed():
		s.Failed++
	case status.Skipped:
		s.Skipped++
	default:
		s.Indexed++
	}
}

// WatchService keeps the index in step with a connector: one full pass on
// start, then change events, plus full rescans on a cron schedule to catch
// anything the watcher missed.
type WatchService struct {
	connector driven.Connector
	ingestion driving.IngestionService
	schedule  string

	mu      sync.Mutex
	running bool
}

// NewWatchService creates a watch loop. An empty schedule disables rescans;
// anything else must be a standard cron expression or descriptor such as
// "@every 15m".
func NewWatchService(connector driven.Connector, ingestion driving.IngestionService, schedule string) (*WatchService, error) {
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("%w: watch.rescan_schedule %q: %w", domain.ErrInvalidConfig, schedule, err)
		}
	}
	return &WatchService{
		connector: connector,
		ingestion: ingestion,
		schedule:  schedule,
	}, nil
}

// Run blocks until ctx is cancelled or the connector stops delivering changes.
func (w *WatchService) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watch already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.connector.Validate(ctx); err != nil {
		return fmt.Errorf("validate %s connector: %w", w.connector.Type(), err)
	}

	changes, err := w.connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if _, err := w.Rescan(ctx); err != nil {
		return err
	}

	if w.schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := c.AddFunc(w.schedule, func() {
			if _, err := w.Rescan(ctx); err != nil && ctx.Err() == nil {
				logger.Error("watch: scheduled rescan: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule rescan: %w", err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		logger.Info("watch: rescans scheduled %q", w.schedule)
	}

	for change := range changes {
		if err := w.ingestion.HandleChange(ctx, change); err != nil {
			// Already logged with its document id by the ingestion service.
			logger.Debug("watch: %s %s: %v", change.Type, change.Document.ID, err)
		}
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Rescan ingests every document the connector currently holds and removes
// every known document the connector no longer lists. Unchanged documents are
// skipped by ingestion.
func (w *WatchService) Rescan(ctx context.Context) (RescanSummary, error) {
	logger.Section("Rescan")

	docsCh, errsCh := w.connector.FullSync(ctx)
	var docs []domain.RawDocument
	for doc := range docsCh {
		docs = append(docs, doc)
	}
	var errs []error
	for err := range errsCh {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return RescanSummary{}, fmt.Errorf("full sync: %w", err)
	}

	var summary RescanSummary
	for _, status := range w.ingestion.IngestBatch(ctx, docs) {
		summary.Add(status)
	}

	removed, err := w.removeMissing(ctx, docs)
	summary.Removed = removed
	if err != nil {
		return summary, err
	}

	logger.Info("watch: rescan total=%d indexed=%d skipped=%d failed=%d removed=%d",
		summary.Total, summary.Indexed, summary.Skipped, summary.Failed, summary.Removed)
	return summary, nil
}

// removeMissing drops every listed document whose id is absent from docs.
// A failed removal is logged and the rest still run.
func (w *WatchService) removeMissing(ctx context.Context, docs []domain.RawDocument) (int, error) {
	present := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		present[doc.ID] = struct{}{}
	}

	statuses, err := w.ingestion.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("rescan: %w", err)
	}

	removed := 0
	for _, status := range statuses {
		if _, ok := present[status.DocumentID]; ok {
			continue
		}
		if err := w.ingestion.Remove(ctx, status.DocumentID); err != nil {
			logger.Warn("watch: remove stale document_id=%s: %v", status.DocumentID, err)
			continue
		}
		removed++
	}
	return removed, nil
}
