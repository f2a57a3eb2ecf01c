package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure IngestionStatusStore implements the interface.
var _ driven.IngestionStatusStore = (*IngestionStatusStore)(nil)

// IngestionStatusStore is an in-memory implementation of driven.IngestionStatusStore.
type IngestionStatusStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.IngestionStatus
}

// NewIngestionStatusStore creates a new in-memory status store.
func NewIngestionStatusStore() *IngestionStatusStore {
	return &IngestionStatusStore{
		statuses: make(map[string]domain.IngestionStatus),
	}
}

// SaveStatus creates or replaces a document's status.
func (s *IngestionStatusStore) SaveStatus(_ context.Context, status domain.IngestionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DocumentID] = status
	return nil
}

// GetStatus retrieves a document's status.
func (s *IngestionStatusStore) GetStatus(_ context.Context, documentID string) (*domain.IngestionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

// ListStatuses returns all statuses ordered by document id.
func (s *IngestionStatusStore) ListStatuses(_ context.Context) ([]domain.IngestionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.IngestionStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		result = append(result, status)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocumentID < result[j].DocumentID
	})
	return result, nil
}

// DeleteStatus removes a document's status.
func (s *IngestionStatusStore) DeleteStatus(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, documentID)
	return nil
}
