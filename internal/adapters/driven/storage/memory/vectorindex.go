package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/vectors"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Each document's records live in their own slice; writes build a new slice
// and swap it in under the write lock, so a search holding the read lock sees
// one complete version of every document.
type VectorIndex struct {
	mu   sync.RWMutex
	docs map[string][]domain.IndexRecord
	dims int
}

// NewVectorIndex creates an empty index. dims fixes the vector length;
// zero takes it from the first record written.
func NewVectorIndex(dims int) *VectorIndex {
	return &VectorIndex{
		docs: make(map[string][]domain.IndexRecord),
		dims: dims,
	}
}

// Upsert inserts records, replacing any that share a natural key.
func (v *VectorIndex) Upsert(_ context.Context, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkDims(records); err != nil {
		return err
	}

	byDoc := make(map[string][]domain.IndexRecord)
	for _, r := range records {
		byDoc[r.Key.DocumentID] = append(byDoc[r.Key.DocumentID], cloneRecord(r))
	}

	for docID, incoming := range byDoc {
		merged := make(map[int]domain.IndexRecord, len(v.docs[docID])+len(incoming))
		for _, r := range v.docs[docID] {
			merged[r.Key.ChunkIndex] = r
		}
		for _, r := range incoming {
			merged[r.Key.ChunkIndex] = r
		}
		v.docs[docID] = sortedRecords(merged)
	}
	return nil
}

// ReplaceDocument swaps documentID's records for records in one step.
func (v *VectorIndex) ReplaceDocument(_ context.Context, documentID string, records []domain.IndexRecord) error {
	for _, r := range records {
		if r.Key.DocumentID != documentID {
			return fmt.Errorf("%w: record %s does not belong to document %s",
				domain.ErrIndexWrite, r.Key, documentID)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkDims(records); err != nil {
		return err
	}
	if len(records) == 0 {
		delete(v.docs, documentID)
		return nil
	}

	merged := make(map[int]domain.IndexRecord, len(records))
	for _, r := range records {
		merged[r.Key.ChunkIndex] = cloneRecord(r)
	}
	v.docs[documentID] = sortedRecords(merged)
	return nil
}

// DeleteDocument removes all records for documentID.
func (v *VectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.docs, documentID)
	return nil
}

// Search scores every record against query.
func (v *VectorIndex) Search(
	ctx context.Context,
	query []float32,
	topK int,
	threshold float64,
) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.dims > 0 && len(query) != v.dims {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidInput, len(query), v.dims)
	}

	var scored []domain.ScoredRecord
	for _, records := range v.docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, r := range records {
			sim := vectors.CosineSimilarity(query, r.Vector)
			if sim > threshold {
				scored = append(scored, domain.ScoredRecord{Record: cloneRecord(r), Similarity: sim})
			}
		}
	}

	return vectors.Rank(scored, topK), nil
}

// Count returns the number of records for documentID, or all when empty.
func (v *VectorIndex) Count(_ context.Context, documentID string) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if documentID != "" {
		return len(v.docs[documentID]), nil
	}
	total := 0
	for _, records := range v.docs {
		total += len(records)
	}
	return total, nil
}

// Close releases resources (no-op for memory index).
func (v *VectorIndex) Close() error {
	return nil
}

// checkDims enforces one vector length across the index (caller holds lock).
// The length is fixed only once a write passes the check.
func (v *VectorIndex) checkDims(records []domain.IndexRecord) error {
	dims := v.dims
	for _, r := range records {
		if dims == 0 {
			dims = len(r.Vector)
		}
		if len(r.Vector) == 0 || len(r.Vector) != dims {
			return fmt.Errorf("%w: record %s has dimension %d, index has %d",
				domain.ErrIndexWrite, r.Key, len(r.Vector), dims)
		}
	}
	v.dims = dims
	return nil
}

func sortedRecords(byIndex map[int]domain.IndexRecord) []domain.IndexRecord {
	out := make([]domain.IndexRecord, 0, len(byIndex))
	for _, r := range byIndex {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.ChunkIndex < out[j].Key.ChunkIndex
	})
	return out
}

// cloneRecord copies the vector and metadata so callers never share them
// with the index.
func cloneRecord(r domain.IndexRecord) domain.IndexRecord {
	r.Vector = append([]float32(nil), r.Vector...)
	r.Metadata = domain.CopyMetadata(r.Metadata)
	return r
}
