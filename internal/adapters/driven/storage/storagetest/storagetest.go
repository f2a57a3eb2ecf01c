// Package storagetest holds behaviour checks shared by every storage backend.
// Backend test files call the Run* functions with a constructor for a fresh,
// empty store.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Dims is the vector length used by the fixtures.
const Dims = 3

// Record builds a fixture record for doc with the given chunk index and vector.
func Record(doc string, idx int, vec ...float32) domain.IndexRecord {
	return domain.IndexRecord{
		Key:      domain.RecordKey{DocumentID: doc, ChunkIndex: idx},
		Vector:   vec,
		Content:  fmt.Sprintf("%s chunk %d", doc, idx),
		Metadata: map[string]any{"source": doc + ".txt"},
	}
}

func keys(results []domain.ScoredRecord) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Record.Key.String()
	}
	return out
}

// RunVectorIndex exercises the driven.VectorIndex contract.
func RunVectorIndex(t *testing.T, newIndex func(t *testing.T) driven.VectorIndex) {
	t.Helper()
	ctx := context.Background()

	t.Run("upsert is idempotent", func(t *testing.T) {
		idx := newIndex(t)
		recs := []domain.IndexRecord{Record("a", 0, 1, 0, 0), Record("a", 1, 0, 1, 0)}

		require.NoError(t, idx.Upsert(ctx, recs))
		require.NoError(t, idx.Upsert(ctx, recs))

		n, err := idx.Count(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("upsert replaces by natural key", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{Record("a", 0, 1, 0, 0)}))

		updated := Record("a", 0, 0, 1, 0)
		updated.Content = "rewritten"
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{updated}))

		res, err := idx.Search(ctx, []float32{0, 1, 0}, 5, 0.5)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "rewritten", res[0].Record.Content)
		assert.Equal(t, "a.txt", res[0].Record.Metadata["source"])
	})

	t.Run("replace document drops stale chunks", func(t *testing.T) {
		idx := newIndex(t)
		var five []domain.IndexRecord
		for i := 0; i < 5; i++ {
			five = append(five, Record("doc", i, 1, float32(i), 0))
		}
		require.NoError(t, idx.ReplaceDocument(ctx, "doc", five))
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{Record("other", 0, 1, 0, 0)}))

		three := five[:3]
		require.NoError(t, idx.ReplaceDocument(ctx, "doc", three))

		n, err := idx.Count(ctx, "doc")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		total, err := idx.Count(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		res, err := idx.Search(ctx, []float32{1, 4, 0}, 10, -1)
		require.NoError(t, err)
		for _, r := range res {
			assert.Less(t, r.Record.Key.ChunkIndex, 3, "stale chunk %s returned", r.Record.Key)
		}
	})

	t.Run("replace document rejects foreign records", func(t *testing.T) {
		idx := newIndex(t)
		err := idx.ReplaceDocument(ctx, "a", []domain.IndexRecord{Record("b", 0, 1, 0, 0)})
		assert.ErrorIs(t, err, domain.ErrIndexWrite)
	})

	t.Run("replace with nothing deletes", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{Record("a", 0, 1, 0, 0)}))
		require.NoError(t, idx.ReplaceDocument(ctx, "a", nil))

		n, err := idx.Count(ctx, "a")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete document", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{
			Record("a", 0, 1, 0, 0), Record("b", 0, 1, 0, 0),
		}))

		require.NoError(t, idx.DeleteDocument(ctx, "a"))
		require.NoError(t, idx.DeleteDocument(ctx, "missing"))

		res, err := idx.Search(ctx, []float32{1, 0, 0}, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"b:0"}, keys(res))
	})

	t.Run("search orders by similarity then key", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{
			Record("b", 1, 1, 0, 0),
			Record("a", 2, 1, 0, 0),
			Record("a", 0, 1, 1, 0),
			Record("c", 0, 0, 0, 1),
			Record("b", 0, 1, 0, 0),
		}))

		res, err := idx.Search(ctx, []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)

		assert.Equal(t, []string{"a:2", "b:0", "b:1", "a:0"}, keys(res))
		assert.InDelta(t, 1.0, res[0].Similarity, 1e-6)
		assert.InDelta(t, 0.7071, res[3].Similarity, 1e-3)
	})

	t.Run("search honours topK", func(t *testing.T) {
		idx := newIndex(t)
		for i := 0; i < 6; i++ {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{Record("a", i, 1, float32(i)/10, 0)}))
		}

		res, err := idx.Search(ctx, []float32{1, 0, 0}, 4, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a:0", "a:1", "a:2", "a:3"}, keys(res))
	})

	t.Run("threshold is strict", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{
			Record("a", 0, 1, 0, 0),
			Record("a", 1, 0, 1, 0),
		}))

		res, err := idx.Search(ctx, []float32{1, 0, 0}, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a:0"}, keys(res), "orthogonal record scores exactly 0 and must be excluded")

		res, err = idx.Search(ctx, []float32{0, 0, 1}, 5, 0.75)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("search on empty index", func(t *testing.T) {
		idx := newIndex(t)
		res, err := idx.Search(ctx, []float32{1, 0, 0}, 4, 0.75)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("search rejects non-positive topK", func(t *testing.T) {
		idx := newIndex(t)
		_, err := idx.Search(ctx, []float32{1, 0, 0}, 0, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		idx := newIndex(t)
		require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{Record("a", 0, 1, 0, 0)}))

		err := idx.Upsert(ctx, []domain.IndexRecord{Record("a", 1, 1, 0)})
		assert.ErrorIs(t, err, domain.ErrIndexWrite)

		_, err = idx.Search(ctx, []float32{1, 0}, 4, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		n, err := idx.Count(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, n, "failed write must not be partially applied")
	})

	t.Run("search during replace sees whole versions", func(t *testing.T) {
		idx := newIndex(t)
		version := func(n int) []domain.IndexRecord {
			recs := make([]domain.IndexRecord, n)
			for i := range recs {
				recs[i] = Record("doc", i, 1, 0, 0)
			}
			return recs
		}
		require.NoError(t, idx.ReplaceDocument(ctx, "doc", version(5)))

		var wg sync.WaitGroup
		stop := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				n := 3
				if i%2 == 1 {
					n = 5
				}
				assert.NoError(t, idx.ReplaceDocument(ctx, "doc", version(n)))
			}
		}()

		deadline := time.Now().Add(200 * time.Millisecond)
		for time.Now().Before(deadline) {
			res, err := idx.Search(ctx, []float32{1, 0, 0}, 10, 0)
			require.NoError(t, err)
			assert.Contains(t, []int{3, 5}, len(res))
		}
		close(stop)
		wg.Wait()
	})
}

// RunSessionStore exercises the driven.SessionStore contract.
func RunSessionStore(t *testing.T, newStore func(t *testing.T) driven.SessionStore) {
	t.Helper()
	ctx := context.Background()

	turn := func(session string, idx int, role domain.Role) domain.SessionTurn {
		return domain.SessionTurn{
			SessionID: session,
			Index:     idx,
			Role:      role,
			Content:   fmt.Sprintf("%s turn %d", session, idx),
			Timestamp: time.Date(2026, 1, 1, 0, 0, idx, 0, time.UTC),
		}
	}

	t.Run("empty session", func(t *testing.T) {
		store := newStore(t)

		turns, err := store.LastTurns(ctx, "s1", 10)
		require.NoError(t, err)
		assert.Empty(t, turns)

		next, err := store.NextTurnIndex(ctx, "s1")
		require.NoError(t, err)
		assert.Zero(t, next)
	})

	t.Run("last turns oldest first", func(t *testing.T) {
		store := newStore(t)
		for i := 0; i < 6; i++ {
			role := domain.RoleUser
			if i%2 == 1 {
				role = domain.RoleAssistant
			}
			require.NoError(t, store.AppendTurns(ctx, "s1", []domain.SessionTurn{turn("s1", i, role)}))
		}
		require.NoError(t, store.AppendTurns(ctx, "s2", []domain.SessionTurn{turn("s2", 0, domain.RoleUser)}))

		turns, err := store.LastTurns(ctx, "s1", 4)
		require.NoError(t, err)
		require.Len(t, turns, 4)
		assert.Equal(t, 2, turns[0].Index)
		assert.Equal(t, 5, turns[3].Index)
		assert.Equal(t, domain.RoleAssistant, turns[3].Role)
		assert.Equal(t, "s1 turn 5", turns[3].Content)
		assert.True(t, turns[3].Timestamp.Equal(time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)))

		next, err := store.NextTurnIndex(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 6, next)
	})

	t.Run("trim keeps the newest turns", func(t *testing.T) {
		store := newStore(t)
		for i := 0; i < 12; i++ {
			require.NoError(t, store.AppendTurns(ctx, "s1", []domain.SessionTurn{turn("s1", i, domain.RoleUser)}))
		}

		require.NoError(t, store.TrimTurns(ctx, "s1", 10))

		turns, err := store.LastTurns(ctx, "s1", 100)
		require.NoError(t, err)
		require.Len(t, turns, 10)
		assert.Equal(t, 2, turns[0].Index)

		next, err := store.NextTurnIndex(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 12, next, "indexes keep increasing after trim")
	})

	t.Run("trim to zero", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.AppendTurns(ctx, "s1", []domain.SessionTurn{turn("s1", 0, domain.RoleUser)}))
		require.NoError(t, store.TrimTurns(ctx, "s1", 0))

		turns, err := store.LastTurns(ctx, "s1", 10)
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("batch is stored in full", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.AppendTurns(ctx, "s1", []domain.SessionTurn{
			turn("s1", 0, domain.RoleUser),
			turn("s1", 1, domain.RoleAssistant),
		}))

		turns, err := store.LastTurns(ctx, "s1", 10)
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, domain.RoleAssistant, turns[1].Role)

		next, err := store.NextTurnIndex(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 2, next)
	})

	t.Run("failed batch stores nothing", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.AppendTurns(ctx, "s1", []domain.SessionTurn{turn("s1", 0, domain.RoleUser)}))

		err := store.AppendTurns(ctx, "s1", []domain.SessionTurn{
			turn("s1", 1, domain.RoleUser),
			turn("s1", 0, domain.RoleAssistant),
		})
		require.Error(t, err)

		turns, err := store.LastTurns(ctx, "s1", 10)
		require.NoError(t, err)
		require.Len(t, turns, 1)
		assert.Equal(t, 0, turns[0].Index)

		next, err := store.NextTurnIndex(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 1, next)
	})

	t.Run("sessions are independent under concurrency", func(t *testing.T) {
		store := newStore(t)
		var wg sync.WaitGroup
		for s := 0; s < 4; s++ {
			wg.Add(1)
			go func(s int) {
				defer wg.Done()
				id := fmt.Sprintf("c%d", s)
				for i := 0; i < 5; i++ {
					assert.NoError(t, store.AppendTurns(ctx, id, []domain.SessionTurn{turn(id, i, domain.RoleUser)}))
				}
			}(s)
		}
		wg.Wait()

		for s := 0; s < 4; s++ {
			turns, err := store.LastTurns(ctx, fmt.Sprintf("c%d", s), 10)
			require.NoError(t, err)
			assert.Len(t, turns, 5)
		}
	})
}

// RunIngestionStatusStore exercises the driven.IngestionStatusStore contract.
func RunIngestionStatusStore(t *testing.T, newStore func(t *testing.T) driven.IngestionStatusStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("get unknown", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetStatus(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save replaces", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SaveStatus(ctx, domain.IngestionStatus{
			DocumentID: "a", State: domain.IngestionEmbedding, StartedAt: now, UpdatedAt: now,
		}))
		require.NoError(t, store.SaveStatus(ctx, domain.IngestionStatus{
			DocumentID:  "a",
			State:       domain.IngestionComplete,
			ChunkCount:  7,
			ContentHash: "abc",
			StartedAt:   now,
			UpdatedAt:   now.Add(time.Second),
		}))

		got, err := store.GetStatus(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, domain.IngestionComplete, got.State)
		assert.Equal(t, 7, got.ChunkCount)
		assert.Equal(t, "abc", got.ContentHash)
		assert.True(t, got.UpdatedAt.Equal(now.Add(time.Second)))
	})

	t.Run("failed keeps reason", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SaveStatus(ctx, domain.IngestionStatus{
			DocumentID: "bad", State: domain.IngestionFailed, Reason: "extraction failed: empty", UpdatedAt: now,
		}))

		got, err := store.GetStatus(ctx, "bad")
		require.NoError(t, err)
		assert.True(t, got.Failed())
		assert.Equal(t, "extraction failed: empty", got.Reason)
	})

	t.Run("list sorted by id", func(t *testing.T) {
		store := newStore(t)
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, store.SaveStatus(ctx, domain.IngestionStatus{
				DocumentID: id, State: domain.IngestionPending, UpdatedAt: now,
			}))
		}

		list, err := store.ListStatuses(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "a", list[0].DocumentID)
		assert.Equal(t, "c", list[2].DocumentID)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SaveStatus(ctx, domain.IngestionStatus{DocumentID: "a", State: domain.IngestionComplete}))

		require.NoError(t, store.DeleteStatus(ctx, "a"))
		require.NoError(t, store.DeleteStatus(ctx, "a"))

		_, err := store.GetStatus(ctx, "a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
