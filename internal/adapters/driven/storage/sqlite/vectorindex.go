package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/vectors"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

const dimsKey = "dimensions"

// VectorIndex implements driven.VectorIndex on the index_records table.
// Similarity is computed in Go over the stored float32 blobs, which keeps the
// store free of native extensions.
type VectorIndex struct {
	store *Store
	dims  int
}

var _ driven.VectorIndex = (*VectorIndex)(nil)

// Upsert inserts records, replacing any that share a natural key.
func (v *VectorIndex) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	return v.write(ctx, records, func(tx *sql.Tx) error {
		return insertRecords(ctx, tx, records)
	})
}

// ReplaceDocument deletes documentID's records and inserts records in one
// transaction. Readers see either the old or the new set.
func (v *VectorIndex) ReplaceDocument(ctx context.Context, documentID string, records []domain.IndexRecord) error {
	for _, r := range records {
		if r.Key.DocumentID != documentID {
			return fmt.Errorf("%w: record %s does not belong to document %s",
				domain.ErrIndexWrite, r.Key, documentID)
		}
	}
	return v.write(ctx, records, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM index_records WHERE document_id = ?", documentID); err != nil {
			return err
		}
		return insertRecords(ctx, tx, records)
	})
}

// DeleteDocument removes all records for documentID.
func (v *VectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := v.store.db.ExecContext(ctx,
		"DELETE FROM index_records WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("%w: deleting document %s: %v", domain.ErrIndexWrite, documentID, err)
	}
	return nil
}

// Search scores every stored record against query.
func (v *VectorIndex) Search(
	ctx context.Context,
	query []float32,
	topK int,
	threshold float64,
) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	dims, err := storedDims(ctx, v.store.db)
	if err != nil {
		return nil, err
	}
	if dims > 0 && len(query) != dims {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidInput, len(query), dims)
	}

	// A single SELECT reads one WAL snapshot, so a concurrent
	// ReplaceDocument is seen entirely or not at all.
	rows, err := v.store.db.QueryContext(ctx, `
		SELECT document_id, chunk_index, embedding, content, metadata
		FROM index_records
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredRecord
	for rows.Next() {
		var (
			r            domain.IndexRecord
			blob         []byte
			metadataJSON string
		)
		if err := rows.Scan(&r.Key.DocumentID, &r.Key.ChunkIndex, &blob, &r.Content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Vector = vectors.Decode(blob)

		sim := vectors.CosineSimilarity(query, r.Vector)
		if sim <= threshold {
			continue
		}
		if err := unmarshalMetadata(metadataJSON, &r.Metadata); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.Key, err)
		}
		scored = append(scored, domain.ScoredRecord{Record: r, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return vectors.Rank(scored, topK), nil
}

// Count returns the number of records for documentID, or all when empty.
func (v *VectorIndex) Count(ctx context.Context, documentID string) (int, error) {
	var (
		n   int
		err error
	)
	if documentID == "" {
		err = v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_records").Scan(&n)
	} else {
		err = v.store.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM index_records WHERE document_id = ?", documentID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *VectorIndex) Close() error {
	return nil
}

// write validates dimensions and runs fn in a transaction. Every failure
// wraps domain.ErrIndexWrite and leaves the index unchanged.
func (v *VectorIndex) write(ctx context.Context, records []domain.IndexRecord, fn func(tx *sql.Tx) error) error {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrIndexWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := v.checkDims(ctx, tx, records); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

// checkDims enforces one vector length across the index, recording it on
// the first successful write.
func (v *VectorIndex) checkDims(ctx context.Context, tx *sql.Tx, records []domain.IndexRecord) error {
	stored, err := storedDims(ctx, tx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexWrite, err)
	}

	dims := stored
	if dims == 0 {
		dims = v.dims
	}
	for _, r := range records {
		if dims == 0 {
			dims = len(r.Vector)
		}
		if len(r.Vector) == 0 || len(r.Vector) != dims {
			return fmt.Errorf("%w: record %s has dimension %d, index has %d",
				domain.ErrIndexWrite, r.Key, len(r.Vector), dims)
		}
	}

	if stored == 0 && dims > 0 && len(records) > 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO index_meta (key, value) VALUES (?, ?)", dimsKey, strconv.Itoa(dims)); err != nil {
			return fmt.Errorf("%w: recording dimension: %v", domain.ErrIndexWrite, err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func storedDims(ctx context.Context, q querier) (int, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", dimsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading index dimension: %w", err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing index dimension %q: %w", value, err)
	}
	return n, nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_records (document_id, chunk_index, embedding, content, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_index) DO UPDATE SET
			embedding = excluded.embedding,
			content = excluded.content,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		metadataJSON, err := marshalMetadata(r.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, r.Key.DocumentID, r.Key.ChunkIndex,
			vectors.Encode(r.Vector), r.Content, metadataJSON, now); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.Key, err)
		}
	}
	return nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMetadata(data string, m *map[string]any) error {
	if data == "" || data == "{}" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), m); err != nil {
		return fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return nil
}
