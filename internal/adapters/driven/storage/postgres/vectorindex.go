package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// VectorIndex implements driven.VectorIndex on a pgvector column.
type VectorIndex struct {
	store *Store
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
// transaction.
func (v *VectorIndex) ReplaceDocument(ctx context.Context, documentID string, records []domain.IndexRecord) error {
	for _, r := range records {
		if r.Key.DocumentID != documentID {
			return fmt.Errorf("%w: record %s does not belong to document %s",
				domain.ErrIndexWrite, r.Key, documentID)
		}
	}
	return v.write(ctx, records, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM index_records WHERE document_id = $1", documentID); err != nil {
			return err
		}
		return insertRecords(ctx, tx, records)
	})
}

// DeleteDocument removes all records for documentID.
func (v *VectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := v.store.db.ExecContext(ctx,
		"DELETE FROM index_records WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("%w: deleting document %s: %v", domain.ErrIndexWrite, documentID, err)
	}
	return nil
}

// Search ranks records by cosine similarity in the database.
func (v *VectorIndex) Search(
	ctx context.Context,
	query []float32,
	topK int,
	threshold float64,
) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if len(query) != v.store.dims {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidInput, len(query), v.store.dims)
	}
	// Cosine distance against a zero vector is NaN, which Postgres sorts
	// above every number.
	if isZero(query) {
		return []domain.ScoredRecord{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT document_id, chunk_index, embedding, content, metadata, similarity
		FROM (
			SELECT document_id, chunk_index, embedding, content, metadata,
				1 - (embedding <=> $1) AS similarity
			FROM index_records
		) scored
		WHERE similarity > $2
		ORDER BY similarity DESC, document_id ASC, chunk_index ASC
		LIMIT $3
	`, pgvector.NewVector(query), threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	results := []domain.ScoredRecord{}
	for rows.Next() {
		var (
			sr        domain.ScoredRecord
			vec       pgvector.Vector
			metaBytes []byte
		)
		if err := rows.Scan(&sr.Record.Key.DocumentID, &sr.Record.Key.ChunkIndex,
			&vec, &sr.Record.Content, &metaBytes, &sr.Similarity); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		sr.Record.Vector = vec.Slice()
		if len(metaBytes) > 0 && string(metaBytes) != "{}" {
			if err := json.Unmarshal(metaBytes, &sr.Record.Metadata); err != nil {
				return nil, fmt.Errorf("record %s: unmarshalling metadata: %w", sr.Record.Key, err)
			}
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return results, nil
}

// Count returns the number of records for documentID, or all when empty.
func (v *VectorIndex) Count(ctx context.Context, documentID string) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM index_records WHERE $1 = '' OR document_id = $1
	`, documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *VectorIndex) Close() error {
	return nil
}

func (v *VectorIndex) write(ctx context.Context, records []domain.IndexRecord, fn func(tx *sql.Tx) error) error {
	for _, r := range records {
		if len(r.Vector) != v.store.dims {
			return fmt.Errorf("%w: record %s has dimension %d, index has %d",
				domain.ErrIndexWrite, r.Key, len(r.Vector), v.store.dims)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrIndexWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_records (document_id, chunk_index, embedding, content, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (document_id, chunk_index) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta := r.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("record %s: marshal metadata: %w", r.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, r.Key.DocumentID, r.Key.ChunkIndex,
			pgvector.NewVector(r.Vector), r.Content, string(metaJSON)); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.Key, err)
		}
	}
	return nil
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
