package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/storagetest"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// dsnEnv names a database with the pgvector extension available. Tests skip
// when it is unset.
const dsnEnv = "RAGENT_TEST_POSTGRES_DSN"

// setupTestStore opens a store inside a throwaway schema.
func setupTestStore(t *testing.T, dims int) *Store {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	admin, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })

	schemaName := fmt.Sprintf("ragent_test_%d", time.Now().UnixNano())
	_, err = admin.Exec("CREATE SCHEMA " + schemaName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec("DROP SCHEMA " + schemaName + " CASCADE")
	})

	store, err := Open(context.Background(), withSearchPath(dsn, schemaName), dims)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// withSearchPath adds a search_path runtime parameter in either DSN form.
// public stays on the path so the vector type resolves.
func withSearchPath(dsn, schema string) string {
	path := schema + ",public"
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + strings.ReplaceAll(path, ",", "%2C")
	}
	return dsn + " search_path=" + path
}

func TestOpen_RejectsZeroDimensions(t *testing.T) {
	_, err := Open(context.Background(), "postgres://localhost/none", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestWithSearchPath(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"url", "postgres://u@h/db", "postgres://u@h/db?search_path=s%2Cpublic"},
		{"url with query", "postgres://u@h/db?sslmode=disable", "postgres://u@h/db?sslmode=disable&search_path=s%2Cpublic"},
		{"keyword", "host=h dbname=db", "host=h dbname=db search_path=s,public"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withSearchPath(tt.dsn, "s"))
		})
	}
}

func TestVectorIndex_Contract(t *testing.T) {
	storagetest.RunVectorIndex(t, func(t *testing.T) driven.VectorIndex {
		return setupTestStore(t, storagetest.Dims).VectorIndex()
	})
}

func TestSessionStore_Contract(t *testing.T) {
	storagetest.RunSessionStore(t, func(t *testing.T) driven.SessionStore {
		return setupTestStore(t, storagetest.Dims).SessionStore()
	})
}

func TestIngestionStatusStore_Contract(t *testing.T) {
	storagetest.RunIngestionStatusStore(t, func(t *testing.T) driven.IngestionStatusStore {
		return setupTestStore(t, storagetest.Dims).IngestionStatusStore()
	})
}

func TestVectorIndex_ZeroQuery(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t, storagetest.Dims).VectorIndex()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexRecord{storagetest.Record("a", 0, 1, 0, 0)}))

	res, err := idx.Search(ctx, []float32{0, 0, 0}, 4, -1)

	require.NoError(t, err)
	assert.Empty(t, res)
}
