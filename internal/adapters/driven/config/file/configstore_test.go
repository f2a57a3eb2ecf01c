package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ragent", "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("retrieval.top_k", 4))
	require.NoError(t, store.Set("retrieval.similarity_threshold", 0.75))
	require.NoError(t, store.Set("embedding.timeout", "30s"))
	require.NoError(t, store.Set("feature.enabled", true))

	assert.Equal(t, "llama3.2", store.GetString("llm.model"))
	assert.Equal(t, 4, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.75, store.GetFloat("retrieval.similarity_threshold"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("retrieval.top_k"), 1e-9)
	assert.Equal(t, 30*time.Second, store.GetDuration("embedding.timeout"))
	assert.True(t, store.GetBool("feature.enabled"))
}

func TestConfigStore_TypedGetters_Missing(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("bad.duration", "soon"))
	require.NoError(t, store.Set("wrong.type", 12))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Empty(t, store.GetString("wrong.type"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("wrong.type"))
	assert.Zero(t, store.GetDuration("bad.duration"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("pipeline.chunk_size", 800))
	require.NoError(t, store.Set("pipeline.chunk_overlap", 100))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[pipeline]")
	assert.Contains(t, string(data), "chunk_size = 800")
}

func TestConfigStore_SaveReload_PreservesData(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("retrieval.top_k", 6))
	require.NoError(t, store.Set("retrieval.similarity_threshold", 0.5))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai", reloaded.GetString("embedding.provider"))
	assert.Equal(t, 6, reloaded.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.5, reloaded.GetFloat("retrieval.similarity_threshold"), 1e-9)
	assert.Equal(t, []string{"embedding.provider", "retrieval.similarity_threshold", "retrieval.top_k"}, reloaded.Keys())
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[retrieval]
top_k = 8
similarity_threshold = 0.6

[llm]
provider = "anthropic"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.6, store.GetFloat("retrieval.similarity_threshold"), 1e-9)
	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("ingestion.workers", n)
			_ = store.GetInt("ingestion.workers")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("ingestion.workers")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	flat := map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"e":     true,
	}

	nested := nestMap(flat)

	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": 1,
			"c": map[string]any{"d": "x"},
		},
		"e": true,
	}, nested)
	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestNestMap_ValueShadowsTable(t *testing.T) {
	nested := nestMap(map[string]any{"a": 1, "a.b": 2})

	assert.Equal(t, map[string]any{"a": 1}, nested)
}
