package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, env := range []string{
		"NOTEBOOK_DATA_DIR", "DATA_DIR", "EMBEDDING_PROVIDER", "EMBEDDING_API_KEY",
		"OPENAI_API_KEY", "LLM_PROVIDER", "VECTOR_BACKEND", "CHUNK_SIZE", "CHUNK_OVERLAP",
		"NOTEBOOK_CONFIG", "NOTEBOOK_HOME",
	} {
		t.Setenv(env, "")
	}
	return Options{
		ConfigPath: filepath.Join(dir, "config"),
		DataDir:    filepath.Join(dir, "data"),
		EnvFiles:   []string{filepath.Join(dir, "absent.env")},
	}
}

func TestNew_WiresServices(t *testing.T) {
	opts := testOptions(t)

	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, opts.DataDir, a.Config.DataDir)
	assert.Equal(t, filepath.Join(opts.DataDir, "uploads"), a.Config.Ingest.UploadsDir)
	assert.Equal(t, filepath.Join(opts.ConfigPath, "config.toml"), a.Paths.ConfigFile)

	assert.NotNil(t, a.Store)
	assert.NotNil(t, a.Index)
	assert.NotNil(t, a.Embedder)
	assert.NotNil(t, a.LLM, "lmstudio is configured by default")
	assert.NotNil(t, a.Indexer)
	assert.NotNil(t, a.Query)
	assert.NotNil(t, a.Answer)
	assert.NotNil(t, a.Documents)
	assert.NotNil(t, a.Repair)
	assert.NotNil(t, a.Ingest)

	docs, err := a.Documents.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNew_DataDirFlagBeatsEnvironment(t *testing.T) {
	opts := testOptions(t)
	t.Setenv("NOTEBOOK_DATA_DIR", filepath.Join(t.TempDir(), "env-data"))

	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, opts.DataDir, a.Config.DataDir)
}

func TestNew_MemoryBackend(t *testing.T) {
	opts := testOptions(t)
	t.Setenv("VECTOR_BACKEND", "memory")

	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer a.Close()

	n, err := a.Index.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNew_UnusableEmbeddingsAreDeferred(t *testing.T) {
	opts := testOptions(t)
	t.Setenv("EMBEDDING_PROVIDER", "openai")

	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Embedder.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNew_InvalidSettings(t *testing.T) {
	opts := testOptions(t)
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	_, err := New(context.Background(), opts)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoadBase(t *testing.T) {
	opts := testOptions(t)

	base, err := LoadBase(opts)
	require.NoError(t, err)

	require.NoError(t, base.Settings.Set("retrieval.top_k", "9"))
	settings, err := base.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 9, settings.Retrieval.TopK)
	assert.FileExists(t, base.Paths.ConfigFile)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(context.Background(), testOptions(t))
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
