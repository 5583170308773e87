package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "badger", cfg.Index.Backend)
	assert.Equal(t, "stock-descriptions", cfg.Index.Namespace)
	assert.Equal(t, 4, cfg.Ingest.PoolSize)
	assert.Equal(t, "successful_tickers.txt", cfg.Ingest.SuccessLog)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoad_AppliesDefaultsToPartialConfig(t *testing.T) {
	path := writeConfig(t, `
ingest:
  pool_size: 8
server:
  addr: ":9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Ingest.PoolSize)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "badger", cfg.Index.Backend)
	assert.Equal(t, "stockscope-index", cfg.Index.Badger.Path)
	assert.Equal(t, 30, cfg.Ingest.CallTimeoutSecs)
}

func TestLoad_PineconeBackend(t *testing.T) {
	path := writeConfig(t, `
index:
  backend: pinecone
  pinecone:
    host: https://stocks-abc123.svc.pinecone.io
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pinecone", cfg.Index.Backend)
	assert.Equal(t, "PINECONE_API_KEY", cfg.Index.Pinecone.APIKeyEnv)
	assert.Equal(t, 30, cfg.Index.Pinecone.TimeoutSecs)
	assert.Nil(t, cfg.Index.Badger)
}

func TestLoad_PineconeWithoutHostFails(t *testing.T) {
	path := writeConfig(t, `
index:
  backend: pinecone
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownBackendFails(t *testing.T) {
	path := writeConfig(t, `
index:
  backend: chalkboard
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := writeConfig(t, "::: not yaml :::")

	_, err := Load(path)
	assert.Error(t, err)
}
