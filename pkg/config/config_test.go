package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Setenv("TEST_DB_DSN", "postgres://localhost:5432/bench")
	t.Setenv("PII_VAULT_KEY", "dGVzdC1rZXktMzItYnl0ZXMtbG9uZy1wYWRkZWQh")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	path := writeConfigFile(t, `
database:
  dsn: ${TEST_DB_DSN}
search:
  max_results: 25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/bench", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	// untouched defaults survive the merge
	assert.Equal(t, 0.6, cfg.Search.VectorWeight)
	assert.NotEmpty(t, cfg.Queue.Queues)
	assert.Equal(t, path, cfg.ConfigPath())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "database: [this is not a map")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestValidateRejectsSearchWeightsNotSummingToOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.DSN = "postgres://localhost/db"
	cfg.PII.VaultKeyEnv = "K"
	cfg.Summarizer.APIKeyEnv = "K"
	cfg.Search.VectorWeight = 0.9
	cfg.Search.LexicalWeight = 0.4

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector_weight")
}

func TestValidateRequiresAtLeastOneQueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.DSN = "postgres://localhost/db"
	cfg.PII.VaultKeyEnv = "K"
	cfg.Summarizer.APIKeyEnv = "K"
	cfg.Queue.Queues = nil

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queues")
}
