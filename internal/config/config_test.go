package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.Database)
	assert.Equal(t, "table", cfg.Defaults.Output)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Defaults.Output, cfg.Defaults.Output)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `database: /tmp/test.db
defaults:
  region: eu
  year: 2024
  output: json
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.Database)
	assert.Equal(t, "eu", cfg.Defaults.Region)
	assert.Equal(t, 2024, cfg.Defaults.Year)
	assert.Equal(t, "json", cfg.Defaults.Output)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CARBONLEDGER_DB", "/tmp/env.db")
	t.Setenv("CARBONLEDGER_REGION", "us")
	t.Setenv("CARBONLEDGER_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database)
	assert.Equal(t, "us", cfg.Defaults.Region)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Database: filepath.Join(dir, "nested", "carbonledger.db")}

	require.NoError(t, cfg.EnsureDataDir())
	info, err := os.Stat(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
