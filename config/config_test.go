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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")

	path := writeConfig(t, `
log:
  level: debug
  development: true
default: openai
providers:
  openai:
    api_key: ${TEST_OPENAI_KEY}
    max_tokens: 2000
  ollama: {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "openai", cfg.Default)

	oa, ok := cfg.Providers["openai"]
	require.True(t, ok)
	assert.Equal(t, "sk-from-env", oa.APIKey)
	assert.Equal(t, 2000, oa.MaxTokens)

	_, ok = cfg.Providers["ollama"]
	assert.True(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "providers: [not: a: map\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "ollama", cfg.Default)

	reg := cfg.Registry()
	assert.Equal(t, "ollama", reg.Default)
	assert.Contains(t, reg.Providers, "ollama")
}

func TestBuildLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)

	cfg.Log.Level = "not-a-level"
	_, err = cfg.BuildLogger()
	require.Error(t, err)
}
