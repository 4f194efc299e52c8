package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/starford/brainboard/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.Cache.Enabled())
}

func TestBackendConfig_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "localhost:8000"} {
		cfg := NewDefaultConfig()
		cfg.Backend.BaseURL = u
		assert.Error(t, cfg.Validate(), u)
	}
}

func TestBackendConfig_NegativeTimeout(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Backend.Timeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestCacheConfig_DisabledNeedsNoTTL(t *testing.T) {
	cfg := CacheConfig{Size: 0}
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Enabled())

	cfg = CacheConfig{Size: 10}
	assert.Error(t, cfg.Validate())
}

func TestInboxConfig_Validation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Inbox.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Inbox.Rate = -1
	assert.Error(t, cfg.Validate())
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  log_level: debug
backend:
  base_url: http://notes.internal:9000
  timeout: 5s
cache:
  size: 0
inbox:
  path: ${BRAINBOARD_TEST_INBOX}
  summarize: true
`), 0o644))
	t.Setenv("BRAINBOARD_TEST_INBOX", "/tmp/inbox")

	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.Load(path, cfg))
	assert.Equal(t, slog.LevelDebug, cfg.App.LogLevel)
	assert.Equal(t, "http://notes.internal:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.False(t, cfg.Cache.Enabled())
	assert.Equal(t, "/tmp/inbox", cfg.Inbox.Path)
	assert.True(t, cfg.Inbox.Summarize)
	assert.Equal(t, float64(1), cfg.Inbox.Rate)
}

func TestLoadConfig_MissingFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvBackendURL, "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_url: http://from-file:8000\n"), 0o644))
	t.Setenv(EnvBackendURL, "http://from-env:8000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8000", cfg.Backend.BaseURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_url: nope\n"), 0o644))
	t.Setenv(EnvBackendURL, "")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "config validation failed")

	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}
