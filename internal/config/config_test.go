package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 300*time.Millisecond, cfg.UI.Debounce)
	assert.Equal(t, 10, cfg.UI.PageSize)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://api.example.com/v1/
  timeout: 2s
ui:
  debounce: 1s
  page_size: 25
log:
  debug: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Second, cfg.UI.Debounce)
	assert.Equal(t, 25, cfg.UI.PageSize)
	assert.True(t, cfg.Log.Debug)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://file\n"), 0644))
	t.Setenv(EnvBaseURL, "http://env:9000/api")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000/api", cfg.API.BaseURL)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.Log.Debug)
}

func TestRender(t *testing.T) {
	out, err := Render(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: "+DefaultBaseURL)
	assert.Contains(t, out, "debounce: 300ms")
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/taskflow/config.yaml", DefaultPath())
}
