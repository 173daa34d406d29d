package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 5, config.Download.TransientRetries)
	assert.Equal(t, domain.TierHigh, config.Selection.Quality)
	assert.Equal(t, domain.TierHigh, config.Selection.Size)
	assert.Equal(t, "yt-dlp", config.Engine.Binary)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
selection:
  quality: medium
  size: low
download:
  transient_retries: 3
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, domain.TierMedium, config.Selection.Quality)
	assert.Equal(t, domain.TierLow, config.Selection.Size)
	assert.Equal(t, 3, config.Download.TransientRetries)

	// medium/low resolves to a 480p ceiling
	assert.Equal(t, 480, config.Selection.Preference().HeightCeiling())
}

func TestLoadConfig_RejectsInvalidTier(t *testing.T) {
	path := writeConfigFile(t, `
selection:
  quality: ultra
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid preference")
}

func TestLoadConfig_RejectsInvalidPort(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 99999
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoadConfig_RejectsZeroRetryBound(t *testing.T) {
	path := writeConfigFile(t, `
download:
  transient_retries: 0
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transient retry bound")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "videos"), expandPath("~/videos"))
	assert.Equal(t, home+"/videos", expandPath("$HOME/videos"))
	assert.Equal(t, "/tmp/videos", expandPath("/tmp/videos"))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	config := domain.DefaultConfig()
	config.Server.Port = 9191
	config.Selection.Quality = domain.TierLow

	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, loaded.Server.Port)
	assert.Equal(t, domain.TierLow, loaded.Selection.Quality)
}
