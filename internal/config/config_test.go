package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-civitai-mirror/internal/helpers"
	"go-civitai-mirror/internal/models"
)

func TestApplyDefaults(t *testing.T) {
	cfg := ApplyDefaults(models.Config{})

	assert.Equal(t, DefaultSavePath, cfg.SavePath)
	assert.Equal(t, "All", cfg.DownloadType)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
	assert.Equal(t, DefaultMaxTries, cfg.MaxTries)
	assert.Equal(t, DefaultMaxThreads, cfg.MaxThreads)
	assert.Equal(t, DefaultMaxPages, cfg.MaxPages)
	assert.Equal(t, DefaultApiClientTimeoutSec, cfg.ApiClientTimeoutSec)
	assert.Equal(t, DefaultApiRequestsPerSecond, cfg.ApiRequestsPerSecond)
	assert.Equal(t, helpers.MaxNameLength, cfg.MaxNameLength)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := ApplyDefaults(models.Config{
		SavePath:   "/srv/mirror",
		MaxThreads: 12,
		MaxTries:   1,
	})

	assert.Equal(t, "/srv/mirror", cfg.SavePath)
	assert.Equal(t, 12, cfg.MaxThreads)
	assert.Equal(t, 1, cfg.MaxTries)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
ApiKey = "secret-token"
SavePath = "mirror_out"
DownloadType = "Lora"
MaxThreads = 3
VerifyHashes = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.ApiKey)
	assert.Equal(t, "mirror_out", cfg.SavePath)
	assert.Equal(t, "Lora", cfg.DownloadType)
	assert.Equal(t, 3, cfg.MaxThreads)
	assert.True(t, cfg.VerifyHashes)

	// Omitted fields still get defaults.
	assert.Equal(t, DefaultMaxTries, cfg.MaxTries)
	assert.Equal(t, DefaultMaxPages, cfg.MaxPages)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)

	assert.Equal(t, DefaultSavePath, cfg.SavePath)
	assert.Equal(t, DefaultMaxThreads, cfg.MaxThreads)
}
