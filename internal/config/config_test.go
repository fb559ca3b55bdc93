package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultBodyCap, cfg.BodyCap)
	assert.Equal(t, "auto", cfg.DateFormat)
	assert.Equal(t, int64(DefaultMaxFileBytes), cfg.Deploy.MaxFileBytes)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
chunk_size = 100
body_cap = 1000
date_format = "2006-01-02"

[deploy]
owner = "example"
repo = "inbox-site"
max_file_bytes = 1048576

[source]
base_url = "https://api.example.org/api"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.ChunkSize)
	assert.Equal(t, 1000, cfg.BodyCap)
	assert.Equal(t, "2006-01-02", cfg.DateFormat)
	assert.Equal(t, "example", cfg.Deploy.Owner)
	assert.Equal(t, "inbox-site", cfg.Deploy.Repo)
	assert.Equal(t, int64(1048576), cfg.Deploy.MaxFileBytes)
	assert.Equal(t, "https://api.example.org/api", cfg.Source.BaseURL)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultPreviewCap, cfg.PreviewCap)
	assert.Equal(t, DefaultSoftDeadline, cfg.SoftDeadline)
}

func TestLoad_NormalisesInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
chunk_size = -5
preview_cap = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultPreviewCap, cfg.PreviewCap)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size = ["), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefault_SoftDeadline(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 25*time.Minute, cfg.SoftDeadline)
}
