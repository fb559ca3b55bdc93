// Package config holds the explicit run configuration. There are no
// ambient globals: every component receives the values it needs at
// construction.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Policy defaults. These bound memory and file size; they carry no
// stronger semantic intent and are all overridable from the config file.
const (
	DefaultChunkSize     = 500
	DefaultBodyCap       = 5000
	DefaultSearchTextCap = 20000
	DefaultPreviewCap    = 200
	DefaultHeaderBytes   = 2048

	// DefaultMaxFileBytes is kept below GitHub's 100MB contents-API hard
	// limit to leave margin for encoding overhead.
	DefaultMaxFileBytes = 50 * 1024 * 1024

	DefaultSoftDeadline = 25 * time.Minute
)

// Source configures the document source API.
type Source struct {
	// BaseURL is the document API root, e.g. https://api.www.documentcloud.org/api.
	BaseURL string `toml:"base_url"`

	// Token is an optional bearer token.
	Token string `toml:"token"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `toml:"timeout"`
}

// Deploy configures the deployment sink repository.
type Deploy struct {
	// Owner and Repo identify the target repository.
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`

	// Token is the access token used for the contents API.
	Token string `toml:"token"`

	// MaxFileBytes is the per-file payload ceiling. Must stay below the
	// sink's hard limit.
	MaxFileBytes int64 `toml:"max_file_bytes"`
}

// Config is the explicit configuration passed into each component.
type Config struct {
	// CacheDir holds the resumption checkpoint, scoped per collection.
	CacheDir string `toml:"cache_dir"`

	// OutputDir receives the local store, chunk and manifest artifacts.
	OutputDir string `toml:"output_dir"`

	// ChunkSize is the number of records per content chunk.
	ChunkSize int `toml:"chunk_size"`

	// BodyCap, SearchTextCap and PreviewCap bound per-record text fields.
	BodyCap       int `toml:"body_cap"`
	SearchTextCap int `toml:"search_text_cap"`
	PreviewCap    int `toml:"preview_cap"`

	// HeaderBytes bounds the region scanned by regex header extraction.
	HeaderBytes int `toml:"header_bytes"`

	// DateFormat is the date layout hint, or "auto".
	DateFormat string `toml:"date_format"`

	// SoftDeadline is the overall run budget. On approach, in-flight
	// extraction is abandoned cleanly after the current document.
	SoftDeadline time.Duration `toml:"soft_deadline"`

	Source Source `toml:"source"`
	Deploy Deploy `toml:"deploy"`
}

// Default returns a configuration populated with the policy defaults.
func Default() Config {
	return Config{
		CacheDir:      ".openinbox/cache",
		OutputDir:     ".openinbox/out",
		ChunkSize:     DefaultChunkSize,
		BodyCap:       DefaultBodyCap,
		SearchTextCap: DefaultSearchTextCap,
		PreviewCap:    DefaultPreviewCap,
		HeaderBytes:   DefaultHeaderBytes,
		DateFormat:    "auto",
		SoftDeadline:  DefaultSoftDeadline,
		Deploy: Deploy{
			MaxFileBytes: DefaultMaxFileBytes,
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file is not
// an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.normalise()
	return cfg, nil
}

// normalise clamps zero or negative values back to the defaults.
func (c *Config) normalise() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.BodyCap <= 0 {
		c.BodyCap = DefaultBodyCap
	}
	if c.SearchTextCap <= 0 {
		c.SearchTextCap = DefaultSearchTextCap
	}
	if c.PreviewCap <= 0 {
		c.PreviewCap = DefaultPreviewCap
	}
	if c.HeaderBytes <= 0 {
		c.HeaderBytes = DefaultHeaderBytes
	}
	if c.DateFormat == "" {
		c.DateFormat = "auto"
	}
	if c.SoftDeadline <= 0 {
		c.SoftDeadline = DefaultSoftDeadline
	}
	if c.Deploy.MaxFileBytes <= 0 {
		c.Deploy.MaxFileBytes = DefaultMaxFileBytes
	}
}
