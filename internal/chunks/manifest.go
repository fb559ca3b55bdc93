package chunks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
)

// ManifestFilename is the manifest file name within the output directory.
const ManifestFilename = "manifest.json"

// Ensure ManifestWriter implements the interface.
var _ driven.ManifestWriter = (*ManifestWriter)(nil)

// ManifestWriter emits the single collection descriptor. It must run
// after all chunks exist so the recorded byte sizes are final.
type ManifestWriter struct {
	dir string
}

// NewManifestWriter creates a manifest writer rooted at the output directory.
func NewManifestWriter(dir string) *ManifestWriter {
	return &ManifestWriter{dir: dir}
}

// Write persists the manifest and returns its path.
func (w *ManifestWriter) Write(ctx context.Context, manifest domain.Manifest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(w.dir, ManifestFilename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}

	return path, nil
}
