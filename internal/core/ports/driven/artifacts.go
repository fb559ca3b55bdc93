package driven

import (
	"context"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
)

// MetadataStoreWriter creates the indexed metadata store artifact.
type MetadataStoreWriter interface {
	// Create builds, populates and validates the store for a collection.
	// Records must already carry their chunk assignment via the plan.
	// Any write failure aborts the whole step; no partial store is valid.
	// Returns the path of the created artifact.
	Create(ctx context.Context, col domain.Collection, records []domain.Record, plan []domain.ChunkRef) (string, error)
}

// ChunkWriter serialises planned chunks to standalone addressable files.
type ChunkWriter interface {
	// Write persists one chunk's full content and returns its byte size.
	Write(ctx context.Context, ref domain.ChunkRef, records []domain.Record) (int64, error)
}

// ManifestWriter emits the single collection descriptor.
type ManifestWriter interface {
	// Write persists the manifest after all chunk sizes are final.
	// Returns the path of the written manifest.
	Write(ctx context.Context, manifest domain.Manifest) (string, error)
}
