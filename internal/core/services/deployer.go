package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-inbox/openinbox-cli/internal/chunks"
	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
	"github.com/open-inbox/openinbox-cli/internal/logger"
)

// indexPath is the remote location of the collection index artifact.
const indexPath = "collections/index.json"

// DeployInput names the finished local artifacts to publish.
type DeployInput struct {
	Collection   domain.Collection
	Filename     string
	Manifest     domain.Manifest
	StorePath    string
	ManifestPath string
	ChunkDir     string
}

// DeployResult reports what reached the sink.
type DeployResult struct {
	// URL is the browsable location of the deployed collection.
	URL string

	// SkippedChunks counts chunks withheld for exceeding the sink's
	// payload ceiling. They remain available in the local output.
	SkippedChunks int
}

// Deployer publishes collection artifacts to the deployment sink.
// The store and manifest must both commit for a deployment to count as
// successful; a chunk skipped for size degrades the collection but does
// not fail the run.
type Deployer struct {
	sink driven.DeploymentSink
}

// NewDeployer creates a deployer for the given sink.
func NewDeployer(sink driven.DeploymentSink) *Deployer {
	return &Deployer{sink: sink}
}

// Deploy uploads the store, the manifest, each chunk in ascending chunk
// order, then registers the collection in the remote index.
func (d *Deployer) Deploy(ctx context.Context, in DeployInput) (*DeployResult, error) {
	base := "collections/" + in.Filename

	if err := d.putLocalFile(ctx, in.StorePath, base+".db",
		fmt.Sprintf("Add email collection: %s", in.Collection.DisplayName)); err != nil {
		return nil, fmt.Errorf("%w: store upload: %v", domain.ErrDeployFailed, err)
	}

	if err := d.putLocalFile(ctx, in.ManifestPath, base+"/manifest.json",
		fmt.Sprintf("Add manifest for %s", in.Collection.DisplayName)); err != nil {
		return nil, fmt.Errorf("%w: manifest upload: %v", domain.ErrDeployFailed, err)
	}

	skipped := 0
	for _, ref := range in.Manifest.Chunks {
		if ref.ByteSize > d.sink.MaxFileSize() {
			logger.Warn("Chunk %d (%d bytes) exceeds the %d byte upload limit, keeping it local only",
				ref.ID, ref.ByteSize, d.sink.MaxFileSize())
			skipped++
			continue
		}
		local := filepath.Join(in.ChunkDir, chunks.Filename(ref.ID))
		remote := fmt.Sprintf("%s/%s", base, chunks.Filename(ref.ID))
		if err := d.putLocalFile(ctx, local, remote,
			fmt.Sprintf("Add chunk %d for %s", ref.ID, in.Collection.DisplayName)); err != nil {
			return nil, fmt.Errorf("%w: chunk %d upload: %v", domain.ErrDeployFailed, ref.ID, err)
		}
	}

	if err := d.updateIndex(ctx, in); err != nil {
		return nil, fmt.Errorf("%w: index update: %v", domain.ErrDeployFailed, err)
	}

	return &DeployResult{
		URL:           d.sink.CollectionURL(in.Filename),
		SkippedChunks: skipped,
	}, nil
}

// putLocalFile uploads a local artifact, creating or updating as needed.
func (d *Deployer) putLocalFile(ctx context.Context, localPath, remotePath, message string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	return d.putFile(ctx, remotePath, message, data)
}

func (d *Deployer) putFile(ctx context.Context, remotePath, message string, data []byte) error {
	existing, err := d.sink.GetContents(ctx, remotePath)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Creating %s", remotePath)
		return d.sink.CreateFile(ctx, remotePath, message, data)
	case err != nil:
		return err
	default:
		logger.Debug("Updating %s", remotePath)
		return d.sink.UpdateFile(ctx, remotePath, message, data, existing.SHA)
	}
}

// updateIndex merges this collection into the remote index: entries are
// deduplicated by collection id and kept newest-first.
func (d *Deployer) updateIndex(ctx context.Context, in DeployInput) error {
	entry := domain.IndexEntry{
		ID:          in.Collection.ID,
		Filename:    in.Filename,
		DisplayName: in.Collection.DisplayName,
		Description: fmt.Sprintf("%d emails", in.Collection.RecordCount),
		RecordCount: in.Collection.RecordCount,
		CreatedAt:   in.Collection.CreatedAt,
	}

	var existing []domain.IndexEntry
	var sha string

	remote, err := d.sink.GetContents(ctx, indexPath)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return err
	default:
		sha = remote.SHA
		if err := json.Unmarshal(remote.Content, &existing); err != nil {
			logger.Warn("Remote index is unreadable, rebuilding it: %v", err)
			existing = nil
		}
	}

	merged := []domain.IndexEntry{entry}
	for _, e := range existing {
		if e.ID != entry.ID {
			merged = append(merged, e)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("serialising index: %w", err)
	}

	message := fmt.Sprintf("Update collection index for %s", in.Collection.DisplayName)
	if sha == "" {
		return d.sink.CreateFile(ctx, indexPath, message, data)
	}
	return d.sink.UpdateFile(ctx, indexPath, message, data, sha)
}
