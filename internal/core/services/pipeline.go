package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/open-inbox/openinbox-cli/internal/chunks"
	"github.com/open-inbox/openinbox-cli/internal/config"
	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driving"
	"github.com/open-inbox/openinbox-cli/internal/extract"
	"github.com/open-inbox/openinbox-cli/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.PipelineRunner = (*Pipeline)(nil)

// ArtifactWriters supplies per-collection artifact writer constructors.
// The pipeline decides the directories; the adapters decide the formats.
type ArtifactWriters struct {
	Checkpoint func(cacheDir string) driven.Checkpoint
	Store      func(outDir string) driven.MetadataStoreWriter
	Chunks     func(outDir string) driven.ChunkWriter
	Manifest   func(outDir string) driven.ManifestWriter
}

// PipelineOption configures optional pipeline collaborators.
type PipelineOption func(*Pipeline)

// WithDeployer enables publication to a deployment sink after the local
// artifacts are complete.
func WithDeployer(d *Deployer) PipelineOption {
	return func(p *Pipeline) { p.deployer = d }
}

// WithProgress installs a progress callback.
func WithProgress(fn driving.Progress) PipelineOption {
	return func(p *Pipeline) { p.progress = fn }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator overrides collection id generation. Used in tests.
func WithIDGenerator(fn func() string) PipelineOption {
	return func(p *Pipeline) { p.newID = fn }
}

// Pipeline runs the extraction-and-indexing flow end to end: fetch,
// extract, build, plan, write chunks, write store, write manifest, and
// optionally deploy.
type Pipeline struct {
	cfg      config.Config
	source   driven.DocumentSource
	writers  ArtifactWriters
	deployer *Deployer
	progress driving.Progress
	now      func() time.Time
	newID    func() string
}

// NewPipeline creates a pipeline over a document source and artifact
// writer constructors.
func NewPipeline(cfg config.Config, source driven.DocumentSource, writers ArtifactWriters, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		source:   source,
		writers:  writers,
		progress: func(int, string) {},
		now:      time.Now,
		newID:    func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one ingestion. On interruption (context cancellation or
// the soft deadline) the checkpoint is flushed and the run reports
// domain.ErrInterrupted alongside a partial result; no artifacts are
// produced for an interrupted run.
func (p *Pipeline) Run(ctx context.Context, opts driving.RunOptions) (*driving.RunResult, error) {
	if strings.TrimSpace(opts.CollectionName) == "" {
		return nil, fmt.Errorf("collection name is required: %w", domain.ErrInvalidInput)
	}
	if len(opts.DocumentIDs) == 0 && strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("either document ids or a query is required: %w", domain.ErrInvalidInput)
	}

	started := p.now()
	safeName := domain.SanitiseCollectionName(opts.CollectionName)
	col := domain.Collection{
		ID:          p.newID(),
		Name:        safeName,
		DisplayName: domain.DisplayNameFor(safeName),
		CreatedAt:   started.UTC(),
	}
	filename := domain.CollectionFilename(col.ID, col.Name)

	result := &driving.RunResult{
		CollectionID: col.ID,
		Filename:     filename,
		StartedAt:    started,
	}

	// The checkpoint is keyed by collection name, not run id, so an
	// interrupted run and its retry share state.
	cp := p.writers.Checkpoint(filepath.Join(p.cfg.CacheDir, safeName))
	if err := cp.Restore(); err != nil {
		return nil, fmt.Errorf("restoring checkpoint: %w", err)
	}

	p.progress(0, fmt.Sprintf("Starting collection %q", col.DisplayName))

	records, interrupted, err := p.extractRecords(ctx, opts, cp)
	if err != nil {
		return nil, err
	}
	if interrupted {
		if err := cp.Flush(); err != nil {
			logger.Error("Failed to flush checkpoint: %v", err)
		}
		result.Interrupted = true
		result.RecordCount = len(records)
		result.FinishedAt = p.now()
		return result, fmt.Errorf("run stopped after %d documents: %w", cp.Count(), domain.ErrInterrupted)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no documents produced records: %w", domain.ErrNoRecords)
	}

	col.RecordCount = len(records)
	result.RecordCount = len(records)

	p.progress(70, fmt.Sprintf("Organising %d records into chunks", len(records)))
	outDir := filepath.Join(p.cfg.OutputDir, filename)
	ordered, plan := chunks.PlanChunks(records, p.cfg.ChunkSize)
	if err := p.writeChunks(ctx, outDir, ordered, plan); err != nil {
		return nil, err
	}
	result.ChunkCount = len(plan)

	p.progress(85, "Building the metadata store")
	storePath, err := p.writers.Store(outDir).Create(ctx, col, ordered, plan)
	if err != nil {
		return nil, fmt.Errorf("creating metadata store: %w", err)
	}
	result.StorePath = storePath

	manifestPath, err := p.writers.Manifest(outDir).Write(ctx, domain.Manifest{
		CollectionID: col.ID,
		Name:         col.Name,
		DisplayName:  col.DisplayName,
		RecordCount:  col.RecordCount,
		ChunkSize:    p.cfg.ChunkSize,
		CreatedAt:    col.CreatedAt,
		Chunks:       plan,
	})
	if err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if p.deployer != nil {
		p.progress(90, "Deploying to the hosting repository")
		deployed, err := p.deployer.Deploy(ctx, DeployInput{
			Collection:   col,
			Filename:     filename,
			Manifest:     domain.Manifest{Chunks: plan},
			StorePath:    storePath,
			ManifestPath: manifestPath,
			ChunkDir:     outDir,
		})
		if err != nil {
			return nil, err
		}
		result.DeployedURL = deployed.URL
		result.SkippedChunks = deployed.SkippedChunks
	}

	result.FinishedAt = p.now()
	p.progress(100, fmt.Sprintf("Collection %q ready with %d records", col.DisplayName, len(records)))
	return result, nil
}

// extractRecords fetches and converts documents sequentially. It returns
// interrupted=true when the context is cancelled or the soft deadline
// passes between documents; records built so far are returned either way.
func (p *Pipeline) extractRecords(
	ctx context.Context, opts driving.RunOptions, cp driven.Checkpoint,
) ([]domain.Record, bool, error) {
	docs, err := p.gather(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	if ctx.Err() != nil {
		return nil, true, nil
	}

	dateHint := opts.DateFormat
	if dateHint == "" {
		dateHint = p.cfg.DateFormat
	}
	extractor := extract.NewExtractor(p.cfg.HeaderBytes)
	builder := NewRecordBuilder(p.cfg.BodyCap, p.cfg.SearchTextCap, p.cfg.PreviewCap)
	deadline := p.now().Add(p.cfg.SoftDeadline)

	var records []domain.Record
	for i, doc := range docs {
		select {
		case <-ctx.Done():
			return records, true, nil
		default:
		}
		if p.now().After(deadline) {
			logger.Warn("Soft deadline reached after %d of %d documents", i, len(docs))
			return records, true, nil
		}

		if cp.Done(doc.ID) {
			logger.Debug("Skipping already processed document %s", doc.ID)
			continue
		}

		md := extractor.Extract(doc.Tags, doc.RawText, dateHint)
		records = append(records, builder.Build(&doc, md))
		cp.MarkDone(doc.ID)

		if len(docs) > 0 {
			p.progress(60*(i+1)/len(docs), fmt.Sprintf("Processed %d of %d documents", i+1, len(docs)))
		}
	}
	return records, false, nil
}

// gather resolves the run options into concrete source documents.
// Individual fetch failures are skipped with a warning; a failed search
// fails the run.
func (p *Pipeline) gather(ctx context.Context, opts driving.RunOptions) ([]domain.SourceDocument, error) {
	if len(opts.DocumentIDs) > 0 {
		docs := make([]domain.SourceDocument, 0, len(opts.DocumentIDs))
		for _, id := range opts.DocumentIDs {
			if err := ctx.Err(); err != nil {
				return docs, nil
			}
			doc, err := p.source.GetByID(ctx, id)
			if err != nil {
				logger.Warn("Skipping document %s: %v", id, err)
				continue
			}
			docs = append(docs, *doc)
		}
		return docs, nil
	}

	docs, err := p.source.Search(ctx, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	return docs, nil
}

// writeChunks serialises every planned chunk and records final byte
// sizes back into the plan.
func (p *Pipeline) writeChunks(ctx context.Context, outDir string, ordered []domain.Record, plan []domain.ChunkRef) error {
	writer := p.writers.Chunks(outDir)
	for i := range plan {
		ref := plan[i]
		size, err := writer.Write(ctx, ref, ordered[ref.StartOrdinal-1:ref.EndOrdinal])
		if err != nil {
			return fmt.Errorf("writing chunk %d: %w", ref.ID, err)
		}
		plan[i].ByteSize = size

		done := 70 + 15*(i+1)/len(plan)
		p.progress(done, fmt.Sprintf("Wrote chunk %d of %d", i+1, len(plan)))
	}
	return nil
}
