package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-inbox/openinbox-cli/internal/chunks"
	"github.com/open-inbox/openinbox-cli/internal/config"
	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driving"
)

// fakeSource serves canned documents.
type fakeSource struct {
	docs map[string]domain.SourceDocument
}

var _ driven.DocumentSource = (*fakeSource)(nil)

func (f *fakeSource) GetByID(_ context.Context, id string) (*domain.SourceDocument, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return &doc, nil
}

func (f *fakeSource) Search(_ context.Context, _ string) ([]domain.SourceDocument, error) {
	out := make([]domain.SourceDocument, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out, nil
}

// fakeCheckpoint tracks ids in memory and records flushes.
type fakeCheckpoint struct {
	mu      sync.Mutex
	ids     map[string]struct{}
	flushed bool
}

var _ driven.Checkpoint = (*fakeCheckpoint)(nil)

func newFakeCheckpoint(ids ...string) *fakeCheckpoint {
	cp := &fakeCheckpoint{ids: make(map[string]struct{})}
	for _, id := range ids {
		cp.ids[id] = struct{}{}
	}
	return cp
}

func (f *fakeCheckpoint) Restore() error { return nil }

func (f *fakeCheckpoint) Done(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}

func (f *fakeCheckpoint) MarkDone(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[id] = struct{}{}
}

func (f *fakeCheckpoint) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

func (f *fakeCheckpoint) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = true
	return nil
}

// fakeStore captures what the pipeline asks it to persist.
type fakeStore struct {
	dir     string
	col     domain.Collection
	records []domain.Record
	plan    []domain.ChunkRef
	called  bool
}

var _ driven.MetadataStoreWriter = (*fakeStore)(nil)

func (f *fakeStore) Create(_ context.Context, col domain.Collection, records []domain.Record, plan []domain.ChunkRef) (string, error) {
	f.called = true
	f.col = col
	f.records = records
	f.plan = plan

	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, domain.CollectionFilename(col.ID, col.Name)+".db")
	if err := os.WriteFile(path, []byte("store"), 0600); err != nil {
		return "", err
	}
	return path, nil
}

type pipelineFixture struct {
	source *fakeSource
	cp     *fakeCheckpoint
	store  *fakeStore
	cfg    config.Config
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.OutputDir = t.TempDir()
	cfg.ChunkSize = 2

	return &pipelineFixture{
		source: &fakeSource{docs: map[string]domain.SourceDocument{
			"1": {ID: "1", Title: "First", RawText: "From: a@x.com\nSubject: One\n\nBody one."},
			"2": {ID: "2", Title: "Second", RawText: "From: b@x.com\nSubject: Two\n\nBody two."},
			"3": {ID: "3", Title: "Third", RawText: "Body three only."},
		}},
		cp:    newFakeCheckpoint(),
		store: &fakeStore{},
		cfg:   cfg,
	}
}

func (fx *pipelineFixture) pipeline(opts ...PipelineOption) *Pipeline {
	writers := ArtifactWriters{
		Checkpoint: func(string) driven.Checkpoint { return fx.cp },
		Store: func(dir string) driven.MetadataStoreWriter {
			fx.store.dir = dir
			return fx.store
		},
		Chunks:     func(dir string) driven.ChunkWriter { return chunks.NewWriter(dir) },
		Manifest:   func(dir string) driven.ManifestWriter { return chunks.NewManifestWriter(dir) },
	}
	opts = append([]PipelineOption{WithIDGenerator(func() string { return "ab12cd34" })}, opts...)
	return NewPipeline(fx.cfg, fx.source, writers, opts...)
}

func TestPipeline_Run(t *testing.T) {
	fx := newFixture(t)
	p := fx.pipeline()

	res, err := p.Run(context.Background(), driving.RunOptions{
		CollectionName: "City Records!",
		DocumentIDs:    []string{"1", "2", "3"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ab12cd34", res.CollectionID)
	assert.Equal(t, "ab12cd34_City_Records_", res.Filename)
	assert.Equal(t, 3, res.RecordCount)
	assert.Equal(t, 2, res.ChunkCount)
	assert.NotEmpty(t, res.StorePath)
	assert.FileExists(t, res.ManifestPath)

	require.True(t, fx.store.called)
	assert.Equal(t, 3, fx.store.col.RecordCount)
	assert.Len(t, fx.store.plan, 2)

	// Chunk byte sizes are final by the time the store is written.
	for _, ref := range fx.store.plan {
		assert.Positive(t, ref.ByteSize)
	}

	// Normal completion never flushes the checkpoint.
	assert.False(t, fx.cp.flushed)
	assert.Equal(t, 3, fx.cp.Count())
}

func TestPipeline_ValidatesOptions(t *testing.T) {
	fx := newFixture(t)
	p := fx.pipeline()

	_, err := p.Run(context.Background(), driving.RunOptions{DocumentIDs: []string{"1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = p.Run(context.Background(), driving.RunOptions{CollectionName: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_SkipsCheckpointedDocuments(t *testing.T) {
	fx := newFixture(t)
	fx.cp = newFakeCheckpoint("1", "2")
	p := fx.pipeline()

	res, err := p.Run(context.Background(), driving.RunOptions{
		CollectionName: "records",
		DocumentIDs:    []string{"1", "2", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecordCount)
}

func TestPipeline_MissingDocumentIsSkipped(t *testing.T) {
	fx := newFixture(t)
	p := fx.pipeline()

	res, err := p.Run(context.Background(), driving.RunOptions{
		CollectionName: "records",
		DocumentIDs:    []string{"1", "missing", "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RecordCount)
}

func TestPipeline_NoRecords(t *testing.T) {
	fx := newFixture(t)
	fx.cp = newFakeCheckpoint("1", "2", "3")
	p := fx.pipeline()

	_, err := p.Run(context.Background(), driving.RunOptions{
		CollectionName: "records",
		DocumentIDs:    []string{"1", "2", "3"},
	})
	assert.ErrorIs(t, err, domain.ErrNoRecords)
}

func TestPipeline_SoftDeadlineInterrupts(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.SoftDeadline = time.Minute

	// Advance the clock past the deadline after the first document.
	calls := 0
	clock := func() time.Time {
		calls++
		if calls <= 2 {
			return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		}
		return time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC)
	}
	p := fx.pipeline(WithClock(clock))

	res, err := p.Run(context.Background(), driving.RunOptions{
		CollectionName: "records",
		DocumentIDs:    []string{"1", "2", "3"},
	})
	assert.ErrorIs(t, err, domain.ErrInterrupted)
	require.NotNil(t, res)
	assert.True(t, res.Interrupted)
	assert.True(t, fx.cp.flushed)
	assert.Empty(t, res.StorePath)
}

func TestPipeline_CancelledContextInterrupts(t *testing.T) {
	fx := newFixture(t)
	p := fx.pipeline()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx, driving.RunOptions{
		CollectionName: "records",
		DocumentIDs:    []string{"1", "2"},
	})
	assert.ErrorIs(t, err, domain.ErrInterrupted)
	require.NotNil(t, res)
	assert.True(t, res.Interrupted)
	assert.True(t, fx.cp.flushed)
}

func TestPipeline_DeploysWhenConfigured(t *testing.T) {
	fx := newFixture(t)
	sink := newFakeSink()
	p := fx.pipeline(WithDeployer(NewDeployer(sink)))

	res, err := p.Run(context.Background(), driving.RunOptions{
		CollectionName: "records",
		DocumentIDs:    []string{"1", "2", "3"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.github.io/site/?emails=ab12cd34_records", res.DeployedURL)
	assert.Contains(t, sink.files, "collections/index.json")
	assert.Contains(t, sink.files, "collections/ab12cd34_records/chunk-0000.json")
}

func TestPipeline_ProgressReaches100(t *testing.T) {
	fx := newFixture(t)
	var percents []int
	p := fx.pipeline(WithProgress(func(pct int, _ string) {
		percents = append(percents, pct)
	}))

	_, err := p.Run(context.Background(), driving.RunOptions{
		CollectionName: "records",
		DocumentIDs:    []string{"1", "2", "3"},
	})
	require.NoError(t, err)

	require.NotEmpty(t, percents)
	assert.Equal(t, 0, percents[0])
	assert.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
}
