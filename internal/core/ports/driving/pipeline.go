package driving

import (
	"context"
	"time"
)

// Progress reports human-readable pipeline status. Percent is 0-100.
type Progress func(percent int, message string)

// RunOptions selects the documents to ingest and names the collection.
type RunOptions struct {
	// CollectionName is the user-supplied collection name. Required.
	CollectionName string

	// DocumentIDs selects specific documents. Takes precedence over Query.
	DocumentIDs []string

	// Query is a source-side search query used when DocumentIDs is empty.
	Query string

	// DateFormat is the date layout hint, or "auto".
	DateFormat string
}

// RunResult summarises a completed (or interrupted) pipeline run.
type RunResult struct {
	CollectionID  string
	Filename      string
	RecordCount   int
	ChunkCount    int
	SkippedChunks int
	StorePath     string
	ManifestPath  string
	DeployedURL   string
	Interrupted   bool
	StartedAt     time.Time
	FinishedAt    time.Time
}

// PipelineRunner executes the extraction-and-indexing pipeline end to end.
type PipelineRunner interface {
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
}
