package driven

import "context"

// RemoteContent describes an existing file at the deployment sink.
type RemoteContent struct {
	// SHA is the content hash needed to update the file in place.
	SHA string

	// Size is the current remote size in bytes.
	Size int64

	// Content is the decoded file content, when the sink returns it inline.
	Content []byte
}

// DeploymentSink persists artifacts at the remote hosting service.
// Implementations enforce a maximum payload size per file; callers must
// check MaxFileSize before attempting an upload.
type DeploymentSink interface {
	// GetContents returns metadata for an existing remote file, or
	// domain.ErrNotFound when the path does not exist.
	GetContents(ctx context.Context, path string) (*RemoteContent, error)

	// CreateFile creates a new file at path with a commit message.
	CreateFile(ctx context.Context, path, message string, content []byte) error

	// UpdateFile replaces an existing file identified by its SHA.
	UpdateFile(ctx context.Context, path, message string, content []byte, sha string) error

	// MaxFileSize returns the configured per-file payload ceiling in bytes.
	MaxFileSize() int64

	// CollectionURL returns the browsable URL for a deployed collection.
	CollectionURL(filename string) string
}
