// Package github implements the deployment sink port against the GitHub
// contents API. Deployed collections are served by GitHub Pages from the
// target repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/open-inbox/openinbox-cli/internal/config"
	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.DeploymentSink = (*Sink)(nil)

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 30 * time.Second

// Sink deploys collection artifacts to a GitHub repository.
type Sink struct {
	gh          *gh.Client
	owner       string
	repo        string
	maxFileSize int64
	rateLimiter *RateLimiter
}

// NewSink creates a deployment sink from the deploy configuration.
func NewSink(ctx context.Context, cfg config.Deploy) *Sink {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return newSink(gh.NewClient(tc), cfg)
}

// newSink wires an existing go-github client; tests use this with a
// client pointed at a local server.
func newSink(client *gh.Client, cfg config.Deploy) *Sink {
	maxFileSize := cfg.MaxFileBytes
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileBytes
	}
	return &Sink{
		gh:          client,
		owner:       cfg.Owner,
		repo:        cfg.Repo,
		maxFileSize: maxFileSize,
		rateLimiter: NewRateLimiter(),
	}
}

// GetContents returns metadata for an existing remote file.
func (s *Sink) GetContents(ctx context.Context, path string) (*driven.RemoteContent, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	content, _, resp, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
	s.updateRateLimit(resp)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("remote path %s: %w", path, domain.ErrNotFound)
		}
		return nil, s.wrapError(err, "get contents")
	}
	if content == nil {
		return nil, fmt.Errorf("remote path %s is a directory", path)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return &driven.RemoteContent{
		SHA:     content.GetSHA(),
		Size:    int64(content.GetSize()),
		Content: []byte(decoded),
	}, nil
}

// CreateFile creates a new file at path.
func (s *Sink) CreateFile(ctx context.Context, path, message string, content []byte) error {
	if int64(len(content)) > s.maxFileSize {
		return fmt.Errorf("uploading %s (%d bytes): %w", path, len(content), domain.ErrPayloadTooLarge)
	}
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: content,
	}
	_, resp, err := s.gh.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	s.updateRateLimit(resp)
	if err != nil {
		return s.wrapError(err, "create file")
	}
	return nil
}

// UpdateFile replaces an existing file identified by its SHA.
func (s *Sink) UpdateFile(ctx context.Context, path, message string, content []byte, sha string) error {
	if int64(len(content)) > s.maxFileSize {
		return fmt.Errorf("uploading %s (%d bytes): %w", path, len(content), domain.ErrPayloadTooLarge)
	}
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: content,
		SHA:     gh.Ptr(sha),
	}
	_, resp, err := s.gh.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	s.updateRateLimit(resp)
	if err != nil {
		return s.wrapError(err, "update file")
	}
	return nil
}

// MaxFileSize returns the per-file payload ceiling in bytes.
func (s *Sink) MaxFileSize() int64 {
	return s.maxFileSize
}

// CollectionURL returns the GitHub Pages URL for a deployed collection.
func (s *Sink) CollectionURL(filename string) string {
	return fmt.Sprintf("https://%s.github.io/%s/?emails=%s", s.owner, s.repo, filename)
}

func (s *Sink) updateRateLimit(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	s.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError maps go-github errors onto the domain sentinels.
func (s *Sink) wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: %w", operation, domain.ErrRateLimited)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %w", operation, domain.ErrRateLimited)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
