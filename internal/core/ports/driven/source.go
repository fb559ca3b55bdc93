package driven

import (
	"context"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
)

// DocumentSource supplies raw documents from the remote hosting API.
type DocumentSource interface {
	// GetByID fetches a single document. Returns domain.ErrNotFound if
	// the identifier is unknown at the source.
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)

	// Search returns all documents matching a source-side query.
	Search(ctx context.Context, query string) ([]domain.SourceDocument, error)
}
