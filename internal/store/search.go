package store

import (
	"context"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
)

// SearchIndexer keeps the text index in sync with blog writes.
// Stores call it after a successful commit; failures are logged, not returned.
type SearchIndexer interface {
	IndexBlog(ctx context.Context, blog *domain.Blog) error
	DeleteBlog(ctx context.Context, blogID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexBlog(context.Context, *domain.Blog) error { return nil }
func (NoopSearchIndexer) DeleteBlog(context.Context, string) error      { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
