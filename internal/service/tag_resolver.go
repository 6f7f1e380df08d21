package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// TagResolver turns user supplied tag names into tag IDs.
type TagResolver struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagResolver creates a new tag resolver.
func NewTagResolver(store store.Store, logger *slog.Logger) *TagResolver {
	return &TagResolver{store: store, logger: logger}
}

// Resolve returns the IDs of the named tags, creating the missing ones.
// Names are canonicalized and deduplicated first, so "AI, ai" yields one
// ID. An empty list never touches the store.
func (r *TagResolver) Resolve(ctx context.Context, tags domain.TagList) ([]string, error) {
	names := tags.Names()
	if len(names) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		tag, created, err := r.store.UpsertTag(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		if created {
			r.logger.Debug("tag created", "tag_id", tag.ID, "name", tag.Name)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// Lookup returns the IDs of the named tags that exist. Unknown names are
// skipped and nothing is created.
func (r *TagResolver) Lookup(ctx context.Context, tags domain.TagList) ([]string, error) {
	names := tags.Names()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := r.store.GetTagByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup tag %q: %w", name, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}
