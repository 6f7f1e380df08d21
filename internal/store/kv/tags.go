package kv

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

func tagConflict(err error) error {
	var conflict *indexConflictError
	if errors.As(err, &conflict) {
		return store.ErrTagExists
	}
	return err
}

// CreateTag stores a new tag. Returns store.ErrTagExists if the name is taken.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return tagConflict(s.tags.insert(txn, tag))
	})
}

// UpsertTag returns the tag named name, creating it if absent.
// The name lookup and the insert share one transaction; a concurrent
// insert of the same name makes the commit conflict, and the replay
// then finds the winner's record.
func (s *Store) UpsertTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	var (
		tag     *domain.Tag
		created bool
	)

	err := s.update(ctx, func(txn *badger.Txn) error {
		created = false
		existing, err := s.tags.getBy(txn, "name", name)
		if err == nil {
			tag = existing
			return nil
		}
		if !errors.Is(err, errNotFound) {
			return err
		}

		tagID, err := id.Generate(id.PrefixTag)
		if err != nil {
			return err
		}
		tag = &domain.Tag{Record: domain.Record{ID: tagID}, Name: name}
		tag.InitTimestamps()
		if err := s.tags.insert(txn, tag); err != nil {
			return tagConflict(err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return tag, created, nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	var tag *domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		tag, err = s.tags.get(txn, tagID)
		return err
	})
	if errors.Is(err, errNotFound) {
		return nil, store.ErrTagNotFound
	}
	return tag, err
}

// GetTagByName retrieves a tag by canonical name.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	var tag *domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		tag, err = s.tags.getBy(txn, "name", name)
		return err
	})
	if errors.Is(err, errNotFound) {
		return nil, store.ErrTagNotFound
	}
	return tag, err
}

// GetTagsByIDs retrieves tags in the order of ids, skipping unknown IDs.
func (s *Store) GetTagsByIDs(ctx context.Context, ids []string) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}

	var tags []*domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		tags, err = s.tags.getMany(txn, ids)
		return err
	})
	return tags, err
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.tags.scan(txn, func(t *domain.Tag) bool {
			tags = append(tags, t)
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(tags, func(a, b *domain.Tag) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tags, nil
}

// UpdateTag renames a tag. Returns store.ErrTagExists on a name collision.
func (s *Store) UpdateTag(ctx context.Context, tag *domain.Tag) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		old, err := s.tags.get(txn, tag.ID)
		if errors.Is(err, errNotFound) {
			return store.ErrTagNotFound
		}
		if err != nil {
			return err
		}
		tag.CreatedAt = old.CreatedAt
		return tagConflict(s.tags.replace(txn, old, tag))
	})
}

// DeleteTag prunes the tag from every blog and deletes it in one transaction.
func (s *Store) DeleteTag(ctx context.Context, tagID string) (int, error) {
	var pruned int

	err := s.update(ctx, func(txn *badger.Txn) error {
		pruned = 0
		tag, err := s.tags.get(txn, tagID)
		if errors.Is(err, errNotFound) {
			return store.ErrTagNotFound
		}
		if err != nil {
			return err
		}

		for _, blogID := range s.blogs.scanIndex(txn, "tag", tagID) {
			blog, err := s.blogs.get(txn, blogID)
			if errors.Is(err, errNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			next := *blog
			next.TagIDs = slices.Clone(blog.TagIDs)
			if !next.RemoveTag(tagID) {
				continue
			}
			if err := s.blogs.replace(txn, blog, &next); err != nil {
				return err
			}
			pruned++
		}

		return s.tags.remove(txn, tag)
	})
	if err != nil {
		return 0, err
	}

	if s.logger != nil {
		s.logger.Debug("tag deleted", "tag_id", tagID, "blogs_pruned", pruned)
	}
	return pruned, nil
}
