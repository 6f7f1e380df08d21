package kv

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// CreateBlog stores a new blog and indexes it for search.
func (s *Store) CreateBlog(ctx context.Context, blog *domain.Blog) error {
	blog.SetTags(blog.TagIDs)
	if blog.CommentIDs == nil {
		blog.CommentIDs = []string{}
	}

	err := s.update(ctx, func(txn *badger.Txn) error {
		if err := s.blogs.insert(txn, blog); err != nil {
			var conflict *indexConflictError
			if errors.As(err, &conflict) {
				return store.ErrAlreadyExists.WithCause(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.indexBlog(ctx, blog)
	return nil
}

// GetBlog retrieves a blog by ID.
func (s *Store) GetBlog(ctx context.Context, blogID string) (*domain.Blog, error) {
	var blog *domain.Blog
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		blog, err = s.blogs.get(txn, blogID)
		return err
	})
	if errors.Is(err, errNotFound) {
		return nil, store.ErrBlogNotFound
	}
	return blog, err
}

// UpdateBlog persists title, description and tags onto the stored record.
// On success blog holds the stored state.
func (s *Store) UpdateBlog(ctx context.Context, blog *domain.Blog) error {
	var next domain.Blog

	err := s.update(ctx, func(txn *badger.Txn) error {
		old, err := s.blogs.get(txn, blog.ID)
		if errors.Is(err, errNotFound) {
			return store.ErrBlogNotFound
		}
		if err != nil {
			return err
		}

		next = *old
		next.Title = blog.Title
		next.Description = blog.Description
		next.SetTags(blog.TagIDs)
		next.UpdatedAt = blog.UpdatedAt
		if next.UpdatedAt.IsZero() {
			next.UpdatedAt = time.Now().UTC()
		}
		return s.blogs.replace(txn, old, &next)
	})
	if err != nil {
		return err
	}

	*blog = next
	s.indexBlog(ctx, blog)
	return nil
}

// DeleteBlog deletes the blog and every comment on it in one transaction.
func (s *Store) DeleteBlog(ctx context.Context, blogID string) error {
	var removed int

	err := s.update(ctx, func(txn *badger.Txn) error {
		removed = 0
		blog, err := s.blogs.get(txn, blogID)
		if errors.Is(err, errNotFound) {
			return store.ErrBlogNotFound
		}
		if err != nil {
			return err
		}

		// The backlink list and the comment index should agree; take the
		// union so neither can leave an orphan behind.
		commentIDs := slices.Clone(blog.CommentIDs)
		for _, cid := range s.comments.scanIndex(txn, "blog", blogID) {
			if !slices.Contains(commentIDs, cid) {
				commentIDs = append(commentIDs, cid)
			}
		}

		for _, cid := range commentIDs {
			comment, err := s.comments.get(txn, cid)
			if errors.Is(err, errNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := s.comments.remove(txn, comment); err != nil {
				return err
			}
			removed++
		}

		return s.blogs.remove(txn, blog)
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Debug("blog deleted", "blog_id", blogID, "comments_deleted", removed)
	}
	s.unindexBlog(ctx, blogID)
	return nil
}

// ListBlogs returns one page of blogs matching q, and the size of the
// full filtered set, read from a single snapshot.
func (s *Store) ListBlogs(ctx context.Context, q store.BlogQuery) (*store.PaginatedResult[*domain.Blog], error) {
	q.Normalize()
	if q.MatchesNothing() {
		return store.EmptyPage[*domain.Blog](q.PageParams), nil
	}

	keep := q.Filter()
	var matched []*domain.Blog

	err := s.view(ctx, func(txn *badger.Txn) error {
		candidates, err := s.blogCandidates(txn, &q)
		if err != nil {
			return err
		}
		if candidates != nil {
			for _, b := range candidates {
				if keep(b) {
					matched = append(matched, b)
				}
			}
			return nil
		}

		return s.blogs.scan(txn, func(b *domain.Blog) bool {
			if keep(b) {
				matched = append(matched, b)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	store.SortBlogs(matched, q.Sort)
	start, end := q.Window(len(matched))

	return &store.PaginatedResult[*domain.Blog]{
		Items: slices.Clone(matched[start:end]),
		Total: len(matched),
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// blogCandidates narrows a listing using the id restriction or the tag
// index. A nil result means every blog is a candidate.
func (s *Store) blogCandidates(txn *badger.Txn, q *store.BlogQuery) ([]*domain.Blog, error) {
	if q.IDs != nil {
		return s.blogs.getMany(txn, q.IDs)
	}
	if len(q.TagIDs) == 0 {
		return nil, nil
	}

	var ids []string
	for _, tagID := range q.TagIDs {
		for _, blogID := range s.blogs.scanIndex(txn, "tag", tagID) {
			if !slices.Contains(ids, blogID) {
				ids = append(ids, blogID)
			}
		}
	}
	blogs, err := s.blogs.getMany(txn, ids)
	if err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []*domain.Blog{}
	}
	return blogs, nil
}

// ListAllBlogs returns every blog, unordered.
func (s *Store) ListAllBlogs(ctx context.Context) ([]*domain.Blog, error) {
	blogs := []*domain.Blog{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.blogs.scan(txn, func(b *domain.Blog) bool {
			blogs = append(blogs, b)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return blogs, nil
}

// CountBlogs returns the number of stored blogs.
func (s *Store) CountBlogs(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, func(txn *badger.Txn) error {
		n = s.blogs.count(txn)
		return nil
	})
	return n, err
}
