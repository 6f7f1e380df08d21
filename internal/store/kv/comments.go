package kv

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// CreateComment stores the comment and appends it to its blog's comment
// list in one transaction. Returns store.ErrBlogNotFound if the blog is gone.
func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		blog, err := s.blogs.get(txn, comment.BlogID)
		if errors.Is(err, errNotFound) {
			return store.ErrBlogNotFound
		}
		if err != nil {
			return err
		}

		if err := s.comments.insert(txn, comment); err != nil {
			var conflict *indexConflictError
			if errors.As(err, &conflict) {
				return store.ErrAlreadyExists.WithCause(err)
			}
			return err
		}

		next := *blog
		next.CommentIDs = slices.Clone(blog.CommentIDs)
		next.AppendComment(comment.ID)
		return s.blogs.replace(txn, blog, &next)
	})
}

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	var comment *domain.Comment
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		comment, err = s.comments.get(txn, commentID)
		return err
	})
	if errors.Is(err, errNotFound) {
		return nil, store.ErrCommentNotFound
	}
	return comment, err
}

// UpdateComment persists the comment text. On success comment holds the
// stored state.
func (s *Store) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	var next domain.Comment

	err := s.update(ctx, func(txn *badger.Txn) error {
		old, err := s.comments.get(txn, comment.ID)
		if errors.Is(err, errNotFound) {
			return store.ErrCommentNotFound
		}
		if err != nil {
			return err
		}

		next = *old
		next.Text = comment.Text
		next.UpdatedAt = comment.UpdatedAt
		if next.UpdatedAt.IsZero() {
			next.UpdatedAt = time.Now().UTC()
		}
		return s.comments.replace(txn, old, &next)
	})
	if err != nil {
		return err
	}

	*comment = next
	return nil
}

// DeleteComment unlinks the comment from its blog and deletes it in one
// transaction.
func (s *Store) DeleteComment(ctx context.Context, commentID string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		comment, err := s.comments.get(txn, commentID)
		if errors.Is(err, errNotFound) {
			return store.ErrCommentNotFound
		}
		if err != nil {
			return err
		}

		blog, err := s.blogs.get(txn, comment.BlogID)
		switch {
		case errors.Is(err, errNotFound):
			// Nothing to unlink.
		case err != nil:
			return err
		default:
			next := *blog
			next.CommentIDs = slices.Clone(blog.CommentIDs)
			if next.RemoveComment(commentID) {
				if err := s.blogs.replace(txn, blog, &next); err != nil {
					return err
				}
			}
		}

		return s.comments.remove(txn, comment)
	})
}

// ListCommentsByBlog returns the blog's comments, newest first.
func (s *Store) ListCommentsByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment

	err := s.view(ctx, func(txn *badger.Txn) error {
		if _, err := s.blogs.get(txn, blogID); err != nil {
			if errors.Is(err, errNotFound) {
				return store.ErrBlogNotFound
			}
			return err
		}

		var err error
		comments, err = s.comments.getMany(txn, s.comments.scanIndex(txn, "blog", blogID))
		return err
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(comments)
	return comments, nil
}

func sortNewestFirst(comments []*domain.Comment) {
	slices.SortFunc(comments, func(a, b *domain.Comment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
