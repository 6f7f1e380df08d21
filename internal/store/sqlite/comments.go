package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// commentColumns must match the scan order in scanComment.
const commentColumns = `id, blog_id, author_id, text, created_at, updated_at`

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var (
		c                    domain.Comment
		createdAt, updatedAt int64
	)
	if err := scanner.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Text, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromNanos(createdAt)
	c.UpdatedAt = fromNanos(updatedAt)
	return &c, nil
}

func blogExists(ctx context.Context, q querier, blogID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM blogs WHERE id = ?`, blogID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrBlogNotFound
	}
	return err
}

// CreateComment inserts the comment. The row itself is the blog's backlink,
// so the existence check and the insert share one transaction.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := blogExists(ctx, tx, c.BlogID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO comments (id, blog_id, author_id, text, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID,
			c.BlogID,
			c.AuthorID,
			c.Text,
			toNanos(c.CreatedAt),
			toNanos(c.UpdatedAt),
		)
		if isUniqueViolation(err, "") {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return err
	})
}

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, commentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCommentNotFound
	}
	return c, err
}

// UpdateComment persists the comment text. On success c holds the stored state.
func (s *Store) UpdateComment(ctx context.Context, c *domain.Comment) error {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var stored *domain.Comment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE comments SET text = ?, updated_at = ? WHERE id = ?`,
			c.Text, toNanos(updatedAt), c.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrCommentNotFound
		}

		stored, err = scanComment(tx.QueryRowContext(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE id = ?`, c.ID))
		return err
	})
	if err != nil {
		return err
	}

	*c = *stored
	return nil
}

// DeleteComment deletes the comment, which also removes it from its blog's
// comment list.
func (s *Store) DeleteComment(ctx context.Context, commentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, commentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrCommentNotFound
	}
	return nil
}

// ListCommentsByBlog returns the blog's comments, newest first.
func (s *Store) ListCommentsByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error) {
	comments := []*domain.Comment{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := blogExists(ctx, tx, blogID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE blog_id = ?
			 ORDER BY created_at DESC, id DESC`, blogID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanComment(rows)
			if err != nil {
				return err
			}
			comments = append(comments, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}
