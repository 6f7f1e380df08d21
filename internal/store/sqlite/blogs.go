package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// blogColumns must match the scan order in scanBlog.
const blogColumns = `id, title, description, author_id, created_at, updated_at`

func scanBlog(scanner interface{ Scan(dest ...any) error }) (*domain.Blog, error) {
	var (
		b                    domain.Blog
		createdAt, updatedAt int64
	)
	if err := scanner.Scan(&b.ID, &b.Title, &b.Description, &b.AuthorID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.CreatedAt = fromNanos(createdAt)
	b.UpdatedAt = fromNanos(updatedAt)
	b.TagIDs = []string{}
	b.CommentIDs = []string{}
	return &b, nil
}

func getBlog(ctx context.Context, q querier, blogID string) (*domain.Blog, error) {
	b, err := scanBlog(q.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = ?`, blogID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrBlogNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadBlogRelations(ctx, q, []*domain.Blog{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// loadBlogRelations fills TagIDs and CommentIDs, both in insertion order.
func loadBlogRelations(ctx context.Context, q querier, blogs []*domain.Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Blog, len(blogs))
	ids := make([]string, len(blogs))
	for i, b := range blogs {
		byID[b.ID] = b
		ids[i] = b.ID
	}
	in := `(` + placeholders(len(ids)) + `)`

	rows, err := q.QueryContext(ctx,
		`SELECT blog_id, tag_id FROM blog_tags WHERE blog_id IN `+in+` ORDER BY rowid`,
		stringArgs(ids)...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var blogID, tagID string
		if err := rows.Scan(&blogID, &tagID); err != nil {
			rows.Close()
			return err
		}
		byID[blogID].TagIDs = append(byID[blogID].TagIDs, tagID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx,
		`SELECT blog_id, id FROM comments WHERE blog_id IN `+in+` ORDER BY rowid`,
		stringArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var blogID, commentID string
		if err := rows.Scan(&blogID, &commentID); err != nil {
			return err
		}
		byID[blogID].CommentIDs = append(byID[blogID].CommentIDs, commentID)
	}
	return rows.Err()
}

func insertBlogTags(ctx context.Context, tx *sql.Tx, blogID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO blog_tags (blog_id, tag_id) VALUES (?, ?)`,
			blogID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// CreateBlog inserts a blog and its tag links, then indexes it for search.
func (s *Store) CreateBlog(ctx context.Context, b *domain.Blog) error {
	b.SetTags(b.TagIDs)
	b.CommentIDs = []string{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO blogs (id, title, description, author_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID,
			b.Title,
			b.Description,
			b.AuthorID,
			toNanos(b.CreatedAt),
			toNanos(b.UpdatedAt),
		)
		if isUniqueViolation(err, "") {
			return store.ErrAlreadyExists.WithCause(err)
		}
		if err != nil {
			return err
		}
		return insertBlogTags(ctx, tx, b.ID, b.TagIDs)
	})
	if err != nil {
		return err
	}

	s.indexBlog(ctx, b)
	return nil
}

// GetBlog retrieves a blog by ID.
func (s *Store) GetBlog(ctx context.Context, blogID string) (*domain.Blog, error) {
	return getBlog(ctx, s.db, blogID)
}

// UpdateBlog persists title, description and tags. On success b holds the
// stored state.
func (s *Store) UpdateBlog(ctx context.Context, b *domain.Blog) error {
	updatedAt := b.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	tagIDs := b.TagIDs

	var stored *domain.Blog
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE blogs SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
			b.Title, b.Description, toNanos(updatedAt), b.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrBlogNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM blog_tags WHERE blog_id = ?`, b.ID); err != nil {
			return err
		}
		if err := insertBlogTags(ctx, tx, b.ID, tagIDs); err != nil {
			return err
		}

		stored, err = getBlog(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		return err
	}

	*b = *stored
	s.indexBlog(ctx, b)
	return nil
}

// DeleteBlog deletes the blog with its comments and tag links in one
// transaction.
func (s *Store) DeleteBlog(ctx context.Context, blogID string) error {
	var removed int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE blog_id = ?`, blogID)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()

		if _, err := tx.ExecContext(ctx, `DELETE FROM blog_tags WHERE blog_id = ?`, blogID); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, blogID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrBlogNotFound
		}
		return nil
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

// blogOrder maps a sort key to an ORDER BY clause. Ties resolve the same
// way as store.SortBlogs.
func blogOrder(sort store.BlogSort) string {
	switch sort {
	case store.SortTitleAsc:
		return `title ASC, created_at DESC, id ASC`
	case store.SortTitleDesc:
		return `title DESC, created_at DESC, id ASC`
	case store.SortDateAsc:
		return `created_at ASC, id ASC`
	default:
		return `created_at DESC, id DESC`
	}
}

// blogWhere builds the WHERE clause for q.
func blogWhere(q *store.BlogQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if q.IDs != nil {
		conds = append(conds, `b.id IN (`+placeholders(len(q.IDs))+`)`)
		args = append(args, stringArgs(q.IDs)...)
	}
	if len(q.TagIDs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM blog_tags bt WHERE bt.blog_id = b.id AND bt.tag_id IN (`+
			placeholders(len(q.TagIDs))+`))`)
		args = append(args, stringArgs(q.TagIDs)...)
	}
	if !q.From.IsZero() {
		conds = append(conds, `b.created_at >= ?`)
		args = append(args, toNanos(q.From))
	}
	if !q.To.IsZero() {
		conds = append(conds, `b.created_at <= ?`)
		args = append(args, toNanos(q.To))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

// ListBlogs returns one page of blogs matching q. The count and the page
// come from the same transaction.
func (s *Store) ListBlogs(ctx context.Context, q store.BlogQuery) (*store.PaginatedResult[*domain.Blog], error) {
	q.Normalize()
	if q.MatchesNothing() {
		return store.EmptyPage[*domain.Blog](q.PageParams), nil
	}

	where, args := blogWhere(&q)
	result := &store.PaginatedResult[*domain.Blog]{
		Items: []*domain.Blog{},
		Page:  q.Page,
		Limit: q.Limit,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM blogs b`+where, args...).Scan(&result.Total); err != nil {
			return err
		}
		if result.Total == 0 {
			return nil
		}

		pageArgs := append(append([]any{}, args...), q.Limit, q.Offset())
		rows, err := tx.QueryContext(ctx,
			`SELECT `+blogColumns+` FROM blogs b`+where+
				` ORDER BY `+blogOrder(q.Sort)+` LIMIT ? OFFSET ?`,
			pageArgs...)
		if err != nil {
			return err
		}
		for rows.Next() {
			b, err := scanBlog(rows)
			if err != nil {
				rows.Close()
				return err
			}
			result.Items = append(result.Items, b)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		return loadBlogRelations(ctx, tx, result.Items)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAllBlogs returns every blog, unordered.
func (s *Store) ListAllBlogs(ctx context.Context) ([]*domain.Blog, error) {
	blogs := []*domain.Blog{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+blogColumns+` FROM blogs`)
		if err != nil {
			return err
		}
		for rows.Next() {
			b, err := scanBlog(rows)
			if err != nil {
				rows.Close()
				return err
			}
			blogs = append(blogs, b)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		return loadBlogRelations(ctx, tx, blogs)
	})
	if err != nil {
		return nil, err
	}
	return blogs, nil
}

// CountBlogs returns the number of stored blogs.
func (s *Store) CountBlogs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&n)
	return n, err
}
