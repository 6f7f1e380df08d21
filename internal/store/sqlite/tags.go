package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, name, created_at, updated_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t                    domain.Tag
		createdAt, updatedAt int64
	)
	if err := scanner.Scan(&t.ID, &t.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = fromNanos(createdAt)
	t.UpdatedAt = fromNanos(updatedAt)
	return &t, nil
}

func getTagByName(ctx context.Context, q querier, name string) (*domain.Tag, error) {
	t, err := scanTag(q.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	return t, err
}

// CreateTag inserts a new tag. Returns store.ErrTagExists on a duplicate name.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		t.ID,
		t.Name,
		toNanos(t.CreatedAt),
		toNanos(t.UpdatedAt),
	)
	if isUniqueViolation(err, "tags.name") {
		return store.ErrTagExists
	}
	return err
}

// UpsertTag inserts the tag unless the name exists, then reads it back,
// all in one transaction.
func (s *Store) UpsertTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, false, err
	}
	now := toNanos(time.Now())

	var (
		tag     *domain.Tag
		created bool
	)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tags (id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO NOTHING`,
			tagID, name, now, now,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1

		tag, err = getTagByName(ctx, tx, name)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return tag, created, nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	return t, err
}

// GetTagByName retrieves a tag by canonical name.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	return getTagByName(ctx, s.db, name)
}

// GetTagsByIDs retrieves tags in the order of ids, skipping unknown IDs.
func (s *Store) GetTagsByIDs(ctx context.Context, ids []string) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.Tag, len(ids))
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags := make([]*domain.Tag, 0, len(byID))
	for _, tagID := range ids {
		if t, ok := byID[tagID]; ok {
			tags = append(tags, t)
			delete(byID, tagID)
		}
	}
	return tags, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateTag renames a tag. Returns store.ErrTagExists on a name collision.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, updated_at = ? WHERE id = ?`,
		t.Name, toNanos(t.UpdatedAt), t.ID)
	if isUniqueViolation(err, "tags.name") {
		return store.ErrTagExists
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrTagNotFound
	}
	return nil
}

// DeleteTag prunes the tag from every blog and deletes it in one transaction.
func (s *Store) DeleteTag(ctx context.Context, tagID string) (int, error) {
	var pruned int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM tags WHERE id = ?`, tagID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTagNotFound
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM blog_tags WHERE tag_id = ?`, tagID)
		if err != nil {
			return err
		}
		if pruned, err = res.RowsAffected(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID)
		return err
	})
	if err != nil {
		return 0, err
	}

	if s.logger != nil {
		s.logger.Debug("tag deleted", "tag_id", tagID, "blogs_pruned", pruned)
	}
	return int(pruned), nil
}
