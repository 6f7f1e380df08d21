package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, username, email, password_hash, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u                    domain.User
		createdAt, updatedAt int64
	)
	if err := scanner.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromNanos(createdAt)
	u.UpdatedAt = fromNanos(updatedAt)
	return &u, nil
}

func userConflict(err error) error {
	switch {
	case isUniqueViolation(err, "users.email"):
		return store.ErrEmailExists
	case isUniqueViolation(err, "users.username_key"):
		return store.ErrUsernameExists
	case isUniqueViolation(err, ""):
		return store.ErrAlreadyExists.WithCause(err)
	default:
		return err
	}
}

// CreateUser inserts a new user.
// Returns store.ErrEmailExists or store.ErrUsernameExists on collisions.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, username_key, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Username,
		domain.UsernameKey(u.Username),
		u.Email,
		u.PasswordHash,
		toNanos(u.CreatedAt),
		toNanos(u.UpdatedAt),
	)
	return userConflict(err)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	return u, err
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	return u, err
}

// GetUsersByIDs retrieves users keyed by ID. Unknown IDs are omitted.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}

// UpdateUser persists profile changes.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = ?, username_key = ?, email = ?, password_hash = ?, updated_at = ?
		WHERE id = ?`,
		u.Username,
		domain.UsernameKey(u.Username),
		u.Email,
		u.PasswordHash,
		toNanos(u.UpdatedAt),
		u.ID,
	)
	if err != nil {
		return userConflict(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
