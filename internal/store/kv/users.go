package kv

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

func userConflict(err error) error {
	var conflict *indexConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	switch conflict.index {
	case "email":
		return store.ErrEmailExists
	case "username":
		return store.ErrUsernameExists
	default:
		return store.ErrAlreadyExists.WithCause(err)
	}
}

// CreateUser stores a new user. Email and username are unique,
// compared case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	return s.update(ctx, func(txn *badger.Txn) error {
		return userConflict(s.users.insert(txn, user))
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		user, err = s.users.get(txn, id)
		return err
	})
	if errors.Is(err, errNotFound) {
		return nil, store.ErrUserNotFound
	}
	return user, err
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		user, err = s.users.getBy(txn, "email", domain.NormalizeEmail(email))
		return err
	})
	if errors.Is(err, errNotFound) {
		return nil, store.ErrUserNotFound
	}
	return user, err
}

// GetUsersByIDs retrieves users keyed by ID. Unknown IDs are omitted.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	err := s.view(ctx, func(txn *badger.Txn) error {
		found, err := s.users.getMany(txn, ids)
		if err != nil {
			return err
		}
		for _, u := range found {
			users[u.ID] = u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser persists profile changes, keeping the email and username
// indexes in step.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	return s.update(ctx, func(txn *badger.Txn) error {
		old, err := s.users.get(txn, user.ID)
		if errors.Is(err, errNotFound) {
			return store.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return userConflict(s.users.replace(txn, old, user))
	})
}
