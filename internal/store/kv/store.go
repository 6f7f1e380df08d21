// Package kv implements store.Store on top of BadgerDB.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// maxTxnRetries bounds how often a transaction is replayed after
// badger.ErrConflict before the conflict is returned to the caller.
const maxTxnRetries = 10

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Search indexer for keeping search in sync with blog writes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer store.SearchIndexer

	users    *entity[domain.User]
	tags     *entity[domain.Tag]
	blogs    *entity[domain.Blog]
	comments *entity[domain.Comment]
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) a Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:            db,
		logger:        logger,
		searchIndexer: store.NewNoopSearchIndexer(),
	}
	s.initEntities()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

func (s *Store) initEntities() {
	s.users = newEntity("user:", func(u *domain.User) string { return u.ID }).
		withUniqueIndex("email", func(u *domain.User) []string {
			return []string{domain.NormalizeEmail(u.Email)}
		}).
		withUniqueIndex("username", func(u *domain.User) []string {
			return []string{domain.UsernameKey(u.Username)}
		})

	s.tags = newEntity("tag:", func(t *domain.Tag) string { return t.ID }).
		withUniqueIndex("name", func(t *domain.Tag) []string {
			return []string{t.Name}
		})

	s.blogs = newEntity("blog:", func(b *domain.Blog) string { return b.ID }).
		withIndex("tag", func(b *domain.Blog) []string { return b.TagIDs })

	s.comments = newEntity("comment:", func(c *domain.Comment) string { return c.ID }).
		withIndex("blog", func(c *domain.Comment) []string { return []string{c.BlogID} })
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping reports whether the database is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	if indexer == nil {
		indexer = store.NewNoopSearchIndexer()
	}
	s.searchIndexer = indexer
}

// update runs fn in a read-write transaction, replaying it when a
// concurrent commit invalidated its reads.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if s.logger != nil {
			s.logger.Debug("transaction conflict, retrying", "attempt", attempt+1)
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *Store) indexBlog(ctx context.Context, blog *domain.Blog) {
	if err := s.searchIndexer.IndexBlog(ctx, blog); err != nil && s.logger != nil {
		s.logger.Warn("failed to index blog", "blog_id", blog.ID, "error", err)
	}
}

func (s *Store) unindexBlog(ctx context.Context, blogID string) {
	if err := s.searchIndexer.DeleteBlog(ctx, blogID); err != nil && s.logger != nil {
		s.logger.Warn("failed to remove blog from index", "blog_id", blogID, "error", err)
	}
}
