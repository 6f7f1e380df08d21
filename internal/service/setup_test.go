package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/auth"
	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/search"
	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/store/kv"
	"github.com/inkwell-blog/inkwell-server/internal/validation"
)

type testEnv struct {
	store    store.Store
	key      []byte
	tokens   *auth.TokenService
	auth     *AuthService
	resolver *TagResolver
	blogs    *BlogService
	comments *CommentService
	tags     *TagService
}

// fastHashParams keep argon2 cheap in tests.
var fastHashParams = auth.PasswordParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// setupServices wires every service over a fresh Badger store and an
// in-memory search index.
func setupServices(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	s, err := kv.New(filepath.Join(t.TempDir(), "badger"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	idx, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	s.SetSearchIndexer(idx)

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	v := validation.New()
	resolver := NewTagResolver(s, logger)

	return &testEnv{
		store:    s,
		key:      key,
		tokens:   tokens,
		auth:     NewAuthService(s, tokens, auth.NewPasswordHasher(fastHashParams), v, logger),
		resolver: resolver,
		blogs:    NewBlogService(s, resolver, idx, v, logger),
		comments: NewCommentService(s, v, logger),
		tags:     NewTagService(s, v, logger),
	}
}

func (e *testEnv) register(t *testing.T, username string) *Identity {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return &Identity{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (e *testEnv) createBlog(t *testing.T, author *Identity, title string, tags ...string) *BlogView {
	t.Helper()
	b, err := e.blogs.Create(context.Background(), author, BlogRequest{
		Title:       title,
		Description: "A description long enough to pass validation.",
		Tags:        domain.TagList(tags),
	})
	require.NoError(t, err)
	return b
}

func tagNames(views []TagView) []string {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}
	return names
}
