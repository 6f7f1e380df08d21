package api

import (
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/auth"
	"github.com/inkwell-blog/inkwell-server/internal/search"
	"github.com/inkwell-blog/inkwell-server/internal/service"
	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/store/kv"
	"github.com/inkwell-blog/inkwell-server/internal/validation"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api    humatest.TestAPI
	store  store.Store
	key    []byte
	tokens *auth.TokenService
}

// setupTestServer creates a server over a fresh Badger store and an
// in-memory search index. Rate limiting is off unless limits is non-nil.
func setupTestServer(t *testing.T, limits *RateLimits) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := kv.New(filepath.Join(t.TempDir(), "badger"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	st.SetSearchIndexer(idx)

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	v := validation.New()
	hasher := auth.NewPasswordHasher(auth.PasswordParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	resolver := service.NewTagResolver(st, logger)

	services := &Services{
		Auth:    service.NewAuthService(st, tokens, hasher, v, logger),
		Blog:    service.NewBlogService(st, resolver, idx, v, logger),
		Comment: service.NewCommentService(st, v, logger),
		Tag:     service.NewTagService(st, v, logger),
	}

	s := NewServer(st, services, Options{RateLimits: limits, Search: idx}, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		store:  st,
		key:    key,
		tokens: tokens,
	}
}

// do sends a request through the full router, including router-level middleware.
func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

// errorBody mirrors APIError for decoding.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

// registerUser creates a user and returns a bearer header for it.
func (ts *testServer) registerUser(t *testing.T, username string) (header string, user service.UserView) {
	t.Helper()

	resp := ts.api.Post("/api/auth/register", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	user = decode[service.UserView](t, resp)

	resp = ts.api.Post("/api/auth/login", map[string]any{
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	login := decode[service.LoginResponse](t, resp)

	return "Authorization: Bearer " + login.Token, user
}

// createBlog posts a blog as the given user.
func (ts *testServer) createBlog(t *testing.T, authHeader, title string, tags any) service.BlogView {
	t.Helper()

	body := map[string]any{
		"title":       title,
		"description": "A description long enough to pass validation.",
	}
	if tags != nil {
		body["tags"] = tags
	}

	resp := ts.api.Post("/api/blogs", authHeader, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[service.BlogView](t, resp)
}
