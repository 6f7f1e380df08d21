package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/ratelimit"
)

func generousLimits() *RateLimits {
	return &RateLimits{
		API:     ratelimit.Policy{Limit: 1000, Window: time.Hour},
		Write:   ratelimit.Policy{Limit: 1000, Window: time.Hour},
		Comment: ratelimit.Policy{Limit: 1000, Window: time.Hour},
	}
}

func TestRateLimit_GeneralPolicy(t *testing.T) {
	limits := generousLimits()
	limits.API = ratelimit.Policy{Limit: 2, Window: 15 * time.Minute}
	ts := setupTestServer(t, limits)

	for i := range 2 {
		resp := ts.api.Get("/api/tags")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "2", resp.Header().Get(headerRateLimitLimit))
		assert.Equal(t, strconv.Itoa(1-i), resp.Header().Get(headerRateLimitRemaining))
	}

	resp := ts.api.Get("/api/tags")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, msgAPILimit, decode[errorBody](t, resp).Message)
	retry, err := strconv.Atoi(resp.Header().Get(headerRetryAfter))
	require.NoError(t, err)
	assert.Positive(t, retry)

	// Another client is unaffected.
	resp = ts.api.Get("/api/tags", "X-Forwarded-For: 203.0.113.7")
	assert.Equal(t, http.StatusOK, resp.Code)

	// Routes outside /api are not limited.
	resp = ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimit_WritePolicy(t *testing.T) {
	limits := generousLimits()
	limits.Write = ratelimit.Policy{Limit: 3, Window: time.Hour}
	ts := setupTestServer(t, limits)

	// register + login spend two write tokens.
	authHeader, _ := ts.registerUser(t, "alice")
	ts.createBlog(t, authHeader, "Only one allowed", nil)

	resp := ts.api.Post("/api/blogs", authHeader, map[string]any{
		"title":       "One too many",
		"description": "This one should be rejected.",
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	body := decode[errorBody](t, resp)
	assert.Equal(t, msgWriteLimit, body.Message)
	assert.Equal(t, "TOO_MANY_REQUESTS", body.Code)

	// Reads are still fine.
	resp = ts.api.Get("/api/blogs")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimit_CommentPolicy(t *testing.T) {
	limits := generousLimits()
	limits.Comment = ratelimit.Policy{Limit: 1, Window: 15 * time.Minute}
	ts := setupTestServer(t, limits)

	authHeader, _ := ts.registerUser(t, "alice")
	blog := ts.createBlog(t, authHeader, "Chatty post", nil)

	resp := ts.api.Post("/api/comments/blog/"+blog.ID, authHeader, map[string]any{"text": "first"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/comments/blog/"+blog.ID, authHeader, map[string]any{"text": "second"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, msgCommentLimit, decode[errorBody](t, resp).Message)
}

func TestRateLimit_RejectsBeforeAuth(t *testing.T) {
	limits := generousLimits()
	limits.Write = ratelimit.Policy{Limit: 1, Window: time.Hour}
	ts := setupTestServer(t, limits)

	resp := ts.api.Post("/api/tags", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/tags", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.1", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "203.0.113.1"},
		{"remote addr", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"remote addr without port", nil, "192.0.2.10", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(tt.remote, req.Header.Get))
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, "90", retryAfterSeconds(90*time.Second))
	assert.Equal(t, "91", retryAfterSeconds(90*time.Second+time.Millisecond))
}
