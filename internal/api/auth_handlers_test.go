package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/auth"
	"github.com/inkwell-blog/inkwell-server/internal/service"
)

func TestRegister_Success(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/auth/register", map[string]any{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	user := decode[service.UserView](t, resp)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotContains(t, resp.Body.String(), "password")
	assert.NotEmpty(t, resp.Header().Get(requestIDHeader))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.registerUser(t, "alice")

	resp := ts.api.Post("/api/auth/register", map[string]any{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "User with this email already exists", body.Message)

	_, err := ts.store.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/auth/register", map[string]any{
		"username": "al",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "username must be at least 3 characters long", body.Message)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.NotNil(t, body.Details)

	// Missing fields are reported by the service, not the schema.
	resp = ts.api.Post("/api/auth/register", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "username is required", decode[errorBody](t, resp).Message)
}

func TestRegister_SchemaViolationIsBadRequest(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/auth/register", map[string]any{
		"username": 42,
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Message, "username")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.registerUser(t, "alice")

	resp := ts.api.Post("/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[errorBody](t, resp).Code)
}

func TestProfile_RequiresToken(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/api/auth/profile")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, service.MsgNoToken, decode[errorBody](t, resp).Message)

	resp = ts.api.Get("/api/auth/profile", "Authorization: Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, service.MsgInvalidToken, decode[errorBody](t, resp).Message)
}

func TestProfile_ExpiredToken(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, user := ts.registerUser(t, "alice")

	// Same key as the server, but the token is born expired.
	expired, err := auth.NewTokenService(ts.key, time.Nanosecond)
	require.NoError(t, err)
	token, _, err := expired.GenerateAccessToken(user.ID)
	require.NoError(t, err)

	resp := ts.api.Get("/api/auth/profile", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	body := decode[errorBody](t, resp)
	assert.Equal(t, service.MsgTokenExpired, body.Message)
	assert.Equal(t, "TOKEN_EXPIRED", body.Code)
}

func TestProfile_GetAndUpdate(t *testing.T) {
	ts := setupTestServer(t, nil)
	authHeader, user := ts.registerUser(t, "alice")

	resp := ts.api.Get("/api/auth/profile", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, user.ID, decode[service.UserView](t, resp).ID)

	resp = ts.api.Put("/api/auth/profile", authHeader, map[string]any{"username": "alice_writes"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[service.UserView](t, resp)
	assert.Equal(t, "alice_writes", updated.Username)
	assert.Equal(t, "alice@example.com", updated.Email)
}
