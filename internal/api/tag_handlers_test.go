package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/service"
)

func TestTags_CRUD(t *testing.T) {
	ts := setupTestServer(t, nil)
	authHeader, _ := ts.registerUser(t, "alice")

	resp := ts.api.Get("/api/tags")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	resp = ts.api.Post("/api/tags", authHeader, map[string]any{"name": "Golang"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	tag := decode[service.TagView](t, resp)
	assert.Equal(t, "golang", tag.Name)

	resp = ts.api.Post("/api/tags", authHeader, map[string]any{"name": "GOLANG"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "Tag 'golang' already exists", decode[errorBody](t, resp).Message)

	resp = ts.api.Post("/api/tags", map[string]any{"name": "anonymous"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/tags/" + tag.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, tag.ID, decode[service.TagView](t, resp).ID)

	resp = ts.api.Put("/api/tags/"+tag.ID, authHeader, map[string]any{"name": "go"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "go", decode[service.TagView](t, resp).Name)
}

func TestTags_DeleteRemovesFromBlogs(t *testing.T) {
	ts := setupTestServer(t, nil)
	authHeader, _ := ts.registerUser(t, "alice")
	blog := ts.createBlog(t, authHeader, "Tagged post", "doomed, keeper")

	var doomedID string
	for _, tag := range blog.Tags {
		if tag.Name == "doomed" {
			doomedID = tag.ID
		}
	}
	require.NotEmpty(t, doomedID)

	resp := ts.api.Delete("/api/tags/"+doomedID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, msgTagDeleted, decode[MessageResponse](t, resp).Message)

	resp = ts.api.Get("/api/blogs/" + blog.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"keeper"}, tagNames(decode[service.BlogDetailView](t, resp).Tags))

	resp = ts.api.Get("/api/tags/" + doomedID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
