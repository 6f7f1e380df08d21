package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

func TestRegisterErrorHandler(t *testing.T) {
	var logs bytes.Buffer
	RegisterErrorHandler(slog.New(slog.NewTextHandler(&logs, nil)))

	tests := []struct {
		name    string
		status  int
		message string
		errs    []error
		want    APIError
		wantLog bool
	}{
		{
			name:   "domain error keeps its status",
			status: http.StatusInternalServerError,
			errs:   []error{fmt.Errorf("wrapped: %w", domainerrors.Forbidden("You are not authorized to delete this blog"))},
			want:   APIError{status: http.StatusForbidden, Code: "FORBIDDEN", Message: "You are not authorized to delete this blog"},
		},
		{
			name:   "store not found",
			status: http.StatusInternalServerError,
			errs:   []error{store.ErrBlogNotFound},
			want:   APIError{status: http.StatusNotFound, Code: "NOT_FOUND", Message: "blog not found"},
		},
		{
			name:    "schema failure becomes 400",
			status:  http.StatusUnprocessableEntity,
			message: "validation failed",
			errs: []error{
				&huma.ErrorDetail{Location: "query.limit", Message: "expected integer"},
				&huma.ErrorDetail{Location: "body.title", Message: "expected string"},
			},
			want: APIError{status: http.StatusBadRequest, Code: "VALIDATION", Message: "limit: expected integer"},
		},
		{
			name:    "unknown error is hidden and logged",
			status:  http.StatusInternalServerError,
			message: "unexpected error occurred",
			errs:    []error{errors.New("badger: value log corrupted")},
			want:    APIError{status: http.StatusInternalServerError, Code: "INTERNAL", Message: "An unexpected error occurred"},
			wantLog: true,
		},
		{
			name:    "plain huma status",
			status:  http.StatusRequestEntityTooLarge,
			message: "request body is too large",
			want:    APIError{status: http.StatusRequestEntityTooLarge, Code: "INTERNAL", Message: "request body is too large"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()

			got := huma.NewError(tt.status, tt.message, tt.errs...)

			var apiErr *APIError
			require.ErrorAs(t, got, &apiErr)
			assert.Equal(t, tt.want.status, apiErr.GetStatus())
			assert.Equal(t, tt.want.Code, apiErr.Code)
			assert.Equal(t, tt.want.Message, apiErr.Message)
			if tt.wantLog {
				assert.Contains(t, logs.String(), "value log corrupted")
				assert.NotContains(t, apiErr.Message, "badger")
			}
		})
	}
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "title", fieldName("body.title"))
	assert.Equal(t, "author.id", fieldName("body.author.id"))
	assert.Equal(t, "", fieldName("body"))
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.do(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Route not found", decode[errorBody](t, resp).Message)
}

func TestMalformedJSONBody(t *testing.T) {
	ts := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email": `))
	req.Header.Set("Content-Type", "application/json")
	resp := ts.do(req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[errorBody](t, resp).Code)
}
