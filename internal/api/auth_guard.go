package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell-blog/inkwell-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// identityKey is the context key for the authenticated caller.
const identityKey ctxKey = "identity"

// bearerSecurity marks an operation as taking a bearer token in the OpenAPI document.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// requireAuth rejects the request unless it carries a valid token for an
// existing user. The identity is attached to the context for the handler.
func (s *Server) requireAuth(ctx huma.Context, next func(huma.Context)) {
	identity, err := s.services.Auth.Authenticate(ctx.Context(), ctx.Header("Authorization"))
	if err != nil {
		_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	next(huma.WithValue(ctx, identityKey, identity))
}

// optionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func (s *Server) optionalAuth(ctx huma.Context, next func(huma.Context)) {
	header := ctx.Header("Authorization")
	if header == "" {
		next(ctx)
		return
	}

	identity, err := s.services.Auth.Authenticate(ctx.Context(), header)
	if err != nil {
		s.logger.Debug("ignoring invalid optional token", "error", err)
		next(ctx)
		return
	}
	next(huma.WithValue(ctx, identityKey, identity))
}

// identityFrom returns the caller attached by requireAuth or optionalAuth,
// or nil for anonymous requests.
func identityFrom(ctx context.Context) *service.Identity {
	identity, _ := ctx.Value(identityKey).(*service.Identity)
	return identity
}
