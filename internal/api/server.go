// Package api provides the HTTP API server and handlers for Inkwell.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkwell-blog/inkwell-server/internal/http/response"
	"github.com/inkwell-blog/inkwell-server/internal/ratelimit"
	"github.com/inkwell-blog/inkwell-server/internal/service"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// Services groups the business services used by the handlers.
type Services struct {
	Auth    *service.AuthService
	Blog    *service.BlogService
	Comment *service.CommentService
	Tag     *service.TagService
}

// RateLimits holds the per-IP allowances. A nil *RateLimits disables limiting.
type RateLimits struct {
	API     ratelimit.Policy // every /api request
	Write   ratelimit.Policy // auth and mutations
	Comment ratelimit.Policy // comment creation
}

// Options configures the server.
type Options struct {
	CORSOrigins []string
	RateLimits  *RateLimits
	// Registry receives the HTTP metrics. A private registry is created when nil.
	Registry *prometheus.Registry
	// Search reports index health. Optional.
	Search DocumentCounter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	search   DocumentCounter
	services *Services
	router   *chi.Mux
	api      huma.API
	metrics  *Metrics
	logger   *slog.Logger

	apiLimit     *limitPolicy
	writeLimit   *limitPolicy
	commentLimit *limitPolicy
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("Inkwell API", "1.0.0")
	humaConfig.Info.Description = "Blog posts, comments and tags."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// Plain JSON bodies, no $schema links.
	humaConfig.CreateHooks = nil

	s := &Server{
		store:    st,
		search:   opts.Search,
		services: services,
		router:   router,
		metrics:  NewMetrics(opts.Registry),
		logger:   logger,
	}
	if opts.RateLimits != nil {
		s.apiLimit = newLimitPolicy(policyAPI, msgAPILimit, opts.RateLimits.API)
		s.writeLimit = newLimitPolicy(policyWrite, msgWriteLimit, opts.RateLimits.Write)
		s.commentLimit = newLimitPolicy(policyComment, msgCommentLimit, opts.RateLimits.Comment)
	}

	s.setupMiddleware(opts.CORSOrigins)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops the rate limiter sweepers.
func (s *Server) Close() {
	for _, p := range []*limitPolicy{s.apiLimit, s.writeLimit, s.commentLimit} {
		if p != nil {
			p.limiter.Stop()
		}
	}
}

// setupMiddleware configures the router-level middleware stack.
func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{headerRateLimitLimit, headerRateLimitRemaining, headerRetryAfter, requestIDHeader},
		MaxAge:         300,
	}))
	s.router.Use(s.apiRateLimit)

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "Method not allowed", s.logger)
	})
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.router.Handle("/metrics", s.metrics.Handler())

	s.registerAuthRoutes()
	s.registerBlogRoutes()
	s.registerCommentRoutes()
	s.registerTagRoutes()
}
