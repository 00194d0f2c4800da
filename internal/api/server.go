// Package api provides the HTTP API server and handlers for LinknLink.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linknlink/linknlink-server/internal/auth"
	"github.com/linknlink/linknlink-server/internal/config"
	"github.com/linknlink/linknlink-server/internal/logger"
	"github.com/linknlink/linknlink-server/internal/ratelimit"
	"github.com/linknlink/linknlink-server/internal/store"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping() error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	resolver        *auth.Resolver
	cookies         auth.Cookies
	cache           Pinger // nil when the metadata cache is disabled
	allowedOrigin   string
	authRateLimiter *ratelimit.KeyedRateLimiter
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg *config.Config,
	st store.Store,
	services *Services,
	resolver *auth.Resolver,
	cache Pinger,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:    st,
		services: services,
		resolver: resolver,
		cookies: auth.Cookies{
			Secure: cfg.IsProduction(),
			MaxAge: cfg.Auth.TokenDuration,
		},
		cache:           cache,
		allowedOrigin:   cfg.CORS.AllowedOrigin,
		authRateLimiter: ratelimit.PerMinute(cfg.Auth.RateLimit),
		router:          router,
		logger:          logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("LinknLink API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"authData": {
			Type: "apiKey",
			In:   "header",
			Name: auth.HeaderName,
		},
		"cookie": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
	}
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler(logger)

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.Middleware(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware(s.allowedOrigin))
	s.router.Use(authMiddleware(s.resolver, s.cookies))
}

// registerRoutes configures all HTTP routes.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerLinkRoutes()
	s.registerTagRoutes()
}

// secured marks an operation as accepting either credential.
var secured = []map[string][]string{{"authData": {}}, {"cookie": {}}}
