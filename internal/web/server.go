// Package web provides the HTTP API and the DIP switch viewer.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/dipsw/internal/config"
	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/store"
	mw "github.com/JonMunkholm/dipsw/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Store is the persistence the handlers need. *store.Store satisfies it.
type Store interface {
	ReplaceModel(ctx context.Context, model string, records []dipsw.Record) (int64, error)
	ListSwitches(ctx context.Context, q store.SwitchQuery) ([]dipsw.Record, error)
	ListModels(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the DIP switch API.
type Server struct {
	store     Store
	assembler *dipsw.Assembler
	limiter   *ImportLimiter
	cfg       config.ServerConfig
	security  config.SecurityConfig
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a new Server instance. The assembler serves the parse
// endpoint.
func NewServer(st Store, assembler *dipsw.Assembler, cfg config.ServerConfig, security config.SecurityConfig) *Server {
	s := &Server{
		store:     st,
		assembler: assembler,
		limiter:   NewImportLimiter(cfg.MaxConcurrentImports, cfg.ImportWait),
		cfg:       cfg,
		security:  security,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	// Security hardening
	s.router.Use(securityHeaders(s.security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.Get("/dipswitches", s.handleViewer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/dipswitches", s.handleListSwitches)
		r.Get("/models", s.handleListModels)
		r.Get("/models/{model}/export", s.handleExport)
		r.Get("/imports/status", s.handleImportStatus)

		// Writes and parsing require an API key when configured
		r.Group(func(r chi.Router) {
			r.Use(mw.APIKeyAuth(s.security.RequireAPIKey, s.security.APIKeys))
			r.Post("/import-dipsw", s.handleImport)
			r.Post("/parse", s.handleParse)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Server) WaitForImports(ctx context.Context) error {
	if n := s.limiter.ActiveCount(); n > 0 {
		slog.Info("waiting for imports to complete", "active", n)
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The viewer uses only inline styles
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			next.ServeHTTP(w, r)
		})
	}
}
