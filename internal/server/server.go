// Package server is the loopback-only hybrid search HTTP API (spec §6),
// grounded on the teacher's internal/server package: the ServeMux
// pattern-routing shape, the documented middleware chain order, and the
// Start/Shutdown lifecycle, stripped of the teacher's multi-tenant auth
// and billing concerns (spec §6 describes a single-tenant, unauthenticated
// local service).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jura-stack/jura/internal/graph"
	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/store"
)

// Searcher is satisfied by *search.Engine; declared locally so this package
// does not need to import internal/search just to name the method it calls.
type Searcher interface {
	Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.SearchResult, error)
}

// Config holds everything New needs to build a Server. DB and Searcher are
// required; GraphDB is optional (nil means no reference graph was built,
// and the citations/statute routes respond with a "not available" error
// rather than panicking, mirroring spec §4.7's failure mode).
type Config struct {
	DB            *store.DB
	Searcher      Searcher
	SearchBackend string // "fts5" or "opensearch", reported on /health and /search
	GraphDB       *graph.DB
	MCPServer     *mcpserver.MCPServer // optional; mounted at /mcp when non-nil
	Logger        *slog.Logger

	BindAddr            string // loopback-only, e.g. "127.0.0.1:8080"
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	ShutdownTimeout     time.Duration
	MaxRequestBodyBytes int64
	OutputDir           string // persisted-state root, for /health disk-usage sampling
	Version             string
}

// Server wraps the bound *http.Server.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	cfg        Config
}

// New builds the Server and its route table.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxRequestBodyBytes <= 0 {
		cfg.MaxRequestBodyBytes = 1 << 20
	}

	h := newHandlers(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("POST /search", h.HandleSearch)
	// {id...} (not {id}) because a raw docket number (e.g. "4A_291/2017")
	// contains slashes; decision_id itself never does (textutil.NormalizeDocket
	// replaces them), but Resolve also accepts a docket as-is.
	mux.HandleFunc("GET /decision/{id...}", h.HandleGetDecision)
	mux.HandleFunc("GET /citations/{id}", h.HandleCitations)
	mux.HandleFunc("GET /statute/{law_code}/{article}", h.HandleStatute)

	if cfg.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(cfg.MCPServer))
	}

	// Outermost to innermost: recovery catches panics from everything
	// inside it, logging wraps every request, and body-limit guards the
	// handler itself. A panicking request unwinds past logging before its
	// log line is written, so recovery's own error log is its only record.
	chained := recoveryMiddleware(cfg.Logger)(
		loggingMiddleware(cfg.Logger)(
			bodyLimitMiddleware(cfg.MaxRequestBodyBytes)(mux),
		),
	)

	return &Server{
		handlers: h,
		cfg:      cfg,
		httpServer: &http.Server{
			Addr:         cfg.BindAddr,
			Handler:      chained,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  2 * cfg.ReadTimeout,
		},
	}
}

// Handlers exposes the route handlers directly, e.g. for tests that want
// to call a handler without going through the network stack.
func (s *Server) Handlers() *Handlers { return s.handlers }

// Handler returns the fully wrapped http.Handler (middleware chain + mux),
// letting tests exercise the server via httptest.NewServer without binding
// a real loopback port.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.cfg.Logger.Info("server: listening", "addr", s.cfg.BindAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests within cfg.ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
