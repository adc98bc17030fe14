package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jura-stack/jura/internal/config"
	"github.com/jura-stack/jura/internal/graph"
	"github.com/jura-stack/jura/internal/mcp"
	"github.com/jura-stack/jura/internal/search"
	"github.com/jura-stack/jura/internal/server"
	"github.com/jura-stack/jura/internal/store"
	"github.com/jura-stack/jura/internal/telemetry"
	"github.com/jura-stack/jura/internal/vectorstore"
	"github.com/jura-stack/jura/internal/vectorstore/qdrant"
	"github.com/jura-stack/jura/migrations"
)

// cmdServe implements "serve [--bind 127.0.0.1:PORT]" (spec §6): it boots
// the hybrid search HTTP API plus its MCP tool surface against whatever
// persisted state already exists at cfg.OutputDir, following the teacher's
// cmd/akashi run()/run0() bootstrap/shutdown shape minus every
// Postgres/JWT/multi-tenant concern this module doesn't carry.
func cmdServe(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	bind := fs.String("bind", "", "loopback bind address (default JURA_BIND or 127.0.0.1:8080)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: jura serve [--bind 127.0.0.1:PORT]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if *bind != "" {
		cfg.BindAddr = *bind
	}

	logger.Info("jura starting", "version", version, "bind", cfg.BindAddr)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("serve: telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := store.Open(cfg.DecisionsDB, logger)
	if err != nil {
		return fmt.Errorf("serve: open store: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("serve: migrate: %w", err)
	}

	// The reference graph is optional: a corpus that never ran build-graph
	// still serves search and decision lookups (spec §4.7's degraded mode).
	// graph.Open always creates a schema on first touch, so check for the
	// file first rather than letting a bare Open conjure an empty "ready" graph.
	var graphDB *graph.DB
	if _, statErr := os.Stat(cfg.GraphDB); statErr == nil {
		graphDB, err = graph.Open(cfg.GraphDB)
		if err != nil {
			return fmt.Errorf("serve: open graph db: %w", err)
		}
		defer graphDB.Close()
		logger.Info("serve: reference graph loaded", "path", cfg.GraphDB)
	} else {
		logger.Info("serve: no reference graph found, citations/statute routes will 404", "path", cfg.GraphDB)
	}

	searcher, backend, closeSearcher, err := newSearcher(ctx, cfg, db, logger)
	if err != nil {
		return fmt.Errorf("serve: search backend: %w", err)
	}
	if closeSearcher != nil {
		defer closeSearcher()
	}

	mcpSrv := mcp.New(db, searcher, graphDB, logger, version, cfg.OutputDir)

	srv := server.New(server.Config{
		DB:                  db,
		Searcher:            searcher,
		SearchBackend:       backend,
		GraphDB:             graphDB,
		MCPServer:           mcpSrv.MCPServer(),
		Logger:              logger,
		BindAddr:            cfg.BindAddr,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		ShutdownTimeout:     cfg.ShutdownTimeout,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OutputDir:           cfg.OutputDir,
		Version:             version,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("jura shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	logger.Info("jura stopped")
	return nil
}

// newSearcher picks the search backend by what configuration names:
// OpenSearch if JURA_OPENSEARCH_URL is set, else the embedded FTS5 engine
// (internal/search.Engine) optionally paired with a vector leg — Qdrant if
// QDRANT_URL is set, else the local sqlite-vec store at cfg.VectorsDB if it
// exists, else lexical-only.
func newSearcher(ctx context.Context, cfg config.Config, db *store.DB, logger *slog.Logger) (server.Searcher, string, func(), error) {
	if cfg.OpenSearchURL != "" {
		client, err := newOpenSearchClient(cfg.OpenSearchURL, cfg.OpenSearchIndex, cfg.EmbeddingDimensions, cfg.OpenSearchAPIKeyFile)
		if err != nil {
			return nil, "", nil, fmt.Errorf("opensearch: %w", err)
		}
		provider := newEmbeddingProvider(cfg, logger)
		logger.Info("search backend: opensearch", "url", cfg.OpenSearchURL, "index", cfg.OpenSearchIndex)
		return &opensearchSearcher{client: client, provider: provider}, "opensearch", func() { _ = client.Close() }, nil
	}

	var vecSearcher search.VectorSearcher
	var closeVec func()
	if cfg.QdrantURL != "" {
		qidx, err := qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dims:       uint64(cfg.EmbeddingDimensions),
		}, logger)
		if err != nil {
			return nil, "", nil, fmt.Errorf("qdrant: %w", err)
		}
		if err := qidx.EnsureCollections(ctx); err != nil {
			_ = qidx.Close()
			return nil, "", nil, fmt.Errorf("qdrant: ensure collections: %w", err)
		}
		vecSearcher = &qdrantSearcher{idx: qidx}
		closeVec = func() { _ = qidx.Close() }
		logger.Info("vector backend: qdrant", "collection", cfg.QdrantCollection)
	} else if _, err := os.Stat(cfg.VectorsDB); err == nil {
		vidx, err := vectorstore.Open(cfg.VectorsDB, cfg.EmbeddingDimensions, cfg.EnableSparse, knownLanguages)
		if err != nil {
			return nil, "", nil, fmt.Errorf("vectorstore: %w", err)
		}
		vecSearcher = &vectorstoreSearcher{idx: vidx}
		closeVec = func() { _ = vidx.Close() }
		logger.Info("vector backend: sqlite-vec", "path", cfg.VectorsDB)
	} else {
		logger.Info("vector backend: none (lexical-only search)")
	}

	provider := newEmbeddingProvider(cfg, logger)
	engine := search.NewEngine(db.Conn(), vecSearcher, provider, logger)
	return engine, "fts5", closeVec, nil
}
