package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jura-stack/jura/internal/store"
	"github.com/jura-stack/jura/migrations"
)

// buildFTSStats is the JSON stats summary emitted on stdout (spec §6).
type buildFTSStats struct {
	DBPath    string                `json:"db_path"`
	Ingested  []store.IngestResult  `json:"ingested"`
	Dedup     store.DedupResult     `json:"dedup"`
	Regeste   store.RegesteBackfillResult `json:"regeste_backfill"`
	Passes    int                   `json:"passes"`
}

// cmdBuildFTS implements "build-fts {--output DIR} [--db PATH] [--watch SECONDS]"
// (spec §6). It ingests every output/decisions/{court_code}.jsonl file into
// the FTS5 store, then dedups and backfills regeste text. The ~50
// site-specific extractors that would populate those JSONL files are
// out-of-core-scope (spec Non-goals); this subcommand only ever reads
// JSONL already sitting on disk, never internal/fetcher or internal/extract.Run.
func cmdBuildFTS(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("build-fts", flag.ContinueOnError)
	output := fs.String("output", "", "root output directory containing decisions/*.jsonl (required)")
	dbPath := fs.String("db", "", "FTS5 database path (default <output>/decisions.db)")
	watch := fs.Int("watch", 0, "re-run every N seconds instead of exiting after one pass (0 = run once)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: jura build-fts --output DIR [--db PATH] [--watch SECONDS]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("build-fts: --output is required")
	}
	if *dbPath == "" {
		*dbPath = filepath.Join(*output, "decisions.db")
	}

	db, err := store.Open(*dbPath, logger)
	if err != nil {
		return fmt.Errorf("build-fts: open store: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("build-fts: migrate: %w", err)
	}

	decisionsDir := filepath.Join(*output, "decisions")
	passes := 0
	for {
		stats, err := runBuildFTSPass(ctx, db, decisionsDir, *dbPath, logger)
		passes++
		stats.Passes = passes
		if err != nil {
			return err
		}
		if *watch <= 0 {
			return printStats(stats)
		}
		if err := printStats(stats); err != nil {
			return err
		}
		logger.Info("build-fts: sleeping until next pass", "seconds", *watch)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(*watch) * time.Second):
		}
	}
}

func runBuildFTSPass(ctx context.Context, db *store.DB, decisionsDir, dbPath string, logger *slog.Logger) (buildFTSStats, error) {
	stats := buildFTSStats{DBPath: dbPath}

	paths, err := filepath.Glob(filepath.Join(decisionsDir, "*.jsonl"))
	if err != nil {
		return stats, fmt.Errorf("build-fts: glob %s: %w", decisionsDir, err)
	}
	for _, path := range paths {
		courtCode := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		result, err := db.IngestJSONL(ctx, courtCode, path, logger)
		if err != nil {
			return stats, fmt.Errorf("build-fts: ingest %s: %w", path, err)
		}
		logger.Info("build-fts: ingested", "court", courtCode, "read", result.Read, "inserted", result.Inserted)
		stats.Ingested = append(stats.Ingested, result)
	}

	dedupResult, err := db.Dedup(ctx)
	if err != nil {
		return stats, fmt.Errorf("build-fts: dedup: %w", err)
	}
	stats.Dedup = dedupResult

	regesteResult, err := db.BackfillRegeste(ctx)
	if err != nil {
		return stats, fmt.Errorf("build-fts: backfill regeste: %w", err)
	}
	stats.Regeste = regesteResult
	return stats, nil
}
