package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jura-stack/jura/internal/graph"
	"github.com/jura-stack/jura/internal/store"
)

// cmdBuildGraph implements "build-graph {--input DIR | --source-db PATH}
// --db PATH [--courts c1,c2,...] [--limit N]" (spec §6). Exactly one of
// --input/--source-db selects the row source: --input reads the JSONL
// decision logs directly, --source-db streams from an already-ingested
// FTS5 store (spec §6 "build-graph --source-db PATH").
func cmdBuildGraph(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("build-graph", flag.ContinueOnError)
	input := fs.String("input", "", "directory of decisions/*.jsonl to read")
	sourceDB := fs.String("source-db", "", "FTS5 store path to read from instead of --input")
	dbPath := fs.String("db", "", "reference graph database path (required)")
	courts := fs.String("courts", "", "comma-separated court codes to restrict --source-db to")
	limit := fs.Int("limit", 0, "limit the number of rows ingested (0 = no limit)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: jura build-graph {--input DIR | --source-db PATH} --db PATH [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		fs.Usage()
		return fmt.Errorf("build-graph: --db is required")
	}
	if (*input == "") == (*sourceDB == "") {
		fs.Usage()
		return fmt.Errorf("build-graph: exactly one of --input or --source-db is required")
	}

	var source graph.RowSource
	var courtsFilter []string
	if *courts != "" {
		courtsFilter = strings.Split(*courts, ",")
	}

	if *input != "" {
		s, err := graph.NewJSONLRowSource(*input)
		if err != nil {
			return fmt.Errorf("build-graph: open input: %w", err)
		}
		source = s
	} else {
		sourceStore, err := store.Open(*sourceDB, logger)
		if err != nil {
			return fmt.Errorf("build-graph: open source-db: %w", err)
		}
		defer sourceStore.Close()
		s, err := graph.NewStoreRowSource(ctx, sourceStore.Conn(), courtsFilter)
		if err != nil {
			return fmt.Errorf("build-graph: query source-db: %w", err)
		}
		source = s
	}

	stats, err := graph.BuildGraph(ctx, source, graph.BuildOptions{DBPath: *dbPath, Limit: *limit})
	if err != nil {
		return fmt.Errorf("build-graph: %w", err)
	}
	stats.CourtsFilter = courtsFilter
	if *sourceDB != "" {
		stats.SourceDB = *sourceDB
	}

	return printStats(stats)
}
