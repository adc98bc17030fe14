// Command jura is the ingestion, indexing, and serving CLI for the Swiss
// court-decision corpus (spec §6 "External interfaces"). Unlike the
// teacher's single-binary server, this module's work is split across five
// subcommands so each stage of the pipeline (FTS ingest, vector build,
// shard merge, graph build, serve) can run independently and be rerun on
// its own schedule.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	_ = godotenv.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("JURA_LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sub, rest := args[0], args[1:]
	var err error
	switch sub {
	case "build-fts":
		err = cmdBuildFTS(ctx, rest, logger)
	case "build-vectors":
		err = cmdBuildVectors(ctx, rest, logger)
	case "merge-shards":
		err = cmdMergeShards(ctx, rest, logger)
	case "build-graph":
		err = cmdBuildGraph(ctx, rest, logger)
	case "serve":
		err = cmdServe(ctx, rest, logger)
	case "-h", "--help", "help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "jura: unknown subcommand %q\n\n", sub)
		printUsage()
		return 1
	}

	if err != nil {
		logger.Error(sub+" failed", "error", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: jura <subcommand> [flags]

Subcommands:
  build-fts       ingest output/decisions/*.jsonl into the FTS5 store
  build-vectors   embed decisions into a vector store shard
  merge-shards    merge vector store shards into one index
  build-graph     build the reference graph database
  serve           start the hybrid search HTTP API

Run "jura <subcommand> -h" for subcommand flags.`)
}

// printStats writes result as the JSON stats summary that the build-fts,
// build-vectors, merge-shards and build-graph subcommands emit to stdout on
// success; serve does not call it (spec §6 "All CLIs ... emit ... a JSON stats summary
// to stdout").
func printStats(result any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
