package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/jura-stack/jura/internal/config"
	"github.com/jura-stack/jura/internal/vectorstore"
)

type mergeShardsStats struct {
	Shards []string `json:"shards"`
	Output string   `json:"output"`
}

// cmdMergeShards implements "merge-shards --shards P1 P2 ... --output PATH
// [--enable-sparse]" (spec §6). Shard paths are taken as trailing
// positional arguments after flag parsing, since the standard flag package
// has no multi-value flag for a bare "--shards P1 P2 ...".
func cmdMergeShards(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("merge-shards", flag.ContinueOnError)
	output := fs.String("output", "", "merged vector store path (required)")
	enableSparse := fs.Bool("enable-sparse", false, "merge sparse (lexical) weights too")
	dim := fs.Int("dim", 0, "vector dimensionality (default JURA_EMBEDDING_DIMENSIONS)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: jura merge-shards --output PATH [flags] shard1.db shard2.db ...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("merge-shards: --output is required")
	}
	shardPaths := fs.Args()
	if len(shardPaths) == 0 {
		fs.Usage()
		return fmt.Errorf("merge-shards: at least one shard path is required")
	}

	dims := *dim
	if dims <= 0 {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("merge-shards: %w", err)
		}
		dims = cfg.EmbeddingDimensions
	}

	logger.Info("merge-shards: merging", "shards", shardPaths, "output", *output)
	if err := vectorstore.MergeShards(ctx, shardPaths, *output, dims, *enableSparse, knownLanguages); err != nil {
		return fmt.Errorf("merge-shards: %w", err)
	}

	return printStats(mergeShardsStats{Shards: shardPaths, Output: *output})
}
