package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jura-stack/jura/internal/config"
	"github.com/jura-stack/jura/internal/embed"
	"github.com/jura-stack/jura/internal/extract"
	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/vectorstore"
)

// knownLanguages mirrors internal/search's partition set.
var knownLanguages = []string{"de", "fr", "it", "rm", "other"}

type buildVectorsStats struct {
	Input         string `json:"input"`
	Output        string `json:"output"`
	DecisionsRead int    `json:"decisions_read"`
	Embedded      int    `json:"embedded"`
	ShardIndex    int    `json:"shard_index,omitempty"`
	NumShards     int    `json:"num_shards,omitempty"`
}

// cmdBuildVectors implements "build-vectors {--input DIR} [--output PATH]
// [--model ID] [--batch-size N] [--limit N] [--enable-sparse]
// [--enable-chunks] [--shard-index i --num-shards N]" (spec §6). When
// --shard-index/--num-shards are set, this invocation embeds only the rows
// whose embed.ShardIndex matches i — the caller runs one invocation per
// shard (in parallel processes, or concurrently via embed.BuildSharded if
// wiring a multi-writer build directly) and later reconciles them with
// merge-shards.
func cmdBuildVectors(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("build-vectors", flag.ContinueOnError)
	input := fs.String("input", "", "directory of decisions/*.jsonl to embed (required)")
	output := fs.String("output", "", "vector store path (default <input>/../vectors.db)")
	modelID := fs.String("model", "", "embedding model identifier (overrides JURA_EMBEDDING_MODEL)")
	batchSize := fs.Int("batch-size", 32, "embedding batch size")
	limit := fs.Int("limit", 0, "limit the number of decisions embedded (0 = no limit)")
	enableSparse := fs.Bool("enable-sparse", false, "also write sparse (lexical) weights")
	enableChunks := fs.Bool("enable-chunks", false, "embed section-level chunks in addition to the decision-level vector")
	shardIndex := fs.Int("shard-index", -1, "this invocation's shard index (requires --num-shards)")
	numShards := fs.Int("num-shards", 1, "total number of shards")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: jura build-vectors --input DIR [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		fs.Usage()
		return fmt.Errorf("build-vectors: --input is required")
	}
	if *output == "" {
		*output = filepath.Join(*input, "..", "vectors.db")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("build-vectors: %w", err)
	}
	if *modelID != "" {
		cfg.EmbeddingModel = *modelID
	}

	paths, err := filepath.Glob(filepath.Join(*input, "*.jsonl"))
	if err != nil {
		return fmt.Errorf("build-vectors: glob %s: %w", *input, err)
	}
	var decisions []*model.Decision
	for _, path := range paths {
		rows, err := extract.ReadJSONL(path, func(line string, err error) {
			logger.Warn("build-vectors: skipping malformed line", "file", path, "error", err)
		})
		if err != nil {
			return fmt.Errorf("build-vectors: read %s: %w", path, err)
		}
		for i := range rows {
			decisions = append(decisions, &rows[i])
			if *limit > 0 && len(decisions) >= *limit {
				break
			}
		}
		if *limit > 0 && len(decisions) >= *limit {
			break
		}
	}
	logger.Info("build-vectors: loaded decisions", "count", len(decisions))

	provider := newEmbeddingProvider(cfg, logger)

	idx, err := vectorstore.Open(*output, provider.Dimensions(), *enableSparse, knownLanguages)
	if err != nil {
		return fmt.Errorf("build-vectors: open vector store: %w", err)
	}
	defer idx.Close()

	buildCfg := embed.BuildConfig{
		BatchSize:    *batchSize,
		EnableChunks: *enableChunks,
		ShardIndex:   *shardIndex,
		ShardCount:   *numShards,
		Concurrency:  4,
	}
	n, err := embed.Build(ctx, provider, decisions, idx, buildCfg, logger)
	if err != nil {
		return fmt.Errorf("build-vectors: embed: %w", err)
	}

	return printStats(buildVectorsStats{
		Input:         *input,
		Output:        *output,
		DecisionsRead: len(decisions),
		Embedded:      n,
		ShardIndex:    *shardIndex,
		NumShards:     *numShards,
	})
}
