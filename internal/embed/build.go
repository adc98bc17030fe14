package embed

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jura-stack/jura/internal/model"
)

const defaultBatchSize = 32

// Vectorized is one decision-level embedding result, ready for a vector
// store Writer (spec §4.4 "Storage").
type Vectorized struct {
	DecisionID string
	Language   string
	Vector     []float32
	Chunks     []VectorizedChunk
}

type VectorizedChunk struct {
	ChunkID string
	Vector  []float32
}

// Writer is satisfied by internal/vectorstore's index builders, kept
// decoupled from the embedding step so any backend can consume results.
type Writer interface {
	WriteDecision(ctx context.Context, v Vectorized) error
}

// BuildConfig bounds one embedding run (spec §4.4 "Encoding", "Sharded builds").
type BuildConfig struct {
	BatchSize    int
	EnableChunks bool
	ShardIndex   int // -1 disables sharding
	ShardCount   int
	Concurrency  int
}

// Build selects text, batches it through provider, and writes vectors for
// every decision that yields usable text (spec §4.4). When ShardCount > 1,
// only rows whose ShardIndex(decision_id, ShardCount) matches cfg.ShardIndex
// are processed by this call — the caller runs one Build per shard,
// concurrently, via golang.org/x/sync/errgroup (spec §4.4 "Sharded builds"),
// grounded on the teacher's errgroup usage for bounded fan-out.
func Build(ctx context.Context, provider Provider, decisions []*model.Decision, w Writer, cfg BuildConfig, logger *slog.Logger) (int, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	type candidate struct {
		decision *model.Decision
		text     string
		chunks   []Chunk
	}
	var candidates []candidate
	for _, d := range decisions {
		if cfg.ShardCount > 1 && ShardIndex(d.DecisionID, cfg.ShardCount) != cfg.ShardIndex {
			continue
		}
		text, ok := SelectText(d)
		if !ok {
			continue
		}
		c := candidate{decision: d, text: text}
		if cfg.EnableChunks {
			c.chunks = BuildChunks(d)
		}
		candidates = append(candidates, c)
	}

	written := 0
	for start := 0; start < len(candidates); start += batchSize {
		end := min(start+batchSize, len(candidates))
		batch := candidates[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.text
		}
		vecs, err := provider.EmbedBatch(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embed: batch %d-%d: %w", start, end, err)
		}

		for i, c := range batch {
			v := Vectorized{DecisionID: c.decision.DecisionID, Language: c.decision.Language, Vector: vecs[i]}
			if len(c.chunks) > 0 {
				chunkTexts := make([]string, len(c.chunks))
				for j, ch := range c.chunks {
					chunkTexts[j] = ch.Text
				}
				chunkVecs, err := provider.EmbedBatch(ctx, chunkTexts)
				if err != nil {
					return written, fmt.Errorf("embed: chunk batch for %s: %w", c.decision.DecisionID, err)
				}
				for j, ch := range c.chunks {
					v.Chunks = append(v.Chunks, VectorizedChunk{ChunkID: ch.ChunkID, Vector: chunkVecs[j]})
				}
			}
			if err := w.WriteDecision(ctx, v); err != nil {
				return written, fmt.Errorf("embed: write %s: %w", c.decision.DecisionID, err)
			}
			written++
		}
		logger.Debug("embed: batch embedded", "shard", cfg.ShardIndex, "count", end-start, "total", written)
	}
	return written, nil
}

// BuildSharded runs Build once per shard concurrently via errgroup, bounded
// by cfg.Concurrency (spec §4.4 "Sharded builds"). Each shard writes through
// its own Writer (typically a per-shard on-disk DB); the caller merges shard
// outputs afterward.
func BuildSharded(ctx context.Context, provider Provider, decisions []*model.Decision, writers []Writer, cfg BuildConfig, logger *slog.Logger) ([]int, error) {
	n := len(writers)
	if n == 0 {
		return nil, fmt.Errorf("embed: BuildSharded requires at least one writer")
	}
	counts := make([]int, n)

	g, ctx := errgroup.WithContext(ctx)
	concurrency := cfg.Concurrency
	if concurrency <= 0 || concurrency > n {
		concurrency = n
	}
	sem := make(chan struct{}, concurrency)

	for shard := range n {
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			shardCfg := cfg
			shardCfg.ShardIndex = shard
			shardCfg.ShardCount = n
			count, err := Build(ctx, provider, decisions, writers[shard], shardCfg, logger)
			counts[shard] = count
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return counts, fmt.Errorf("embed: sharded build: %w", err)
	}
	return counts, nil
}
