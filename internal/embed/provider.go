// Package embed turns canonical decisions into normalized vectors (spec
// §4.4), grounded on the teacher's internal/service/embedding package: same
// Provider interface shape, generalized from pgvector.Vector to a plain
// []float32 since storage is sqlite-vec rather than Postgres.
package embed

import (
	"context"
	"errors"
	"math"
)

// ErrNoProvider signals that no real embedding backend is configured. No
// caller checks for it specifically: Build returns it like any other
// embedding error, and search.Engine falls back to lexical-only results on
// any embedding error.
var ErrNoProvider = errors.New("embed: no provider configured (noop)")

// Provider generates L2-normalized embedding vectors from text (spec §4.4:
// "the embedder is model-agnostic; implementation must expose a swap point").
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// normalizeL2 scales v to unit length in place, matching spec §4.4's
// "L2-normalized 1024-dim float32 vector" requirement for every backend,
// regardless of whether the upstream API already normalizes.
func normalizeL2(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(sumSq))
	for i := range v {
		v[i] *= norm
	}
}
