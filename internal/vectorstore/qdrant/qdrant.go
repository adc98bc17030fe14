// Package qdrant is the optional remote vector backend (spec §4.4
// "Storage"): an alternative to the default sqlite-vec-backed
// vectorstore.Index, selected via config. It implements the same
// embed.Writer contract so the embedding build pipeline does not care
// which backend it writes to, grounded on the teacher's
// internal/search/qdrant.go (collection-per-tenant gRPC client, HNSW
// M=16/EfConstruct=128, 3x over-fetch for caller-side rescoring),
// adapted from the teacher's org-scoped point schema to one partitioned
// by language with decision/chunk IDs instead of UUIDs.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/jura-stack/jura/internal/embed"
)

// decisionNamespace is a fixed UUID namespace used to derive deterministic
// point IDs from decision_id/chunk_id strings: Qdrant point IDs must be a
// UUID or an unsigned integer, but the canonical store keys everything by
// string decision_id, so the string is preserved in the payload and only
// used to derive the point's UUID.
var decisionNamespace = uuid.MustParse("8f14e45f-ceea-4b3e-8a7c-29a7c4ff39b1")

func pointID(key string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(decisionNamespace, []byte(key)).String())
}

// Config holds connection parameters for a Qdrant deployment.
type Config struct {
	URL        string // e.g. "https://xyz.cloud.qdrant.io:6333" or "http://localhost:6333"
	APIKey     string
	Collection string // decision collection; the chunk collection is Collection+"_chunks"
	Dims       uint64
}

// Index implements embed.Writer backed by a remote Qdrant collection.
type Index struct {
	client           *qdrant.Client
	collection       string
	chunkCollection  string
	dims             uint64
	logger           *slog.Logger

	healthMu  sync.Mutex
	lastCheck time.Time
	lastErr   error
}

// parseURL extracts host, port, and TLS flag from a Qdrant URL. Accepts
// forms like "https://host:6333", "http://host:6333", or "host:6334". The
// REST port (6333) is mapped to the gRPC port (6334) since the go client
// always speaks gRPC.
func parseURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("qdrant: invalid url: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("qdrant: invalid port in url: %q", portStr)
		}
		if p == 6333 {
			port = 6334
		} else {
			port = p
		}
	} else {
		port = 6334
	}

	return host, port, useTLS, nil
}

// New connects to a Qdrant server over gRPC.
func New(cfg Config, logger *slog.Logger) (*Index, error) {
	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect to %s:%d: %w", host, port, err)
	}

	return &Index{
		client:          client,
		collection:      cfg.Collection,
		chunkCollection: cfg.Collection + "_chunks",
		dims:            cfg.Dims,
		logger:          logger,
	}, nil
}

// EnsureCollections creates the decision and chunk collections if they
// don't already exist, with HNSW parameters tuned for 1024-dim cosine
// similarity (spec §4.4 "Storage").
func (q *Index) EnsureCollections(ctx context.Context) error {
	for _, name := range []string{q.collection, q.chunkCollection} {
		if err := q.ensureCollection(ctx, name); err != nil {
			return err
		}
	}
	keywordType := qdrant.FieldType_FieldTypeKeyword
	if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      "language",
		FieldType:      &keywordType,
	}); err != nil {
		return fmt.Errorf("qdrant: create index on language: %w", err)
	}
	return nil
}

func (q *Index) ensureCollection(ctx context.Context, name string) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: check collection %q exists: %w", name, err)
	}
	if exists {
		q.logger.Info("qdrant: collection already exists", "collection", name)
		return nil
	}

	m := uint64(16)
	efConstruct := uint64(128)
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.dims,
			Distance: qdrant.Distance_Cosine,
			HnswConfig: &qdrant.HnswConfigDiff{
				M:           &m,
				EfConstruct: &efConstruct,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %q: %w", name, err)
	}
	q.logger.Info("qdrant: created collection", "collection", name, "dims", q.dims)
	return nil
}

// WriteDecision implements embed.Writer: upserts the decision vector
// (payload carries decision_id and language) plus its chunk vectors
// (payload carries chunk_id and the parent decision_id).
func (q *Index) WriteDecision(ctx context.Context, v embed.Vectorized) error {
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      pointID(v.DecisionID),
			Vectors: qdrant.NewVectorsDense(v.Vector),
			Payload: qdrant.NewValueMap(map[string]any{
				"decision_id": v.DecisionID,
				"language":    v.Language,
			}),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert decision %s: %w", v.DecisionID, err)
	}

	if len(v.Chunks) == 0 {
		return nil
	}
	chunkPoints := make([]*qdrant.PointStruct, len(v.Chunks))
	for i, c := range v.Chunks {
		chunkPoints[i] = &qdrant.PointStruct{
			Id:      pointID(c.ChunkID),
			Vectors: qdrant.NewVectorsDense(c.Vector),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":    c.ChunkID,
				"decision_id": v.DecisionID,
			}),
		}
	}
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.chunkCollection,
		Wait:           qdrant.PtrOf(true),
		Points:         chunkPoints,
	}); err != nil {
		return fmt.Errorf("qdrant: upsert chunks for %s: %w", v.DecisionID, err)
	}
	return nil
}

// Neighbor is one KNN result, matching vectorstore.Neighbor's shape so
// callers can treat both backends interchangeably.
type Neighbor struct {
	DecisionID string
	Distance   float64
}

// Search performs cosine KNN scoped to a language partition. It over-fetches
// k*3 points (grounded on the teacher's over-fetch pattern) but returns at
// most k: the first k points, in Qdrant's order, that carry a decision_id
// payload.
func (q *Index) Search(ctx context.Context, language string, query []float32, k int) ([]Neighbor, error) {
	fetchLimit := uint64(k) * 3

	var filter *qdrant.Filter
	if language != "" {
		filter = &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch("language", language)}}
	}

	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(query),
		Filter:         filter,
		Limit:          &fetchLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}

	out := make([]Neighbor, 0, len(scored))
	for _, sp := range scored {
		decisionID, ok := stringPayload(sp.Payload, "decision_id")
		if !ok {
			q.logger.Warn("qdrant: point missing decision_id payload")
			continue
		}
		// Qdrant scores cosine similarity; 1-score is the cosine distance
		// (lower is closer), matching vectorstore.Neighbor.Distance.
		out = append(out, Neighbor{DecisionID: decisionID, Distance: 1 - float64(sp.Score)})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func stringPayload(payload map[string]*qdrant.Value, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.Kind.(*qdrant.Value_StringValue)
	if !ok {
		return "", false
	}
	return s.StringValue, true
}

// DeleteByDecisionIDs removes decision points (and leaves chunk cleanup to
// the caller, since chunk_id isn't derivable from decision_id alone).
func (q *Index) DeleteByDecisionIDs(ctx context.Context, decisionIDs []string) error {
	if len(decisionIDs) == 0 {
		return nil
	}
	ids := make([]*qdrant.PointId, len(decisionIDs))
	for i, id := range decisionIDs {
		ids[i] = pointID(id)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: ids},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete %d decisions: %w", len(decisionIDs), err)
	}
	return nil
}

// Healthy returns nil if Qdrant is reachable. Results are cached for 5
// seconds to avoid hammering the health endpoint on every search request.
func (q *Index) Healthy(ctx context.Context) error {
	q.healthMu.Lock()
	defer q.healthMu.Unlock()

	if time.Since(q.lastCheck) < 5*time.Second {
		return q.lastErr
	}

	_, err := q.client.HealthCheck(ctx)
	q.lastCheck = time.Now()
	if err != nil {
		q.lastErr = fmt.Errorf("qdrant: unhealthy: %w", err)
	} else {
		q.lastErr = nil
	}
	return q.lastErr
}

// Close shuts down the gRPC connection.
func (q *Index) Close() error {
	return q.client.Close()
}
