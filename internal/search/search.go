package search

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jura-stack/jura/internal/embed"
	"github.com/jura-stack/jura/internal/model"
)

// knownLanguages mirrors the vectorstore partition set; used to fan a
// language-less query out across every partition.
var knownLanguages = []string{"de", "fr", "it", "rm", "other"}

const vectorKNNCandidates = 200

// VectorNeighbor is one KNN hit, shaped identically to vectorstore.Neighbor
// and qdrant.Neighbor so either backend's results can be adapted into it
// without this package importing either concrete store.
type VectorNeighbor struct {
	DecisionID string
	Distance   float64
}

// VectorSearcher is satisfied by an adapter over vectorstore.Index or
// qdrant.Index (spec §4.4 "embedder.Searcher has two implementations");
// the composition root wires the concrete backend in.
type VectorSearcher interface {
	Search(ctx context.Context, language string, query []float32, k int) ([]VectorNeighbor, error)
}

// Engine is the query planner and search executor (spec §4.5). The vector
// searcher and embed provider are optional: nil disables the hybrid path
// and Engine falls back to FTS5-only lexical search with BM25 rerank.
type Engine struct {
	db       *sql.DB
	vector   VectorSearcher
	provider embed.Provider
	logger   *slog.Logger
}

func NewEngine(db *sql.DB, vector VectorSearcher, provider embed.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{db: db, vector: vector, provider: provider, logger: logger}
}

// Search runs the full query-planning pipeline: intent detection, filter
// composition, lexical retrieval (with BM25 rerank or RRF fusion against a
// vector leg), and result shaping (spec §4.5).
func (e *Engine) Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	intent := DetectIntent(query)

	k := 3 * limit
	if e.vector != nil && e.provider != nil {
		k = rrfWindowSize
	}
	lexCandidates, err := e.queryFTS(ctx, query, intent, filters, k)
	if err != nil {
		return nil, fmt.Errorf("search: lexical query: %w", err)
	}

	if e.vector == nil || e.provider == nil || strings.TrimSpace(query) == "" {
		top := rerank(query, lexCandidates, limit)
		return e.shapeRerank(top), nil
	}

	vecs, err := e.provider.EmbedBatch(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		e.logger.Warn("search: query embedding failed, falling back to lexical-only", "error", err)
		top := rerank(query, lexCandidates, limit)
		return e.shapeRerank(top), nil
	}

	vectorRanked, err := e.vectorRank(ctx, vecs[0], filters.Language)
	if err != nil {
		e.logger.Warn("search: vector leg failed, falling back to lexical-only", "error", err)
		top := rerank(query, lexCandidates, limit)
		return e.shapeRerank(top), nil
	}

	lexicalRanked := make([]string, len(lexCandidates))
	byID := make(map[string]candidate, len(lexCandidates))
	for i, c := range lexCandidates {
		lexicalRanked[i] = c.decisionID
		byID[c.decisionID] = c
	}

	fused := rrfFuse(lexicalRanked, vectorRanked)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return e.hydrateFused(ctx, fused, byID)
}

func (e *Engine) vectorRank(ctx context.Context, queryVector []float32, language string) ([]string, error) {
	k := vectorKNNCandidates
	if rrfWindowSize < k {
		k = rrfWindowSize
	}

	languages := knownLanguages
	if language != "" {
		languages = []string{strings.ToLower(language)}
	}

	type hit struct {
		id       string
		distance float64
	}
	var hits []hit
	for _, lang := range languages {
		neighbors, err := e.vector.Search(ctx, lang, queryVector, k)
		if err != nil {
			return nil, fmt.Errorf("vector search partition %s: %w", lang, err)
		}
		for _, n := range neighbors {
			hits = append(hits, hit{id: n.DecisionID, distance: n.Distance})
		}
	}

	// Sort by ascending distance (closer is better) and cap to the RRF window.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j-1].distance > hits[j].distance; j-- {
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}
	if len(hits) > rrfWindowSize {
		hits = hits[:rrfWindowSize]
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids, nil
}

func (e *Engine) shapeRerank(scored []scoredCandidate) []model.SearchResult {
	out := make([]model.SearchResult, len(scored))
	for i, s := range scored {
		out[i] = candidateToResult(s.candidate, s.relevance)
	}
	return out
}

// hydrateFused looks up full rows for any fused decision_id not already
// carried by the lexical candidate set (pure-vector hits), then shapes the
// final result list, preserving fused order as the relevance ranking.
func (e *Engine) hydrateFused(ctx context.Context, ids []string, byID map[string]candidate) ([]model.SearchResult, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		rows, err := e.fetchByID(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, c := range rows {
			byID[c.decisionID] = c
		}
	}

	out := make([]model.SearchResult, 0, len(ids))
	for i, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		rank := float64(len(ids) - i)
		out = append(out, candidateToResult(c, rank))
	}
	return out, nil
}

func candidateToResult(c candidate, relevance float64) model.SearchResult {
	r := model.SearchResult{
		DecisionID:     c.decisionID,
		Court:          c.court,
		Canton:         c.canton,
		DocketNumber:   c.docketNumber,
		DecisionDate:   c.decisionDate,
		Language:       c.language,
		Title:          c.title,
		Regeste:        c.regeste,
		LegalArea:      c.legalArea,
		SourceURL:      c.sourceURL,
		PDFURL:         c.pdfURL,
		RelevanceScore: relevance,
	}
	highlight := map[string][]string{}
	if strings.Contains(c.titleHL, "<mark>") {
		highlight["title"] = []string{c.titleHL}
	}
	if strings.Contains(c.regesteHL, "<mark>") {
		highlight["regeste"] = []string{c.regesteHL}
	}
	if strings.Contains(c.fullTextHL, "<mark>") {
		highlight["full_text"] = []string{c.fullTextHL}
	}
	if len(highlight) > 0 {
		r.Highlight = highlight
	}
	return r
}
