package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jura-stack/jura/internal/graph"
	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/store"
	"github.com/jura-stack/jura/migrations"
)

// stubSearcher satisfies Searcher with canned results, so search_decisions
// tests don't need a real FTS index.
type stubSearcher struct {
	results []model.SearchResult
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.SearchResult, error) {
	return s.results, s.err
}

func newTestServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := store.Open(t.TempDir()+"/decisions.db", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))

	s := New(db, &stubSearcher{}, nil, logger, "test", t.TempDir())
	return s, db
}

func toolRequest(args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Arguments: args},
	}
}

func decodeResult(t *testing.T, result *mcplib.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "unexpected error result")
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestHandleSearchDecisions_RequiresQuery(t *testing.T) {
	s, _ := newTestServer(t)
	result, err := s.handleSearchDecisions(context.Background(), toolRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSearchDecisions_ReturnsSearcherResults(t *testing.T) {
	s, _ := newTestServer(t)
	s.searcher = &stubSearcher{results: []model.SearchResult{{DecisionID: "d1", Court: "bger"}}}

	result, err := s.handleSearchDecisions(context.Background(), toolRequest(map[string]any{"query": "Unterhalt"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, float64(1), out["total"])
}

func TestHandleGetDecision_ResolvesByDocket(t *testing.T) {
	s, db := newTestServer(t)
	d := &model.Decision{
		Court: "bger", Canton: "CH", DocketNumber: "1A_1/2020", Language: "de",
		FullText: "text", SourceURL: "https://example.org/1", ScrapedAt: time.Now(),
	}
	_, err := db.Insert(context.Background(), d)
	require.NoError(t, err)

	result, err := s.handleGetDecision(context.Background(), toolRequest(map[string]any{"decision_id": "1A_1/2020"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, d.DecisionID, out["decision_id"])
}

func TestHandleGetDecision_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	result, err := s.handleGetDecision(context.Background(), toolRequest(map[string]any{"decision_id": "nonexistent"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleListCourts_ReturnsEmptyOnNewStore(t *testing.T) {
	s, _ := newTestServer(t)
	result, err := s.handleListCourts(context.Background(), toolRequest(map[string]any{}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	text := result.Content[0].(mcplib.TextContent).Text
	assert.Equal(t, "null", text)
}

func TestHandleGetStatistics_AppliesFilters(t *testing.T) {
	s, db := newTestServer(t)
	_, err := db.Insert(context.Background(), &model.Decision{
		Court: "bger", Canton: "CH", DocketNumber: "1A_1/2020", Language: "de", DecisionDate: "2020-01-01",
		FullText: "text", SourceURL: "https://example.org/1", ScrapedAt: time.Now(),
	})
	require.NoError(t, err)

	result, err := s.handleGetStatistics(context.Background(), toolRequest(map[string]any{"court": "bger"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, float64(1), out["total_decisions"])

	result, err = s.handleGetStatistics(context.Background(), toolRequest(map[string]any{"court": "zh_og"}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, float64(0), out["total_decisions"])
}

func TestHandleFindAppealChain_NoGraphDBReturnsErrorPayloadWithoutRaising(t *testing.T) {
	s, _ := newTestServer(t)
	result, err := s.handleFindAppealChain(context.Background(), toolRequest(map[string]any{"decision_id": "d1"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "reference graph not available", out["error"])
}

func TestHandleFindAppealChain_WithGraphDB(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := store.Open(t.TempDir()+"/decisions.db", logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))

	gdb, err := graph.Open(t.TempDir() + "/reference_graph.db")
	require.NoError(t, err)
	defer gdb.Close()

	s := New(db, &stubSearcher{}, gdb, logger, "test", t.TempDir())
	result, err := s.handleFindAppealChain(context.Background(), toolRequest(map[string]any{"decision_id": "d1"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "d1", out["decision_id"])
	assert.Nil(t, out["chain"])
}
