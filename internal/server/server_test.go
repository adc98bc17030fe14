package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jura-stack/jura/internal/graph"
	"github.com/jura-stack/jura/internal/mcp"
	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/store"
	"github.com/jura-stack/jura/migrations"
)

type stubSearcher struct {
	results []model.SearchResult
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.SearchResult, error) {
	return s.results, s.err
}

func newTestServer(t *testing.T, gdb *graph.DB) (*Server, *store.DB) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := store.Open(t.TempDir()+"/decisions.db", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))

	srv := New(Config{
		DB:            db,
		Searcher:      &stubSearcher{},
		SearchBackend: "fts5",
		GraphDB:       gdb,
		Logger:        logger,
		BindAddr:      "127.0.0.1:0",
		OutputDir:     t.TempDir(),
	})
	return srv, db
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var out struct {
		Data any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	data, ok := out.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %#v", out.Data)
	return data
}

func TestHandleHealth_ReportsBackendAndGraphStatus(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "fts5", data["search_backend"])
	assert.Equal(t, "not_built", data["graph_db"])
}

func TestHandleSearch_RequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch_ReturnsSearcherResults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := store.Open(t.TempDir()+"/decisions.db", logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))

	srv := New(Config{
		DB:            db,
		Searcher:      &stubSearcher{results: []model.SearchResult{{DecisionID: "d1", Court: "bger"}}},
		SearchBackend: "fts5",
		Logger:        logger,
		BindAddr:      "127.0.0.1:0",
	})

	body, _ := json.Marshal(searchRequest{Query: "Unterhalt"})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, float64(1), data["total"])
}

func TestHandleGetDecision_ResolvesByDocketAndReturns404(t *testing.T) {
	srv, db := newTestServer(t, nil)
	d := &model.Decision{
		Court: "bger", Canton: "CH", DocketNumber: "1A_1/2020", Language: "de",
		FullText: "text", SourceURL: "https://example.org/1", ScrapedAt: time.Now(),
	}
	_, err := db.Insert(context.Background(), d)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/decision/1A_1/2020", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, d.DecisionID, data["decision_id"])

	req = httptest.NewRequest(http.MethodGet, "/decision/nonexistent", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCitations_NoGraphDBReturns404(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/citations/d1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCitations_WithGraphDB(t *testing.T) {
	gdb, err := graph.Open(t.TempDir() + "/reference_graph.db")
	require.NoError(t, err)
	defer gdb.Close()

	srv, _ := newTestServer(t, gdb)
	req := httptest.NewRequest(http.MethodGet, "/citations/d1?limit=50", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "d1", data["decision_id"])
	assert.Nil(t, data["outgoing"])
	assert.Nil(t, data["incoming"])
}

func TestHandleStatute_NoGraphDBReturns404(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/statute/ZGB/8", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatute_WithGraphDBReturnsEmptyResults(t *testing.T) {
	gdb, err := graph.Open(t.TempDir() + "/reference_graph.db")
	require.NoError(t, err)
	defer gdb.Close()

	srv, _ := newTestServer(t, gdb)
	req := httptest.NewRequest(http.MethodGet, "/statute/ZGB/8", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "ZGB", data["law_code"])
	assert.Nil(t, data["results"])
}

func TestMCPMount_RoutesToStreamableHTTPTransport(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := store.Open(t.TempDir()+"/decisions.db", logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))

	mcpSrv := mcp.New(db, &stubSearcher{}, nil, logger, "test", "")
	srv := New(Config{
		DB:            db,
		Searcher:      &stubSearcher{},
		SearchBackend: "fts5",
		MCPServer:     mcpSrv.MCPServer(),
		Logger:        logger,
		BindAddr:      "127.0.0.1:0",
	})

	// A bare GET against the streamable-HTTP endpoint isn't a valid MCP
	// request, but it proves the route is mounted: an unmounted path would
	// 404 out of the top-level mux, while the mounted transport answers
	// with its own (non-404) response to a malformed request.
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware_CatchesPanicAsFiveHundred(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	var panicking http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}
	h := recoveryMiddleware(logger)(panicking)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
