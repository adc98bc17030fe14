// Package mcp exposes the retrieval core's read paths as a Model Context
// Protocol tool-calling API (spec §4.8), grounded on the teacher's
// internal/mcp package: server bootstrap and tool registration shape,
// rebuilt around this module's
// five read-only tools instead of the teacher's decision-audit-trail set.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jura-stack/jura/internal/graph"
	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/store"
)

const serverInstructions = `This server gives an LLM orchestrator read-only access to a corpus of
Swiss court decisions: full-text and hybrid search, single-record lookup,
court/statistics rollups, and appeal-chain (prior-instance) traversal.

Typical flow: call search_decisions to find candidates, get_decision to pull
a full record by its decision_id (a docket number or partial docket also
works), and find_appeal_chain to walk a case's lower-instance history.
list_courts and get_statistics answer corpus-shape questions without a
search. Every tool is pure with respect to the underlying stores — none of
them mutate anything — and every optional argument has a sensible default
when omitted.`

// Searcher is satisfied by *search.Engine; declared locally so this package
// does not need to import internal/search just to name the method it calls.
type Searcher interface {
	Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.SearchResult, error)
}

// Server wraps the MCP protocol server and the read-only stores backing
// its five tools (spec §4.8). graphDB is optional: a nil value means no
// reference graph was built, and find_appeal_chain degrades to the spec
// §4.7 "not available" error shape rather than panicking.
type Server struct {
	mcpServer *mcpserver.MCPServer
	store     *store.DB
	searcher  Searcher
	graphDB   *graph.DB
	logger    *slog.Logger
	outputDir string // non-empty enables disk-usage sampling in get_statistics
}

// New builds the MCP server and registers its tools. outputDir is the
// persisted-state root (spec §6); pass "" to skip disk-usage sampling in
// get_statistics.
func New(db *store.DB, searcher Searcher, graphDB *graph.DB, logger *slog.Logger, version, outputDir string) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{store: db, searcher: searcher, graphDB: graphDB, logger: logger, outputDir: outputDir}
	s.mcpServer = mcpserver.NewMCPServer(
		"jura", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithInstructions(serverInstructions),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server so the HTTP layer can
// mount it (e.g. via mcpserver.NewStreamableHTTPServer).
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

// textResult marshals payload as indented JSON and wraps it as a single
// text content block, the shape every tool handler below returns on success.
func textResult(payload any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResult("marshal response: " + err.Error()), nil
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}
