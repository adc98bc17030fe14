package mcp

import (
	"context"
	"fmt"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/store"
	"github.com/jura-stack/jura/internal/sysinfo"
)

func statsFilterFromRequest(request mcplib.CallToolRequest) store.StatsFilter {
	return store.StatsFilter{
		Court:  request.GetString("court", ""),
		Canton: request.GetString("canton", ""),
		Year:   request.GetString("year", ""),
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcplib.NewTool("search_decisions",
			mcplib.WithDescription(`Search the corpus of Swiss court decisions by free-text query, with
optional filters. Runs hybrid lexical + vector retrieval when an embedding
backend is configured, otherwise falls back to FTS5 lexical search with a
BM25-based rerank. Returns a ranked result list (spec search result shape).`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("query",
				mcplib.Description("Free-text query, in German, French, Italian, or a mix of legal terms and case references."),
				mcplib.Required(),
			),
			mcplib.WithString("court", mcplib.Description("Restrict to one court code, e.g. \"bger\".")),
			mcplib.WithString("canton", mcplib.Description("Restrict to one canton code, e.g. \"ZH\".")),
			mcplib.WithString("language", mcplib.Description("Restrict to one language: de, fr, it, or rm.")),
			mcplib.WithString("date_from", mcplib.Description("Only decisions on or after this ISO date.")),
			mcplib.WithString("date_to", mcplib.Description("Only decisions before this ISO date (exclusive).")),
			mcplib.WithString("decision_type", mcplib.Description("Restrict to one decision type, e.g. \"urteil\".")),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum number of results to return."),
				mcplib.Min(1), mcplib.Max(200), mcplib.DefaultNumber(20),
			),
		),
		s.handleSearchDecisions,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_decision",
			mcplib.WithDescription(`Fetch one full decision record. decision_id may be the canonical
decision_id, an exact docket number, or a partial docket — the first
matching record is returned, checked in that order.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("decision_id",
				mcplib.Description("Canonical decision_id, a docket number, or a partial docket."),
				mcplib.Required(),
			),
		),
		s.handleGetDecision,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("list_courts",
			mcplib.WithDescription("List every court code present in the corpus with its decision count."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.handleListCourts,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_statistics",
			mcplib.WithDescription(`Aggregate counts over the corpus: total decisions, a breakdown by
court and by language, and the overall decision-date range. Optionally
narrowed to one court, canton, and/or year.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("court", mcplib.Description("Restrict to one court code.")),
			mcplib.WithString("canton", mcplib.Description("Restrict to one canton code.")),
			mcplib.WithString("year", mcplib.Description("Restrict to one four-digit decision year, e.g. \"2023\".")),
		),
		s.handleGetStatistics,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("find_appeal_chain",
			mcplib.WithDescription(`Walk the reference graph bidirectionally over prior-instance edges
starting at decision_id: downward to the lower-instance decisions it cites
as its own prior history, and upward to decisions that cite it as theirs.
Returns the connected chain sorted by decision_date ascending. If no
reference graph was built for this corpus, returns an error rather than
failing the whole call.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("decision_id",
				mcplib.Description("The decision_id to start the traversal from."),
				mcplib.Required(),
			),
		),
		s.handleFindAppealChain,
	)
}

func (s *Server) handleSearchDecisions(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return errorResult("query is required"), nil
	}
	filters := model.SearchFilters{
		Court:        request.GetString("court", ""),
		Canton:       request.GetString("canton", ""),
		Language:     request.GetString("language", ""),
		DecisionType: request.GetString("decision_type", ""),
		DateFrom:     request.GetString("date_from", ""),
		DateTo:       request.GetString("date_to", ""),
	}
	limit := request.GetInt("limit", 20)

	results, err := s.searcher.Search(ctx, query, filters, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("search failed: %v", err)), nil
	}
	return textResult(map[string]any{"total": len(results), "results": results})
}

func (s *Server) handleGetDecision(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	decisionID := request.GetString("decision_id", "")
	if decisionID == "" {
		return errorResult("decision_id is required"), nil
	}
	d, err := s.store.Resolve(ctx, decisionID)
	if err != nil {
		return errorResult(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if d == nil {
		return errorResult(fmt.Sprintf("no decision found matching %q", decisionID)), nil
	}
	return textResult(d)
}

func (s *Server) handleListCourts(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	courts, err := s.store.ListCourts(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("list_courts failed: %v", err)), nil
	}
	return textResult(courts)
}

func (s *Server) handleGetStatistics(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	filter := statsFilterFromRequest(request)
	stats, err := s.store.Statistics(ctx, filter)
	if err != nil {
		return errorResult(fmt.Sprintf("get_statistics failed: %v", err)), nil
	}

	payload := map[string]any{
		"total_decisions": stats.TotalDecisions,
		"by_court":        stats.ByCourt,
		"by_language":     stats.ByLanguage,
		"date_range_from": stats.DateRangeFrom,
		"date_range_to":   stats.DateRangeTo,
	}
	if snap, err := sysinfo.Collect(ctx, s.outputDir, 200*time.Millisecond); err != nil {
		s.logger.Warn("get_statistics: resource sampling failed", "error", err)
	} else {
		payload["resource_usage"] = snap
	}
	return textResult(payload)
}

func (s *Server) handleFindAppealChain(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	decisionID := request.GetString("decision_id", "")
	if decisionID == "" {
		return errorResult("decision_id is required"), nil
	}
	if s.graphDB == nil {
		return textResult(map[string]any{"error": "reference graph not available"})
	}
	chain, err := s.graphDB.AppealChain(ctx, decisionID)
	if err != nil {
		return errorResult(fmt.Sprintf("find_appeal_chain failed: %v", err)), nil
	}
	return textResult(map[string]any{"decision_id": decisionID, "chain": chain})
}
