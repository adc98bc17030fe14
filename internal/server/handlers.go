package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jura-stack/jura/internal/graph"
	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/store"
	"github.com/jura-stack/jura/internal/sysinfo"
)

// Handlers holds the HTTP handler dependencies (spec §6). graphDB is
// optional: a nil value means no reference graph was built for this corpus,
// and the graph-backed routes respond 404 with a "not available" error
// instead of panicking (spec §4.7's failure mode, carried to the HTTP
// surface; spec §7 groups a missing graph with a missing decision under the
// same 404 status).
type Handlers struct {
	db        *store.DB
	searcher  Searcher
	backend   string
	graphDB   *graph.DB
	logger    *slog.Logger
	outputDir string
	startedAt time.Time
}

func newHandlers(cfg Config) *Handlers {
	return &Handlers{
		db:        cfg.DB,
		searcher:  cfg.Searcher,
		backend:   cfg.SearchBackend,
		graphDB:   cfg.GraphDB,
		logger:    cfg.Logger,
		outputDir: cfg.OutputDir,
		startedAt: time.Now(),
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	graphStatus := "not_built"
	if h.graphDB != nil {
		graphStatus = "ready"
	}

	payload := map[string]any{
		"status":         status,
		"search_backend": h.backend,
		"graph_db":       graphStatus,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	}

	snap, err := sysinfo.Collect(r.Context(), h.outputDir, 200*time.Millisecond)
	if err != nil {
		h.logger.Warn("health: resource sampling failed", "error", err)
	} else {
		payload["resource_usage"] = snap
	}

	writeJSON(w, r, http.StatusOK, payload)
}

// searchRequest is the POST /search body (spec §6).
type searchRequest struct {
	Query          string `json:"query"`
	Court          string `json:"court,omitempty"`
	Canton         string `json:"canton,omitempty"`
	Language       string `json:"language,omitempty"`
	DateFrom       string `json:"date_from,omitempty"`
	DateTo         string `json:"date_to,omitempty"`
	DecisionType   string `json:"decision_type,omitempty"`
	LegalArea      string `json:"legal_area,omitempty"`
	Size           int    `json:"size,omitempty"`
	IncludeExplain bool   `json:"include_explain,omitempty"`
}

// HandleSearch handles POST /search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "query is required")
		return
	}
	size := req.Size
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	filters := model.SearchFilters{
		Court:        req.Court,
		Canton:       req.Canton,
		Language:     req.Language,
		DecisionType: req.DecisionType,
		LegalArea:    req.LegalArea,
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
	}

	results, err := h.searcher.Search(r.Context(), req.Query, filters, size)
	if err != nil {
		h.logger.Error("search failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "search failed")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"backend": h.backend,
		"total":   len(results),
		"results": results,
	})
}

// HandleGetDecision handles GET /decision/{id}. id is resolved the same way
// as the get_decision MCP tool: exact decision_id, then exact docket, then
// partial docket.
func (h *Handlers) HandleGetDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	d, err := h.db.Resolve(r.Context(), id)
	if err != nil {
		h.logger.Error("resolve failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "lookup failed")
		return
	}
	if d == nil {
		writeError(w, r, http.StatusNotFound, "not_found", "no decision found matching "+id)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

// HandleCitations handles GET /citations/{id}?limit=200.
func (h *Handlers) HandleCitations(w http.ResponseWriter, r *http.Request) {
	if h.graphDB == nil {
		writeError(w, r, http.StatusNotFound, "graph_not_available", "reference graph not available")
		return
	}
	id := r.PathValue("id")
	limit := parseLimit(r, 200)

	outgoing, incoming, err := h.graphDB.Citations(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("citations lookup failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "citations lookup failed")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"decision_id": id,
		"outgoing":    outgoing,
		"incoming":    incoming,
	})
}

// HandleStatute handles GET /statute/{law_code}/{article}?limit=200.
func (h *Handlers) HandleStatute(w http.ResponseWriter, r *http.Request) {
	if h.graphDB == nil {
		writeError(w, r, http.StatusNotFound, "graph_not_available", "reference graph not available")
		return
	}
	lawCode := r.PathValue("law_code")
	article := r.PathValue("article")
	limit := parseLimit(r, 200)

	decisions, err := h.graphDB.StatuteDecisions(r.Context(), lawCode, article, limit)
	if err != nil {
		h.logger.Error("statute lookup failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "statute lookup failed")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"law_code": lawCode,
		"article":  article,
		"results":  decisions,
	})
}

func parseLimit(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
