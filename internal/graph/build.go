package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jura-stack/jura/internal/extract"
	"github.com/jura-stack/jura/internal/model"
)

// Stats is the JSON stats summary the build-graph CLI subcommand emits
// (spec §6).
type Stats struct {
	DBPath                 string   `json:"db_path"`
	SourceDB               string   `json:"source_db,omitempty"`
	CourtsFilter           []string `json:"courts_filter"`
	DecisionsIngested      int      `json:"decisions_ingested_lines"`
	StatuteEdgesIngested   int      `json:"statute_edges_ingested"`
	CitationEdgesIngested  int      `json:"citation_edges_ingested"`
	DecisionsTotal         int      `json:"decisions_total"`
	StatutesTotal          int      `json:"statutes_total"`
	CitationsTotal         int      `json:"citations_total"`
	CitationsResolved      int      `json:"citations_resolved"`
	CitationTargetLinks    int      `json:"citation_target_links"`
	PriorInstanceLinks     int      `json:"prior_instance_links"`
}

// sourceRow is the subset of a Decision the graph builder needs, whichever
// source it is read from.
type sourceRow struct {
	DecisionID   string
	DocketNumber string
	Court        string
	Canton       string
	Language     string
	DecisionDate string
	Title        string
	Regeste      string
	FullText     string
}

// RowSource yields decision rows in the order the spec's concurrency model
// requires (§5 "Reference-graph resolution processes rows in
// (source_decision_id, target_ref) order"): insertion order here, one at a
// time, so callers never have to buffer the whole corpus in memory.
type RowSource interface {
	Next(ctx context.Context) (sourceRow, bool, error)
}

// BuildOptions configures one graph build (spec §6 "build-graph").
type BuildOptions struct {
	DBPath string
	Limit  int
}

// BuildGraph extracts statutes, citations and prior-instance edges from every
// row in source, writes them to a fresh database, resolves citation targets,
// and atomically publishes the result at opts.DBPath (spec §4.6
// "Atomicity"). On any error the partial file is removed and any existing
// database at opts.DBPath is left untouched.
func BuildGraph(ctx context.Context, source RowSource, opts BuildOptions) (Stats, error) {
	stats := Stats{DBPath: opts.DBPath}

	if dir := filepath.Dir(opts.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, fmt.Errorf("graph: create output dir: %w", err)
		}
	}
	tmpPath := opts.DBPath + ".tmp"
	_ = os.Remove(tmpPath)

	db, err := Open(tmpPath)
	if err != nil {
		return stats, fmt.Errorf("graph: open build target: %w", err)
	}

	if err := ingest(ctx, db, source, opts.Limit, &stats); err != nil {
		db.Close()
		_ = os.Remove(tmpPath)
		return stats, err
	}

	resolved, links, err := db.resolveAll(ctx)
	if err != nil {
		db.Close()
		_ = os.Remove(tmpPath)
		return stats, err
	}
	stats.CitationsResolved = resolved
	stats.CitationTargetLinks = links

	if err := db.countTotals(ctx, &stats); err != nil {
		db.Close()
		_ = os.Remove(tmpPath)
		return stats, err
	}

	if err := db.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return stats, fmt.Errorf("graph: close build target: %w", err)
	}
	if err := os.Rename(tmpPath, opts.DBPath); err != nil {
		_ = os.Remove(tmpPath)
		return stats, fmt.Errorf("graph: publish graph db: %w", err)
	}
	return stats, nil
}

func ingest(ctx context.Context, db *DB, source RowSource, limit int, stats *Stats) error {
	for {
		row, ok, err := source.Next(ctx)
		if err != nil {
			return fmt.Errorf("graph: read source row: %w", err)
		}
		if !ok {
			break
		}
		if row.DecisionID == "" {
			continue
		}

		if err := db.upsertDecision(ctx, row.DecisionID, row.DocketNumber, row.Court, row.Canton, row.Language, row.DecisionDate); err != nil {
			return err
		}
		stats.DecisionsIngested++

		text := strings.Join([]string{row.Title, row.Regeste, row.FullText}, " ")
		priorInstance := map[string]bool{}
		for _, docket := range ExtractPriorInstance(row.FullText) {
			priorInstance[docket] = true
		}

		for _, s := range ExtractStatutes(text) {
			if err := db.upsertStatute(ctx, row.DecisionID, s.StatuteID, s.LawCode, s.Article, s.Paragraph); err != nil {
				return err
			}
			stats.StatuteEdgesIngested++
		}

		for _, c := range ExtractCitations(text) {
			if err := db.upsertCitation(ctx, row.DecisionID, c.TargetRef, c.TargetType, priorInstance[c.TargetRef]); err != nil {
				return err
			}
			stats.CitationEdgesIngested++
			if priorInstance[c.TargetRef] {
				stats.PriorInstanceLinks++
			}
		}

		if limit > 0 && stats.DecisionsIngested >= limit {
			break
		}
	}
	return nil
}

func (db *DB) resolveAll(ctx context.Context) (resolved, links int, err error) {
	docketLinks, err := db.resolveDocketCitations(ctx)
	if err != nil {
		return 0, 0, err
	}
	bgeLinks, err := db.resolveBGECitations(ctx)
	if err != nil {
		return 0, 0, err
	}

	var distinct int
	row := db.conn.QueryRowContext(ctx, `SELECT COUNT(DISTINCT source_decision_id || '|' || target_ref) FROM citation_targets`)
	if err := row.Scan(&distinct); err != nil {
		return 0, 0, fmt.Errorf("graph: count resolved refs: %w", err)
	}
	return distinct, docketLinks + bgeLinks, nil
}

func (db *DB) countTotals(ctx context.Context, stats *Stats) error {
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&stats.DecisionsTotal); err != nil {
		return fmt.Errorf("graph: count decisions: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM statutes`).Scan(&stats.StatutesTotal); err != nil {
		return fmt.Errorf("graph: count statutes: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM decision_citations`).Scan(&stats.CitationsTotal); err != nil {
		return fmt.Errorf("graph: count citations: %w", err)
	}
	var linkRows int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM citation_targets`).Scan(&linkRows); err != nil {
		return fmt.Errorf("graph: count citation targets: %w", err)
	}
	stats.CitationTargetLinks = linkRows
	return nil
}

// JSONLRowSource reads rows from *.jsonl decision logs in a directory,
// sorted by filename (spec §6 "build-graph --input DIR").
type JSONLRowSource struct {
	paths   []string
	rows    []sourceRow
	fileIdx int
	rowIdx  int
}

func NewJSONLRowSource(inputDir string) (*JSONLRowSource, error) {
	matches, err := filepath.Glob(filepath.Join(inputDir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("graph: glob %s: %w", inputDir, err)
	}
	sort.Strings(matches)
	return &JSONLRowSource{paths: matches}, nil
}

func (s *JSONLRowSource) Next(ctx context.Context) (sourceRow, bool, error) {
	for s.rowIdx >= len(s.rows) {
		if s.fileIdx >= len(s.paths) {
			return sourceRow{}, false, nil
		}
		path := s.paths[s.fileIdx]
		s.fileIdx++
		decisions, err := extract.ReadJSONL(path, nil)
		if err != nil {
			return sourceRow{}, false, fmt.Errorf("graph: read %s: %w", path, err)
		}
		s.rows = rowsFromDecisions(decisions)
		s.rowIdx = 0
	}
	row := s.rows[s.rowIdx]
	s.rowIdx++
	return row, true, nil
}

func rowsFromDecisions(decisions []model.Decision) []sourceRow {
	out := make([]sourceRow, len(decisions))
	for i, d := range decisions {
		out[i] = sourceRow{
			DecisionID:   d.DecisionID,
			DocketNumber: d.DocketNumber,
			Court:        d.Court,
			Canton:       d.Canton,
			Language:     d.Language,
			DecisionDate: d.DecisionDate,
			Title:        d.Title,
			Regeste:      d.Regeste,
			FullText:     d.FullText,
		}
	}
	return out
}
