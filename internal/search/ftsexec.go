package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/jura-stack/jura/internal/model"
)

// queryFTS retrieves up to k BM25-ranked candidates for query under intent,
// constrained by filters. If the shaped match expression fails to parse
// (spec §4.5 "On FTS5 parse failure, it falls back to a plain tokenized OR
// query"), it retries once with plainTokenizedOR.
func (e *Engine) queryFTS(ctx context.Context, query string, intent Intent, filters model.SearchFilters, k int) ([]candidate, error) {
	matchExpr := buildMatchExpr(intent, query)
	if matchExpr == "" {
		return nil, nil
	}

	rows, err := e.execFTS(ctx, matchExpr, intent, filters, k)
	if err != nil {
		fallback := plainTokenizedOR(query)
		if fallback == "" || fallback == matchExpr {
			return nil, fmt.Errorf("fts5 query failed and no fallback available: %w", err)
		}
		e.logger.Warn("search: fts5 query failed, retrying with plain tokenized OR", "error", err)
		rows, err = e.execFTS(ctx, fallback, intent, filters, k)
		if err != nil {
			return nil, fmt.Errorf("fts5 fallback query failed: %w", err)
		}
	}
	return rows, nil
}

func (e *Engine) execFTS(ctx context.Context, matchExpr string, intent Intent, filters model.SearchFilters, k int) ([]candidate, error) {
	clauses := composeFilters(filters)
	var where strings.Builder
	where.WriteString("decisions_fts MATCH ?")
	args := []any{matchExpr}
	for _, c := range clauses {
		where.WriteString(" AND ")
		where.WriteString(c.sql)
		args = append(args, c.arg)
	}
	args = append(args, k)

	query := fmt.Sprintf(`
		SELECT d.decision_id, d.court, d.canton, d.docket_number, d.decision_date,
		       d.language, d.title, d.regeste, d.legal_area, d.source_url, d.pdf_url, d.full_text,
		       highlight(decisions_fts, 5, '<mark>', '</mark>'),
		       highlight(decisions_fts, 6, '<mark>', '</mark>'),
		       snippet(decisions_fts, 7, '<mark>', '</mark>', '…', 10)
		FROM decisions_fts
		JOIN decisions d ON d.rowid = decisions_fts.rowid
		WHERE %s
		ORDER BY bm25(decisions_fts, %s)
		LIMIT ?`, where.String(), bm25Args(intent))

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.decisionID, &c.court, &c.canton, &c.docketNumber, &c.decisionDate,
			&c.language, &c.title, &c.regeste, &c.legalArea, &c.sourceURL, &c.pdfURL, &c.fullText,
			&c.titleHL, &c.regesteHL, &c.fullTextHL); err != nil {
			return nil, err
		}
		c.bm25Rank = len(out)
		out = append(out, c)
	}
	return out, rows.Err()
}

// fetchByID loads full rows for decision IDs that matched only on the
// vector leg of a hybrid query (no BM25 rank; bm25Rank is left at 0 since
// these rows never entered lexical reranking).
func (e *Engine) fetchByID(ctx context.Context, ids []string) ([]candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT decision_id, court, canton, docket_number, decision_date,
		       language, title, regeste, legal_area, source_url, pdf_url, full_text
		FROM decisions
		WHERE decision_id IN (%s)`, placeholders)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.decisionID, &c.court, &c.canton, &c.docketNumber, &c.decisionDate,
			&c.language, &c.title, &c.regeste, &c.legalArea, &c.sourceURL, &c.pdfURL, &c.fullText); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
