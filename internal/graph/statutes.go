package graph

import (
	"context"
	"fmt"
	"strings"
)

// StatuteDecision is one row of the statute-mention listing returned by
// StatuteDecisions (spec §6 "GET /statute/{law_code}/{article}").
type StatuteDecision struct {
	DecisionID   string `json:"decision_id"`
	Court        string `json:"court"`
	DocketNumber string `json:"docket_number"`
	DecisionDate string `json:"decision_date,omitempty"`
	MentionCount int    `json:"mention_count"`
}

// StatuteDecisions returns every decision mentioning lawCode/article,
// ordered by mention count descending then decision date descending,
// capped to limit. paragraph is not part of the route's path and is
// ignored: a lookup by article alone aggregates across every paragraph
// variant recorded under it.
func (db *DB) StatuteDecisions(ctx context.Context, lawCode, article string, limit int) ([]StatuteDecision, error) {
	if limit <= 0 {
		limit = 200
	}
	lawCode = strings.ToUpper(strings.TrimSpace(lawCode))
	article = strings.ToLower(strings.TrimSpace(article))

	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.decision_id, d.court, d.docket_number, d.decision_date, ds.mention_count
		FROM decision_statutes ds
		JOIN statutes s ON s.statute_id = ds.statute_id
		JOIN decisions d ON d.decision_id = ds.decision_id
		WHERE s.law_code = ? AND s.article = ?
		ORDER BY ds.mention_count DESC, d.decision_date DESC
		LIMIT ?`, lawCode, article, limit)
	if err != nil {
		return nil, fmt.Errorf("graph: statute decisions %s %s: %w", lawCode, article, err)
	}
	defer rows.Close()

	var out []StatuteDecision
	for rows.Next() {
		var s StatuteDecision
		if err := rows.Scan(&s.DecisionID, &s.Court, &s.DocketNumber, &s.DecisionDate, &s.MentionCount); err != nil {
			return nil, fmt.Errorf("graph: scan statute decision: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
