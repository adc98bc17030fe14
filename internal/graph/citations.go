package graph

import (
	"context"
	"database/sql"
	"fmt"
)

// CitationEdge is one entry in the outgoing/incoming lists returned by
// Citations (spec §6 "GET /citations/{id}"). TargetDecisionID, MatchType and
// ConfidenceScore are only set once resolution has matched the raw
// target_ref against a decision in the corpus; an unresolved citation still
// carries target_ref/target_type/mention_count. In the incoming list,
// TargetDecisionID holds the citing (source) decision's id. WeightedMentionCount is
// mention_count scaled by confidence_score, letting a caller rank edges by
// evidence strength rather than raw repetition alone.
type CitationEdge struct {
	TargetRef            string  `json:"target_ref"`
	TargetType           string  `json:"target_type"`
	TargetDecisionID     string  `json:"target_decision_id,omitempty"`
	MatchType            string  `json:"match_type,omitempty"`
	MentionCount         int     `json:"mention_count"`
	ConfidenceScore      float64 `json:"confidence_score,omitempty"`
	WeightedMentionCount float64 `json:"weighted_mention_count,omitempty"`
}

// Citations returns the outgoing (this decision cites others) and incoming
// (other decisions cite this one) edges for decisionID, each capped to
// limit, ordered by mention_count descending. Where a target_ref resolved
// to more than one decision (spec §4.6), only the highest-confidence
// candidate is reported.
func (db *DB) Citations(ctx context.Context, decisionID string, limit int) (outgoing, incoming []CitationEdge, err error) {
	if limit <= 0 {
		limit = 200
	}

	outgoing, err = db.outgoingCitations(ctx, decisionID, limit)
	if err != nil {
		return nil, nil, err
	}
	incoming, err = db.incomingCitations(ctx, decisionID, limit)
	if err != nil {
		return nil, nil, err
	}
	return outgoing, incoming, nil
}

func (db *DB) outgoingCitations(ctx context.Context, decisionID string, limit int) ([]CitationEdge, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT dc.target_ref, dc.target_type, dc.mention_count,
			bc.target_decision_id, bc.match_type, bc.confidence_score
		FROM decision_citations dc
		LEFT JOIN (
			SELECT ct.source_decision_id, ct.target_ref, ct.target_decision_id, ct.match_type, ct.confidence_score
			FROM citation_targets ct
			WHERE ct.confidence_score = (
				SELECT MAX(ct2.confidence_score) FROM citation_targets ct2
				WHERE ct2.source_decision_id = ct.source_decision_id AND ct2.target_ref = ct.target_ref
			)
		) bc ON bc.source_decision_id = dc.source_decision_id AND bc.target_ref = dc.target_ref
		WHERE dc.source_decision_id = ?
		ORDER BY dc.mention_count DESC
		LIMIT ?`, decisionID, limit)
	if err != nil {
		return nil, fmt.Errorf("graph: outgoing citations: %w", err)
	}
	defer rows.Close()
	return scanCitationEdges(rows)
}

func (db *DB) incomingCitations(ctx context.Context, decisionID string, limit int) ([]CitationEdge, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT dc.target_ref, dc.target_type, dc.mention_count,
			dc.source_decision_id, ct.match_type, ct.confidence_score
		FROM citation_targets ct
		JOIN decision_citations dc
			ON dc.source_decision_id = ct.source_decision_id AND dc.target_ref = ct.target_ref
		WHERE ct.target_decision_id = ?
		  AND ct.confidence_score = (
			SELECT MAX(ct2.confidence_score) FROM citation_targets ct2
			WHERE ct2.source_decision_id = ct.source_decision_id AND ct2.target_ref = ct.target_ref
		  )
		ORDER BY dc.mention_count DESC
		LIMIT ?`, decisionID, limit)
	if err != nil {
		return nil, fmt.Errorf("graph: incoming citations: %w", err)
	}
	defer rows.Close()
	return scanCitationEdges(rows)
}

func scanCitationEdges(rows *sql.Rows) ([]CitationEdge, error) {
	var out []CitationEdge
	for rows.Next() {
		var e CitationEdge
		var targetDecisionID, matchType sql.NullString
		var confidence sql.NullFloat64
		if err := rows.Scan(&e.TargetRef, &e.TargetType, &e.MentionCount, &targetDecisionID, &matchType, &confidence); err != nil {
			return nil, fmt.Errorf("graph: scan citation edge: %w", err)
		}
		e.TargetDecisionID = targetDecisionID.String
		e.MatchType = matchType.String
		if confidence.Valid {
			e.ConfidenceScore = confidence.Float64
			e.WeightedMentionCount = float64(e.MentionCount) * confidence.Float64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
