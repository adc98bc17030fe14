package graph

import (
	"context"
	"database/sql"
	"fmt"
)

// resolveDocketCitations implements spec §4.6 resolution pass 1: every
// decision_citations row with target_type='docket' joined against decisions
// on docket_norm, ranked by (decision_date DESC, decision_id ASC) within
// each (source_decision_id, target_ref) group.
func (db *DB) resolveDocketCitations(ctx context.Context) (int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			dc.source_decision_id, dc.target_ref,
			sd.court, sd.canton, sd.decision_date,
			td.decision_id, td.court, td.canton, td.decision_date,
			ROW_NUMBER() OVER (
				PARTITION BY dc.source_decision_id, dc.target_ref
				ORDER BY td.decision_date DESC, td.decision_id
			) AS candidate_rank,
			COUNT(*) OVER (
				PARTITION BY dc.source_decision_id, dc.target_ref
			) AS candidate_count
		FROM decision_citations dc
		JOIN decisions td ON td.docket_norm = dc.target_ref
		LEFT JOIN decisions sd ON sd.decision_id = dc.source_decision_id
		WHERE dc.target_type = 'docket'
		  AND td.decision_id <> dc.source_decision_id
		ORDER BY dc.source_decision_id, dc.target_ref, candidate_rank`)
	if err != nil {
		return 0, fmt.Errorf("graph: resolve docket citations: %w", err)
	}
	defer rows.Close()

	return db.insertResolvedCandidates(ctx, rows, "docket_norm")
}

// resolveBGECitations implements resolution pass 2: target_ref rows shaped
// like "BGE {vol} {div} {page}" joined against decisions whose docket_norm
// equals the suffix after "BGE ", restricted to court in (bge, bger).
func (db *DB) resolveBGECitations(ctx context.Context) (int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			dc.source_decision_id, dc.target_ref,
			sd.court, sd.canton, sd.decision_date,
			td.decision_id, td.court, td.canton, td.decision_date,
			1 AS candidate_rank, 1 AS candidate_count
		FROM decision_citations dc
		JOIN decisions td ON td.docket_norm = SUBSTR(dc.target_ref, 5)
			AND td.court IN ('bge', 'bger')
		LEFT JOIN decisions sd ON sd.decision_id = dc.source_decision_id
		WHERE dc.target_type = 'bge'
		  AND dc.target_ref LIKE 'BGE %'
		  AND td.decision_id <> dc.source_decision_id
		ORDER BY dc.source_decision_id, dc.target_ref`)
	if err != nil {
		return 0, fmt.Errorf("graph: resolve bge citations: %w", err)
	}
	defer rows.Close()

	return db.insertResolvedCandidates(ctx, rows, "bge_norm")
}

func (db *DB) insertResolvedCandidates(ctx context.Context, rows *sql.Rows, matchType string) (int, error) {
	type candidateRow struct {
		sourceDecisionID, targetRef            string
		sourceCourt, sourceCanton, sourceDate   sql.NullString
		targetDecisionID, targetCourt          sql.NullString
		targetCanton, targetDate                sql.NullString
		candidateRank, candidateCount           int
	}

	var links int
	for rows.Next() {
		var r candidateRow
		if err := rows.Scan(
			&r.sourceDecisionID, &r.targetRef,
			&r.sourceCourt, &r.sourceCanton, &r.sourceDate,
			&r.targetDecisionID, &r.targetCourt, &r.targetCanton, &r.targetDate,
			&r.candidateRank, &r.candidateCount,
		); err != nil {
			return links, fmt.Errorf("graph: scan candidate: %w", err)
		}

		confidence := citationConfidence(confidenceInput{
			sourceCourt:    r.sourceCourt.String,
			sourceCanton:   r.sourceCanton.String,
			sourceDate:     r.sourceDate.String,
			targetCourt:    r.targetCourt.String,
			targetCanton:   r.targetCanton.String,
			targetDate:     r.targetDate.String,
			targetRef:      r.targetRef,
			candidateRank:  r.candidateRank,
			candidateCount: r.candidateCount,
		})

		if _, err := db.conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO citation_targets
			(source_decision_id, target_ref, target_decision_id, match_type, confidence_score, candidate_rank)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.sourceDecisionID, r.targetRef, r.targetDecisionID.String, matchType, confidence, r.candidateRank,
		); err != nil {
			return links, fmt.Errorf("graph: insert citation target: %w", err)
		}
		links++
	}
	return links, rows.Err()
}
