package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/jura-stack/jura/internal/model"
)

// AppealChain performs a bidirectional breadth-first traversal over
// is_prior_instance edges starting at decisionID: downward (this decision's
// outgoing prior-instance citations) and upward (decisions that cite this
// one as their prior instance), with a visited set to prevent cycles (spec
// §4.7). The returned chain is sorted by decision_date ascending, each entry
// annotated relation="prior_instance"; decisionID itself is excluded.
func (db *DB) AppealChain(ctx context.Context, decisionID string) ([]model.ChainEntry, error) {
	visited := map[string]bool{decisionID: true}
	queue := []string{decisionID}
	var entries []model.ChainEntry

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors, err := db.priorInstanceNeighbors(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if visited[n.DecisionID] {
				continue
			}
			visited[n.DecisionID] = true
			entries = append(entries, n)
			queue = append(queue, n.DecisionID)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DecisionDate < entries[j].DecisionDate
	})
	return entries, nil
}

// priorInstanceNeighbors finds the one-hop prior-instance neighbors of
// decisionID in both directions.
func (db *DB) priorInstanceNeighbors(ctx context.Context, decisionID string) ([]model.ChainEntry, error) {
	var out []model.ChainEntry

	downward, err := db.conn.QueryContext(ctx, `
		SELECT d.decision_id, d.court, d.docket_number, d.decision_date
		FROM decision_citations dc
		JOIN citation_targets ct
			ON ct.source_decision_id = dc.source_decision_id AND ct.target_ref = dc.target_ref
		JOIN decisions d ON d.decision_id = ct.target_decision_id
		WHERE dc.source_decision_id = ? AND dc.is_prior_instance = 1`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("graph: downward prior-instance query: %w", err)
	}
	if err := scanChainEntries(downward, &out); err != nil {
		return nil, err
	}

	upward, err := db.conn.QueryContext(ctx, `
		SELECT d.decision_id, d.court, d.docket_number, d.decision_date
		FROM decision_citations dc
		JOIN citation_targets ct
			ON ct.source_decision_id = dc.source_decision_id AND ct.target_ref = dc.target_ref
		JOIN decisions d ON d.decision_id = dc.source_decision_id
		WHERE ct.target_decision_id = ? AND dc.is_prior_instance = 1`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("graph: upward prior-instance query: %w", err)
	}
	if err := scanChainEntries(upward, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func scanChainEntries(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close() error
}, out *[]model.ChainEntry) error {
	defer rows.Close()
	for rows.Next() {
		var e model.ChainEntry
		if err := rows.Scan(&e.DecisionID, &e.Court, &e.DocketNumber, &e.DecisionDate); err != nil {
			return fmt.Errorf("graph: scan chain entry: %w", err)
		}
		e.Relation = "prior_instance"
		*out = append(*out, e)
	}
	return rows.Err()
}
