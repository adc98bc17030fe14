package graph

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// StoreRowSource reads rows directly from the canonical store's decisions
// table instead of the JSONL logs (spec §6 "build-graph --source-db PATH"),
// optionally restricted to a set of court codes.
type StoreRowSource struct {
	rows *sql.Rows
}

// NewStoreRowSource opens a streaming cursor over conn's decisions table.
// conn should already be opened read-only by the caller (spec §5 "the
// relational store is opened read-only by query paths").
func NewStoreRowSource(ctx context.Context, conn *sql.DB, courts []string) (*StoreRowSource, error) {
	query := `SELECT decision_id, docket_number, court, canton, language, decision_date, title, regeste, full_text FROM decisions`
	var args []any
	if len(courts) > 0 {
		placeholders := make([]string, len(courts))
		for i, c := range courts {
			placeholders[i] = "?"
			args = append(args, strings.ToLower(c))
		}
		query += ` WHERE lower(court) IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY rowid`

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("graph: query source store: %w", err)
	}
	return &StoreRowSource{rows: rows}, nil
}

func (s *StoreRowSource) Next(ctx context.Context) (sourceRow, bool, error) {
	if !s.rows.Next() {
		return sourceRow{}, false, s.rows.Err()
	}
	var (
		decisionID, docketNumber, court, canton, language string
		decisionDate, title, regeste, fullText             sql.NullString
	)
	if err := s.rows.Scan(&decisionID, &docketNumber, &court, &canton, &language, &decisionDate, &title, &regeste, &fullText); err != nil {
		return sourceRow{}, false, fmt.Errorf("graph: scan source row: %w", err)
	}
	return sourceRow{
		DecisionID:   decisionID,
		DocketNumber: docketNumber,
		Court:        court,
		Canton:       canton,
		Language:     language,
		DecisionDate: decisionDate.String,
		Title:        title.String,
		Regeste:      regeste.String,
		FullText:     fullText.String,
	}, true, nil
}

func (s *StoreRowSource) Close() error { return s.rows.Close() }
