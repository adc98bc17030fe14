package store

import (
	"context"
	"fmt"
	"regexp"
)

// FederalCourtCode is the stable extractor.court_code for the Federal Supreme
// Court, the only source regeste backfill applies to (spec §4.3).
const FederalCourtCode = "bger"

const regesteBackfillMaxLen = 3000

var regesteBlock = regexp.MustCompile(`(?is)\b(?:Regeste|Regesto)\b[ \t]*\n?(.*?)(?:\n\s*(?:Sachverhalt|Faits|Fatti)\b)`)

// RegesteBackfillResult reports how many rows a BackfillRegeste pass filled in.
type RegesteBackfillResult struct {
	RowsExamined int
	RowsUpdated  int
}

// BackfillRegeste scans federal-court rows with an empty regeste for a
// "Regeste"/"Regesto" header block terminated by "Sachverhalt"/"Faits"/"Fatti",
// extracts the intermediate text truncated to 3000 chars, and UPDATEs the row
// (spec §4.3 "Regeste backfill").
func (db *DB) BackfillRegeste(ctx context.Context) (RegesteBackfillResult, error) {
	var result RegesteBackfillResult

	rows, err := db.conn.QueryContext(ctx, `
		SELECT decision_id, full_text FROM decisions
		WHERE court = ? AND (regeste IS NULL OR regeste = '')`, FederalCourtCode)
	if err != nil {
		return result, fmt.Errorf("store: regeste backfill query: %w", err)
	}

	type candidate struct {
		id, regeste string
	}
	var candidates []candidate
	for rows.Next() {
		var id, fullText string
		if err := rows.Scan(&id, &fullText); err != nil {
			rows.Close()
			return result, fmt.Errorf("store: scan regeste candidate: %w", err)
		}
		result.RowsExamined++
		m := regesteBlock.FindStringSubmatch(fullText)
		if m == nil {
			continue
		}
		extracted := trimRegeste(m[1])
		if extracted == "" {
			continue
		}
		candidates = append(candidates, candidate{id: id, regeste: extracted})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, err
	}

	for _, c := range candidates {
		if _, err := db.conn.ExecContext(ctx, `UPDATE decisions SET regeste = ? WHERE decision_id = ?`, c.regeste, c.id); err != nil {
			return result, fmt.Errorf("store: update regeste for %s: %w", c.id, err)
		}
		result.RowsUpdated++
	}
	return result, nil
}

func trimRegeste(s string) string {
	start, end := 0, len(s)
	for start < end && isBlank(s[start]) {
		start++
	}
	for end > start && isBlank(s[end-1]) {
		end--
	}
	s = s[start:end]
	if r := []rune(s); len(r) > regesteBackfillMaxLen {
		s = string(r[:regesteBackfillMaxLen])
	}
	return s
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
