package search

import (
	"fmt"
	"strings"

	"github.com/jura-stack/jura/internal/textutil"
)

// ftsColumns is decisions_fts' column order (migrations/001_decisions.sql);
// bm25() weights are positional against this order.
var ftsColumns = []string{"decision_id", "court", "canton", "docket_number", "language", "title", "regeste", "full_text"}

// bm25Weights returns one weight per ftsColumns entry for the given intent,
// approximating spec §4.5's per-intent field boosts within what FTS5's
// bm25(tbl, w0, w1, ...) column weighting can express (decision_id is
// UNINDEXED and always contributes 0 regardless of its weight slot).
func bm25Weights(intent Intent) []float64 {
	w := map[string]float64{
		"decision_id":   0,
		"court":         0,
		"canton":        0,
		"docket_number": 1,
		"language":      0,
		"title":         1,
		"regeste":       1,
		"full_text":     1,
	}
	switch intent {
	case IntentDocket:
		w["docket_number"] = 6.0
	case IntentStatute:
		w["regeste"] = 5.0
		w["title"] = 4.0
		w["full_text"] = 2.0
	case IntentCitation:
		w["regeste"] = 4.0
		w["title"] = 3.0
		w["full_text"] = 1.0
	case IntentBoolean:
		w["title"] = 4.0
		w["regeste"] = 4.0
		w["full_text"] = 1.5
		w["docket_number"] = 6.0
	case IntentNaturalLanguage:
		w["title"] = 5.0
		w["regeste"] = 4.0
		w["full_text"] = 1.7
		w["docket_number"] = 5.0
	}
	out := make([]float64, len(ftsColumns))
	for i, c := range ftsColumns {
		out[i] = w[c]
	}
	return out
}

// bm25Args renders bm25Weights as the positional arguments to FTS5's
// bm25(tbl, ...) function call.
func bm25Args(intent Intent) string {
	weights := bm25Weights(intent)
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = fmt.Sprintf("%g", w)
	}
	return strings.Join(parts, ", ")
}

// buildMatchExpr implements spec §4.5's per-intent "Lexical query shape",
// translated to an FTS5 MATCH expression (the spec's own escape hatch for
// "when the downstream lexical engine is an FTS5-class engine").
func buildMatchExpr(intent Intent, rawQuery string) string {
	sanitized := sanitizeFTSQuery(rawQuery)
	if sanitized == "" {
		return ""
	}

	switch intent {
	case IntentDocket:
		norm := textutil.NormalizeDocket(rawQuery)
		return fmt.Sprintf(`docket_number:%s OR %s`, quoteFTS(norm), quoteFTS(sanitized))
	case IntentBoolean:
		// The user's own boolean syntax (AND/OR/NOT/NEAR, quoted phrases) is
		// native FTS5 syntax, so it is passed through sanitized but unquoted.
		return sanitized
	default:
		return quoteFTS(sanitized)
	}
}

func quoteFTS(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, "") + `"`
	}
	return strings.Join(quoted, " OR ")
}
