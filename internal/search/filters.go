package search

import (
	"strings"

	"github.com/jura-stack/jura/internal/model"
)

// filterClause is one composed equality/range filter, ready to splice into
// a SQL WHERE clause with its bound argument.
type filterClause struct {
	sql string
	arg any
}

// composeFilters implements spec §4.5 "Filter composition": each field
// becomes an equality filter (lowercased, except canton which is
// uppercased); date_from/date_to become a half-open range on decision_date.
// composeFilters qualifies every column with the decisions table alias
// ("d.") since these clauses are always spliced into a query joining
// decisions_fts to decisions, and court/canton/language exist on both.
func composeFilters(f model.SearchFilters) []filterClause {
	var clauses []filterClause
	if f.Court != "" {
		clauses = append(clauses, filterClause{"d.court = ?", strings.ToLower(f.Court)})
	}
	if f.Canton != "" {
		clauses = append(clauses, filterClause{"d.canton = ?", strings.ToUpper(f.Canton)})
	}
	if f.Language != "" {
		clauses = append(clauses, filterClause{"d.language = ?", strings.ToLower(f.Language)})
	}
	if f.DecisionType != "" {
		clauses = append(clauses, filterClause{"d.decision_type = ?", strings.ToLower(f.DecisionType)})
	}
	if f.LegalArea != "" {
		clauses = append(clauses, filterClause{"d.legal_area = ?", strings.ToLower(f.LegalArea)})
	}
	if f.DateFrom != "" {
		clauses = append(clauses, filterClause{"d.decision_date >= ?", f.DateFrom})
	}
	if f.DateTo != "" {
		clauses = append(clauses, filterClause{"d.decision_date < ?", f.DateTo})
	}
	return clauses
}
