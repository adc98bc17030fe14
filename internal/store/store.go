package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/textutil"
)

// Insert normalizes and upserts one decision with INSERT OR IGNORE semantics
// on decision_id (spec §4.3). Normalization (mojibake fix, HTML strip,
// canonical_key computation) happens here so every ingestion path shares it.
func (db *DB) Insert(ctx context.Context, d *model.Decision) (inserted bool, err error) {
	d.FullText = textutil.FixMojibake(textutil.StripHTMLPreservingParagraphs(d.FullText))
	d.Regeste = textutil.FixMojibake(textutil.StripHTML(d.Regeste))
	d.Title = textutil.FixMojibake(textutil.StripHTML(d.Title))
	if d.DecisionID == "" {
		d.DecisionID = textutil.DecisionID(d.Court, d.DocketNumber)
	}
	d.CanonicalKey = textutil.CanonicalKey(d.Court, d.DocketNumber, d.DecisionDate)

	cited, err := json.Marshal(d.CitedDecisions)
	if err != nil {
		return false, fmt.Errorf("store: marshal cited_decisions: %w", err)
	}
	full, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("store: marshal json_data: %w", err)
	}

	values := []any{
		d.DecisionID, d.CanonicalKey, d.Court, d.Canton, nullIfEmpty(d.Chamber),
		d.DocketNumber, nullIfEmpty(d.DocketNumber2), nullIfEmpty(d.DecisionDate), nullIfEmpty(d.PublicationDate),
		d.Language, nullIfEmpty(d.Title), nullIfEmpty(d.Regeste), nullIfEmpty(d.LegalArea), d.FullText,
		nullIfEmpty(d.DecisionType), nullIfEmpty(d.Outcome), nullIfEmpty(d.Judges), nullIfEmpty(d.Clerks),
		nullIfEmpty(d.Collection), nullIfEmpty(d.AppealInfo), d.SourceURL, nullIfEmpty(d.PDFURL),
		nullIfEmpty(d.BGEReference), string(cited), d.ScrapedAt.Format("2006-01-02T15:04:05Z07:00"),
		nullIfEmpty(d.ExternalID), nullIfEmpty(d.Source), nullIfEmpty(d.SourceID), nullIfEmpty(d.SourceSpider),
		nullIfEmpty(d.ContentHash), string(full),
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(insertColumns)), ",")
	query := fmt.Sprintf(`INSERT OR IGNORE INTO decisions (%s) VALUES (%s)`, strings.Join(insertColumns, ", "), placeholders)

	res, err := db.conn.ExecContext(ctx, query, values...)
	if err != nil {
		return false, fmt.Errorf("store: insert %s: %w", d.DecisionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: rows affected: %w", err)
	}
	return n > 0, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Get fetches one decision by its canonical identifier.
func (db *DB) Get(ctx context.Context, decisionID string) (*model.Decision, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT json_data FROM decisions WHERE decision_id = ?`, decisionID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get %s: %w", decisionID, err)
	}
	var d model.Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("store: unmarshal %s: %w", decisionID, err)
	}
	return &d, nil
}

// Resolve fetches one decision by decision_id, falling back to an exact
// docket_number match, then to a case-insensitive partial docket_number
// match, in that order, returning the first hit (spec §4.8 get_decision:
// "decision_id may also be a docket or partial docket"). The canonical
// schema carries no normalized docket column (unlike internal/graph's), so
// the fallback compares against docket_number directly.
func (db *DB) Resolve(ctx context.Context, idOrDocket string) (*model.Decision, error) {
	if d, err := db.Get(ctx, idOrDocket); err != nil {
		return nil, err
	} else if d != nil {
		return d, nil
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT json_data FROM decisions WHERE docket_number = ? ORDER BY decision_id LIMIT 1`, idOrDocket)
	if d, err := scanJSONDecision(row); err != nil {
		return nil, err
	} else if d != nil {
		return d, nil
	}

	row = db.conn.QueryRowContext(ctx,
		`SELECT json_data FROM decisions WHERE docket_number LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY decision_id LIMIT 1`,
		idOrDocket)
	return scanJSONDecision(row)
}

func scanJSONDecision(row *sql.Row) (*model.Decision, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: resolve: %w", err)
	}
	var d model.Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("store: resolve unmarshal: %w", err)
	}
	return &d, nil
}

// CourtStat is one row of per-court counts for list_courts / get_statistics
// (spec §4.8).
type CourtStat struct {
	Court string `json:"court"`
	Count int    `json:"count"`
}

// ListCourts returns every distinct court code present in the store with its
// decision count, ordered by court code.
func (db *DB) ListCourts(ctx context.Context) ([]CourtStat, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT court, COUNT(*) FROM decisions GROUP BY court ORDER BY court`)
	if err != nil {
		return nil, fmt.Errorf("store: list courts: %w", err)
	}
	defer rows.Close()

	var out []CourtStat
	for rows.Next() {
		var s CourtStat
		if err := rows.Scan(&s.Court, &s.Count); err != nil {
			return nil, fmt.Errorf("store: scan court stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stats is the aggregate summary returned by get_statistics (spec §4.8).
type Stats struct {
	TotalDecisions int         `json:"total_decisions"`
	ByCourt        []CourtStat `json:"by_court"`
	ByLanguage     map[string]int `json:"by_language"`
	DateRangeFrom  string      `json:"date_range_from,omitempty"`
	DateRangeTo    string      `json:"date_range_to,omitempty"`
}

// StatsFilter narrows get_statistics to a court, canton, and/or decision
// year (spec §4.8). An empty field is not filtered on.
type StatsFilter struct {
	Court  string
	Canton string
	Year   string // "2023"-style four-digit year
}

func (f StatsFilter) whereClause() (string, []any) {
	var clauses []string
	var args []any
	if f.Court != "" {
		clauses = append(clauses, "court = ?")
		args = append(args, f.Court)
	}
	if f.Canton != "" {
		clauses = append(clauses, "canton = ?")
		args = append(args, f.Canton)
	}
	if f.Year != "" {
		clauses = append(clauses, "substr(decision_date, 1, 4) = ?")
		args = append(args, f.Year)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Statistics returns the aggregate summary for get_statistics (spec §4.8),
// optionally narrowed by filter.
func (db *DB) Statistics(ctx context.Context, filter StatsFilter) (*Stats, error) {
	where, args := filter.whereClause()

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("store: count decisions: %w", err)
	}

	courtRows, err := db.conn.QueryContext(ctx,
		`SELECT court, COUNT(*) FROM decisions`+where+` GROUP BY court ORDER BY court`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: by court: %w", err)
	}
	defer courtRows.Close()
	var byCourt []CourtStat
	for courtRows.Next() {
		var s CourtStat
		if err := courtRows.Scan(&s.Court, &s.Count); err != nil {
			return nil, fmt.Errorf("store: scan court stat: %w", err)
		}
		byCourt = append(byCourt, s)
	}
	if err := courtRows.Err(); err != nil {
		return nil, err
	}

	langRows, err := db.conn.QueryContext(ctx,
		`SELECT language, COUNT(*) FROM decisions`+where+` GROUP BY language`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: by language: %w", err)
	}
	defer langRows.Close()
	byLang := map[string]int{}
	for langRows.Next() {
		var lang string
		var count int
		if err := langRows.Scan(&lang, &count); err != nil {
			return nil, fmt.Errorf("store: scan language stat: %w", err)
		}
		byLang[lang] = count
	}
	if err := langRows.Err(); err != nil {
		return nil, err
	}

	dateWhere := where
	if dateWhere == "" {
		dateWhere = " WHERE decision_date IS NOT NULL AND decision_date != ''"
	} else {
		dateWhere += " AND decision_date IS NOT NULL AND decision_date != ''"
	}
	var from, to sql.NullString
	if err := db.conn.QueryRowContext(ctx,
		`SELECT MIN(decision_date), MAX(decision_date) FROM decisions`+dateWhere, args...).Scan(&from, &to); err != nil {
		return nil, fmt.Errorf("store: date range: %w", err)
	}

	return &Stats{
		TotalDecisions: total,
		ByCourt:        byCourt,
		ByLanguage:     byLang,
		DateRangeFrom:  from.String,
		DateRangeTo:    to.String,
	}, nil
}
