// Package store is the canonical relational store and ingester (spec §4.3).
// It owns decisions.db: a SQLite database with an FTS5 shadow index kept in
// sync by triggers, grounded on the teacher's internal/storage package
// (migration runner, retry idiom) adapted from pgx/pgxpool to modernc.org/sqlite.
package store

// insertColumns is the single source of truth for column order shared by the
// ingester (INSERT) and reader (SELECT) paths, so schema drift cannot happen
// silently (spec §4.3 "Schema evolution"). It must match migrations/001_decisions.sql.
var insertColumns = []string{
	"decision_id",
	"canonical_key",
	"court",
	"canton",
	"chamber",
	"docket_number",
	"docket_number_2",
	"decision_date",
	"publication_date",
	"language",
	"title",
	"regeste",
	"legal_area",
	"full_text",
	"decision_type",
	"outcome",
	"judges",
	"clerks",
	"collection",
	"appeal_info",
	"source_url",
	"pdf_url",
	"bge_reference",
	"cited_decisions",
	"scraped_at",
	"external_id",
	"source",
	"source_id",
	"source_spider",
	"content_hash",
	"json_data",
}
