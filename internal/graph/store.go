package graph

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jura-stack/jura/internal/textutil"
)

// DB wraps the derived reference-graph database (spec §4.6), opened
// read-write only by the graph builder itself, matching internal/store's
// single-wrapper-around-the-driver shape.
type DB struct {
	conn *sql.DB
}

// Open creates (or reuses) the SQLite file at path and ensures its schema.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("graph: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graph: create schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Conn() *sql.DB { return db.conn }

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) upsertDecision(ctx context.Context, decisionID, docketNumber, court, canton, language, decisionDate string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO decisions
		(decision_id, docket_number, docket_norm, court, canton, language, decision_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		decisionID, docketNumber, textutil.NormalizeDocket(docketNumber), court, canton, language, decisionDate,
	)
	if err != nil {
		return fmt.Errorf("graph: upsert decision %s: %w", decisionID, err)
	}
	return nil
}

func (db *DB) upsertStatute(ctx context.Context, decisionID, statuteID, lawCode, article, paragraph string) error {
	if _, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO statutes(statute_id, law_code, article, paragraph) VALUES (?, ?, ?, ?)`,
		statuteID, lawCode, article, nullIfEmpty(paragraph),
	); err != nil {
		return fmt.Errorf("graph: upsert statute %s: %w", statuteID, err)
	}
	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO decision_statutes(decision_id, statute_id, mention_count) VALUES (?, ?, 1)
		ON CONFLICT(decision_id, statute_id) DO UPDATE SET mention_count = mention_count + 1`,
		decisionID, statuteID,
	); err != nil {
		return fmt.Errorf("graph: link statute %s -> %s: %w", decisionID, statuteID, err)
	}
	return nil
}

func (db *DB) upsertCitation(ctx context.Context, sourceDecisionID, targetRef, targetType string, isPriorInstance bool) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO decision_citations(source_decision_id, target_ref, target_type, mention_count, is_prior_instance)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(source_decision_id, target_ref) DO UPDATE SET
			mention_count = mention_count + 1,
			is_prior_instance = is_prior_instance OR excluded.is_prior_instance`,
		sourceDecisionID, targetRef, targetType, boolToInt(isPriorInstance),
	)
	if err != nil {
		return fmt.Errorf("graph: link citation %s -> %s: %w", sourceDecisionID, targetRef, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
