package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the canonical decisions.db connection.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the SQLite file at path in rwc mode with
// WAL journaling, matching the teacher's single-wrapper-around-the-driver shape
// (internal/storage/pool.go) adapted from pgxpool to database/sql.
func Open(path string, logger *slog.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid SQLITE_BUSY storms
	return &DB{conn: conn, logger: logger}, nil
}

// Conn exposes the underlying *sql.DB for packages that need direct query access
// (e.g. internal/search's FTS5 backend, internal/graph's store).
func (db *DB) Conn() *sql.DB { return db.conn }

func (db *DB) Ping(ctx context.Context) error { return db.conn.PingContext(ctx) }

func (db *DB) Close() error { return db.conn.Close() }

// RunMigrations executes every *.sql file in migrationsFS in filename order,
// skipping files already recorded in schema_migrations (spec §4.3 "Schema
// evolution"). Grounded on the teacher's storage.RunMigrations, generalized
// from "run everything every time" to a tracked, idempotent apply so the CLI
// subcommands (spec §6) can be invoked repeatedly without re-running DDL.
func (db *DB) RunMigrations(ctx context.Context, migrationsFS fs.FS) error {
	if _, err := db.conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("store: create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("store: read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var already int
		if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE filename = ?`, entry.Name()).Scan(&already); err != nil {
			return fmt.Errorf("store: check migration %s: %w", entry.Name(), err)
		}
		if already > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, entry.Name())
		if err != nil {
			return fmt.Errorf("store: read migration %s: %w", entry.Name(), err)
		}

		db.logger.Info("store: running migration", "file", entry.Name())
		if _, err := db.conn.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("store: execute migration %s: %w", entry.Name(), err)
		}
		if _, err := db.conn.ExecContext(ctx, `INSERT INTO schema_migrations (filename, applied_at) VALUES (?, datetime('now'))`, entry.Name()); err != nil {
			return fmt.Errorf("store: record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}
