// Package vectorstore is the default dense (and optional sparse) vector
// index for decision embeddings (spec §4.4 "Storage"), grounded on
// bbiangul-go-reason's store package: a vec0 virtual table keyed by a plain
// text id, loaded through the cgo-enabled mattn/go-sqlite3 driver (kept
// separate from the pure-Go modernc.org/sqlite connection used for FTS so
// the sqlite-vec C extension only loads where it's actually needed).
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jura-stack/jura/internal/embed"
)

func init() {
	sqlite_vec.Auto()
}

// Index wraps vectors.db: one vec0 table per supported language partition
// (spec §4.4 "a partition key on language"), plus an optional sparse table.
type Index struct {
	db           *sql.DB
	dim          int
	enableSparse bool
}

// Open creates (or reopens) the vector store at path. languages lists every
// partition to provision; EnsurePartition can add more later.
func Open(path string, dim int, enableSparse bool, languages []string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("vectorstore: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: ping: %w", err)
	}

	idx := &Index{db: db, dim: dim, enableSparse: enableSparse}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS decision_meta (
		decision_id TEXT PRIMARY KEY,
		language    TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: create decision_meta: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunk_meta (
		chunk_id    TEXT PRIMARY KEY,
		decision_id TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: create chunk_meta: %w", err)
	}
	if enableSparse {
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sparse_weights (
			decision_id TEXT NOT NULL,
			token_id    INTEGER NOT NULL,
			weight      REAL NOT NULL,
			PRIMARY KEY (decision_id, token_id)
		)`); err != nil {
			db.Close()
			return nil, fmt.Errorf("vectorstore: create sparse_weights: %w", err)
		}
	}
	for _, lang := range languages {
		if err := idx.EnsurePartition(lang); err != nil {
			db.Close()
			return nil, err
		}
	}
	// A single cross-language chunk table: chunk search fans out across
	// partitions only at the decision level (spec §4.4), chunks stay flat.
	if _, err := db.Exec(fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
		chunk_id TEXT PRIMARY KEY,
		embedding float[%d]
	)`, dim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: create vec_chunks: %w", err)
	}

	return idx, nil
}

// EnsurePartition creates the per-language vec0 table if it doesn't exist
// yet (spec §4.4 "a partition key on language").
func (idx *Index) EnsurePartition(language string) error {
	table := partitionTable(language)
	_, err := idx.db.Exec(fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
		decision_id TEXT PRIMARY KEY,
		embedding float[%d]
	)`, table, idx.dim))
	if err != nil {
		return fmt.Errorf("vectorstore: create partition %s: %w", table, err)
	}
	return nil
}

func partitionTable(language string) string {
	return "vec_decisions_" + sanitizeLanguage(language)
}

func sanitizeLanguage(language string) string {
	switch language {
	case "de", "fr", "it", "rm":
		return language
	default:
		return "other"
	}
}

func (idx *Index) Close() error { return idx.db.Close() }

// WriteDecision implements embed.Writer: inserts the decision vector into
// its language partition, any chunk vectors into the shared chunk table, and
// non-negligible sparse weights if enabled (spec §4.4).
func (idx *Index) WriteDecision(ctx context.Context, v embed.Vectorized) error {
	if err := idx.EnsurePartition(v.Language); err != nil {
		return err
	}
	table := partitionTable(v.Language)

	if _, err := idx.db.ExecContext(ctx, fmt.Sprintf(`INSERT OR REPLACE INTO %s (decision_id, embedding) VALUES (?, ?)`, table),
		v.DecisionID, serializeFloat32(v.Vector)); err != nil {
		return fmt.Errorf("vectorstore: write decision %s: %w", v.DecisionID, err)
	}
	if _, err := idx.db.ExecContext(ctx, `INSERT OR REPLACE INTO decision_meta (decision_id, language) VALUES (?, ?)`,
		v.DecisionID, v.Language); err != nil {
		return fmt.Errorf("vectorstore: write decision_meta %s: %w", v.DecisionID, err)
	}

	for _, c := range v.Chunks {
		if _, err := idx.db.ExecContext(ctx, `INSERT OR REPLACE INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)`,
			c.ChunkID, serializeFloat32(c.Vector)); err != nil {
			return fmt.Errorf("vectorstore: write chunk %s: %w", c.ChunkID, err)
		}
		if _, err := idx.db.ExecContext(ctx, `INSERT OR REPLACE INTO chunk_meta (chunk_id, decision_id) VALUES (?, ?)`,
			c.ChunkID, v.DecisionID); err != nil {
			return fmt.Errorf("vectorstore: write chunk_meta %s: %w", c.ChunkID, err)
		}
	}
	return nil
}

// WriteSparseWeights stores token weights > 0.01 only (spec §4.4 "optional
// sparse table ... with weights > 0.01 only").
func (idx *Index) WriteSparseWeights(ctx context.Context, decisionID string, weights map[int]float64) error {
	if !idx.enableSparse {
		return nil
	}
	for tokenID, weight := range weights {
		if weight <= 0.01 {
			continue
		}
		if _, err := idx.db.ExecContext(ctx, `INSERT OR REPLACE INTO sparse_weights (decision_id, token_id, weight) VALUES (?, ?, ?)`,
			decisionID, tokenID, weight); err != nil {
			return fmt.Errorf("vectorstore: write sparse weight: %w", err)
		}
	}
	return nil
}

// Neighbor is one KNN result.
type Neighbor struct {
	DecisionID string
	Distance   float64
}

// Search performs cosine KNN over the language partition (spec §4.4).
// Language must be one of the provisioned partitions.
func (idx *Index) Search(ctx context.Context, language string, query []float32, k int) ([]Neighbor, error) {
	table := partitionTable(language)
	rows, err := idx.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT decision_id, distance FROM %s
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance`, table), serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search %s: %w", table, err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.DecisionID, &n.Distance); err != nil {
			return nil, fmt.Errorf("vectorstore: scan neighbor: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
