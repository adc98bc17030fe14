package vectorstore

import (
	"context"
	"fmt"
	"os"
)

// MergeShards reads every shard DB in turn and inserts its rows into a fresh
// target DB via streaming batches, then atomically renames the target into
// place (spec §4.4 "Sharded builds", "Atomic writes": "{path}.tmp and renames
// on success; on any error, the temp file is removed and existing state is
// untouched").
func MergeShards(ctx context.Context, shardPaths []string, targetPath string, dim int, enableSparse bool, languages []string) error {
	tmpPath := targetPath + ".tmp"
	_ = os.Remove(tmpPath)

	target, err := Open(tmpPath, dim, enableSparse, languages)
	if err != nil {
		return fmt.Errorf("vectorstore: open merge target: %w", err)
	}

	if err := mergeInto(ctx, target, shardPaths, dim, enableSparse, languages); err != nil {
		target.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := target.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("vectorstore: close merge target: %w", err)
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("vectorstore: rename merge target: %w", err)
	}
	return nil
}

func mergeInto(ctx context.Context, target *Index, shardPaths []string, dim int, enableSparse bool, languages []string) error {
	for _, shardPath := range shardPaths {
		shard, err := Open(shardPath, dim, enableSparse, languages)
		if err != nil {
			return fmt.Errorf("vectorstore: open shard %s: %w", shardPath, err)
		}
		err = copyShard(ctx, shard, target, languages, enableSparse)
		shard.Close()
		if err != nil {
			return fmt.Errorf("vectorstore: merge shard %s: %w", shardPath, err)
		}
	}
	return nil
}

func copyShard(ctx context.Context, shard, target *Index, languages []string, enableSparse bool) error {
	for _, lang := range languages {
		table := partitionTable(lang)
		rows, err := shard.db.QueryContext(ctx, fmt.Sprintf(`SELECT decision_id, embedding FROM %s`, table))
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			var emb []byte
			if err := rows.Scan(&id, &emb); err != nil {
				rows.Close()
				return err
			}
			if _, err := target.db.ExecContext(ctx, fmt.Sprintf(`INSERT OR REPLACE INTO %s (decision_id, embedding) VALUES (?, ?)`, table), id, emb); err != nil {
				rows.Close()
				return err
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}

	metaRows, err := shard.db.QueryContext(ctx, `SELECT decision_id, language FROM decision_meta`)
	if err != nil {
		return err
	}
	for metaRows.Next() {
		var id, lang string
		if err := metaRows.Scan(&id, &lang); err != nil {
			metaRows.Close()
			return err
		}
		if _, err := target.db.ExecContext(ctx, `INSERT OR REPLACE INTO decision_meta (decision_id, language) VALUES (?, ?)`, id, lang); err != nil {
			metaRows.Close()
			return err
		}
	}
	metaRows.Close()
	if err := metaRows.Err(); err != nil {
		return err
	}

	chunkRows, err := shard.db.QueryContext(ctx, `SELECT chunk_id, embedding FROM vec_chunks`)
	if err != nil {
		return err
	}
	for chunkRows.Next() {
		var id string
		var emb []byte
		if err := chunkRows.Scan(&id, &emb); err != nil {
			chunkRows.Close()
			return err
		}
		if _, err := target.db.ExecContext(ctx, `INSERT OR REPLACE INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)`, id, emb); err != nil {
			chunkRows.Close()
			return err
		}
	}
	chunkRows.Close()
	if err := chunkRows.Err(); err != nil {
		return err
	}

	if !enableSparse {
		return nil
	}
	sparseRows, err := shard.db.QueryContext(ctx, `SELECT decision_id, token_id, weight FROM sparse_weights`)
	if err != nil {
		return err
	}
	defer sparseRows.Close()
	for sparseRows.Next() {
		var id string
		var tokenID int
		var weight float64
		if err := sparseRows.Scan(&id, &tokenID, &weight); err != nil {
			return err
		}
		if _, err := target.db.ExecContext(ctx, `INSERT OR REPLACE INTO sparse_weights (decision_id, token_id, weight) VALUES (?, ?, ?)`, id, tokenID, weight); err != nil {
			return err
		}
	}
	return sparseRows.Err()
}
