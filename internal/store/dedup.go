package store

import (
	"context"
	"fmt"
)

// DedupResult reports how many duplicate rows a Dedup pass removed.
type DedupResult struct {
	GroupsExamined int
	RowsDeleted    int
}

// Dedup groups rows by canonical_key (excluding rows with an empty docket
// number) and, within each group of size > 1, keeps the row with a non-null
// regeste, else the row with the longest full_text; the rest are deleted
// (spec §4.3 "Deduplication"). FTS stays in sync via the decisions_ad trigger.
func (db *DB) Dedup(ctx context.Context) (DedupResult, error) {
	var result DedupResult

	rows, err := db.conn.QueryContext(ctx, `
		SELECT canonical_key FROM decisions
		WHERE docket_number != ''
		GROUP BY canonical_key
		HAVING COUNT(*) > 1`)
	if err != nil {
		return result, fmt.Errorf("store: dedup group query: %w", err)
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return result, fmt.Errorf("store: scan canonical_key: %w", err)
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, err
	}

	for _, key := range keys {
		result.GroupsExamined++
		keeper, err := db.chooseKeeper(ctx, key)
		if err != nil {
			return result, err
		}
		if keeper == "" {
			continue
		}
		res, err := db.conn.ExecContext(ctx, `DELETE FROM decisions WHERE canonical_key = ? AND decision_id != ?`, key, keeper)
		if err != nil {
			return result, fmt.Errorf("store: delete duplicates for %s: %w", key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, err
		}
		result.RowsDeleted += int(n)
	}

	return result, nil
}

// chooseKeeper picks the surviving decision_id for one canonical_key group:
// the row with a non-null regeste, else the longest full_text.
func (db *DB) chooseKeeper(ctx context.Context, canonicalKey string) (string, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT decision_id FROM decisions
		WHERE canonical_key = ?
		ORDER BY
			CASE WHEN regeste IS NOT NULL AND regeste != '' THEN 0 ELSE 1 END,
			LENGTH(full_text) DESC
		LIMIT 1`, canonicalKey)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("store: choose keeper for %s: %w", canonicalKey, err)
	}
	return id, nil
}
