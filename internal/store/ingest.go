package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jura-stack/jura/internal/extract"
)

// IngestResult is the per-source summary of one ingest pass; the build-fts
// subcommand reports it in its JSON stats (spec §6).
type IngestResult struct {
	CourtCode string `json:"court_code"`
	Read      int    `json:"read"`
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
	Invalid   int    `json:"invalid"`
}

// IngestJSONL reads one per-source append-only record log and upserts every
// valid row into the canonical store (spec §4.3). Malformed JSON lines are
// already skipped by extract.ReadJSONL; rows that fail schema validation here
// are counted as invalid rather than aborting the run.
func (db *DB) IngestJSONL(ctx context.Context, courtCode, path string, logger *slog.Logger) (IngestResult, error) {
	result := IngestResult{CourtCode: courtCode}

	decisions, err := extract.ReadJSONL(path, func(line string, err error) {
		logger.Warn("store: skipping malformed jsonl line", "court", courtCode, "error", err)
	})
	if err != nil {
		return result, fmt.Errorf("store: ingest %s: %w", path, err)
	}

	for i := range decisions {
		d := &decisions[i]
		result.Read++
		if err := ValidateDecision(d); err != nil {
			result.Invalid++
			logger.Warn("store: schema violation", "court", courtCode, "decision_id", d.DecisionID, "error", err)
			continue
		}
		inserted, err := db.Insert(ctx, d)
		if err != nil {
			return result, fmt.Errorf("store: insert %s: %w", d.DecisionID, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}
