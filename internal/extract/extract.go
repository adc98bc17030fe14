// Package extract defines the site-specific extractor contract and the
// driver loop that runs it (spec §4.2). Individual court extractors (N ≈ 50)
// are out of scope for the core; this package specifies only the contract
// and the shared driver.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jura-stack/jura/internal/model"
)

// Stub is partial Decision metadata with a fetch URL, yielded by discovery
// before the full record is fetched (spec §4.2). Modeled as a single struct
// with optional fields rather than a duck-typed dict (spec §9 redesign:
// "Dynamic kwargs and duck-typed stubs... replace with... a single struct
// with optional fields, making required-vs-optional explicit").
type Stub struct {
	DecisionID string
	FetchURL   string
	Extra      map[string]string // site-specific hints the extractor itself understands
}

// Extractor is the contract every site-specific implementation satisfies.
type Extractor interface {
	CourtCode() string
	DiscoverNew(ctx context.Context, since string) (<-chan Stub, <-chan error)
	FetchDecision(ctx context.Context, stub Stub) (*model.Decision, error)
}

// StateJournal is the persistent set of decision_id values already ingested
// per source (spec §3, §6 "state/{court_code}.json").
type StateJournal struct {
	path      string
	KnownIDs  map[string]struct{} `json:"-"`
	raw       journalFile
}

type journalFile struct {
	KnownIDs []string `json:"known_ids"`
}

// LoadStateJournal reads state/{court_code}.json, or returns an empty
// journal if it does not yet exist.
func LoadStateJournal(stateDir, courtCode string) (*StateJournal, error) {
	path := filepath.Join(stateDir, courtCode+".json")
	sj := &StateJournal{path: path, KnownIDs: map[string]struct{}{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sj, nil
		}
		return nil, fmt.Errorf("extract: read state journal: %w", err)
	}
	var jf journalFile
	if err := json.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("extract: parse state journal: %w", err)
	}
	for _, id := range jf.KnownIDs {
		sj.KnownIDs[id] = struct{}{}
	}
	return sj, nil
}

// Contains reports whether decisionID has already been ingested.
func (sj *StateJournal) Contains(decisionID string) bool {
	_, ok := sj.KnownIDs[decisionID]
	return ok
}

// Add appends a newly ingested decision_id (append-only within a run).
func (sj *StateJournal) Add(decisionID string) {
	sj.KnownIDs[decisionID] = struct{}{}
}

// Flush atomically persists the journal (spec §3 "flushed to disk on run
// completion"; §6's .tmp+rename atomic-write convention).
func (sj *StateJournal) Flush() error {
	ids := make([]string, 0, len(sj.KnownIDs))
	for id := range sj.KnownIDs {
		ids = append(ids, id)
	}
	data, err := json.Marshal(journalFile{KnownIDs: ids})
	if err != nil {
		return fmt.Errorf("extract: marshal state journal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(sj.path), 0o755); err != nil {
		return fmt.Errorf("extract: create state dir: %w", err)
	}
	tmp := sj.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("extract: write state journal tmp: %w", err)
	}
	return os.Rename(tmp, sj.path)
}

// Sink receives canonical Decision records as they are produced, appending
// them to the per-source JSON-lines log (spec §3, §6).
type Sink interface {
	Write(d *model.Decision) error
}

// RunResult summarizes one Run of the extractor driver for one court. No
// CLI subcommand calls Run, so none prints it.
type RunResult struct {
	CourtCode string `json:"court_code"`
	Fetched   int    `json:"fetched"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	Partial   bool   `json:"partial"`
}

// RunConfig bounds one driver run (spec §4.2).
type RunConfig struct {
	Since         string
	MaxDecisions  int // 0 = unbounded
	MaxErrors     int // error-count ceiling; 0 = default of 20
}

// Run drives one extractor: discover stubs, skip already-known IDs, fetch
// and sink each new decision, and terminate cleanly on the max_decisions
// bound or the error ceiling (spec §4.2's driver pseudocode, §5 "shutdown is
// clean: state journal flushed").
func Run(ctx context.Context, ex Extractor, journal *StateJournal, sink Sink, cfg RunConfig, logger *slog.Logger) (RunResult, error) {
	maxErrors := cfg.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 20
	}

	result := RunResult{CourtCode: ex.CourtCode()}
	stubs, discoverErrs := ex.DiscoverNew(ctx, cfg.Since)

loop:
	for {
		select {
		case <-ctx.Done():
			result.Partial = true
			break loop
		case err, ok := <-discoverErrs:
			if ok && err != nil {
				// An error during discovery terminates the run (spec §4.2
				// "An extractor that raises during discover_new terminates the run").
				result.Partial = true
				_ = journal.Flush()
				return result, fmt.Errorf("extract: discover_new for %s: %w", ex.CourtCode(), err)
			}
		case stub, ok := <-stubs:
			if !ok {
				break loop
			}
			if journal.Contains(stub.DecisionID) {
				result.Skipped++
				continue
			}
			if cfg.MaxDecisions > 0 && result.Fetched >= cfg.MaxDecisions {
				result.Partial = true
				break loop
			}

			d, err := ex.FetchDecision(ctx, stub)
			if err != nil {
				// A per-decision failure increments the run's error counter;
				// the driver continues until the ceiling is hit (spec §4.2).
				result.Errors++
				logger.Warn("extract: fetch_decision failed", "court", ex.CourtCode(), "stub", stub.DecisionID, "error", err)
				if result.Errors > maxErrors {
					result.Partial = true
					break loop
				}
				continue
			}
			if d == nil {
				result.Skipped++
				continue
			}
			if err := sink.Write(d); err != nil {
				return result, fmt.Errorf("extract: sink write: %w", err)
			}
			journal.Add(d.DecisionID)
			result.Fetched++
		}
	}

	if err := journal.Flush(); err != nil {
		return result, fmt.Errorf("extract: flush state journal: %w", err)
	}
	return result, nil
}
