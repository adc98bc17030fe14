package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceRowSource struct {
	rows []sourceRow
	idx  int
}

func (s *sliceRowSource) Next(ctx context.Context) (sourceRow, bool, error) {
	if s.idx >= len(s.rows) {
		return sourceRow{}, false, nil
	}
	row := s.rows[s.idx]
	s.idx++
	return row, true, nil
}

func TestBuildGraph_ResolvesDocketToMultipleTargets(t *testing.T) {
	rows := []sourceRow{
		{DecisionID: "d_old", DocketNumber: "ZB.2016.28", Court: "bs_gerichte", Canton: "BS", Language: "de", DecisionDate: "2017-04-13"},
		{DecisionID: "d_new", DocketNumber: "ZB.2016.28", Court: "bs_appellationsgericht", Canton: "BS", Language: "de", DecisionDate: "2018-08-23"},
		{DecisionID: "d_source", DocketNumber: "4A_291/2017", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2018-06-11", FullText: "Vgl. ZB.2016.28."},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	stats, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CitationsResolved)
	assert.Equal(t, 2, stats.CitationTargetLinks)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	rs, err := db.conn.Query(`SELECT target_decision_id, confidence_score FROM citation_targets ORDER BY confidence_score DESC`)
	require.NoError(t, err)
	defer rs.Close()
	var targets []string
	var confidences []float64
	for rs.Next() {
		var target string
		var conf float64
		require.NoError(t, rs.Scan(&target, &conf))
		targets = append(targets, target)
		confidences = append(confidences, conf)
	}
	require.Len(t, targets, 2)
	// d_old is cited in proper chronological order (source postdates target)
	// and so outscores d_new despite ranking lower by recency.
	assert.Equal(t, "d_old", targets[0])
	assert.Equal(t, "d_new", targets[1])
	assert.Greater(t, confidences[0], confidences[1])
}

func TestBuildGraph_IsIdempotentAcrossRebuilds(t *testing.T) {
	rows := []sourceRow{
		{DecisionID: "d1", DocketNumber: "1A.122/2005", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2005-01-01", FullText: "Art. 8 EMRK. BGE 147 I 268."},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)
	_, err = BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var statuteMention, citationMention int
	require.NoError(t, db.conn.QueryRow(`SELECT mention_count FROM decision_statutes`).Scan(&statuteMention))
	require.NoError(t, db.conn.QueryRow(`SELECT mention_count FROM decision_citations`).Scan(&citationMention))
	assert.Equal(t, 1, statuteMention)
	assert.Equal(t, 1, citationMention)
}

func TestBuildGraph_PreservesExistingSnapshotOnError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")
	seed, err := Open(dbPath)
	require.NoError(t, err)
	_, err = seed.conn.Exec(`INSERT INTO decisions(decision_id) VALUES ('seed')`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	failing := &erroringRowSource{}
	_, err = BuildGraph(context.Background(), failing, BuildOptions{DBPath: dbPath})
	assert.Error(t, err)

	_, statErr := os.Stat(dbPath + ".tmp")
	assert.True(t, os.IsNotExist(statErr))

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&count))
	assert.Equal(t, 1, count)
}

type erroringRowSource struct{}

func (e *erroringRowSource) Next(ctx context.Context) (sourceRow, bool, error) {
	return sourceRow{}, false, assertErr
}

var assertErr = &rowSourceError{"simulated source read failure"}

type rowSourceError struct{ msg string }

func (e *rowSourceError) Error() string { return e.msg }

func TestBuildGraph_MarksPriorInstance(t *testing.T) {
	rows := []sourceRow{
		{DecisionID: "d_lower", DocketNumber: "SBK.2025.285", Court: "ag_obergericht", Canton: "AG", Language: "de", DecisionDate: "2025-11-13"},
		{
			DecisionID: "d_bger", DocketNumber: "7B_1266/2025", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2026-01-21",
			FullText: "Gegenstand\nNichtanhandnahme; Gegenstandslosigkeit,\nBeschwerde gegen den Entscheid des Obergerichts des Kantons Aargau, Beschwerdekammer in Strafsachen, vom 13. November 2025 (SBK.2025.285).\nErwägungen:\n1. Vgl. auch 4A_291/2017.\n",
		},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	stats, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.PriorInstanceLinks, 1)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var targetRef string
	require.NoError(t, db.conn.QueryRow(
		`SELECT target_ref FROM decision_citations WHERE source_decision_id = 'd_bger' AND is_prior_instance = 1`,
	).Scan(&targetRef))
	assert.Equal(t, "SBK_2025_285", targetRef)

	var otherFlag int
	require.NoError(t, db.conn.QueryRow(
		`SELECT is_prior_instance FROM decision_citations WHERE source_decision_id = 'd_bger' AND target_ref = '4A_291_2017'`,
	).Scan(&otherFlag))
	assert.Equal(t, 0, otherFlag)

	var resolved string
	require.NoError(t, db.conn.QueryRow(
		`SELECT target_decision_id FROM citation_targets WHERE source_decision_id = 'd_bger' AND target_ref = 'SBK_2025_285'`,
	).Scan(&resolved))
	assert.Equal(t, "d_lower", resolved)
}
