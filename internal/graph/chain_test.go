package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeHopRows() []sourceRow {
	return []sourceRow{
		{
			DecisionID: "d_bezirksgericht", DocketNumber: "ZG.2024.100", Court: "zh_bezirksgericht",
			Canton: "ZH", Language: "de", DecisionDate: "2024-03-01",
		},
		{
			DecisionID: "d_obergericht", DocketNumber: "OG.2025.50", Court: "zh_obergericht",
			Canton: "ZH", Language: "de", DecisionDate: "2025-01-15",
			FullText: "Gegenstand\nUnterhalt\nBeschwerde gegen den Entscheid des Bezirksgerichts des Kantons Zug vom 1. März 2024 (ZG.2024.100).\nErwägungen:\n",
		},
		{
			DecisionID: "d_bger", DocketNumber: "5A_100/2025", Court: "bger",
			Canton: "CH", Language: "de", DecisionDate: "2026-02-01",
			FullText: "Gegenstand\nUnterhalt\nBeschwerde gegen den Entscheid des Obergerichts des Kantons Zürich vom 15. Januar 2025 (OG.2025.50).\nErwägungen:\n",
		},
	}
}

func TestAppealChain_ThreeHopChain(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: threeHopRows()}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	chain, err := db.AppealChain(context.Background(), "d_bger")
	require.NoError(t, err)
	require.Len(t, chain, 2)

	assert.Equal(t, "d_bezirksgericht", chain[0].DecisionID)
	assert.Equal(t, "d_obergericht", chain[1].DecisionID)
	for _, e := range chain {
		assert.Equal(t, "prior_instance", e.Relation)
	}
}

func TestAppealChain_FromMiddleOfChainFindsBothDirections(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: threeHopRows()}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	chain, err := db.AppealChain(context.Background(), "d_obergericht")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.ElementsMatch(t, []string{"d_bezirksgericht", "d_bger"}, []string{chain[0].DecisionID, chain[1].DecisionID})
}

func TestAppealChain_NoNeighborsReturnsEmpty(t *testing.T) {
	rows := []sourceRow{
		{DecisionID: "d_alone", DocketNumber: "1A.1/2020", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2020-01-01"},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	chain, err := db.AppealChain(context.Background(), "d_alone")
	require.NoError(t, err)
	assert.Empty(t, chain)
}
