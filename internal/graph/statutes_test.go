package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatuteDecisions_OrdersByDateWhenMentionCountsTie(t *testing.T) {
	// ExtractStatutes dedups repeats within a single decision's text, so
	// mention_count is 1 per decision-statute pair here; both rows tie and
	// the date-descending tiebreaker decides the order.
	rows := []sourceRow{
		{
			DecisionID: "d1", DocketNumber: "1A.1/2020", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2020-01-01",
			FullText: "Art. 8 EMRK.",
		},
		{
			DecisionID: "d2", DocketNumber: "1A.2/2021", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2021-01-01",
			FullText: "Art. 8 EMRK.",
		},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	decisions, err := db.StatuteDecisions(context.Background(), "emrk", "8", 200)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, "d2", decisions[0].DecisionID)
	assert.Equal(t, 1, decisions[0].MentionCount)
	assert.Equal(t, "d1", decisions[1].DecisionID)
	assert.Equal(t, 1, decisions[1].MentionCount)
}

func TestStatuteDecisions_NoMatchesReturnsEmpty(t *testing.T) {
	rows := []sourceRow{
		{DecisionID: "d1", DocketNumber: "1A.1/2020", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2020-01-01", FullText: "Art. 8 EMRK."},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	decisions, err := db.StatuteDecisions(context.Background(), "zgb", "641", 200)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}
