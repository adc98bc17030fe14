package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCitations_OutgoingAndIncoming(t *testing.T) {
	rows := []sourceRow{
		{DecisionID: "d_old", DocketNumber: "ZB.2016.28", Court: "bs_gerichte", Canton: "BS", Language: "de", DecisionDate: "2017-04-13"},
		{
			DecisionID: "d_source", DocketNumber: "4A_291/2017", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2018-06-11",
			FullText: "Vgl. ZB.2016.28. Art. 8 EMRK.",
		},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	outgoing, incoming, err := db.Citations(context.Background(), "d_source", 200)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "ZB_2016_28", outgoing[0].TargetRef)
	assert.Equal(t, "docket", outgoing[0].TargetType)
	assert.Equal(t, "d_old", outgoing[0].TargetDecisionID)
	assert.Equal(t, "docket_norm", outgoing[0].MatchType)
	assert.Equal(t, 1, outgoing[0].MentionCount)
	assert.Greater(t, outgoing[0].ConfidenceScore, 0.0)
	assert.InDelta(t, outgoing[0].ConfidenceScore*1, outgoing[0].WeightedMentionCount, 0.001)
	assert.Empty(t, incoming)

	outgoingOld, incomingOld, err := db.Citations(context.Background(), "d_old", 200)
	require.NoError(t, err)
	assert.Empty(t, outgoingOld)
	require.Len(t, incomingOld, 1)
	assert.Equal(t, "d_source", incomingOld[0].TargetDecisionID)
}

func TestCitations_UnresolvedCitationHasNoTargetDecisionID(t *testing.T) {
	rows := []sourceRow{
		{
			DecisionID: "d_only", DocketNumber: "1A.1/2020", Court: "bger", Canton: "CH", Language: "de", DecisionDate: "2020-01-01",
			FullText: "Vgl. ZZ.9999.99.",
		},
	}
	dbPath := filepath.Join(t.TempDir(), "reference_graph.db")

	_, err := BuildGraph(context.Background(), &sliceRowSource{rows: rows}, BuildOptions{DBPath: dbPath})
	require.NoError(t, err)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	outgoing, _, err := db.Citations(context.Background(), "d_only", 200)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Empty(t, outgoing[0].TargetDecisionID)
	assert.Zero(t, outgoing[0].ConfidenceScore)
	assert.Zero(t, outgoing[0].WeightedMentionCount)
}
