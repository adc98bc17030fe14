package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferCourtFromDocket(t *testing.T) {
	assert.Equal(t, "bger", inferCourtFromDocket("6B_1234_2025"))
	assert.Equal(t, "bger", inferCourtFromDocket("4A_291_2017"))
	assert.Equal(t, "bger", inferCourtFromDocket("1C_100_2024"))

	assert.Equal(t, "bvger", inferCourtFromDocket("E_5783_2024"))
	assert.Equal(t, "bvger", inferCourtFromDocket("D_8226_2025"))
	assert.Equal(t, "bvger", inferCourtFromDocket("A_1234_2025"))

	assert.Equal(t, "bstger", inferCourtFromDocket("SK_2025_1234"))
	assert.Equal(t, "bstger", inferCourtFromDocket("BB_2024_100"))

	assert.Empty(t, inferCourtFromDocket("ZB_2016_28"))
	assert.Empty(t, inferCourtFromDocket("VB_2018_00411"))
	assert.Empty(t, inferCourtFromDocket(""))
}

func TestCitationConfidence_BaseScore(t *testing.T) {
	score := citationConfidence(confidenceInput{candidateRank: 1, candidateCount: 1})
	assert.InDelta(t, 0.60, score, 0.001) // 0.55 base + 0.05 rank-1 bonus
}

func TestCitationConfidence_DocketPatternAgreementBoosts(t *testing.T) {
	score := citationConfidence(confidenceInput{
		targetRef:      "4A_291_2017",
		targetCourt:    "bger",
		candidateRank:  1,
		candidateCount: 1,
	})
	assert.Greater(t, score, 0.70)
}

func TestCitationConfidence_DocketPatternDisagreementPenalizes(t *testing.T) {
	score := citationConfidence(confidenceInput{
		targetRef:      "4A_291_2017",
		targetCourt:    "ge_gerichte",
		candidateRank:  1,
		candidateCount: 1,
	})
	assert.Less(t, score, 0.60)
}

func TestCitationConfidence_ClampedToRange(t *testing.T) {
	score := citationConfidence(confidenceInput{
		targetRef:      "4A_291_2017",
		targetCourt:    "ge_gerichte",
		sourceDate:     "2015-01-01",
		targetDate:     "2020-01-01",
		candidateRank:  5,
		candidateCount: 10,
	})
	assert.GreaterOrEqual(t, score, 0.05)
	assert.LessOrEqual(t, score, 0.99)
}

func TestCitationConfidence_DiversityPenaltyCapped(t *testing.T) {
	count3 := citationConfidence(confidenceInput{candidateRank: 3, candidateCount: 3})
	count20 := citationConfidence(confidenceInput{candidateRank: 3, candidateCount: 20})
	assert.InDelta(t, 0.49, count3, 0.001)  // 0.55 base - 0.03*(3-1)
	assert.InDelta(t, 0.40, count20, 0.001) // 0.55 base - capped 0.15
}
