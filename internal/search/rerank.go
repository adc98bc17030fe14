package search

import (
	"sort"
	"strings"

	"github.com/jura-stack/jura/internal/textutil"
)

// candidate is one BM25 hit pulled from decisions_fts, carrying enough of
// the underlying row to rerank and to shape the final result.
type candidate struct {
	decisionID   string
	court        string
	canton       string
	docketNumber string
	decisionDate string
	language     string
	title        string
	regeste      string
	legalArea    string
	sourceURL    string
	pdfURL       string
	fullText     string
	titleHL      string // highlight() output for title, empty for rows fetched outside FTS
	regesteHL    string // highlight() output for regeste
	fullTextHL   string // snippet() output for full_text
	bm25Rank     int    // 0-indexed position in the BM25-ordered candidate list
}

// rerank implements spec §4.5's "Reranking" step: after retrieving up to
// K=3*limit BM25 candidates, rescore by a weighted sum of an exact-docket
// bonus, phrase occurrence in title/regeste, and token coverage of
// title+regeste vs. full_text, then truncate to limit.
func rerank(query string, candidates []candidate, limit int) []scoredCandidate {
	queryTokens := tokenize(query)
	normalizedQueryDocket := textutil.NormalizeDocket(query)
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	scored := make([]scoredCandidate, len(candidates))
	for i, c := range candidates {
		bm25Score := 1.0 / float64(1+c.bm25Rank)

		var docketBonus float64
		if normalizedQueryDocket != "" && normalizedQueryDocket == textutil.NormalizeDocket(c.docketNumber) {
			docketBonus = 0.5
		}

		var phraseBonus float64
		if lowerQuery != "" {
			titleRegeste := strings.ToLower(c.title + " " + c.regeste)
			if strings.Contains(titleRegeste, lowerQuery) {
				phraseBonus = 0.2
			}
		}

		coverageBonus := tokenCoverage(queryTokens, c.title+" "+c.regeste)*0.2 + tokenCoverage(queryTokens, c.fullText)*0.1

		scored[i] = scoredCandidate{candidate: c, relevance: bm25Score + docketBonus + phraseBonus + coverageBonus}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].relevance > scored[j].relevance })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

type scoredCandidate struct {
	candidate
	relevance float64
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// tokenCoverage returns the fraction of queryTokens present in text.
func tokenCoverage(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	found := 0
	for _, t := range queryTokens {
		if strings.Contains(lower, t) {
			found++
		}
	}
	return float64(found) / float64(len(queryTokens))
}
