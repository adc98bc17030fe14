package search

import "sort"

const (
	rrfRankConstant = 60
	rrfWindowSize   = 300
)

// rrfFuse implements spec §4.5's "Hybrid fusion": Reciprocal Rank Fusion
// over the lexical and vector result windows (each already truncated to
// rrfWindowSize by the caller), scoring every document in the union as
// 1/(rank_constant+rank_lex) + 1/(rank_constant+rank_vec), with a missing
// rank contributing 0. Returns decision IDs sorted by descending score.
func rrfFuse(lexicalRanked, vectorRanked []string) []string {
	lexRank := rankIndex(lexicalRanked, rrfWindowSize)
	vecRank := rankIndex(vectorRanked, rrfWindowSize)

	scores := make(map[string]float64, len(lexRank)+len(vecRank))
	order := make([]string, 0, len(lexRank)+len(vecRank))
	for id := range lexRank {
		if _, seen := scores[id]; !seen {
			order = append(order, id)
		}
		scores[id] = 0
	}
	for id := range vecRank {
		if _, seen := scores[id]; !seen {
			order = append(order, id)
			scores[id] = 0
		}
	}

	for id := range scores {
		var s float64
		if r, ok := lexRank[id]; ok {
			s += 1.0 / float64(rrfRankConstant+r)
		}
		if r, ok := vecRank[id]; ok {
			s += 1.0 / float64(rrfRankConstant+r)
		}
		scores[id] = s
	}

	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })
	return order
}

func rankIndex(ids []string, window int) map[string]int {
	if len(ids) > window {
		ids = ids[:window]
	}
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		idx[id] = i + 1 // rank is 1-based; missing rank contributes 0 via absence
	}
	return idx
}
