package graph

import (
	"regexp"
	"time"
)

var bgerDocketPattern = regexp.MustCompile(`^[1-9][A-Z]_\d`)
var bvgerDocketPattern = regexp.MustCompile(`^[A-F]_\d{1,6}_\d{4}$`)
var bstgerPrefixPattern = regexp.MustCompile(`^([A-Z]{2})_`)

var bstgerPrefixes = map[string]bool{
	"BB": true, "BG": true, "BH": true, "BK": true, "BN": true, "BP": true,
	"CA": true, "CB": true, "CR": true, "RR": true,
	"SK": true, "SN": true, "SP": true, "TP": true,
}

// inferCourtFromDocket guesses the issuing court from docket shape alone
// (spec §4.6 "court-pattern inference"): BGer uses digit+letter prefixes,
// BVGer a single letter A-F, BStGer a closed set of two-letter codes.
func inferCourtFromDocket(docketNorm string) string {
	if docketNorm == "" {
		return ""
	}
	if bgerDocketPattern.MatchString(docketNorm) {
		return "bger"
	}
	if bvgerDocketPattern.MatchString(docketNorm) {
		return "bvger"
	}
	if m := bstgerPrefixPattern.FindStringSubmatch(docketNorm); m != nil && bstgerPrefixes[m[1]] {
		return "bstger"
	}
	return ""
}

type confidenceInput struct {
	sourceCourt    string
	sourceCanton   string
	sourceDate     string
	targetCourt    string
	targetCanton   string
	targetDate     string
	targetRef      string
	candidateRank  int
	candidateCount int
}

// citationConfidence implements spec §4.6's exact scoring walk, starting at
// 0.55 and clamped to [0.05, 0.99].
func citationConfidence(in confidenceInput) float64 {
	score := 0.55

	if in.targetRef != "" {
		inferred := inferCourtFromDocket(in.targetRef)
		if inferred != "" && in.targetCourt != "" {
			if in.targetCourt == inferred {
				score += 0.20
			} else {
				score -= 0.20
			}
		}
	}

	if in.sourceCanton != "" && in.targetCanton != "" && in.sourceCanton == in.targetCanton {
		score += 0.10
	}
	if in.sourceCourt != "" && in.targetCourt != "" && in.sourceCourt == in.targetCourt {
		score += 0.08
	}

	srcDate, srcOK := parseISODate(in.sourceDate)
	tgtDate, tgtOK := parseISODate(in.targetDate)
	if srcOK && tgtOK {
		delta := srcDate.Sub(tgtDate)
		deltaDays := int(delta.Hours() / 24)
		if deltaDays >= 0 {
			score += 0.15
		} else {
			score -= 0.15
		}

		absDays := deltaDays
		if absDays < 0 {
			absDays = -absDays
		}
		switch {
		case absDays <= 365:
			score += 0.10
		case absDays <= 3*365:
			score += 0.05
		}
	}

	switch in.candidateRank {
	case 1:
		score += 0.05
	case 2:
		score += 0.02
	}

	if in.candidateCount > 1 {
		penalty := 0.03 * float64(in.candidateCount-1)
		if penalty > 0.15 {
			penalty = 0.15
		}
		score -= penalty
	}

	if score < 0.05 {
		return 0.05
	}
	if score > 0.99 {
		return 0.99
	}
	return score
}

func parseISODate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
