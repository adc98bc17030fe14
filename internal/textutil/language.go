package textutil

import (
	"regexp"
	"strings"
)

// closed word lists used to score each candidate language. Small and
// deliberately biased toward function words that appear densely in any
// decision regardless of legal area.
var languageWords = map[string][]string{
	"de": {"der", "die", "das", "und", "ist", "nicht", "mit", "dem", "den", "eine", "für", "gericht", "beschwerde", "entscheid", "erwägung"},
	"fr": {"le", "la", "les", "et", "est", "une", "des", "dans", "pour", "que", "tribunal", "recours", "arrêt", "considérant"},
	"it": {"il", "la", "le", "che", "per", "una", "del", "della", "non", "con", "tribunale", "ricorso", "sentenza", "considerando"},
}

var tokenPattern = regexp.MustCompile(`\p{L}+`)

// DetectLanguage scores tokens against closed word lists per language and
// returns the max-scoring one, defaulting to "de" (spec §4.2).
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	tokens := tokenPattern.FindAllString(lower, -1)
	if len(tokens) == 0 {
		return "de"
	}
	counts := map[string]int{}
	wordSets := map[string]map[string]struct{}{}
	for lang, words := range languageWords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		wordSets[lang] = set
	}
	for _, tok := range tokens {
		for lang, set := range wordSets {
			if _, ok := set[tok]; ok {
				counts[lang]++
			}
		}
	}
	best, bestScore := "de", -1
	for _, lang := range []string{"de", "fr", "it"} {
		if counts[lang] > bestScore {
			best, bestScore = lang, counts[lang]
		}
	}
	if bestScore <= 0 {
		return "de"
	}
	return best
}
