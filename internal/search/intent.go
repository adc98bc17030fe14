// Package search implements the query planner and lexical/hybrid search
// engine (spec §4.5), grounded on the teacher's internal/search package
// (Searcher interface, ReScore-style rerank-then-truncate shape) and on
// original_source/search_stack/query_planner.py for the exact intent
// patterns, field boosts, and RRF parameters a from-scratch Go port has to
// preserve.
package search

import "regexp"

// Intent is the first-match-wins query classification (spec §4.5).
type Intent int

const (
	IntentDocket Intent = iota
	IntentCitation
	IntentStatute
	IntentBoolean
	IntentNaturalLanguage
)

func (i Intent) String() string {
	switch i {
	case IntentDocket:
		return "docket"
	case IntentCitation:
		return "citation"
	case IntentStatute:
		return "statute"
	case IntentBoolean:
		return "boolean"
	default:
		return "natural_language"
	}
}

var (
	docketPattern = regexp.MustCompile(`(?i)\b[A-Z]{1,4}[._-]\d{1,6}[./]\d{4}\b|\b[A-Z]{1,4}\.\d{4}\.\d{1,6}\b|\b\d+[A-Z]?[._-]\d{1,6}[./]\d{4}\b`)
	citationPattern = regexp.MustCompile(`(?i)\bBGE\s+\d{2,3}\s+[IVX]+\s+\d+\b`)
	statutePattern  = regexp.MustCompile(`(?i)\b(?:Art\.?|Artikel)\s*\d+[a-z]?\s*(?:Abs\.?\s*\d+)?\s*[A-Z]{2,10}\b`)
	booleanKeyword  = regexp.MustCompile(`(?i)\b(AND|OR|NOT|NEAR)\b`)
)

// DetectIntent classifies a raw query string (spec §4.5 "Intent detection";
// patterns taken in order, first match wins).
func DetectIntent(q string) Intent {
	switch {
	case docketPattern.MatchString(q):
		return IntentDocket
	case citationPattern.MatchString(q):
		return IntentCitation
	case statutePattern.MatchString(q):
		return IntentStatute
	case booleanKeyword.MatchString(q) || hasQuote(q):
		return IntentBoolean
	default:
		return IntentNaturalLanguage
	}
}

func hasQuote(q string) bool {
	for _, r := range q {
		if r == '"' {
			return true
		}
	}
	return false
}
