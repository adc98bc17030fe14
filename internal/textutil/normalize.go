// Package textutil centralizes the text-normalization and cleanup utilities
// shared by every extractor and by the reference-graph builder (spec §4.2,
// §9 "ad-hoc string normalization scattered across extractors: centralize in
// one normalization module with property-based tests").
package textutil

import (
	"regexp"
	"strings"
)

var docketSeparators = strings.NewReplacer("-", "_", ".", "_", "/", "_", " ", "_")

var runsOfUnderscore = regexp.MustCompile(`_+`)

// NormalizeDocket implements spec §3's exact rule: upper(docket) with
// -, ., / replaced by _, runs of _ collapsed, and leading/trailing _ trimmed.
func NormalizeDocket(docket string) string {
	upper := strings.ToUpper(strings.TrimSpace(docket))
	replaced := docketSeparators.Replace(upper)
	collapsed := runsOfUnderscore.ReplaceAllString(replaced, "_")
	return strings.Trim(collapsed, "_")
}

// DecisionID builds the canonical primary key from court and docket (spec §3).
func DecisionID(court, docket string) string {
	return strings.ToLower(court) + "_" + NormalizeDocket(docket)
}

// CanonicalKey builds the dedup key from court, docket, and decision date.
// A missing date contributes an empty suffix rather than being omitted, so
// two decisions differing only in a present-vs-absent date are never treated
// as the same canonical_key (see DESIGN.md open-question decision 1).
func CanonicalKey(court, docket, decisionDate string) string {
	return strings.ToLower(court) + "_" + NormalizeDocket(docket) + "_" + decisionDate
}
