package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FixMojibake re-decodes text that was UTF-8 encoded but mistakenly decoded
// as Latin-1 upstream (a recurring defect in scraped HTML/PDF text). It is a
// best-effort round trip: if the input is not valid Latin-1-mangled UTF-8,
// the original string is returned unchanged.
func FixMojibake(s string) string {
	if s == "" || utf8.ValidString(s) && !looksMangled(s) {
		return s
	}
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			// Definitely not a Latin-1 byte; bail out of the repair attempt.
			return s
		}
		buf = append(buf, byte(r))
	}
	if utf8.Valid(buf) {
		return string(buf)
	}
	return s
}

// looksMangled is a cheap heuristic: the classic mojibake markers "Ã¤", "Ã©",
// "â€" appear when UTF-8 bytes for umlauts/accents/quotes are decoded as
// Latin-1 and re-encoded as UTF-8.
func looksMangled(s string) bool {
	return strings.Contains(s, "Ã") || strings.Contains(s, "â€")
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)
var whitespaceRun = regexp.MustCompile(`[ \t\f\v]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// StripHTML removes tags and decodes entities, collapsing intra-line
// whitespace but preserving single newlines between blocks.
func StripHTML(s string) string {
	withoutTags := tagPattern.ReplaceAllString(s, " ")
	decoded := html.UnescapeString(withoutTags)
	return NormalizeWhitespace(decoded)
}

// NormalizeWhitespace collapses runs of spaces/tabs and excess blank lines
// without touching paragraph breaks, so downstream section-splitting (the
// embedder's chunker, the graph builder's header-section isolation) still
// sees double-newlines where they existed.
func NormalizeWhitespace(s string) string {
	collapsed := whitespaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(collapsed, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	joined := strings.Join(lines, "\n")
	return strings.TrimSpace(blankLineRun.ReplaceAllString(joined, "\n\n"))
}

// StripHTMLPreservingParagraphs is the paragraph-preserving variant spec §4.2
// names explicitly: block-level tags become paragraph breaks before tag
// stripping, rather than single spaces.
func StripHTMLPreservingParagraphs(s string) string {
	blockTags := regexp.MustCompile(`(?i)</(p|div|br|li|h[1-6]|tr)>`)
	withBreaks := blockTags.ReplaceAllString(s, "\n\n")
	return StripHTML(withBreaks)
}
