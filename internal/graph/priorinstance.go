package graph

import (
	"regexp"
	"strings"
)

var gegenstandRe = regexp.MustCompile(`(?i)\b(?:Gegenstand|Objet|Oggetto)\b`)

var bodyStartRe = regexp.MustCompile(`(?i)\b(?:Erwägung(?:en)?|Sachverhalt|Considérant|Faits|Considerando|Fatti|Visto|In\s+Erwägung)\s*:`)

var priorInstanceRe = regexp.MustCompile(`(?is)\b(?:Beschwerde|Berufung|Rekurs|Einsprache|recours|appel|ricorso)\s+(?:gegen|contre|contro)\b[^(]{10,500}?\(([^)]{3,100})\)`)

var parenDocketRe = regexp.MustCompile(`(?i)[A-Z0-9]{1,6}[./_-]\d{2,6}[./_-]\d{2,6}(?:\s*[-–]\s*[A-Z0-9]{1,6}[./_-]\d{2,6}[./_-]\d{2,6})?`)

// ExtractPriorInstance locates the appeal/prior-instance header section and
// extracts the docket(s) of the decision being appealed (spec §4.6 "Prior-
// instance extraction"), normalized the same way as a case citation.
func ExtractPriorInstance(text string) []string {
	if text == "" {
		return nil
	}

	header := headerSection(text)

	var dockets []string
	seen := map[string]bool{}
	for _, m := range priorInstanceRe.FindAllStringSubmatch(header, -1) {
		parenContent := strings.TrimSpace(m[1])
		for _, docket := range docketsFromParen(parenContent) {
			if docket != "" && !seen[docket] {
				seen[docket] = true
				dockets = append(dockets, docket)
			}
		}
	}
	return dockets
}

func headerSection(text string) string {
	loc := gegenstandRe.FindStringIndex(text)
	if loc == nil {
		if len(text) > 2000 {
			return text[:2000]
		}
		return text
	}
	start := loc[0]
	searchFrom := start + 10
	if searchFrom > len(text) {
		searchFrom = len(text)
	}
	bodyLoc := bodyStartRe.FindStringIndex(text[searchFrom:])
	end := start + 2000
	if bodyLoc != nil {
		end = searchFrom + bodyLoc[0]
	}
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

var dashCommaSemicolonSplit = regexp.MustCompile(`\s+[-–]\s+|[,;]\s*`)

func docketsFromParen(content string) []string {
	if content == "" || content == "..." || content == "…" {
		return nil
	}

	var results []string
	for _, part := range dashCommaSemicolonSplit.Split(content, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		found := false
		for _, pattern := range docketPatterns[:2] {
			matches := pattern.FindAllString(part, -1)
			if len(matches) == 0 {
				continue
			}
			for _, raw := range matches {
				if normalized := normalizeDocketPunctuation(raw); normalized != "" {
					results = append(results, normalized)
					found = true
				}
			}
			break
		}
		if found {
			continue
		}

		if m := parenDocketRe.FindString(part); m != "" {
			if normalized := normalizeDocketPunctuation(m); len(normalized) >= 5 {
				results = append(results, normalized)
				continue
			}
		}

		if len(part) >= 5 && len(part) <= 40 && !strings.Contains(part, " ") &&
			hasDigit(part) && hasAlpha(part) {
			if normalized := normalizeDocketPunctuation(part); len(normalized) >= 5 {
				results = append(results, normalized)
			}
		}
	}
	return results
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func hasAlpha(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
