// Package graph builds and queries the derived reference graph: statute
// mentions, case citations, and the appeal-chain prior-instance edges
// between decisions (spec §4.6, §4.7). Extraction patterns and the
// confidence-scoring formula are grounded on
// original_source/search_stack/reference_extraction.py and
// build_reference_graph.py; the atomic tmp-then-rename build, and the
// single-writer SQLite wrapper, follow internal/vectorstore's MergeShards
// and internal/store's DB.
package graph

import (
	"regexp"
	"strings"

	"github.com/jura-stack/jura/internal/model"
)

const (
	articleMarker   = `(?:Art\.?|Artikel)`
	paragraphMarker = `(?:Abs\.?|Absatz|al\.?|alin(?:ea)?\.?|cpv\.?|co\.?|para\.?)`
	ordinalSuffix   = `(?:bis|ter|quater|quinquies|sexies)`
	followingMarker = `(?:ff|ss|segg)\.?`
	subMarker       = `(?:Ziff(?:er)?|lit|Bst|Buchst|S|Satz|ch|let|n)`
	subToken        = `(?:\d+|[a-z])`
)

// articleToken approximates reference_extraction.py's article/paragraph
// token: a number, optionally followed by an ordinal suffix ("8bis") or a
// single trailing letter ("34a"). Go's RE2 engine has no lookahead, so the
// "not followed by another lowercase letter" guard the Python pattern uses
// to reject "34abc" is dropped; ExtractStatutes' uppercase-count check and
// invalidLawCodes blocklist reject most of what that guard was there to filter.
var articleToken = `\d+(?:\s*` + ordinalSuffix + `|[a-z])?`

var statutePattern = regexp.MustCompile(`(?i)\b` + articleMarker + `\s*` +
	`(?P<article>` + articleToken + `)\s*` +
	`(?:` + paragraphMarker + `\s*(?P<paragraph>` + articleToken + `))?\s*` +
	`(?:` + followingMarker + `\s+)?` +
	`(?:` + subMarker + `\.?\s*` + subToken + `\s+)?` +
	`(?P<law>[A-Z][A-Z0-9]{1,11}(?:/[A-Z0-9]{2,6})?)\b`)

var bgePattern = regexp.MustCompile(`(?i)\bBGE\s+(?P<vol>\d{2,3})\s+(?P<div>[IVX]{1,4})\s+(?P<page>\d{1,4})\b`)

var docketPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z0-9]{1,4}[._-]\d{1,6}[/_]\d{4}\b`),
	regexp.MustCompile(`\b[A-Z]{1,6}\.\d{4}\.\d{1,6}\b`),
	regexp.MustCompile(`\b\d{2,3}\s+[IVX]{1,4}\s+\d{1,4}\b`),
}

var bgePrefixBeforeMatch = regexp.MustCompile(`(?i)\bBGE\s*$`)

// invalidLawCodes blocks ~180 common DE/FR/IT words, structural markers,
// prepositions and ordinals that match the law-code shape but are not one
// (spec §4.6).
var invalidLawCodes = map[string]bool{}

func init() {
	for _, code := range []string{
		"AL", "ABS", "ABSATZ", "ALIN", "ALINEA", "CPV", "PARA",
		"BIS", "TER", "QUATER", "QUINQUIES", "SEXIES",
		"FF", "SS", "SEGG", "ZIFF", "ZIFFER", "LIT", "BST", "BUCHST", "SATZ",
		"AB", "AM", "AN", "AUS", "BEI", "BZW", "DA", "DAS", "DEM", "DEN",
		"DER", "DES", "DIE", "DIES", "DURCH", "EIN", "EINE", "EINEM",
		"EINEN", "EINER", "EINES", "ER", "ES", "GEGEN", "HA", "IM", "IN",
		"IST", "JE", "MIT", "NACH", "NEBEN", "NICHT", "NOCH", "NUR",
		"ODER", "OHNE", "SICH", "SIE", "SIND", "SOWIE", "UM", "UND",
		"UNTER", "VOM", "VON", "VOR", "WAR", "WIE", "WIRD", "ZU",
		"ZUM", "ZUR", "ZWISCHEN",
		"AU", "AUX", "AVEC", "CE", "CES", "CETTE", "COMME", "DANS",
		"DE", "DU", "EN", "EST", "ET", "IL", "LA", "LE", "LES",
		"MAIS", "OU", "PAR", "PEUT", "POUR", "QUE", "QUI", "SE",
		"SONT", "SUR", "UN", "UNE",
		"CHE", "CON", "CUI", "DAL", "DEI", "DEL", "DELL", "DELLA",
		"DELLE", "DELLO", "DI", "FRA", "GLI", "NEL", "NELL", "NELLA",
		"NON", "PER", "SUL", "TRA", "UNA", "UNO",
		"ART", "CUM", "DRITTER", "ERSTER", "LETT", "LET", "LETTRE",
		"LITT", "NAPR", "PHR", "PRIMA", "RZ", "SECONDA", "ZWEITER",
		"AD", "AGB", "BI", "CH", "NE", "NI", "NO", "OF", "QU", "RE", "SI",
	} {
		invalidLawCodes[code] = true
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExtractStatutes finds every statute reference in text (spec §4.6
// "Statute references"), deduplicated by normalized form.
func ExtractStatutes(text string) []model.StatuteRef {
	if text == "" {
		return nil
	}

	var refs []model.StatuteRef
	seen := map[string]bool{}

	for _, m := range statutePattern.FindAllStringSubmatch(text, -1) {
		group := namedGroups(statutePattern, m)
		articleRaw := strings.ToLower(whitespaceRun.ReplaceAllString(group["article"], ""))
		var paragraph string
		if p := group["paragraph"]; p != "" {
			paragraph = strings.ToLower(whitespaceRun.ReplaceAllString(p, ""))
		}
		lawRaw := group["law"]

		upperCount := 0
		for _, r := range lawRaw {
			if r >= 'A' && r <= 'Z' {
				upperCount++
			}
		}
		if upperCount == 0 {
			continue
		}
		if upperCount == 1 && len(lawRaw) > 3 {
			continue
		}
		lawCode := strings.ToUpper(lawRaw)
		if invalidLawCodes[lawCode] {
			continue
		}

		normalized := normalizeStatute(articleRaw, paragraph, lawCode)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		refs = append(refs, model.StatuteRef{
			StatuteID: normalized,
			LawCode:   lawCode,
			Article:   articleRaw,
			Paragraph: paragraph,
		})
	}
	return refs
}

func normalizeStatute(article, paragraph, lawCode string) string {
	if paragraph != "" {
		return "ART." + article + ".ABS." + paragraph + "." + lawCode
	}
	return "ART." + article + "." + lawCode
}

func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	out := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || i >= len(match) {
			continue
		}
		out[name] = match[i]
	}
	return out
}

// ExtractCitations finds every case citation in text: BGE references and
// docket-shaped references (spec §4.6 "Case citations"), deduplicated by
// normalized form.
func ExtractCitations(text string) []model.CaseCitation {
	if text == "" {
		return nil
	}

	var refs []model.CaseCitation
	seen := map[string]bool{}

	for _, loc := range bgePattern.FindAllStringSubmatchIndex(text, -1) {
		groups := submatchByIndex(bgePattern, text, loc)
		normalized := "BGE " + groups["vol"] + " " + strings.ToUpper(groups["div"]) + " " + groups["page"]
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		refs = append(refs, model.CaseCitation{TargetRef: normalized, TargetType: "bge", MentionCount: 1})
	}

	for i, pattern := range docketPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			if i == len(docketPatterns)-1 {
				start := loc[0] - 8
				if start < 0 {
					start = 0
				}
				if bgePrefixBeforeMatch.MatchString(text[start:loc[0]]) {
					continue
				}
			}
			normalized := normalizeDocketCitation(raw)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			refs = append(refs, model.CaseCitation{TargetRef: normalized, TargetType: "docket", MentionCount: 1})
		}
	}

	return refs
}

func submatchByIndex(re *regexp.Regexp, text string, loc []int) map[string]string {
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		s, e := loc[2*i], loc[2*i+1]
		if s < 0 || e < 0 {
			continue
		}
		out[name] = text[s:e]
	}
	return out
}

var bgeStyleDocket = regexp.MustCompile(`^\d{2,3}\s+[IVX]{1,4}\s+\d{1,4}$`)

// normalizeDocketCitation mirrors reference_extraction.py's _normalize_docket:
// BGE-style bare refs ("151 I 62") keep their spacing; everything else is
// upper-cased with -./  collapsed to underscores.
func normalizeDocketCitation(raw string) string {
	compact := whitespaceRun.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), " ")
	if bgeStyleDocket.MatchString(compact) {
		return compact
	}
	return normalizeDocketPunctuation(raw)
}

var underscoreRuns = regexp.MustCompile(`_+`)

func normalizeDocketPunctuation(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	replaced := strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(upper)
	collapsed := underscoreRuns.ReplaceAllString(replaced, "_")
	return strings.Trim(collapsed, "_")
}
