package search

import "strings"

// sanitizeFTSQuery implements spec §4.5's defensive requirement: "strip
// unmatched quotes and stray structural characters (:, unbalanced parens)
// before composing the FTS5 expression." FTS5's query syntax treats these
// characters specially, and a raw user query containing a stray one raises
// a syntax error instead of degrading gracefully.
func sanitizeFTSQuery(q string) string {
	q = strings.TrimSpace(q)
	q = dropUnmatchedQuotes(q)
	q = dropUnmatchedParens(q)
	q = strings.ReplaceAll(q, ":", " ")
	return strings.Join(strings.Fields(q), " ")
}

func dropUnmatchedQuotes(q string) string {
	if strings.Count(q, `"`)%2 == 0 {
		return q
	}
	return strings.ReplaceAll(q, `"`, "")
}

func dropUnmatchedParens(q string) string {
	depth := 0
	for _, r := range q {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return stripParens(q)
			}
		}
	}
	if depth != 0 {
		return stripParens(q)
	}
	return q
}

func stripParens(q string) string {
	var b strings.Builder
	for _, r := range q {
		if r == '(' || r == ')' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// plainTokenizedOR builds a naive fallback FTS5 MATCH expression: every
// token ORed together. Used when the planner's shaped query fails to parse
// (spec §4.5 "On FTS5 parse failure, it falls back to a plain tokenized OR
// query over the searchable fields").
func plainTokenizedOR(q string) string {
	fields := strings.Fields(sanitizeFTSQuery(q))
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, "") + `"`
	}
	return strings.Join(quoted, " OR ")
}
