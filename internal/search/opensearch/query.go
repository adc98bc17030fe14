package opensearch

import (
	"strings"

	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/search"
)

// buildFilterClauses ports query_planner.py's _build_filter_clauses: term
// filters (lowercased, except canton uppercased) plus a decision_date range.
func buildFilterClauses(f model.SearchFilters) []map[string]any {
	var clauses []map[string]any
	if f.Court != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"court": strings.ToLower(f.Court)}})
	}
	if f.Canton != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"canton": strings.ToUpper(f.Canton)}})
	}
	if f.Language != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"language": strings.ToLower(f.Language)}})
	}
	if f.DecisionType != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"decision_type": strings.ToLower(f.DecisionType)}})
	}
	if f.LegalArea != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"legal_area": strings.ToLower(f.LegalArea)}})
	}
	if f.DateFrom != "" || f.DateTo != "" {
		rangeBody := map[string]any{}
		if f.DateFrom != "" {
			rangeBody["gte"] = f.DateFrom
		}
		if f.DateTo != "" {
			rangeBody["lt"] = f.DateTo
		}
		clauses = append(clauses, map[string]any{"range": map[string]any{"decision_date": rangeBody}})
	}
	return clauses
}

func docketNorm(q string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(q)), " ", "")
}

// buildLexicalQuery ports query_planner.py's _build_lexical_query: the
// per-intent field-boost shapes from spec §4.5's "Lexical query shape".
func buildLexicalQuery(query string, intent search.Intent, filters model.SearchFilters) map[string]any {
	filterClauses := buildFilterClauses(filters)
	var must []map[string]any

	switch intent {
	case search.IntentDocket:
		should := []map[string]any{
			{"term": map[string]any{"docket_number.raw": docketNorm(query)}},
			{"term": map[string]any{"decision_id": strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(query), "/", "_"), ".", "_")}},
			{"match_phrase": map[string]any{"docket_number": map[string]any{"query": query, "boost": 6.0}}},
		}
		must = []map[string]any{{"bool": map[string]any{"should": should, "minimum_should_match": 1}}}
	case search.IntentStatute:
		must = []map[string]any{{
			"multi_match": map[string]any{
				"query":    query,
				"type":     "best_fields",
				"fields":   []string{"regeste^5", "title^4", "full_text^2"},
				"operator": "and",
			},
		}}
	case search.IntentCitation:
		must = []map[string]any{{
			"multi_match": map[string]any{
				"query":    query,
				"type":     "best_fields",
				"fields":   []string{"decision_refs^8", "regeste^4", "title^3", "full_text"},
				"operator": "or",
			},
		}}
	case search.IntentBoolean:
		must = []map[string]any{{
			"query_string": map[string]any{
				"query":           query,
				"fields":          []string{"title^4", "regeste^4", "full_text^1.5", "docket_number^6"},
				"default_operator": "AND",
				"lenient":          true,
			},
		}}
	default: // IntentNaturalLanguage
		must = []map[string]any{{
			"multi_match": map[string]any{
				"query":        query,
				"type":         "most_fields",
				"fields":       []string{"title^5", "regeste^4", "full_text^1.7", "docket_number^5"},
				"operator":     "or",
				"fuzziness":    "AUTO:4,7",
				"prefix_length": 1,
			},
		}}
	}

	return map[string]any{"bool": map[string]any{"must": must, "filter": filterClauses}}
}

// buildVectorQuery ports query_planner.py's _build_vector_query (spec §4.5
// "Vector query"): k = min(200, num_candidates).
func buildVectorQuery(queryVector []float32, numCandidates int) map[string]any {
	k := 200
	if numCandidates < k {
		k = numCandidates
	}
	return map[string]any{
		"knn": map[string]any{
			"full_text_embedding": map[string]any{
				"vector":         queryVector,
				"k":              k,
				"num_candidates": numCandidates,
			},
		},
	}
}

var sourceFields = []string{
	"decision_id", "court", "canton", "chamber", "docket_number", "decision_date",
	"publication_date", "language", "title", "regeste", "legal_area", "decision_type",
	"source_url", "pdf_url",
}

// buildSearchRequest ports query_planner.py's build_hybrid_search_request:
// a lexical-only body, or a hybrid lexical+vector body routed through the
// RRF search pipeline when a query vector is supplied.
func buildSearchRequest(query string, filters model.SearchFilters, queryVector []float32, size, numCandidates int, pipeline string) map[string]any {
	intent := search.DetectIntent(query)
	lexical := buildLexicalQuery(query, intent, filters)

	body := map[string]any{
		"size":             size,
		"track_total_hits": true,
		"_source":          map[string]any{"includes": sourceFields},
		"highlight": map[string]any{
			"fields": map[string]any{
				"title":     map[string]any{},
				"regeste":   map[string]any{},
				"full_text": map[string]any{"fragment_size": 220, "number_of_fragments": 3},
			},
		},
	}

	if len(queryVector) > 0 {
		vector := buildVectorQuery(queryVector, numCandidates)
		body["query"] = map[string]any{"hybrid": []map[string]any{lexical, vector}}
		if pipeline != "" {
			body["search_pipeline"] = pipeline
		}
	} else {
		body["query"] = lexical
	}

	return body
}
