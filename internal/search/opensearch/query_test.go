package opensearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/search"
)

func TestBuildFilterClauses_LowercasesExceptCanton(t *testing.T) {
	clauses := buildFilterClauses(model.SearchFilters{
		Court:  "BGer",
		Canton: "zh",
	})
	require.Len(t, clauses, 2)
	assert.Equal(t, map[string]any{"term": map[string]any{"court": "bger"}}, clauses[0])
	assert.Equal(t, map[string]any{"term": map[string]any{"canton": "ZH"}}, clauses[1])
}

func TestBuildFilterClauses_DateRangeIsHalfOpen(t *testing.T) {
	clauses := buildFilterClauses(model.SearchFilters{
		DateFrom: "2020-01-01",
		DateTo:   "2021-01-01",
	})
	require.Len(t, clauses, 1)
	rangeClause := clauses[0]["range"].(map[string]any)
	body := rangeClause["decision_date"].(map[string]any)
	assert.Equal(t, "2020-01-01", body["gte"])
	assert.Equal(t, "2021-01-01", body["lt"])
}

func TestBuildFilterClauses_EmptyFiltersYieldNoClauses(t *testing.T) {
	clauses := buildFilterClauses(model.SearchFilters{})
	assert.Empty(t, clauses)
}

func TestBuildLexicalQuery_DocketUsesShouldClauseOnDocketFields(t *testing.T) {
	q := buildLexicalQuery("BGer 1C_123/2020", search.IntentDocket, model.SearchFilters{})
	boolClause := q["bool"].(map[string]any)
	must := boolClause["must"].([]map[string]any)
	require.Len(t, must, 1)
	inner := must[0]["bool"].(map[string]any)
	assert.Equal(t, 1, inner["minimum_should_match"])
	should := inner["should"].([]map[string]any)
	assert.Len(t, should, 3)
}

func TestBuildLexicalQuery_StatuteBoostsRegesteHighest(t *testing.T) {
	q := buildLexicalQuery("Art. 8 Abs. 2 BV", search.IntentStatute, model.SearchFilters{})
	boolClause := q["bool"].(map[string]any)
	must := boolClause["must"].([]map[string]any)
	mm := must[0]["multi_match"].(map[string]any)
	assert.Equal(t, "best_fields", mm["type"])
	assert.Equal(t, "and", mm["operator"])
	fields := mm["fields"].([]string)
	assert.Equal(t, "regeste^5", fields[0])
}

func TestBuildLexicalQuery_CitationBoostsDecisionRefsHighest(t *testing.T) {
	q := buildLexicalQuery("BGE 140 III 16", search.IntentCitation, model.SearchFilters{})
	boolClause := q["bool"].(map[string]any)
	must := boolClause["must"].([]map[string]any)
	mm := must[0]["multi_match"].(map[string]any)
	assert.Equal(t, "or", mm["operator"])
	fields := mm["fields"].([]string)
	assert.Equal(t, "decision_refs^8", fields[0])
}

func TestBuildLexicalQuery_BooleanUsesQueryString(t *testing.T) {
	q := buildLexicalQuery("fraud AND embezzlement", search.IntentBoolean, model.SearchFilters{})
	boolClause := q["bool"].(map[string]any)
	must := boolClause["must"].([]map[string]any)
	qs := must[0]["query_string"].(map[string]any)
	assert.Equal(t, "AND", qs["default_operator"])
	assert.Equal(t, true, qs["lenient"])
}

func TestBuildLexicalQuery_NaturalLanguageAllowsFuzziness(t *testing.T) {
	q := buildLexicalQuery("unlawful termination of lease", search.IntentNaturalLanguage, model.SearchFilters{})
	boolClause := q["bool"].(map[string]any)
	must := boolClause["must"].([]map[string]any)
	mm := must[0]["multi_match"].(map[string]any)
	assert.Equal(t, "most_fields", mm["type"])
	assert.Equal(t, "AUTO:4,7", mm["fuzziness"])
}

func TestBuildLexicalQuery_FiltersAttachToFilterClause(t *testing.T) {
	q := buildLexicalQuery("something", search.IntentNaturalLanguage, model.SearchFilters{Court: "bger"})
	boolClause := q["bool"].(map[string]any)
	filters := boolClause["filter"].([]map[string]any)
	require.Len(t, filters, 1)
}

func TestBuildVectorQuery_CapsKAt200(t *testing.T) {
	q := buildVectorQuery(make([]float32, 384), 500)
	knn := q["knn"].(map[string]any)["full_text_embedding"].(map[string]any)
	assert.Equal(t, 200, knn["k"])
	assert.Equal(t, 500, knn["num_candidates"])
}

func TestBuildVectorQuery_KNeverExceedsNumCandidates(t *testing.T) {
	q := buildVectorQuery(make([]float32, 384), 50)
	knn := q["knn"].(map[string]any)["full_text_embedding"].(map[string]any)
	assert.Equal(t, 50, knn["k"])
}

func TestBuildSearchRequest_LexicalOnlyOmitsHybrid(t *testing.T) {
	body := buildSearchRequest("lease termination", model.SearchFilters{}, nil, 20, 300, "rrf-pipeline")
	_, hasQuery := body["query"].(map[string]any)
	require.True(t, hasQuery)
	_, hasPipeline := body["search_pipeline"]
	assert.False(t, hasPipeline)
}

func TestBuildSearchRequest_HybridRoutesThroughPipeline(t *testing.T) {
	body := buildSearchRequest("lease termination", model.SearchFilters{}, make([]float32, 384), 20, 300, "rrf-pipeline")
	assert.Equal(t, "rrf-pipeline", body["search_pipeline"])
	query := body["query"].(map[string]any)
	hybrid, ok := query["hybrid"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, hybrid, 2)
}

func TestDocketNorm_StripsSpacesAndLowercases(t *testing.T) {
	assert.Equal(t, "1c_123/2020", docketNorm(" 1C_123 / 2020 "))
}
