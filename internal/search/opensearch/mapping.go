package opensearch

// analysisSettings ports original_source/search_stack/opensearch_schema.py's
// _analysis_settings(): per-language stemmer filters plus a lowercase/
// asciifolding normalizer for keyword fields.
func analysisSettings() map[string]any {
	return map[string]any{
		"analysis": map[string]any{
			"filter": map[string]any{
				"de_stemmer": map[string]any{"type": "stemmer", "language": "german"},
				"fr_stemmer": map[string]any{"type": "stemmer", "language": "french"},
				"it_stemmer": map[string]any{"type": "stemmer", "language": "italian"},
			},
			"analyzer": map[string]any{
				"legal_default": map[string]any{
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "asciifolding"},
				},
				"legal_de": map[string]any{
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "asciifolding", "de_stemmer"},
				},
				"legal_fr": map[string]any{
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "asciifolding", "fr_stemmer"},
				},
				"legal_it": map[string]any{
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "asciifolding", "it_stemmer"},
				},
			},
			"normalizer": map[string]any{
				"lowercase_keyword": map[string]any{
					"type":   "custom",
					"filter": []string{"lowercase", "asciifolding"},
				},
			},
		},
	}
}

// DecisionsIndexMapping builds the decisions index body: keyword filters,
// text fields analyzed with legal_default and copied into all_text, and a
// knn_vector field for the decision-level embedding (spec §4.4/§4.5).
func DecisionsIndexMapping(vectorDim, shards, replicas int) map[string]any {
	settings := analysisSettings()
	settings["index"] = map[string]any{
		"number_of_shards":   shards,
		"number_of_replicas": replicas,
		"knn":                true,
	}

	return map[string]any{
		"settings": settings,
		"mappings": map[string]any{
			"dynamic": false,
			"properties": map[string]any{
				"decision_id":      map[string]any{"type": "keyword"},
				"docket_number":    map[string]any{"type": "text", "analyzer": "legal_default", "fields": map[string]any{"raw": map[string]any{"type": "keyword", "normalizer": "lowercase_keyword"}}},
				"docket_number_2":  map[string]any{"type": "keyword", "normalizer": "lowercase_keyword"},
				"court":            map[string]any{"type": "keyword"},
				"canton":           map[string]any{"type": "keyword"},
				"chamber":          map[string]any{"type": "keyword"},
				"language":         map[string]any{"type": "keyword"},
				"decision_date":    map[string]any{"type": "date", "format": "yyyy-MM-dd||strict_date_optional_time"},
				"publication_date": map[string]any{"type": "date", "format": "yyyy-MM-dd||strict_date_optional_time"},
				"title":            map[string]any{"type": "text", "analyzer": "legal_default", "copy_to": "all_text"},
				"legal_area":       map[string]any{"type": "keyword"},
				"decision_type":    map[string]any{"type": "keyword"},
				"outcome":          map[string]any{"type": "keyword"},
				"regeste":          map[string]any{"type": "text", "analyzer": "legal_default", "copy_to": "all_text"},
				"full_text":        map[string]any{"type": "text", "analyzer": "legal_default", "copy_to": "all_text"},
				"all_text":         map[string]any{"type": "text", "analyzer": "legal_default"},
				"source_url":       map[string]any{"type": "keyword", "index": false},
				"pdf_url":          map[string]any{"type": "keyword", "index": false},
				"scraped_at":       map[string]any{"type": "date", "format": "strict_date_optional_time||epoch_millis"},
				"decision_refs":    map[string]any{"type": "keyword"},
				"full_text_embedding": map[string]any{
					"type":      "knn_vector",
					"dimension": vectorDim,
					"method": map[string]any{
						"name":       "hnsw",
						"space_type": "cosinesimil",
						"engine":     "lucene",
						"parameters": map[string]any{"ef_construction": 128, "m": 16},
					},
				},
			},
		},
	}
}

// SearchPipelineBody builds the RRF score-ranker pipeline used for hybrid
// lexical+vector queries (spec §4.5 "Hybrid fusion").
func SearchPipelineBody(rankConstant, windowSize int) map[string]any {
	return map[string]any{
		"description": "Hybrid lexical/vector reciprocal rank fusion for Swiss caselaw",
		"phase_results_processors": []map[string]any{
			{
				"score-ranker-processor": map[string]any{
					"combination": map[string]any{
						"technique":     "rrf",
						"rank_constant": rankConstant,
						"window_size":   windowSize,
					},
				},
			},
		},
	}
}
