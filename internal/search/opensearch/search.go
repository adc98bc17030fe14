package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/jura-stack/jura/internal/model"
)

const defaultNumCandidates = 300

// Search executes the planned query (spec §4.5) against the decisions
// index and shapes hits into model.SearchResult. queryVector may be nil to
// request a lexical-only query.
func (c *Client) Search(ctx context.Context, query string, filters model.SearchFilters, queryVector []float32, size int) ([]model.SearchResult, error) {
	if size <= 0 {
		size = 20
	}
	body := buildSearchRequest(query, filters, queryVector, size, defaultNumCandidates, c.pipeline)

	req := opensearchapi.SearchRequest{
		Index: []string{c.index},
		Body:  jsonReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("opensearch: search request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("opensearch: search failed with status: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("opensearch: parse search response: %w", err)
	}
	return parsed.toResults(), nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

type decisionSource struct {
	DecisionID   string `json:"decision_id"`
	Court        string `json:"court"`
	Canton       string `json:"canton"`
	DocketNumber string `json:"docket_number"`
	DecisionDate string `json:"decision_date"`
	Language     string `json:"language"`
	Title        string `json:"title"`
	Regeste      string `json:"regeste"`
	LegalArea    string `json:"legal_area"`
	SourceURL    string `json:"source_url"`
	PDFURL       string `json:"pdf_url"`
}

func (r searchResponse) toResults() []model.SearchResult {
	out := make([]model.SearchResult, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		var src decisionSource
		if err := json.Unmarshal(h.Source, &src); err != nil {
			continue
		}
		out = append(out, model.SearchResult{
			DecisionID:     src.DecisionID,
			Court:          src.Court,
			Canton:         src.Canton,
			DocketNumber:   src.DocketNumber,
			DecisionDate:   src.DecisionDate,
			Language:       src.Language,
			Title:          src.Title,
			Regeste:        src.Regeste,
			LegalArea:      src.LegalArea,
			SourceURL:      src.SourceURL,
			PDFURL:         src.PDFURL,
			RelevanceScore: h.Score,
			Highlight:      h.Highlight,
		})
	}
	return out
}

// IndexDecision upserts one decision document, optionally carrying its
// embedding (full_text_embedding) when a vector has been computed.
func (c *Client) IndexDecision(ctx context.Context, d *model.Decision, embedding []float32) error {
	doc := map[string]any{
		"decision_id":       d.DecisionID,
		"court":             strings.ToLower(d.Court),
		"canton":            strings.ToUpper(d.Canton),
		"chamber":           d.Chamber,
		"docket_number":     d.DocketNumber,
		"docket_number_2":   d.DocketNumber2,
		"decision_date":     d.DecisionDate,
		"publication_date":  d.PublicationDate,
		"language":          d.Language,
		"title":             d.Title,
		"legal_area":        d.LegalArea,
		"decision_type":     d.DecisionType,
		"outcome":           d.Outcome,
		"regeste":           d.Regeste,
		"full_text":         d.FullText,
		"source_url":        d.SourceURL,
		"pdf_url":           d.PDFURL,
		"scraped_at":        d.ScrapedAt,
	}
	if len(embedding) > 0 {
		doc["full_text_embedding"] = embedding
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("opensearch: marshal decision %s: %w", d.DecisionID, err)
	}

	req := opensearchapi.IndexRequest{
		Index:      c.index,
		DocumentID: d.DecisionID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("opensearch: index decision %s: %w", d.DecisionID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("opensearch: index decision %s failed with status: %s", d.DecisionID, res.Status())
	}
	return nil
}
