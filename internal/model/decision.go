// Package model holds the canonical record types shared by every component of the
// retrieval core: the fetcher, extractors, the canonical store, the embedder, and
// the reference graph builder all exchange Decision values.
package model

import "time"

// Decision is the canonical record (spec §3). It is produced by an extractor,
// written once to an append-only per-source log, and upserted into the
// canonical store by the ingester.
type Decision struct {
	DecisionID   string `json:"decision_id" validate:"required"`
	CanonicalKey string `json:"canonical_key" validate:"required"`

	Court   string `json:"court" validate:"required"`
	Canton  string `json:"canton" validate:"required"`
	Chamber string `json:"chamber,omitempty"`

	DocketNumber  string `json:"docket_number" validate:"required"`
	DocketNumber2 string `json:"docket_number_2,omitempty"`

	DecisionDate    string `json:"decision_date,omitempty"`    // ISO date, optional
	PublicationDate string `json:"publication_date,omitempty"` // ISO date, optional

	Language string `json:"language" validate:"required,oneof=de fr it rm"`

	Title      string `json:"title,omitempty"`
	Regeste    string `json:"regeste,omitempty"`
	LegalArea  string `json:"legal_area,omitempty"`
	FullText   string `json:"full_text"` // required field, may be empty string

	DecisionType string `json:"decision_type,omitempty"`
	Outcome      string `json:"outcome,omitempty"`
	Judges       string `json:"judges,omitempty"`
	Clerks       string `json:"clerks,omitempty"`
	Collection   string `json:"collection,omitempty"`
	AppealInfo   string `json:"appeal_info,omitempty"`

	SourceURL    string `json:"source_url" validate:"required"`
	PDFURL       string `json:"pdf_url,omitempty"`
	BGEReference string `json:"bge_reference,omitempty"`

	CitedDecisions []string `json:"cited_decisions"`

	ScrapedAt time.Time `json:"scraped_at" validate:"required"`

	ExternalID   string `json:"external_id,omitempty"`
	Source       string `json:"source,omitempty"`
	SourceID     string `json:"source_id,omitempty"`
	SourceSpider string `json:"source_spider,omitempty"`
	ContentHash  string `json:"content_hash,omitempty"`
}

// SearchResult is one item in a search response (spec §4.5 "Result shape").
type SearchResult struct {
	DecisionID      string              `json:"decision_id"`
	Court           string              `json:"court"`
	Canton          string              `json:"canton"`
	DocketNumber    string              `json:"docket_number"`
	DecisionDate    string              `json:"decision_date,omitempty"`
	Language        string              `json:"language"`
	Title           string              `json:"title,omitempty"`
	Regeste         string              `json:"regeste,omitempty"`
	LegalArea       string              `json:"legal_area,omitempty"`
	SourceURL       string              `json:"source_url"`
	PDFURL          string              `json:"pdf_url,omitempty"`
	RelevanceScore  float64             `json:"relevance_score"`
	Highlight       map[string][]string `json:"highlight,omitempty"`
}

// SearchFilters is the set of equality/range filters a query may carry (spec §4.5).
type SearchFilters struct {
	Court        string
	Canton       string
	Language     string
	DecisionType string
	LegalArea    string
	DateFrom     string
	DateTo       string
}

// StatuteRef identifies one normalized statute mention (spec §3, §4.6).
type StatuteRef struct {
	StatuteID string `json:"statute_id"`
	LawCode   string `json:"law_code"`
	Article   string `json:"article"`
	Paragraph string `json:"paragraph,omitempty"`
}

// CaseCitation is one raw extracted citation string plus its kind, prior to
// resolution against the corpus (spec §3 decision_citations).
type CaseCitation struct {
	TargetRef       string `json:"target_ref"`
	TargetType      string `json:"target_type"` // "docket" | "bge"
	MentionCount    int    `json:"mention_count"`
	IsPriorInstance bool   `json:"is_prior_instance"`
}

// CitationTarget is one resolved candidate for a CaseCitation (spec §3 citation_targets).
type CitationTarget struct {
	SourceDecisionID string  `json:"source_decision_id"`
	TargetRef        string  `json:"target_ref"`
	TargetDecisionID string  `json:"target_decision_id"`
	MatchType        string  `json:"match_type"` // docket_norm | bge_norm | legacy_target_decision_id
	ConfidenceScore  float64 `json:"confidence_score"`
	CandidateRank    int     `json:"candidate_rank"`
}

// ChainEntry is one hop in an appeal chain (spec §4.7).
type ChainEntry struct {
	DecisionID   string `json:"decision_id"`
	Court        string `json:"court"`
	DocketNumber string `json:"docket_number"`
	DecisionDate string `json:"decision_date,omitempty"`
	Relation     string `json:"relation"` // always "prior_instance"
}
