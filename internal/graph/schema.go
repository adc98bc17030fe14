package graph

const schemaSQL = `
CREATE TABLE IF NOT EXISTS decisions (
	decision_id TEXT PRIMARY KEY,
	docket_number TEXT,
	docket_norm TEXT,
	court TEXT,
	canton TEXT,
	language TEXT,
	decision_date TEXT
);

CREATE INDEX IF NOT EXISTS idx_decisions_docket_norm ON decisions(docket_norm);
CREATE INDEX IF NOT EXISTS idx_decisions_court ON decisions(court);
CREATE INDEX IF NOT EXISTS idx_decisions_date ON decisions(decision_date);

CREATE TABLE IF NOT EXISTS statutes (
	statute_id TEXT PRIMARY KEY,
	law_code TEXT NOT NULL,
	article TEXT NOT NULL,
	paragraph TEXT
);

CREATE INDEX IF NOT EXISTS idx_statutes_law_article ON statutes(law_code, article);

CREATE TABLE IF NOT EXISTS decision_statutes (
	decision_id TEXT NOT NULL,
	statute_id TEXT NOT NULL,
	mention_count INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (decision_id, statute_id)
);

CREATE INDEX IF NOT EXISTS idx_decision_statutes_statute ON decision_statutes(statute_id);

CREATE TABLE IF NOT EXISTS decision_citations (
	source_decision_id TEXT NOT NULL,
	target_ref TEXT NOT NULL,
	target_type TEXT NOT NULL,
	mention_count INTEGER NOT NULL DEFAULT 1,
	is_prior_instance INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (source_decision_id, target_ref)
);

CREATE INDEX IF NOT EXISTS idx_decision_citations_target_ref ON decision_citations(target_ref);

CREATE TABLE IF NOT EXISTS citation_targets (
	source_decision_id TEXT NOT NULL,
	target_ref TEXT NOT NULL,
	target_decision_id TEXT NOT NULL,
	match_type TEXT NOT NULL DEFAULT 'docket_norm',
	confidence_score REAL NOT NULL DEFAULT 0.5,
	candidate_rank INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (source_decision_id, target_ref, target_decision_id)
);

CREATE INDEX IF NOT EXISTS idx_citation_targets_target_decision_id ON citation_targets(target_decision_id);
`
