package repository

// Schema definitions for the Askari database.
// Compatible with both SQLite and PostgreSQL.

const schemaAnalyses = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    domain TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    score REAL NOT NULL,
    decision TEXT NOT NULL,
    factors TEXT,
    result TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_domain ON analyses(domain);
CREATE INDEX IF NOT EXISTS idx_analyses_subject ON analyses(subject_id, created_at);
`

const schemaRuleTables = `
CREATE TABLE IF NOT EXISTS rule_tables (
    domain TEXT PRIMARY KEY,
    version TEXT NOT NULL,
    base REAL NOT NULL,
    min REAL NOT NULL,
    max REAL NOT NULL,
    rules TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaBehaviorSignals = `
CREATE TABLE IF NOT EXISTS behavior_signals (
    user_id TEXT PRIMARY KEY,
    account_created_at TIMESTAMP,
    transaction_count_24h INTEGER NOT NULL DEFAULT 0,
    device_count INTEGER NOT NULL DEFAULT 0,
    location_changes_24h INTEGER NOT NULL DEFAULT 0,
    payment_method_count INTEGER NOT NULL DEFAULT 0,
    cancellation_rate REAL NOT NULL DEFAULT 0,
    verification_score REAL NOT NULL DEFAULT 0,
    spam_score REAL NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaMarketSnapshots = `
CREATE TABLE IF NOT EXISTS market_snapshots (
    location TEXT PRIMARY KEY,
    competition_count INTEGER NOT NULL DEFAULT 0,
    competition_level TEXT NOT NULL,
    average_price REAL NOT NULL DEFAULT 0,
    demand_trend TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaTrainingRecords = `
CREATE TABLE IF NOT EXISTS training_records (
    domain TEXT NOT NULL,
    features TEXT NOT NULL,
    label REAL NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_training_records_domain ON training_records(domain, created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaAnalyses,
		schemaRuleTables,
		schemaBehaviorSignals,
		schemaMarketSnapshots,
		schemaTrainingRecords,
	}
}
