package store

import "database/sql"

// Schema is the complete venuery staging schema.
const Schema = `
-- Ingestion jobs: one row per batch run
CREATE TABLE IF NOT EXISTS ingestion_jobs (
    id                  TEXT PRIMARY KEY,
    kind                TEXT NOT NULL DEFAULT 'hybrid',
    category            TEXT NOT NULL DEFAULT '',
    terms               TEXT NOT NULL DEFAULT '[]',
    images_per_item     INTEGER NOT NULL DEFAULT 12,
    max_results         INTEGER NOT NULL DEFAULT 0,
    status              TEXT NOT NULL DEFAULT 'running',
    total_items         INTEGER NOT NULL DEFAULT 0,
    processed_items     INTEGER NOT NULL DEFAULT 0,
    successful_items    INTEGER NOT NULL DEFAULT 0,
    failed_items        INTEGER NOT NULL DEFAULT 0,
    duplicate_items     INTEGER NOT NULL DEFAULT 0,
    validation_failures INTEGER NOT NULL DEFAULT 0,
    database_failures   INTEGER NOT NULL DEFAULT 0,
    credits_used        INTEGER NOT NULL DEFAULT 0,
    error_log           TEXT NOT NULL DEFAULT '[]',
    started_at          INTEGER NOT NULL,
    completed_at        INTEGER
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON ingestion_jobs(status, started_at DESC);

-- Staging items: vetted records awaiting human review
CREATE TABLE IF NOT EXISTS staging_items (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    category         TEXT NOT NULL DEFAULT '',
    primary_image    TEXT NOT NULL DEFAULT '',
    images           TEXT NOT NULL DEFAULT '[]',
    image_count      INTEGER NOT NULL DEFAULT 0,
    raw_content      TEXT NOT NULL DEFAULT '{}',
    confidence_score INTEGER NOT NULL DEFAULT 0,
    source_urls      TEXT NOT NULL DEFAULT '[]',
    status           TEXT NOT NULL DEFAULT 'pending',
    scraping_job_id  TEXT NOT NULL DEFAULT '',
    rescrape_count   INTEGER NOT NULL DEFAULT 0,
    thumbnail_reason TEXT NOT NULL DEFAULT '',
    used_placeholders INTEGER NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_staging_status ON staging_items(status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_staging_category ON staging_items(category);

-- Version history: append-only, one row per re-ingestion
CREATE TABLE IF NOT EXISTS staging_versions (
    item_id          TEXT NOT NULL REFERENCES staging_items(id) ON DELETE CASCADE,
    version          INTEGER NOT NULL,
    scraped_at       INTEGER NOT NULL,
    image_count      INTEGER NOT NULL DEFAULT 0,
    confidence_score INTEGER NOT NULL DEFAULT 0,
    note             TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (item_id, version)
);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
