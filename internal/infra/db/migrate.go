package db

import "database/sql"

// EmbeddingDimension is the fixed vector width persisted per article (§6.4).
// Re-deployments with a new provider/dimension invalidate stored embeddings;
// they are not migrated, only treated as missing on the next embedding pass.
const EmbeddingDimension = 1536

// MigrateUp creates the article and neutral-group tables the store gateway
// (C4) operates against, plus the indices its query patterns rely on.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    article_id           TEXT PRIMARY KEY,
    outlet                TEXT NOT NULL,
    link                  TEXT NOT NULL UNIQUE,
    title                 TEXT NOT NULL,
    raw_description       TEXT,
    scraped_description   TEXT,
    category              TEXT,
    image_url             TEXT,
    pub_date              TIMESTAMPTZ NOT NULL,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at            TIMESTAMPTZ,
    group_id              BIGINT,
    neutral_score         INT,
    embedding             vector(1536)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS neutral_groups (
    group_id             BIGINT PRIMARY KEY,
    neutral_title        TEXT NOT NULL,
    neutral_description  TEXT NOT NULL,
    category             TEXT,
    relevance            INT NOT NULL,
    source_ids           TEXT[] NOT NULL,
    image_url            TEXT,
    image_medium         TEXT,
    date                 TIMESTAMPTZ NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ
)`); err != nil {
		return err
	}

	// pgvector extension backs the embedding column; ignore the error if it
	// is already present or the role lacks superuser privileges.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_outlet ON articles(outlet)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_group_id ON articles(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_pub_date ON articles(pub_date)`,
		`CREATE INDEX IF NOT EXISTS idx_neutral_groups_date ON neutral_groups(date)`,
		`CREATE INDEX IF NOT EXISTS idx_neutral_groups_created_at ON neutral_groups(created_at)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// IVFFlat approximate-neighbor index on the embedding column. No query in
	// this module searches by embedding distance (grouping computes cosine
	// distances in memory). Ignored if pgvector is unavailable.
	_, _ = db.Exec(`
CREATE INDEX IF NOT EXISTS idx_articles_embedding
    ON articles USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100)`)

	return nil
}

// MigrateDown drops the tables created by MigrateUp. Use with caution: this
// deletes all data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_articles_embedding`,
		`DROP TABLE IF EXISTS neutral_groups CASCADE`,
		`DROP TABLE IF EXISTS articles CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
