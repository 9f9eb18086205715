package store

import "database/sql"

// Schema is the complete rankings schema.
//
// checked_at is milliseconds since epoch and strictly increases within a
// (keyword, domain) partition; InsertRanking enforces this on write.
// position, link, title and snippet are NULL exactly when found = 0.
const Schema = `
-- One row per ranking observation
CREATE TABLE IF NOT EXISTS rankings (
    id             TEXT PRIMARY KEY,
    keyword        TEXT NOT NULL,
    domain         TEXT NOT NULL,
    checked_at     INTEGER NOT NULL,
    found          INTEGER NOT NULL DEFAULT 0,
    position       INTEGER,
    link           TEXT,
    title          TEXT,
    snippet        TEXT,
    total_results  INTEGER,
    search_params  TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_rankings_key ON rankings(keyword, domain, checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_rankings_time ON rankings(checked_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
