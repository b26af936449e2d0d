package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "identities: content-addressed entities with materialized entropy",
		SQL: `
CREATE TABLE identities (
    id               TEXT PRIMARY KEY,
    kind             TEXT NOT NULL CHECK (kind IN ('geoid', 'scar')),
    created_at       INTEGER NOT NULL,

    -- Indexed scalars, refreshed on every upsert
    entropy          REAL NOT NULL DEFAULT 0,
    weight           REAL NOT NULL DEFAULT 1.0,
    effective_weight REAL NOT NULL DEFAULT 1.0,

    -- Full record
    blob             TEXT NOT NULL
);

CREATE INDEX idx_identities_kind    ON identities(kind);
CREATE INDEX idx_identities_entropy ON identities(entropy);
CREATE INDEX idx_identities_created ON identities(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "echo_forms: anchored lattice forms with materialized intensity",
		SQL: `
CREATE TABLE echo_forms (
    anchor        TEXT PRIMARY KEY,
    domain        TEXT NOT NULL,
    phase         TEXT NOT NULL,
    created_at    INTEGER NOT NULL,

    intensity_sum REAL NOT NULL DEFAULT 0,
    entropy       REAL NOT NULL DEFAULT 0,

    blob          TEXT NOT NULL
);

CREATE INDEX idx_forms_created   ON echo_forms(created_at DESC);
CREATE INDEX idx_forms_intensity ON echo_forms(intensity_sum);
`,
	},
	{
		Version:     3,
		Description: "identity_vectors: embedding vectors for geoid content",
		SQL: `
CREATE TABLE identity_vectors (
    identity_id TEXT PRIMARY KEY,
    embedding   BLOB NOT NULL,
    model       TEXT NOT NULL,
    dimensions  INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (identity_id) REFERENCES identities(id) ON DELETE CASCADE
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
