// Package store implements LatticeStorage: SQLite-backed persistence for
// identities and echo forms. Each record is stored as a JSON blob alongside
// indexed scalar columns (kind, created_at, entropy, intensity) so range and
// filter queries never deserialize every blob.
//
// A DB instance assumes exclusive single-writer access to its file for the
// lifetime of the process. Concurrent writers against the same file are out
// of scope and may corrupt state. Operations on a closed DB fail with
// database/sql's closed-connection error rather than silently no-opping.
//
// Lookups returning a record pointer (GetIdentity, GetForm, GetVector)
// report absence as nil, nil. Scalar column readers (StoredIntensity,
// EffectiveWeight) assert existence instead: they have no in-band way to
// say "missing", so an absent row is an error wrapping sql.ErrNoRows that
// callers can test with errors.Is.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is a handle on the lattice database. Embedding sql.DB keeps the raw
// query surface available to the query helpers in this package.
type DB struct {
	*sql.DB
	Path string
}

// DefaultDBPath is where the CLI keeps the lattice when no path is
// configured: ~/.kimera/kimera.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".kimera", "kimera.db"), nil
}

// Open opens or creates the lattice database at path and brings its schema
// current. The parent directory is created if needed.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return openDSN(path)
}

// OpenMemory opens a throwaway in-memory lattice, used by tests.
func OpenMemory() (*DB, error) {
	return openDSN(":memory:")
}

func openDSN(dsn string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	db := &DB{DB: sqlDB, Path: dsn}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		// Decay passes scan every row; keep temp structures off disk.
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}
