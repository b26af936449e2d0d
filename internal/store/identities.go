package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kimeraswm/kimera/internal/identity"
)

// PutIdentity upserts an identity: last write wins on the blob, and the
// indexed columns (kind, entropy, weight) are refreshed to match in the same
// statement, so the row is never half-updated. Entropy is materialized at
// store time, not recomputed on read.
func (db *DB) PutIdentity(id *identity.Identity) error {
	if id == nil || id.ID == "" {
		return fmt.Errorf("put identity: missing id")
	}

	blob, err := id.ToJSON()
	if err != nil {
		return fmt.Errorf("put identity %s: %w", id.ID, err)
	}
	ent := id.Entropy()

	_, err = db.Exec(`
		INSERT INTO identities (id, kind, created_at, entropy, weight, effective_weight, blob)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			entropy = excluded.entropy,
			weight = excluded.weight,
			effective_weight = excluded.effective_weight,
			blob = excluded.blob
	`, id.ID, string(id.Kind), id.CreatedAt.UnixMilli(), ent, id.Weight, id.Weight, blob)
	if err != nil {
		return fmt.Errorf("put identity %s: %w", id.ID, err)
	}
	return nil
}

// GetIdentity returns the identity with the given id, or nil if not found.
func (db *DB) GetIdentity(id string) (*identity.Identity, error) {
	var blob string
	err := db.QueryRow("SELECT blob FROM identities WHERE id = ?", id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %s: %w", id, err)
	}
	return identity.FromJSON(blob)
}

// ListIdentities returns stored identities in recency order, optionally
// filtered by kind. Pass kind "" for all kinds. Limit <= 0 means no limit.
func (db *DB) ListIdentities(kind string, limit, offset int) ([]*identity.Identity, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 is unlimited
	}

	var rows *sql.Rows
	var err error
	if kind == "" {
		rows, err = db.Query(`
			SELECT blob FROM identities
			ORDER BY created_at DESC, id
			LIMIT ? OFFSET ?
		`, limit, offset)
	} else {
		rows, err = db.Query(`
			SELECT blob FROM identities WHERE kind = ?
			ORDER BY created_at DESC, id
			LIMIT ? OFFSET ?
		`, kind, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	return scanIdentities(rows)
}

// CountIdentities returns the number of stored identities, optionally
// filtered by kind.
func (db *DB) CountIdentities(kind string) (int, error) {
	var count int
	var err error
	if kind == "" {
		err = db.QueryRow("SELECT COUNT(*) FROM identities").Scan(&count)
	} else {
		err = db.QueryRow("SELECT COUNT(*) FROM identities WHERE kind = ?", kind).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// FindIdentitiesByEntropy returns identities whose materialized entropy
// (entropy as of the last store, not recomputed) is >= minEntropy, highest
// entropy first.
func (db *DB) FindIdentitiesByEntropy(minEntropy float64) ([]*identity.Identity, error) {
	rows, err := db.Query(`
		SELECT blob FROM identities WHERE entropy >= ?
		ORDER BY entropy DESC, id
	`, minEntropy)
	if err != nil {
		return nil, fmt.Errorf("find identities by entropy: %w", err)
	}
	defer rows.Close()

	return scanIdentities(rows)
}

// EffectiveWeight returns the decayed weight column for an identity, or the
// stored weight if no decay pass has run yet. Absent ids report an error
// through sql.ErrNoRows wrapping.
func (db *DB) EffectiveWeight(id string) (float64, error) {
	var w float64
	err := db.QueryRow("SELECT effective_weight FROM identities WHERE id = ?", id).Scan(&w)
	if err != nil {
		return 0, fmt.Errorf("effective weight %s: %w", id, err)
	}
	return w, nil
}

func scanIdentities(rows *sql.Rows) ([]*identity.Identity, error) {
	var out []*identity.Identity
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		id, err := identity.FromJSON(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ageSeconds converts a stored UnixMilli creation time to seconds of age
// relative to now, clamped at zero.
func ageSeconds(now time.Time, createdAtMilli int64) float64 {
	age := float64(now.UnixMilli()-createdAtMilli) / 1000.0
	if age < 0 {
		return 0
	}
	return age
}
