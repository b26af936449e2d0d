package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kimeraswm/kimera/internal/echoform"
	"github.com/kimeraswm/kimera/internal/entropy"
)

// PutForm upserts an echo form keyed by anchor. The blob and the indexed
// columns (domain, phase, intensity_sum, entropy) move together in one
// statement. The materialized intensity_sum is the undecayed sum; decay
// passes overwrite the column without touching the blob.
func (db *DB) PutForm(f *echoform.EchoForm) error {
	if f == nil || f.Anchor == "" {
		return fmt.Errorf("put form: missing anchor")
	}

	blob, err := f.Flatten()
	if err != nil {
		return fmt.Errorf("put form %s: %w", f.Anchor, err)
	}

	_, err = db.Exec(`
		INSERT INTO echo_forms (anchor, domain, phase, created_at, intensity_sum, entropy, blob)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(anchor) DO UPDATE SET
			domain = excluded.domain,
			phase = excluded.phase,
			intensity_sum = excluded.intensity_sum,
			entropy = excluded.entropy,
			blob = excluded.blob
	`, f.Anchor, f.Domain, f.Phase, f.CreatedAt.UnixMilli(), f.IntensitySum(), f.Entropy(), blob)
	if err != nil {
		return fmt.Errorf("put form %s: %w", f.Anchor, err)
	}
	return nil
}

// GetForm returns the form stored under anchor, or nil if not found.
func (db *DB) GetForm(anchor string) (*echoform.EchoForm, error) {
	var blob string
	err := db.QueryRow("SELECT blob FROM echo_forms WHERE anchor = ?", anchor).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get form %s: %w", anchor, err)
	}
	return echoform.Reinflate(blob)
}

// ListForms returns stored forms in recency order. Limit <= 0 means no limit.
func (db *DB) ListForms(limit, offset int) ([]*echoform.EchoForm, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT blob FROM echo_forms
		ORDER BY created_at DESC, anchor
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var out []*echoform.EchoForm
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		f, err := echoform.Reinflate(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountForms returns the number of stored forms.
func (db *DB) CountForms() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM echo_forms").Scan(&count); err != nil {
		return 0, fmt.Errorf("count forms: %w", err)
	}
	return count, nil
}

// StoredIntensity returns the materialized intensity_sum column for an
// anchor: the decayed value after a decay pass, the plain sum otherwise.
// Absent anchors report an error through sql.ErrNoRows wrapping.
func (db *DB) StoredIntensity(anchor string) (float64, error) {
	var v float64
	err := db.QueryRow("SELECT intensity_sum FROM echo_forms WHERE anchor = ?", anchor).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("stored intensity %s: %w", anchor, err)
	}
	return v, nil
}

// ApplyTimeDecay recomputes the decayed intensity of every stored form and
// the decayed effective weight of every stored identity, using entropy-
// weighted exponential decay with the given base tau in days. entropyCoeff
// scales how strongly entropy stretches the time constant; 0 decays
// everything against the bare base tau.
//
// Decay is a function of absolute age, never of how many times this ran:
// blobs are left untouched and the materialized columns are recomputed from
// the original term intensities and timestamps, so repeated calls with no
// elapsed time converge on the same values. Computed in Go rather than SQL
// because modernc.org/sqlite has no exp().
//
// Returns the number of rows whose materialized value changed.
func (db *DB) ApplyTimeDecay(tauDays, entropyCoeff float64) (int, error) {
	now := time.Now().UTC()
	baseTau := tauDays * 24 * 60 * 60

	updated, err := db.decayForms(now, baseTau, entropyCoeff)
	if err != nil {
		return updated, err
	}

	n, err := db.decayIdentities(now, baseTau, entropyCoeff)
	updated += n
	return updated, err
}

func (db *DB) decayForms(now time.Time, baseTau, coeff float64) (int, error) {
	rows, err := db.Query("SELECT anchor, intensity_sum, blob FROM echo_forms")
	if err != nil {
		return 0, fmt.Errorf("query decayable forms: %w", err)
	}
	defer rows.Close()

	type target struct {
		anchor  string
		current float64
		blob    string
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.anchor, &t.current, &t.blob); err != nil {
			return 0, fmt.Errorf("scan decayable form: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, t := range targets {
		f, err := echoform.Reinflate(t.blob)
		if err != nil {
			return updated, fmt.Errorf("decay form %s: %w", t.anchor, err)
		}

		decayed := f.DecayedIntensitySumScaled(now, baseTau, coeff)
		if decayed == t.current {
			continue
		}

		if _, err := db.Exec(
			"UPDATE echo_forms SET intensity_sum = ? WHERE anchor = ?",
			decayed, t.anchor,
		); err != nil {
			return updated, fmt.Errorf("update form decay %s: %w", t.anchor, err)
		}
		updated++
	}
	return updated, nil
}

func (db *DB) decayIdentities(now time.Time, baseTau, coeff float64) (int, error) {
	rows, err := db.Query("SELECT id, created_at, entropy, weight, effective_weight FROM identities")
	if err != nil {
		return 0, fmt.Errorf("query decayable identities: %w", err)
	}
	defer rows.Close()

	type target struct {
		id        string
		createdAt int64
		entropy   float64
		weight    float64
		current   float64
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.id, &t.createdAt, &t.entropy, &t.weight, &t.current); err != nil {
			return 0, fmt.Errorf("scan decayable identity: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, t := range targets {
		age := ageSeconds(now, t.createdAt)
		effective := t.weight * entropy.WeightedDecayScaled(age, baseTau, t.entropy, coeff)
		if effective == t.current {
			continue
		}

		if _, err := db.Exec(
			"UPDATE identities SET effective_weight = ? WHERE id = ?",
			effective, t.id,
		); err != nil {
			return updated, fmt.Errorf("update identity decay %s: %w", t.id, err)
		}
		updated++
	}
	return updated, nil
}
