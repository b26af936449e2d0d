package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/kimeraswm/kimera/internal/identity"
)

func mustGeoid(t *testing.T, raw string, tags ...string) *identity.Identity {
	t.Helper()
	id, err := identity.NewGeoid(raw, tags...)
	if err != nil {
		t.Fatalf("NewGeoid(%q): %v", raw, err)
	}
	return id
}

func TestPutGetIdentity(t *testing.T) {
	db := testDB(t)

	// Not found
	got, err := db.GetIdentity("geoid_missing")
	if err != nil {
		t.Fatalf("GetIdentity: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing identity")
	}

	id := mustGeoid(t, "Birds can fly", "observation")
	id.Meta["lang"] = "en"
	if err := db.PutIdentity(id); err != nil {
		t.Fatalf("PutIdentity: %v", err)
	}

	got, err = db.GetIdentity(id.ID)
	if err != nil {
		t.Fatalf("GetIdentity: %v", err)
	}
	if got == nil {
		t.Fatal("expected identity, got nil")
	}
	if got.Raw != "Birds can fly" {
		t.Errorf("raw = %q, want %q", got.Raw, "Birds can fly")
	}
	if got.Meta["lang"] != "en" {
		t.Errorf("meta lang = %v, want en", got.Meta["lang"])
	}
	if !got.Equal(id) {
		t.Error("stored identity not equal to original")
	}
}

func TestPutIdentityUpsert(t *testing.T) {
	db := testDB(t)

	id := mustGeoid(t, "Birds can fly", "first")
	if err := db.PutIdentity(id); err != nil {
		t.Fatalf("PutIdentity: %v", err)
	}

	// Same content, different tags: same id, one row, latest tags win.
	again := mustGeoid(t, "Birds can fly", "second")
	if err := db.PutIdentity(again); err != nil {
		t.Fatalf("PutIdentity upsert: %v", err)
	}

	all, err := db.ListIdentities("", 0, 0)
	if err != nil {
		t.Fatalf("ListIdentities: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 identity after upsert, got %d", len(all))
	}
	if len(all[0].Tags) != 1 || all[0].Tags[0] != "second" {
		t.Errorf("tags = %v, want [second]", all[0].Tags)
	}
}

func TestPutIdentityMissingID(t *testing.T) {
	db := testDB(t)
	if err := db.PutIdentity(&identity.Identity{}); err == nil {
		t.Error("expected error for identity without id")
	}
}

func TestListIdentitiesFilterAndPaging(t *testing.T) {
	db := testDB(t)

	a := mustGeoid(t, "Birds can fly")
	b := mustGeoid(t, "Birds cannot fly")
	scar, err := identity.NewScar(a.ID, b.ID)
	if err != nil {
		t.Fatalf("NewScar: %v", err)
	}
	for _, id := range []*identity.Identity{a, b, scar} {
		if err := db.PutIdentity(id); err != nil {
			t.Fatalf("PutIdentity: %v", err)
		}
	}

	geoids, err := db.ListIdentities("geoid", 0, 0)
	if err != nil {
		t.Fatalf("ListIdentities geoid: %v", err)
	}
	if len(geoids) != 2 {
		t.Errorf("expected 2 geoids, got %d", len(geoids))
	}

	scars, _ := db.ListIdentities("scar", 0, 0)
	if len(scars) != 1 {
		t.Errorf("expected 1 scar, got %d", len(scars))
	}

	page, err := db.ListIdentities("", 2, 0)
	if err != nil {
		t.Fatalf("ListIdentities page: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected page of 2, got %d", len(page))
	}
	rest, _ := db.ListIdentities("", 2, 2)
	if len(rest) != 1 {
		t.Errorf("expected remaining 1, got %d", len(rest))
	}
}

func TestCountIdentities(t *testing.T) {
	db := testDB(t)

	a := mustGeoid(t, "Birds can fly")
	b := mustGeoid(t, "Birds cannot fly")
	db.PutIdentity(a)
	db.PutIdentity(b)
	scar, _ := identity.NewScar(a.ID, b.ID)
	db.PutIdentity(scar)

	total, err := db.CountIdentities("")
	if err != nil {
		t.Fatalf("CountIdentities: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	geoids, _ := db.CountIdentities("geoid")
	if geoids != 2 {
		t.Errorf("geoids = %d, want 2", geoids)
	}
	scars, _ := db.CountIdentities("scar")
	if scars != 1 {
		t.Errorf("scars = %d, want 1", scars)
	}
}

func TestFindIdentitiesByEntropy(t *testing.T) {
	db := testDB(t)

	// Repeated single word: zero entropy. Varied words: positive entropy.
	flat := mustGeoid(t, "birds birds birds")
	varied := mustGeoid(t, "birds can fly south in winter")
	db.PutIdentity(flat)
	db.PutIdentity(varied)

	found, err := db.FindIdentitiesByEntropy(0.5)
	if err != nil {
		t.Fatalf("FindIdentitiesByEntropy: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 identity above threshold, got %d", len(found))
	}
	if found[0].ID != varied.ID {
		t.Errorf("found %s, want %s", found[0].ID, varied.ID)
	}

	all, _ := db.FindIdentitiesByEntropy(0)
	if len(all) != 2 {
		t.Errorf("expected 2 identities at threshold 0, got %d", len(all))
	}
}

func TestEffectiveWeightDefaultsToWeight(t *testing.T) {
	db := testDB(t)

	id := mustGeoid(t, "Birds can fly")
	id.Weight = 2.0
	if err := db.PutIdentity(id); err != nil {
		t.Fatalf("PutIdentity: %v", err)
	}

	w, err := db.EffectiveWeight(id.ID)
	if err != nil {
		t.Fatalf("EffectiveWeight: %v", err)
	}
	if w != 2.0 {
		t.Errorf("effective weight = %f, want 2.0 before decay", w)
	}
}

func TestEffectiveWeightMissingID(t *testing.T) {
	db := testDB(t)
	_, err := db.EffectiveWeight("geoid_ffffffffffffffff")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want wrapped sql.ErrNoRows", err)
	}
}
