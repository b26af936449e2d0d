// Package lattice implements CLS, the lattice-resolve orchestrator. Given
// two identities it derives a deterministic anchor, fetches or seeds the
// backing echo form, appends a resolve event, and persists the result.
//
// A Lattice owns an explicit storage handle rather than a process-wide
// singleton, so tests and callers can run multiple independent lattices per process.
package lattice

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/kimeraswm/kimera/internal/config"
	"github.com/kimeraswm/kimera/internal/echoform"
	"github.com/kimeraswm/kimera/internal/identity"
	"github.com/kimeraswm/kimera/internal/store"
)

// Embedder is the seam to the external semantic-encoding collaborator. The
// core never interprets vectors; it only persists them.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
}

// Lattice orchestrates lattice resolution and background decay over one
// storage handle.
type Lattice struct {
	DB       *store.DB
	Cfg      config.LatticeConfig
	Embedder Embedder
	stopCh   chan struct{}
}

// New creates a Lattice over the given storage handle.
func New(db *store.DB, cfg config.LatticeConfig) *Lattice {
	return &Lattice{
		DB:     db,
		Cfg:    cfg,
		stopCh: make(chan struct{}),
	}
}

// SetEmbedder configures the embedding provider.
func (l *Lattice) SetEmbedder(emb Embedder) {
	l.Embedder = emb
}

// AnchorFor derives the deterministic anchor for a pair of identity ids.
// Ids are sorted before joining, so the anchor (and therefore the form)
// is the same for (a, b) and (b, a).
func AnchorFor(aID, bID string) string {
	pair := []string{aID, bID}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}

// Resolve combines two identities through their shared echo form. The first
// resolve for a pair seeds the form with a unit term; every resolve appends
// a timestamped cls_event term worth the configured increment. Returns the
// updated undecayed intensity sum, which grows strictly with each call.
func (l *Lattice) Resolve(a, b *identity.Identity) (float64, error) {
	if a == nil || strings.TrimSpace(a.ID) == "" {
		return 0, fmt.Errorf("lattice resolve: first identity has no usable id")
	}
	if b == nil || strings.TrimSpace(b.ID) == "" {
		return 0, fmt.Errorf("lattice resolve: second identity has no usable id")
	}

	anchor := AnchorFor(a.ID, b.ID)
	form, err := l.DB.GetForm(anchor)
	if err != nil {
		return 0, fmt.Errorf("lattice resolve %s: %w", anchor, err)
	}
	if form == nil {
		form = echoform.New(anchor)
		form.AddTerm(echoform.NewTerm("seed", "cls_seed", 1.0))
	}

	form.AddTerm(echoform.NewTimedTerm("cls_event", "resolution", l.Cfg.ResolveIncrement, time.Now()))

	if err := l.DB.PutForm(form); err != nil {
		return 0, fmt.Errorf("lattice resolve %s: %w", anchor, err)
	}
	return form.IntensitySum(), nil
}

// CreateForm builds and persists a richly-labeled lattice form for a pair of
// identities: domain "lattice", topology carrying the label and both ids.
// Unlike Resolve it returns the form itself, for callers that want a named,
// inspectable lattice artifact.
func (l *Lattice) CreateForm(label string, a, b *identity.Identity) (*echoform.EchoForm, error) {
	if a == nil || a.ID == "" || b == nil || b.ID == "" {
		return nil, fmt.Errorf("create lattice form: both identities need usable ids")
	}

	anchor := AnchorFor(a.ID, b.ID)
	form := echoform.NewWithTerms(anchor, "lattice", []echoform.Term{
		echoform.NewTerm("seed", "cls_seed", 1.0),
	})
	form.Topology["label"] = label
	form.Topology["left"] = a.ID
	form.Topology["right"] = b.ID

	if err := l.DB.PutForm(form); err != nil {
		return nil, fmt.Errorf("create lattice form %s: %w", anchor, err)
	}
	return form, nil
}

// EmbedIdentity generates and stores an embedding for a geoid's content.
// A missing embedder or empty content is a silent no-op.
func (l *Lattice) EmbedIdentity(ctx context.Context, id *identity.Identity) error {
	if l.Embedder == nil || id == nil || id.Raw == "" {
		return nil
	}

	vec, err := l.Embedder.Embed(ctx, id.Raw)
	if err != nil {
		return fmt.Errorf("embed identity %s: %w", id.ID, err)
	}
	return l.DB.SaveVector(id.ID, vec, l.Embedder.Model())
}

// StartDecayTimer runs bulk decay at startup and then on the configured
// interval.
func (l *Lattice) StartDecayTimer() {
	// Run once at startup
	if updated, err := l.DB.ApplyTimeDecay(l.Cfg.BaseTauDays, l.Cfg.TauEntropyCoeff); err != nil {
		log.Printf("decay error: %v", err)
	} else if updated > 0 {
		log.Printf("decay: updated %d rows", updated)
	}

	interval := time.Duration(l.Cfg.DecayIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if updated, err := l.DB.ApplyTimeDecay(l.Cfg.BaseTauDays, l.Cfg.TauEntropyCoeff); err != nil {
					log.Printf("decay error: %v", err)
				} else if updated > 0 {
					log.Printf("decay: updated %d rows", updated)
				}
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the lattice's background goroutines.
func (l *Lattice) Stop() {
	close(l.stopCh)
}
