// Package identity implements the content-addressed entities of the lattice.
//
// An Identity is either a geoid (content-bearing) or a scar (a relationship
// between other identities). Its id is a deterministic hash of normalized
// content, so two identities built from the same logical content are the
// same identity regardless of which process built them.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kimeraswm/kimera/internal/entropy"
)

// Kind distinguishes the two identity variants.
type Kind string

const (
	KindGeoid Kind = "geoid"
	KindScar  Kind = "scar"
)

// Identity is an addressable entity with a stable content hash and
// entropy-derived decay behavior. ID, Kind, Raw, and RelatedIDs are fixed at
// construction; Tags and Meta stay mutable.
type Identity struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"identity_type"`
	Raw        string         `json:"raw,omitempty"`
	RelatedIDs []string       `json:"related_ids,omitempty"`
	Weight     float64        `json:"weight"`
	Tags       []string       `json:"tags,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// hashID builds the content-addressed id: kind prefix plus the first 16 hex
// chars of sha256 over the kind-prefixed canonical content. The exact hash
// input is part of the public contract so independent callers can reproduce
// ids for the same logical content.
func hashID(kind Kind, canonical string) string {
	sum := sha256.Sum256([]byte(string(kind) + ":" + canonical))
	return string(kind) + "_" + hex.EncodeToString(sum[:])[:16]
}

// NewGeoid creates a content-bearing identity. The text is trimmed before
// hashing, so leading/trailing whitespace does not change the id. Empty
// content is a contract violation.
func NewGeoid(raw string, tags ...string) (*Identity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("geoid identity requires non-empty content")
	}

	id := &Identity{
		ID:        hashID(KindGeoid, trimmed),
		Kind:      KindGeoid,
		Raw:       trimmed,
		Weight:    1.0,
		Meta:      map[string]any{},
		CreatedAt: time.Now().UTC(),
	}
	for _, tag := range tags {
		id.AddTag(tag)
	}
	return id, nil
}

// NewScar creates a relationship identity between two other identities.
// Related ids are sorted before hashing, so NewScar(a, b) and NewScar(b, a)
// produce the same scar: the lattice keeps one form per unordered pair.
func NewScar(idA, idB string) (*Identity, error) {
	return NewScarWithContent("", []string{idA, idB}, nil)
}

// NewScarWithContent is the generic scar constructor: free-text content and
// a metadata blob alongside the relationship. It shares the id scheme of
// NewScar (hash of the sorted related ids), so there is a single scar
// identity space regardless of which constructor produced the record.
func NewScarWithContent(content string, relatedIDs []string, meta map[string]any) (*Identity, error) {
	if len(relatedIDs) == 0 {
		return nil, fmt.Errorf("scar identity requires at least one related id")
	}
	sorted := make([]string, len(relatedIDs))
	copy(sorted, relatedIDs)
	for _, rid := range sorted {
		if strings.TrimSpace(rid) == "" {
			return nil, fmt.Errorf("scar identity has blank related id")
		}
	}
	sort.Strings(sorted)

	if meta == nil {
		meta = map[string]any{}
	}
	return &Identity{
		ID:         hashID(KindScar, strings.Join(sorted, "|")),
		Kind:       KindScar,
		Raw:        strings.TrimSpace(content),
		RelatedIDs: sorted,
		Weight:     1.0,
		Meta:       meta,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Equal reports value equality: two identities are the same entity iff their
// ids match. For geoids the id is functionally determined by the normalized
// content, so content equality and id equality agree by construction.
func (i *Identity) Equal(other *Identity) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.ID == other.ID
}

// AddTag adds a tag if not already present. Tags behave as a set.
func (i *Identity) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for _, t := range i.Tags {
		if t == tag {
			return
		}
	}
	i.Tags = append(i.Tags, tag)
}

// Entropy returns the Shannon entropy of the identity's intensity
// distribution. Scars disperse over their related ids, so their entropy
// grows with the number of relationships. Geoids carry no term records; their
// distribution is the word-frequency distribution of the normalized content.
func (i *Identity) Entropy() float64 {
	switch i.Kind {
	case KindScar:
		return entropy.Relationship(len(i.RelatedIDs))
	default:
		return entropy.Shannon(wordFrequencies(i.Raw))
	}
}

// EffectiveTau returns the entropy-adapted decay time constant in seconds,
// using the default 14-day base. Higher entropy means slower decay.
func (i *Identity) EffectiveTau() float64 {
	return entropy.AdaptiveTau(entropy.DefaultBaseTau, i.Entropy())
}

// EffectiveTauScaled is EffectiveTau with caller-supplied base and entropy
// coefficient, for configurations that tune the decay law.
func (i *Identity) EffectiveTauScaled(baseTau, coeff float64) float64 {
	return entropy.AdaptiveTauScaled(baseTau, i.Entropy(), coeff)
}

// ToJSON serializes the identity to its wire format.
func (i *Identity) ToJSON() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	return string(b), nil
}

// FromJSON reconstructs an identity from its wire format. The id is taken
// verbatim, never recomputed. Records missing an id or kind fail fast.
func FromJSON(blob string) (*Identity, error) {
	var i Identity
	if err := json.Unmarshal([]byte(blob), &i); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	if i.ID == "" {
		return nil, fmt.Errorf("identity blob missing id")
	}
	if i.Kind == "" {
		return nil, fmt.Errorf("identity blob missing identity_type")
	}
	if i.Meta == nil {
		i.Meta = map[string]any{}
	}
	return &i, nil
}

// wordFrequencies maps lowercased whitespace-separated tokens to counts and
// returns the counts as an intensity vector.
func wordFrequencies(text string) []float64 {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return nil
	}
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		counts[f]++
	}
	freqs := make([]float64, 0, len(counts))
	for _, c := range counts {
		freqs = append(freqs, float64(c))
	}
	return freqs
}
