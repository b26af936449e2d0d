// Package echoform implements the versioned, terms-accumulating lattice
// record. An EchoForm accumulates weighted terms under a phase label and
// carries a trace signature chaining it to its phase-mutation lineage.
package echoform

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kimeraswm/kimera/internal/entropy"
)

const (
	// DefaultDomain classifies plain echo forms.
	DefaultDomain = "echo"
	// DefaultPhase is the initial lifecycle phase.
	DefaultPhase = "active"
)

// EchoForm is a terms-accumulating record keyed by an anchor. Terms only
// append; phase changes produce a new form chained to this one via the trace
// signature, never an in-place mutation.
type EchoForm struct {
	Anchor         string         `json:"anchor"`
	Domain         string         `json:"domain"`
	Terms          []Term         `json:"terms"`
	Phase          string         `json:"phase"`
	Recursive      bool           `json:"recursive"`
	Topology       map[string]any `json:"topology"`
	TraceSignature string         `json:"trace_signature"`
	CreatedAt      time.Time      `json:"echo_created_at"`
}

// traceSignature hashes anchor and phase, chaining in the parent signature
// when one exists. 16 hex chars, the same truncation as identity ids.
func traceSignature(anchor, phase, parent string) string {
	input := anchor + ":" + phase
	if parent != "" {
		input += ":" + parent
	}
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

// New creates a fresh empty form with the default domain and phase.
func New(anchor string) *EchoForm {
	return NewWithTerms(anchor, DefaultDomain, nil)
}

// NewWithTerms creates a form with an initial term list. The trace signature
// and creation time are derived here; reinflated forms bypass this path and
// keep their stored values verbatim.
func NewWithTerms(anchor, domain string, terms []Term) *EchoForm {
	if domain == "" {
		domain = DefaultDomain
	}
	return &EchoForm{
		Anchor:         anchor,
		Domain:         domain,
		Terms:          terms,
		Phase:          DefaultPhase,
		Topology:       map[string]any{},
		TraceSignature: traceSignature(anchor, DefaultPhase, ""),
		CreatedAt:      time.Now().UTC(),
	}
}

// AddTerm appends a term. The trace signature is deliberately untouched:
// a form's identity is tied to its anchor+phase lineage, not its contents,
// so accumulating terms never retroactively changes what the form is.
func (f *EchoForm) AddTerm(t Term) {
	f.Terms = append(f.Terms, t)
}

// MutatePhase returns a new form in the given phase, chained to this one.
// The receiver is untouched. Terms and topology are shallow-copied; the new
// signature hashes anchor, new phase, and the parent signature, so the
// lineage is an append-only chain that any reader can verify.
func (f *EchoForm) MutatePhase(newPhase string) *EchoForm {
	terms := make([]Term, len(f.Terms))
	copy(terms, f.Terms)

	topology := make(map[string]any, len(f.Topology))
	for k, v := range f.Topology {
		topology[k] = v
	}

	return &EchoForm{
		Anchor:         f.Anchor,
		Domain:         f.Domain,
		Terms:          terms,
		Phase:          newPhase,
		Recursive:      f.Recursive,
		Topology:       topology,
		TraceSignature: traceSignature(f.Anchor, newPhase, f.TraceSignature),
		CreatedAt:      time.Now().UTC(),
	}
}

// IntensitySum returns the plain sum of term intensities.
func (f *EchoForm) IntensitySum() float64 {
	var sum float64
	for _, t := range f.Terms {
		sum += t.Intensity
	}
	return sum
}

// DecayedIntensitySum sums term intensities discounted by exponential time
// decay. Terms without a timestamp never decay. When entropyWeighted is set,
// the time constant stretches with the form's own term entropy.
func (f *EchoForm) DecayedIntensitySum(now time.Time, baseTau float64, entropyWeighted bool) float64 {
	coeff := 0.0
	if entropyWeighted {
		coeff = 1.0
	}
	return f.DecayedIntensitySumScaled(now, baseTau, coeff)
}

// DecayedIntensitySumScaled is DecayedIntensitySum with a tunable entropy
// coefficient for the time constant. A coefficient of 0 decays against the
// bare base tau.
func (f *EchoForm) DecayedIntensitySumScaled(now time.Time, baseTau, coeff float64) float64 {
	tau := entropy.AdaptiveTauScaled(baseTau, f.Entropy(), coeff)

	var sum float64
	for _, t := range f.Terms {
		if t.Timestamp == nil {
			sum += t.Intensity
			continue
		}
		age := now.Sub(*t.Timestamp).Seconds()
		if age < 0 {
			age = 0
		}
		sum += t.Intensity * entropy.DecayFactor(age, tau)
	}
	return sum
}

// Entropy returns the Shannon entropy over term intensities.
func (f *EchoForm) Entropy() float64 {
	intensities := make([]float64, len(f.Terms))
	for i, t := range f.Terms {
		intensities[i] = t.Intensity
	}
	return entropy.Shannon(intensities)
}

// Flatten serializes the form to its canonical JSON wire format. Key order
// is stable (struct order for the envelope, sorted keys inside terms and
// topology), so flatten output is reproducible for downstream hashing.
func (f *EchoForm) Flatten() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("flatten form %s: %w", f.Anchor, err)
	}
	return string(b), nil
}

// Reinflate reconstructs a form from its flattened JSON. The stored trace
// signature is kept verbatim; recomputing it would break legitimately
// chained signatures. Blobs missing the anchor or signature fail fast.
func Reinflate(blob string) (*EchoForm, error) {
	var f EchoForm
	if err := json.Unmarshal([]byte(blob), &f); err != nil {
		return nil, fmt.Errorf("reinflate form: %w", err)
	}
	if f.Anchor == "" {
		return nil, fmt.Errorf("reinflate form: blob missing anchor")
	}
	if f.TraceSignature == "" {
		return nil, fmt.Errorf("reinflate form %s: blob missing trace_signature", f.Anchor)
	}
	if f.Topology == nil {
		f.Topology = map[string]any{}
	}
	return &f, nil
}

// Process returns a compatibility envelope around the input without touching
// the form.
func (f *EchoForm) Process(input any) map[string]any {
	return map[string]any{
		"processed": true,
		"input":     input,
	}
}
