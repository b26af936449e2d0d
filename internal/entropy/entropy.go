// Package entropy provides the Shannon-entropy and time-decay math used
// across the lattice. All functions are pure and stateless.
//
// Preconditions (documented, not checked): tau > 0, age >= 0. Callers own
// these contracts; the functions are total over valid numeric input and
// never return NaN for well-formed arguments.
package entropy

import "math"

// DefaultBaseTau is the base decay time constant: 14 days in seconds.
// Higher-entropy records stretch this via AdaptiveTau.
const DefaultBaseTau = 14 * 24 * 60 * 60.0

// Shannon computes the Shannon entropy (bits) of a set of non-negative
// intensities. Values are normalized to a probability distribution first.
// Empty input and all-zero input both yield 0.0; absence of signal carries
// no information, it is not an error.
func Shannon(values []float64) float64 {
	var total float64
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return 0.0
	}

	var h float64
	for _, v := range values {
		if v <= 0 {
			continue
		}
		p := v / total
		h -= p * math.Log2(p)
	}
	if h < 0 {
		// Rounding can leave a tiny negative residue for single-bin input.
		return 0.0
	}
	return h
}

// Relationship returns the entropy of the uniform distribution over n
// relationship slots: log2(n) for n >= 2, 0 otherwise. A scar relating more
// identities is more dispersed, so it decays more slowly.
func Relationship(n int) float64 {
	if n < 2 {
		return 0.0
	}
	return math.Log2(float64(n))
}

// AdaptiveTau scales a base time constant by entropy: baseTau * (1 + ent).
// The result is never smaller than baseTau for non-negative entropy.
func AdaptiveTau(baseTau, ent float64) float64 {
	return AdaptiveTauScaled(baseTau, ent, 1.0)
}

// AdaptiveTauScaled is AdaptiveTau with a tunable entropy coefficient:
// baseTau * (1 + coeff*ent), clamped so it never drops below baseTau.
// The coefficient is configuration, not a law (see config.Lattice).
func AdaptiveTauScaled(baseTau, ent, coeff float64) float64 {
	tau := baseTau * (1 + coeff*ent)
	if tau < baseTau {
		return baseTau
	}
	return tau
}

// DecayFactor returns exp(-age/tau), the multiplicative decay weight for a
// record ageSeconds old under time constant tau. Exactly 1.0 at age 0,
// monotonically decreasing in age, always in (0, 1].
func DecayFactor(ageSeconds, tau float64) float64 {
	if ageSeconds == 0 {
		return 1.0
	}
	return math.Exp(-ageSeconds / tau)
}

// WeightedDecay is DecayFactor with an entropy-adapted time constant:
// higher entropy, slower decay.
func WeightedDecay(ageSeconds, baseTau, ent float64) float64 {
	return DecayFactor(ageSeconds, AdaptiveTau(baseTau, ent))
}

// WeightedDecayScaled is WeightedDecay with a tunable entropy coefficient.
// A coefficient of 0 disables the entropy adaptation entirely.
func WeightedDecayScaled(ageSeconds, baseTau, ent, coeff float64) float64 {
	return DecayFactor(ageSeconds, AdaptiveTauScaled(baseTau, ent, coeff))
}
