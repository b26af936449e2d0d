package entropy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShannonBoundaries(t *testing.T) {
	assert.Equal(t, 0.0, Shannon(nil))
	assert.Equal(t, 0.0, Shannon([]float64{}))
	assert.Equal(t, 0.0, Shannon([]float64{0, 0, 0}))
	// Single bin carries no information.
	assert.Equal(t, 0.0, Shannon([]float64{5.0}))
}

func TestShannonUniform(t *testing.T) {
	// Uniform over 4 bins = 2 bits.
	h := Shannon([]float64{1, 1, 1, 1})
	assert.InDelta(t, 2.0, h, 1e-12)

	// Normalization: scale invariance.
	assert.InDelta(t, h, Shannon([]float64{0.25, 0.25, 0.25, 0.25}), 1e-12)
}

func TestShannonSkewedLessThanUniform(t *testing.T) {
	uniform := Shannon([]float64{1, 1, 1, 1})
	skewed := Shannon([]float64{10, 1, 1, 1})
	assert.Less(t, skewed, uniform)
	assert.Greater(t, skewed, 0.0)
}

func TestShannonIgnoresNegativeAndZeroBins(t *testing.T) {
	assert.Equal(t, Shannon([]float64{1, 1}), Shannon([]float64{1, 0, 1, -3}))
}

func TestRelationship(t *testing.T) {
	assert.Equal(t, 0.0, Relationship(0))
	assert.Equal(t, 0.0, Relationship(1))
	assert.InDelta(t, 1.0, Relationship(2), 1e-12)
	assert.InDelta(t, 3.0, Relationship(8), 1e-12)
}

func TestAdaptiveTau(t *testing.T) {
	base := DefaultBaseTau
	assert.Equal(t, base, AdaptiveTau(base, 0))
	assert.InDelta(t, base*2, AdaptiveTau(base, 1.0), 1e-6)

	// Scaled variant respects the coefficient but never dips below base.
	assert.InDelta(t, base*1.5, AdaptiveTauScaled(base, 1.0, 0.5), 1e-6)
	assert.Equal(t, base, AdaptiveTauScaled(base, 1.0, -2.0))
}

func TestDecayFactor(t *testing.T) {
	tau := 100.0
	assert.Equal(t, 1.0, DecayFactor(0, tau))

	// Monotonically decreasing in age.
	prev := 1.0
	for _, age := range []float64{1, 10, 100, 1000} {
		d := DecayFactor(age, tau)
		assert.Less(t, d, prev)
		assert.Greater(t, d, 0.0)
		prev = d
	}

	// One time constant elapsed = 1/e.
	assert.InDelta(t, 1/math.E, DecayFactor(tau, tau), 1e-12)
}

func TestWeightedDecaySlowerWithEntropy(t *testing.T) {
	age, base := 1000.0, 500.0
	plain := WeightedDecay(age, base, 0)
	entropic := WeightedDecay(age, base, 2.0)
	assert.Greater(t, entropic, plain)
	assert.Equal(t, plain, DecayFactor(age, base))
}
