package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoidDeterministicID(t *testing.T) {
	a, err := NewGeoid("Birds can fly")
	require.NoError(t, err)
	b, err := NewGeoid("Birds can fly")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.True(t, strings.HasPrefix(a.ID, "geoid_"))
	assert.Len(t, a.ID, len("geoid_")+16)
}

func TestGeoidNormalizesWhitespace(t *testing.T) {
	a, err := NewGeoid("  Birds can fly  ")
	require.NoError(t, err)
	b, err := NewGeoid("Birds can fly")
	require.NoError(t, err)

	assert.Equal(t, b.ID, a.ID)
	assert.Equal(t, "Birds can fly", a.Raw)
}

func TestGeoidEmptyContentRejected(t *testing.T) {
	_, err := NewGeoid("")
	assert.Error(t, err)
	_, err = NewGeoid("   \t\n")
	assert.Error(t, err)
}

func TestGeoidDistinctContentDistinctID(t *testing.T) {
	a, _ := NewGeoid("Birds can fly")
	b, _ := NewGeoid("Birds cannot fly")
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Equal(b))
}

func TestValueEquality(t *testing.T) {
	a, _ := NewGeoid("same content", "tag-1")
	b, _ := NewGeoid("same content", "tag-2")

	// Distinct objects, distinct tags, same identity.
	assert.True(t, a.Equal(b))
	assert.NotSame(t, a, b)
}

func TestScarOrderIndependence(t *testing.T) {
	ab, err := NewScar("geoid_aaa", "geoid_bbb")
	require.NoError(t, err)
	ba, err := NewScar("geoid_bbb", "geoid_aaa")
	require.NoError(t, err)

	assert.Equal(t, ab.ID, ba.ID)
	assert.Equal(t, ab.RelatedIDs, ba.RelatedIDs)
	assert.True(t, strings.HasPrefix(ab.ID, "scar_"))
}

func TestScarValidation(t *testing.T) {
	_, err := NewScarWithContent("orphan", nil, nil)
	assert.Error(t, err)

	_, err = NewScar("geoid_aaa", "  ")
	assert.Error(t, err)
}

func TestScarWithContentSharesIDSpace(t *testing.T) {
	plain, _ := NewScar("geoid_aaa", "geoid_bbb")
	rich, err := NewScarWithContent("contradiction observed", []string{"geoid_bbb", "geoid_aaa"},
		map[string]any{"source": "resonance"})
	require.NoError(t, err)

	// Same related ids means the same scar, regardless of constructor.
	assert.Equal(t, plain.ID, rich.ID)
	assert.Equal(t, "contradiction observed", rich.Raw)
	assert.Equal(t, "resonance", rich.Meta["source"])
}

func TestAddTagSetSemantics(t *testing.T) {
	id, _ := NewGeoid("tagged", "alpha")
	id.AddTag("beta")
	id.AddTag("alpha")
	id.AddTag("  ")
	assert.Equal(t, []string{"alpha", "beta"}, id.Tags)
}

func TestEntropyScarGrowsWithRelations(t *testing.T) {
	two, _ := NewScarWithContent("", []string{"a", "b"}, nil)
	four, _ := NewScarWithContent("", []string{"a", "b", "c", "d"}, nil)
	assert.Greater(t, four.Entropy(), two.Entropy())
}

func TestEntropyGeoidWordDiversity(t *testing.T) {
	flat, _ := NewGeoid("birds birds birds birds")
	varied, _ := NewGeoid("birds can fly south")
	assert.Equal(t, 0.0, flat.Entropy())
	assert.Greater(t, varied.Entropy(), flat.Entropy())
}

func TestEffectiveTauScalesWithEntropy(t *testing.T) {
	flat, _ := NewGeoid("birds birds birds")
	varied, _ := NewGeoid("birds can fly south in winter")
	assert.Greater(t, varied.EffectiveTau(), flat.EffectiveTau())
	assert.GreaterOrEqual(t, flat.EffectiveTau(), 14*24*60*60.0)
}

func TestJSONRoundTrip(t *testing.T) {
	orig, _ := NewGeoid("Birds can fly", "observation")
	orig.Weight = 2.5
	orig.Meta["lang"] = "en"

	blob, err := orig.ToJSON()
	require.NoError(t, err)

	back, err := FromJSON(blob)
	require.NoError(t, err)

	assert.Equal(t, orig.ID, back.ID)
	assert.Equal(t, orig.Kind, back.Kind)
	assert.Equal(t, orig.Raw, back.Raw)
	assert.Equal(t, orig.Weight, back.Weight)
	assert.Equal(t, orig.Tags, back.Tags)
	assert.Equal(t, "en", back.Meta["lang"])
	assert.True(t, orig.CreatedAt.Equal(back.CreatedAt))
}

func TestFromJSONFailFast(t *testing.T) {
	_, err := FromJSON("{not json")
	assert.Error(t, err)

	_, err = FromJSON(`{"identity_type":"geoid"}`)
	assert.ErrorContains(t, err, "missing id")

	_, err = FromJSON(`{"id":"geoid_abc"}`)
	assert.ErrorContains(t, err, "missing identity_type")
}
