package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestOrdersByDistance(t *testing.T) {
	suggestions := Nearest("Brian", []string{"initBrain", "Settings", "Brain"})
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "Brain", suggestions[0].Name)
}

func TestNearestEmptyQueryReturnsNil(t *testing.T) {
	assert.Nil(t, Nearest("", []string{"a", "b"}))
}

func TestNearestNoCandidatesReturnsNil(t *testing.T) {
	assert.Nil(t, Nearest("anything", nil))
}

func TestNearestCapsAtFive(t *testing.T) {
	candidates := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta"}
	suggestions := Nearest("alpha", candidates)
	assert.LessOrEqual(t, len(suggestions), 5)
}

func TestNearestDeduplicates(t *testing.T) {
	suggestions := Nearest("foo", []string{"bar", "bar", "bar"})
	assert.Len(t, suggestions, 1)
}

func TestSimilarityIdenticalIsOne(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Settings", "Settings"))
}

func TestSimilarityDifferentIsLessThanOne(t *testing.T) {
	assert.Less(t, Similarity("Settings", "Completely different"), 1.0)
}
