package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNGSequence(t *testing.T) {
	r := NewRNG(InitialSeed)
	assert.InDelta(t, 0.6615249703172594, r.Float(), 1e-15)
	assert.InDelta(t, 0.17373004485853016, r.Float(), 1e-15)
	assert.InDelta(t, 0.14695339021272957, r.Float(), 1e-15)
}

func TestResetSeed(t *testing.T) {
	assert.Equal(t, uint32(1265), ResetSeed(1, 56))

	r := NewRNG(ResetSeed(1, 56))
	assert.InDelta(t, 0.35145263909362257, r.Float(), 1e-15)
	assert.InDelta(t, 0.8917367272078991, r.Float(), 1e-15)
}

func TestRNGIndexInRange(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 1000; i++ {
		idx := r.Index(7)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 7)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3, round(2.5))
	assert.Equal(t, 2, round(2.49))
	assert.Equal(t, -2, round(-2.5))
}
