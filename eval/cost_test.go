package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPitchCost(t *testing.T) {
	assert.Equal(t, 0.0, PitchCost(60, 60), "exact match")
	assert.Equal(t, 0.3, PitchCost(60, 72), "octave error")
	assert.InDelta(t, 1.0/12, PitchCost(60, 61), 1e-9, "one semitone")
	assert.Equal(t, 1.0, PitchCost(60, 127), "capped at 1")
}

func TestIsOctaveError(t *testing.T) {
	assert.True(t, IsOctaveError(60, 72))
	assert.True(t, IsOctaveError(72, 60))
	assert.False(t, IsOctaveError(60, 61))
	assert.False(t, IsOctaveError(60, 84)) // 24 semitones, not an octave error
}

func TestTimingCostMs(t *testing.T) {
	assert.Equal(t, 0.0, TimingCostMs(0, 500))
	assert.InDelta(t, 0.2, TimingCostMs(100, 500), 1e-9)
	assert.Equal(t, 1.0, TimingCostMs(1000, 500), "capped at 1")
	assert.InDelta(t, 0.2, TimingCostMs(-100, 500), 1e-9, "absolute value")
}

func TestVelocityCost(t *testing.T) {
	assert.Equal(t, 0.0, VelocityCost(0))
	assert.InDelta(t, 0.5, VelocityCost(32), 1e-9)
	assert.Equal(t, 1.0, VelocityCost(128), "capped at 1")
}

func TestCombinedCostExactPairIsZero(t *testing.T) {
	w := DefaultScoringWeights()
	assert.Equal(t, 0.0, CombinedCost(0, 0, 0, w))
}

func TestCombinedCostMonotone(t *testing.T) {
	w := DefaultScoringWeights()
	low := CombinedCost(0.1, 0.1, 0.1, w)
	high := CombinedCost(0.2, 0.1, 0.1, w)
	assert.Less(t, low, high, "increasing pitch cost must increase combined cost")

	high2 := CombinedCost(0.1, 0.2, 0.1, w)
	assert.Less(t, low, high2, "increasing timing cost must increase combined cost")

	high3 := CombinedCost(0.1, 0.1, 0.2, w)
	assert.Less(t, low, high3, "increasing velocity cost must increase combined cost")
}

func TestPairCostUsesWeights(t *testing.T) {
	w := ScoringWeights{Pitch: 1, Timing: 0, Velocity: 0}
	cost := PairCost(60, 72, 80, 80, 0, 500, w)
	assert.InDelta(t, 0.3, cost, 1e-9, "pitch-only weighting should isolate the octave-error cost")
}
