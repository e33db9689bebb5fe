package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNwAlignPerfectMatchIsAllPairs(t *testing.T) {
	opts := DefaultOptions()
	pitches := []uint8{60, 62, 64}
	vel := []uint8{80, 80, 80}
	times := []float64{0, 500, 1000}

	steps := nwAlign(pitches, pitches, vel, vel, times, times, opts)

	require.Len(t, steps, 3)
	for i, s := range steps {
		assert.Equal(t, nwPair, s.Outcome)
		assert.Equal(t, i, s.ScoreIndex)
		assert.Equal(t, i, s.PerformanceIndex)
	}
}

func TestNwAlignInsertionBecomesGapInScore(t *testing.T) {
	opts := DefaultOptions()
	scorePitch := []uint8{60, 62}
	perfPitch := []uint8{60, 61, 62} // an extra note inserted in the middle
	scoreVel := []uint8{80, 80}
	perfVel := []uint8{80, 80, 80}
	scoreTimes := []float64{0, 1000}
	perfTimes := []float64{0, 500, 1000}

	steps := nwAlign(scorePitch, perfPitch, scoreVel, perfVel, scoreTimes, perfTimes, opts)

	var gapInScore int
	var pairs int
	for _, s := range steps {
		switch s.Outcome {
		case nwGapInScore:
			gapInScore++
		case nwPair:
			pairs++
		}
	}
	assert.Equal(t, 1, gapInScore)
	assert.Equal(t, 2, pairs)
}

func TestNwAlignDeletionBecomesGapInPerformance(t *testing.T) {
	opts := DefaultOptions()
	scorePitch := []uint8{60, 62, 64}
	perfPitch := []uint8{60, 64} // the middle note was never played
	scoreVel := []uint8{80, 80, 80}
	perfVel := []uint8{80, 80}
	scoreTimes := []float64{0, 500, 1000}
	perfTimes := []float64{0, 1000}

	steps := nwAlign(scorePitch, perfPitch, scoreVel, perfVel, scoreTimes, perfTimes, opts)

	var gapInPerf int
	for _, s := range steps {
		if s.Outcome == nwGapInPerformance {
			gapInPerf++
		}
	}
	assert.Equal(t, 1, gapInPerf)
}

func TestNwMatchScoreExactVsOctaveVsWrong(t *testing.T) {
	opts := DefaultOptions()
	exact := nwMatchScore(60, 60, 80, 80, 0, opts)
	octave := nwMatchScore(60, 72, 80, 80, 0, opts)
	wrong := nwMatchScore(60, 61, 80, 80, 0, opts)

	assert.Equal(t, 1.0, exact)
	assert.Equal(t, 0.3, octave)
	assert.Less(t, wrong, 0.0)
}
