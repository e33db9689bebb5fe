package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealTimeDriverIgnoresEventsBeforeStart(t *testing.T) {
	score := buildScaleScore(t)
	driver := NewRealTimeDriver(score, DefaultOptions(), NewSyntheticClock(), nil, nil)

	driver.OnNoteOn(60, 80, 0, 0)
	final, err := driver.FinalEvaluation()
	require.NoError(t, err)
	assert.Empty(t, final.Alignment.Pairs, "notes received before Start must be dropped")
}

func TestRealTimeDriverIgnoresEventsAfterStop(t *testing.T) {
	score := buildScaleScore(t)
	driver := NewRealTimeDriver(score, DefaultOptions(), NewSyntheticClock(), nil, nil)
	driver.Start()
	driver.Stop()

	driver.OnNoteOn(60, 80, 0, 0)
	final, err := driver.FinalEvaluation()
	require.NoError(t, err)
	assert.Empty(t, final.Alignment.Pairs)
}

func TestRealTimeDriverEmitsUnmatchedNoteError(t *testing.T) {
	score := buildScaleScore(t)
	var errs []RealTimeError
	driver := NewRealTimeDriver(score, DefaultOptions(), NewSyntheticClock(), nil, func(e RealTimeError) {
		errs = append(errs, e)
	})
	driver.Start()

	// score's first notes are the C-major scale starting on pitch 60; a
	// pitch far outside that window and tolerance should raise an error.
	driver.OnNoteOn(20, 80, 0, 0)

	require.NotEmpty(t, errs)
	assert.Equal(t, ErrorUnmatchedNote, errs[0].Kind)
}

// Real-time-equals-batch-on-close property (§8): feeding a performance
// through the real-time driver note-by-note and then calling
// FinalEvaluation must match running the batch Evaluate pipeline once
// over the same notes.
func TestRealTimeEqualsBatchOnClose(t *testing.T) {
	score := buildScaleScore(t)
	perfNotes := performanceNotesFrom(score)

	driver := NewRealTimeDriver(score, DefaultOptions(), NewSyntheticClock(), nil, nil)
	driver.Start()
	for _, n := range perfNotes {
		driver.OnNoteOn(n.Pitch, n.Velocity, 0, n.StartMs)
		driver.OnNoteOff(n.Pitch, 0, n.StartMs+n.DurationMs, nil)
	}
	driver.Stop()

	fromDriver, err := driver.FinalEvaluation()
	require.NoError(t, err)

	batchPerf := buildPerformance(perfNotes)
	fromBatch, err := Evaluate(score, batchPerf, DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, fromBatch.OverallScore, fromDriver.OverallScore, 1e-6)
	assert.Len(t, fromDriver.Alignment.Pairs, len(fromBatch.Alignment.Pairs))
}

// steppingClock advances by a fixed amount each time it is queried,
// simulating a window alignment that takes longer than the latency budget.
type steppingClock struct {
	ms   float64
	step float64
}

func (c *steppingClock) NowMs() float64 {
	now := c.ms
	c.ms += c.step
	return now
}

func TestRealTimeDriverDropsFeedbackWhenBudgetExceeded(t *testing.T) {
	score := buildScaleScore(t)
	var errs []RealTimeError
	driver := NewRealTimeDriver(score, DefaultOptions(), &steppingClock{step: 60}, nil, func(e RealTimeError) {
		errs = append(errs, e)
	})
	driver.Start()

	perfNotes := performanceNotesFrom(score)
	for _, n := range perfNotes {
		driver.OnNoteOn(n.Pitch, n.Velocity, 0, n.StartMs)
		driver.OnNoteOff(n.Pitch, 0, n.StartMs+n.DurationMs, nil)
	}

	assert.True(t, driver.Progress().Degraded)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrorTimeout, errs[0].Kind)
}

func TestRealTimeDriverProgressAdvancesWithNotes(t *testing.T) {
	score := buildScaleScore(t)
	clock := NewSyntheticClock()
	driver := NewRealTimeDriver(score, DefaultOptions(), clock, nil, nil)
	driver.Start()

	before := driver.Progress()
	assert.Equal(t, 0, before.ScorePosition)

	perfNotes := performanceNotesFrom(score)
	for i, n := range perfNotes {
		clock.Set(n.StartMs)
		driver.OnNoteOn(n.Pitch, n.Velocity, 0, n.StartMs)
		driver.OnNoteOff(n.Pitch, 0, n.StartMs+n.DurationMs, nil)
		_ = i
	}

	after := driver.Progress()
	assert.Greater(t, after.ScorePosition, before.ScorePosition)
}
