package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRhythmPerfectPerformanceScoresHundred(t *testing.T) {
	score := buildScaleScore(t)
	perf := buildPerformance(performanceNotesFrom(score))

	result, err := Evaluate(score, perf, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, len(score.Notes), result.Rhythm.OnTime)
	assert.Equal(t, 100.0, result.Rhythm.Score)
	assert.False(t, result.Rhythm.IsRushing)
	assert.False(t, result.Rhythm.IsDragging)
}

func TestRhythmDetectsSystemicRushing(t *testing.T) {
	score := buildScaleScore(t)
	perfNotes := performanceNotesFrom(score)
	for i := range perfNotes {
		perfNotes[i].StartMs -= 60 // beyond RhythmSlightMs (50ms)
	}

	result, err := Evaluate(score, buildPerformance(perfNotes), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, result.Rhythm.IsRushing)
	assert.Less(t, result.Rhythm.Score, 100.0)
}

func TestRhythmDetectsSystemicDragging(t *testing.T) {
	score := buildScaleScore(t)
	perfNotes := performanceNotesFrom(score)
	for i := range perfNotes {
		perfNotes[i].StartMs += 60
	}

	result, err := Evaluate(score, buildPerformance(perfNotes), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, result.Rhythm.IsDragging)
}

func TestRhythmVeryLateNoteRaisesIssueAndDragsScore(t *testing.T) {
	score := buildScaleScore(t)
	perfNotes := performanceNotesFrom(score)
	perfNotes[4].StartMs += 150 // beyond RhythmExtremeMs (100ms) -> very_late

	result, err := Evaluate(score, buildPerformance(perfNotes), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rhythm.VeryLate)
	found := false
	for _, iss := range result.Rhythm.Issues {
		if iss.Type == IssueDraggedNote {
			found = true
		}
	}
	assert.True(t, found)
}
