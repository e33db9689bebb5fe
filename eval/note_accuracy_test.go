package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteAccuracyPerfectPerformanceScoresHundred(t *testing.T) {
	score := buildScaleScore(t)
	perf := buildPerformance(performanceNotesFrom(score))

	result, err := Evaluate(score, perf, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, len(score.Notes), result.NoteAccuracy.Correct)
	assert.Equal(t, 100.0, result.NoteAccuracy.Score)
	assert.Empty(t, result.NoteAccuracy.Issues)
}

func TestNoteAccuracyPenalizesWrongNote(t *testing.T) {
	score := buildScaleScore(t)
	perfNotes := performanceNotesFrom(score)
	perfNotes[2].Pitch = 63

	result, err := Evaluate(score, buildPerformance(perfNotes), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.NoteAccuracy.Wrong)
	assert.Less(t, result.NoteAccuracy.Score, 100.0)
	require.NotEmpty(t, result.NoteAccuracy.Issues)
	assert.Equal(t, IssueWrongNote, result.NoteAccuracy.Issues[0].Type)
}

func TestNoteAccuracyPenalizesMissedNote(t *testing.T) {
	score := buildScaleScore(t)
	perfNotes := performanceNotesFrom(score)
	perfNotes = append(perfNotes[:3], perfNotes[4:]...)

	result, err := Evaluate(score, buildPerformance(perfNotes), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.NoteAccuracy.Missed)
	hasMissed := false
	for _, iss := range result.NoteAccuracy.Issues {
		if iss.Type == IssueMissedNote {
			hasMissed = true
		}
	}
	assert.True(t, hasMissed)
}

func TestNoteAccuracyMissedTupletWithMatchedSiblingsCostsLess(t *testing.T) {
	scoreFor := func(markTuplet bool) float64 {
		notes := quarterScoreNotes(cMajorScalePitches)
		if markTuplet {
			for i := 0; i < 3; i++ {
				notes[i].IsTuplet = true
				notes[i].TupletInfo = &TupletInfo{Actual: 3, Normal: 2, Position: i, GroupSize: 3}
			}
		}
		score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
		require.NoError(t, err)

		perfNotes := performanceNotesFrom(score)
		perfNotes = append(perfNotes[:1], perfNotes[2:]...) // omit the group's middle note

		result, err := Evaluate(score, buildPerformance(perfNotes), DefaultOptions())
		require.NoError(t, err)
		return result.NoteAccuracy.Score
	}

	assert.Greater(t, scoreFor(true), scoreFor(false),
		"a missed tuplet note with two matched siblings should carry a softened penalty")
}

func TestNoteAccuracyOctaveErrorCostsLessThanWrongPitch(t *testing.T) {
	score := buildScaleScore(t)

	octavePerf := performanceNotesFrom(score)
	octavePerf[2].Pitch += 12
	octaveResult, err := Evaluate(score, buildPerformance(octavePerf), DefaultOptions())
	require.NoError(t, err)

	wrongPerf := performanceNotesFrom(score)
	wrongPerf[2].Pitch = 63
	wrongResult, err := Evaluate(score, buildPerformance(wrongPerf), DefaultOptions())
	require.NoError(t, err)

	assert.Greater(t, octaveResult.NoteAccuracy.Score, wrongResult.NoteAccuracy.Score)
}
