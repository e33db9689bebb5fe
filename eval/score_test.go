package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterScoreNotes(pitches []uint8) []ScoreNote {
	notes := make([]ScoreNote, len(pitches))
	for i, p := range pitches {
		notes[i] = ScoreNote{
			NoteEvent: NoteEvent{Pitch: p, Velocity: 80, StartTick: int64(i) * 480, DurationTicks: 480},
		}
	}
	return notes
}

func defaultTimeSigs() []TimeSignature {
	return []TimeSignature{{StartTick: 0, Numerator: 4, Denominator: 4}}
}

func defaultTempo() []TempoChange {
	return []TempoChange{{StartTick: 0, MicrosecondsPerQuarter: 500_000}}
}

func defaultKeySigs() []KeySignature {
	return []KeySignature{{StartTick: 0, Tonic: "C"}}
}

func TestNewScoreRejectsNonPositivePPQ(t *testing.T) {
	_, err := NewScore(nil, 0, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.Error(t, err)
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestNewScoreDerivesStartMsFromTempoMap(t *testing.T) {
	notes := quarterScoreNotes([]uint8{60, 62, 64})
	score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, score.Notes[0].StartMs)
	assert.InDelta(t, 500.0, score.Notes[1].StartMs, 1e-9)
	assert.InDelta(t, 1000.0, score.Notes[2].StartMs, 1e-9)
}

func TestNewScoreDerivesMeasureAndBeat(t *testing.T) {
	// 4/4 at ppq 480: 4 quarters fill measure 1, the 5th starts measure 2 beat 1.
	notes := quarterScoreNotes([]uint8{60, 62, 64, 65, 67})
	score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, score.Notes[0].Measure)
	assert.InDelta(t, 1.0, score.Notes[0].Beat, 1e-9)
	assert.Equal(t, 1, score.Notes[3].Measure)
	assert.InDelta(t, 4.0, score.Notes[3].Beat, 1e-9)
	assert.Equal(t, 2, score.Notes[4].Measure)
	assert.InDelta(t, 1.0, score.Notes[4].Beat, 1e-9)
}

func TestNewScoreDerivesMeasureAndBeatWithPickup(t *testing.T) {
	// One-beat anacrusis in 4/4: the opening note sits on beat 4 of the
	// pickup measure, and the first downbeat starts measure 2.
	notes := quarterScoreNotes([]uint8{60, 62, 64})
	score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, score.Notes[0].Measure)
	assert.InDelta(t, 4.0, score.Notes[0].Beat, 1e-9)
	assert.Equal(t, 2, score.Notes[1].Measure)
	assert.InDelta(t, 1.0, score.Notes[1].Beat, 1e-9)
	assert.Equal(t, int64(480), score.FirstDownbeatTick)
}

func TestNewScoreRejectsUnresolvedGraceParent(t *testing.T) {
	notes := quarterScoreNotes([]uint8{60})
	notes[0].IsGraceNote = true
	notes[0].ParentNoteID = NewNoteID() // does not resolve to any note in this score

	_, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.Error(t, err)
}

func TestNewScoreWarnsOnGraceNoteWithoutParent(t *testing.T) {
	notes := quarterScoreNotes([]uint8{60})
	notes[0].IsGraceNote = true

	score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, score.Warnings)
}

func TestNewScoreWarnsOnOverlappingSamePitch(t *testing.T) {
	notes := []ScoreNote{
		{NoteEvent: NoteEvent{Pitch: 60, StartTick: 0, DurationTicks: 960}},
		{NoteEvent: NoteEvent{Pitch: 60, StartTick: 240, DurationTicks: 480}},
	}
	score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, score.Warnings)
}

func TestNewScoreSortsByTickThenPitch(t *testing.T) {
	notes := []ScoreNote{
		{NoteEvent: NoteEvent{Pitch: 67, StartTick: 0}},
		{NoteEvent: NoteEvent{Pitch: 60, StartTick: 0}},
	}
	score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(60), score.Notes[0].Pitch)
	assert.Equal(t, uint8(67), score.Notes[1].Pitch)
}

func TestNotesInTickRangeAndMeasure(t *testing.T) {
	notes := quarterScoreNotes([]uint8{60, 62, 64, 65, 67})
	score, err := NewScore(notes, 480, defaultTimeSigs(), defaultTempo(), defaultKeySigs(), 0)
	require.NoError(t, err)

	inRange := score.NotesInTickRange(480, 1440)
	assert.Len(t, inRange, 2)

	inMeasure1 := score.NotesInMeasure(1)
	assert.Len(t, inMeasure1, 4)
	inMeasure2 := score.NotesInMeasure(2)
	assert.Len(t, inMeasure2, 1)
}
