package midiio

import (
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestSMF builds a two-track (tempo/meter track plus one note track),
// single-channel SMF at 120 BPM, 4/4,
// ppq 480, with a short ascending run of quarter notes, and returns its
// path inside t's temp directory.
func writeTestSMF(t *testing.T, pitches []uint8) string {
	t.Helper()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var meta smf.Track
	meta.Add(0, smf.MetaTempo(120))
	meta.Add(0, smf.MetaMeter(4, 4))
	meta.Close(0)
	require.NoError(t, s.Add(meta))

	var notesTrack smf.Track
	const stepTicks = 480
	const noteLenTicks = 240
	prevTick := uint32(0)
	for i, p := range pitches {
		onTick := uint32(i) * stepTicks
		offTick := onTick + noteLenTicks
		notesTrack.Add(onTick-prevTick, midi.NoteOn(0, p, 80))
		prevTick = onTick
		notesTrack.Add(offTick-prevTick, midi.NoteOff(0, p))
		prevTick = offTick
	}
	notesTrack.Close(0)
	require.NoError(t, s.Add(notesTrack))

	dir := t.TempDir()
	path := filepath.Join(dir, "test.mid")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = s.WriteTo(f)
	require.NoError(t, err)

	return path
}

func TestLoadScoreParsesNotesTempoAndTimeSig(t *testing.T) {
	pitches := []uint8{60, 62, 64, 65}
	path := writeTestSMF(t, pitches)

	score, err := LoadScore(path, 0)
	require.NoError(t, err)
	require.NotNil(t, score)

	require.Len(t, score.Notes, len(pitches))
	for i, n := range score.Notes {
		assert.Equal(t, pitches[i], n.Pitch)
	}
	assert.Equal(t, 480, score.PPQ)
	require.NotEmpty(t, score.TempoMarkings)
	assert.InDelta(t, 120.0, score.TempoMarkings[0].BPM(), 0.5)
	require.NotEmpty(t, score.TimeSignatures)
	assert.Equal(t, 4, score.TimeSignatures[0].Numerator)
	assert.Equal(t, 4, score.TimeSignatures[0].Denominator)
}

func TestLoadScoreMissingFileReturnsError(t *testing.T) {
	_, err := LoadScore(filepath.Join(t.TempDir(), "does-not-exist.mid"), 0)
	assert.Error(t, err)
}
