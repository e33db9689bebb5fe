package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTempoMapTickToMsSingleTempo(t *testing.T) {
	tm := NewTempoMap([]TempoChange{{StartTick: 0, MicrosecondsPerQuarter: 500_000}}) // 120 BPM
	const ppq = 480

	assert.Equal(t, 0.0, tm.TickToMs(0, ppq))
	assert.InDelta(t, 500.0, tm.TickToMs(480, ppq), 1e-9, "one quarter note at 120 BPM is 500ms")
	assert.InDelta(t, 1000.0, tm.TickToMs(960, ppq), 1e-9)
}

func TestTempoMapTickToMsAcrossTempoChange(t *testing.T) {
	const ppq = 480
	tm := NewTempoMap([]TempoChange{
		{StartTick: 0, MicrosecondsPerQuarter: 500_000},   // 120 BPM until tick 960
		{StartTick: 960, MicrosecondsPerQuarter: 1_000_000}, // 60 BPM after
	})

	// Two quarters at 120 BPM = 1000ms, then one more quarter at 60 BPM = 1000ms.
	got := tm.TickToMs(960+480, ppq)
	assert.InDelta(t, 2000.0, got, 1e-6)
}

func TestTempoMapMsToTickRoundTrips(t *testing.T) {
	const ppq = 480
	tm := NewTempoMap([]TempoChange{
		{StartTick: 0, MicrosecondsPerQuarter: 500_000},
		{StartTick: 960, MicrosecondsPerQuarter: 750_000},
	})

	for _, tick := range []int64{0, 100, 480, 960, 1200, 5000} {
		ms := tm.TickToMs(tick, ppq)
		roundTripped := tm.MsToTick(ms, ppq)
		assert.InDelta(t, float64(tick), float64(roundTripped), 1.0, "round trip for tick %d", tick)
	}
}

func TestTempoMapSynthesizesLeadingSegment(t *testing.T) {
	tm := NewTempoMap([]TempoChange{{StartTick: 960, MicrosecondsPerQuarter: 400_000}})
	assert.Equal(t, 0.0, tm.TickToMs(0, 480), "ticks before the first marking use the synthesized 120 BPM default")
}

func TestTimeSignatureDerivedQuantities(t *testing.T) {
	ts := TimeSignature{StartTick: 0, Numerator: 4, Denominator: 4}
	assert.Equal(t, int64(1920), ts.TicksPerMeasure(480))
	assert.Equal(t, int64(480), ts.TicksPerBeat(480))
	assert.False(t, ts.IsCompound())

	compound := TimeSignature{StartTick: 0, Numerator: 6, Denominator: 8}
	assert.True(t, compound.IsCompound())

	notCompound := TimeSignature{StartTick: 0, Numerator: 4, Denominator: 8}
	assert.False(t, notCompound.IsCompound())
}

func TestPitchClassAndOctave(t *testing.T) {
	n := NoteEvent{Pitch: 61}
	assert.Equal(t, 1, n.PitchClass())
	assert.Equal(t, 4, n.Octave())
}
