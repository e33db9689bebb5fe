package eval

import "sort"

// NoteEvent is the immutable core shared by ScoreNote and PerformanceNote.
// Polymorphic code that only needs timing/pitch accepts a NoteEvent value
// (or a pointer to one embedded in a richer type) instead of a base class.
type NoteEvent struct {
	Pitch          uint8   // 0-127
	Velocity       uint8   // 0-127
	StartTick      int64   // score-side tick position (zero for pure performance events with no tick concept)
	DurationTicks  int64   // >= 0
	StartMs        float64 // derived from StartTick via the owning TempoMap, or captured directly for live input
	DurationMs     float64
	Channel        uint8 // 0-15
	Voice          int   // small integer voice/staff grouping hint
}

// PitchClass returns pitch mod 12 (0 = C, octave-invariant).
func (e NoteEvent) PitchClass() int {
	return int(e.Pitch) % 12
}

// Octave returns the MIDI octave number, so that pitch 60 ("C4") yields 4.
func (e NoteEvent) Octave() int {
	return int(e.Pitch)/12 - 1
}

// EndMs is the event's release time.
func (e NoteEvent) EndMs() float64 {
	return e.StartMs + e.DurationMs
}

// TempoChange is one piecewise-constant segment boundary of a TempoMap.
type TempoChange struct {
	StartTick             int64
	MicrosecondsPerQuarter int64
}

// BPM returns the beats-per-minute represented by this tempo segment.
func (tc TempoChange) BPM() float64 {
	if tc.MicrosecondsPerQuarter <= 0 {
		return 0
	}
	return 60_000_000.0 / float64(tc.MicrosecondsPerQuarter)
}

// TempoMap is an ordered-by-start-tick piecewise-constant function from
// ticks to microseconds-per-quarter. The final segment is open and extends
// to infinity.
type TempoMap struct {
	changes []TempoChange // sorted by StartTick, changes[0].StartTick == 0 by construction
}

// NewTempoMap builds a TempoMap from tempo markings in arbitrary order.
// A leading marking at tick 0 is synthesized (120 BPM) if the caller didn't
// supply one, so tick_to_ms is always defined for tick >= 0.
func NewTempoMap(markings []TempoChange) TempoMap {
	changes := make([]TempoChange, len(markings))
	copy(changes, markings)
	sort.Slice(changes, func(i, j int) bool { return changes[i].StartTick < changes[j].StartTick })

	if len(changes) == 0 || changes[0].StartTick != 0 {
		changes = append([]TempoChange{{StartTick: 0, MicrosecondsPerQuarter: 500_000}}, changes...)
	}
	return TempoMap{changes: changes}
}

// TickToMs converts a tick position to milliseconds by accumulating
// segment_ticks * microseconds_per_quarter / ppq across each tempo segment
// boundary in turn. All intermediate arithmetic is float64; no rounding
// happens until the final result.
func (tm TempoMap) TickToMs(tick int64, ppq int) float64 {
	if ppq <= 0 || len(tm.changes) == 0 {
		return 0
	}

	idx := tm.segmentIndex(tick)

	var accMs float64
	for i := 0; i < idx; i++ {
		segEnd := tm.changes[i+1].StartTick
		segTicks := segEnd - tm.changes[i].StartTick
		accMs += float64(segTicks) * float64(tm.changes[i].MicrosecondsPerQuarter) / float64(ppq) / 1000.0
	}

	lastSeg := tm.changes[idx]
	remainingTicks := tick - lastSeg.StartTick
	accMs += float64(remainingTicks) * float64(lastSeg.MicrosecondsPerQuarter) / float64(ppq) / 1000.0
	return accMs
}

// MsToTick is the inverse of TickToMs: it locates which tempo segment
// contains the given ms offset and solves for the tick within it.
func (tm TempoMap) MsToTick(ms float64, ppq int) int64 {
	if ppq <= 0 || len(tm.changes) == 0 {
		return 0
	}

	var accMs float64
	for i := 0; i < len(tm.changes); i++ {
		segMicros := float64(tm.changes[i].MicrosecondsPerQuarter)
		var segTicks int64
		isLast := i == len(tm.changes)-1
		if !isLast {
			segTicks = tm.changes[i+1].StartTick - tm.changes[i].StartTick
		}
		segMs := float64(segTicks) * segMicros / float64(ppq) / 1000.0

		if isLast || ms <= accMs+segMs {
			remainingMs := ms - accMs
			ticksIntoSeg := remainingMs * float64(ppq) * 1000.0 / segMicros
			return tm.changes[i].StartTick + int64(ticksIntoSeg)
		}
		accMs += segMs
	}
	return 0
}

// segmentIndex performs an O(log T) binary search over segment starts,
// returning the index of the last segment whose StartTick <= tick.
func (tm TempoMap) segmentIndex(tick int64) int {
	i := sort.Search(len(tm.changes), func(i int) bool {
		return tm.changes[i].StartTick > tick
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// TimeSignature is a time signature change starting at a given tick.
type TimeSignature struct {
	StartTick   int64
	Numerator   int
	Denominator int
}

// TicksPerMeasure returns ppq * numerator * 4 / denominator.
func (ts TimeSignature) TicksPerMeasure(ppq int) int64 {
	return int64(ppq) * int64(ts.Numerator) * 4 / int64(ts.Denominator)
}

// TicksPerBeat returns ppq * 4 / denominator.
func (ts TimeSignature) TicksPerBeat(ppq int) int64 {
	return int64(ppq) * 4 / int64(ts.Denominator)
}

// IsCompound reports whether this is a compound meter (denominator 8,
// numerator a multiple of 3 - e.g. 6/8, 9/8, 12/8).
func (ts TimeSignature) IsCompound() bool {
	return ts.Denominator == 8 && ts.Numerator%3 == 0
}

// KeySignature is a key change starting at a given tick.
type KeySignature struct {
	StartTick int64
	Tonic     string // e.g. "C", "F#", "Bb"
	IsMinor   bool
}
