package eval

import (
	"sort"
	"strconv"
)

// GraceType distinguishes the flavor of a grace note.
type GraceType string

const (
	GraceNone         GraceType = ""
	GraceAcciaccatura GraceType = "acciaccatura"
	GraceAppoggiatura GraceType = "appoggiatura"
	GraceGroup        GraceType = "group"
)

// Articulation is a notated articulation mark.
type Articulation string

const (
	ArticulationNormal       Articulation = "normal"
	ArticulationStaccato     Articulation = "staccato"
	ArticulationStaccatissimo Articulation = "staccatissimo"
	ArticulationTenuto       Articulation = "tenuto"
	ArticulationAccent       Articulation = "accent"
	ArticulationMarcato      Articulation = "marcato"
	ArticulationLegato       Articulation = "legato"
	ArticulationPortato      Articulation = "portato"
)

// TupletInfo describes a note's position within a tuplet group, e.g. a
// triplet is Actual 3, Normal 2.
type TupletInfo struct {
	Actual     int // notes actually played in the group
	Normal     int // notes the group's duration would normally contain
	Position   int // 0-based position within the group
	GroupSize  int // total notes in the sibling group
}

// ScoreNote is a single notated note. It embeds NoteEvent for the shared
// pitch/timing fields and adds notation-specific metadata.
type ScoreNote struct {
	NoteEvent

	ID      NoteID
	Measure int     // >= 1
	Beat    float64 // fractional, >= 1

	RhythmicValue RhythmicValue

	IsGraceNote    bool
	GraceType      GraceType
	ParentNoteID   NoteID // valid iff IsGraceNote; NilNoteID otherwise

	IsTuplet   bool
	TupletInfo *TupletInfo

	TiePrev bool
	TieNext bool

	Articulation    Articulation
	ExpectedDynamic DynamicLevel
	Staff           int // 1 = RH, 2 = LH
}

// Score is an immutable, once-built container for a piece's notated
// content. Alignment and evaluation are pure functions of (Score,
// Performance, Options); Score owns no mutable state after NewScore
// returns.
type Score struct {
	Notes          []ScoreNote
	PPQ            int
	TimeSignatures []TimeSignature
	TempoMarkings  []TempoChange
	KeySignatures  []KeySignature
	PickupBeats    float64
	FirstDownbeatTick int64
	TotalMeasures  int

	tempoMap   TempoMap
	byID       map[NoteID]int // NoteID -> index into Notes
	Warnings   []string       // non-fatal validation warnings surfaced at build time
}

// NewScore validates and builds a Score. It rejects ppq <= 0 and any
// grace note whose ParentNoteID does not resolve to another note in the
// same score (both are InvalidInputError). Overlapping same-pitch notes
// and grace notes lacking a parent are recorded as warnings, not errors.
func NewScore(notes []ScoreNote, ppq int, timeSigs []TimeSignature, tempoMarkings []TempoChange, keySigs []KeySignature, pickupBeats float64) (*Score, error) {
	if ppq <= 0 {
		return nil, newInvalidInput("ppq must be positive, got %d", ppq)
	}
	if len(timeSigs) == 0 {
		return nil, newInvalidInput("at least one time signature is required")
	}
	if len(tempoMarkings) == 0 {
		return nil, newInvalidInput("at least one tempo marking is required")
	}
	if len(keySigs) == 0 {
		return nil, newInvalidInput("at least one key signature is required")
	}

	sorted := make([]ScoreNote, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartTick != sorted[j].StartTick {
			return sorted[i].StartTick < sorted[j].StartTick
		}
		return sorted[i].Pitch < sorted[j].Pitch
	})

	tempoMap := NewTempoMap(tempoMarkings)

	s := &Score{
		Notes:             sorted,
		PPQ:               ppq,
		TimeSignatures:    append([]TimeSignature(nil), timeSigs...),
		TempoMarkings:     append([]TempoChange(nil), tempoMarkings...),
		KeySignatures:     append([]KeySignature(nil), keySigs...),
		PickupBeats:       pickupBeats,
		tempoMap:          tempoMap,
		byID:              make(map[NoteID]int, len(sorted)),
	}

	for i := range s.Notes {
		n := &s.Notes[i]
		if n.ID.IsNil() {
			n.ID = NewNoteID()
		}
		n.StartMs = tempoMap.TickToMs(n.StartTick, ppq)
		n.DurationMs = tempoMap.TickToMs(n.StartTick+n.DurationTicks, ppq) - n.StartMs
		measure, beat := s.measureAndBeatForTick(n.StartTick)
		n.Measure = measure
		n.Beat = beat
		n.RhythmicValue = RhythmicValueFor(n.DurationTicks, ppq)
		s.byID[n.ID] = i
	}

	// Overlap and grace-parent resolution (after IDs are assigned).
	byPitchTick := make(map[int][]int) // pitch -> indices, for overlap warnings
	for i, n := range s.Notes {
		byPitchTick[int(n.Pitch)] = append(byPitchTick[int(n.Pitch)], i)
	}
	for _, idxs := range byPitchTick {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				x, y := s.Notes[idxs[a]], s.Notes[idxs[b]]
				if x.StartMs < y.EndMs() && y.StartMs < x.EndMs() {
					s.Warnings = append(s.Warnings, "overlapping same-pitch notes at measure "+strconv.Itoa(x.Measure))
				}
			}
		}
	}

	for _, n := range s.Notes {
		if !n.IsGraceNote {
			continue
		}
		if n.ParentNoteID.IsNil() {
			s.Warnings = append(s.Warnings, "grace note "+n.ID.String()+" has no parent")
			continue
		}
		if _, ok := s.byID[n.ParentNoteID]; !ok {
			return nil, newInvalidInput("grace note %s references unresolved parent %s", n.ID, n.ParentNoteID)
		}
	}

	if n := len(s.Notes); n > 0 {
		s.FirstDownbeatTick = s.Notes[0].StartTick
		last := s.Notes[n-1]
		s.TotalMeasures = last.Measure
	}
	if s.PickupBeats > 0 {
		s.FirstDownbeatTick = int64(s.PickupBeats * float64(s.activeTimeSignature(0).TicksPerBeat(ppq)))
	}

	return s, nil
}

// TickToMs converts a tick position to milliseconds via the score's
// tempo map.
func (s *Score) TickToMs(tick int64) float64 {
	return s.tempoMap.TickToMs(tick, s.PPQ)
}

// MsToTick is the inverse of TickToMs.
func (s *Score) MsToTick(ms float64) int64 {
	return s.tempoMap.MsToTick(ms, s.PPQ)
}

// QuarterMs returns the duration of a quarter note, in milliseconds, at
// the tempo in effect at the given tick.
func (s *Score) QuarterMs(tick int64) float64 {
	idx := s.tempoMap.segmentIndex(tick)
	return float64(s.tempoMap.changes[idx].MicrosecondsPerQuarter) / 1000.0
}

// NoteAt returns the note at the given index in tick order.
func (s *Score) NoteAt(index int) (ScoreNote, bool) {
	if index < 0 || index >= len(s.Notes) {
		return ScoreNote{}, false
	}
	return s.Notes[index], true
}

// NoteByID looks up a note by its stable id.
func (s *Score) NoteByID(id NoteID) (ScoreNote, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return ScoreNote{}, false
	}
	return s.Notes[idx], true
}

// NotesInTickRange returns notes with StartTick in [startTick, endTick).
func (s *Score) NotesInTickRange(startTick, endTick int64) []ScoreNote {
	lo := sort.Search(len(s.Notes), func(i int) bool { return s.Notes[i].StartTick >= startTick })
	hi := sort.Search(len(s.Notes), func(i int) bool { return s.Notes[i].StartTick >= endTick })
	if lo >= hi {
		return nil
	}
	return s.Notes[lo:hi]
}

// NotesInMeasure returns every note whose Measure equals the given measure.
func (s *Score) NotesInMeasure(measure int) []ScoreNote {
	var out []ScoreNote
	for _, n := range s.Notes {
		if n.Measure == measure {
			out = append(out, n)
		}
	}
	return out
}

// activeTimeSignature returns the time signature in effect at tick.
func (s *Score) activeTimeSignature(tick int64) TimeSignature {
	active := s.TimeSignatures[0]
	for _, ts := range s.TimeSignatures {
		if ts.StartTick <= tick {
			active = ts
		}
	}
	return active
}

// measureAndBeatForTick derives the 1-based measure and fractional beat
// for a tick, accounting for time signature changes and pickup beats. An
// anacrusis occupies a partial measure 1 whose beats count up to the
// first downbeat; the downbeat then starts measure 2.
func (s *Score) measureAndBeatForTick(tick int64) (measure int, beat float64) {
	if len(s.TimeSignatures) == 0 {
		return 1, 1
	}

	// Walk segments delimited by time-signature boundaries, accumulating
	// whole measures until we reach the segment containing tick.
	sortedTS := append([]TimeSignature(nil), s.TimeSignatures...)
	sort.Slice(sortedTS, func(i, j int) bool { return sortedTS[i].StartTick < sortedTS[j].StartTick })

	first := sortedTS[0]
	var pickupTicks int64
	if s.PickupBeats > 0 {
		pickupTicks = int64(s.PickupBeats * float64(first.TicksPerBeat(s.PPQ)))
	}
	if tick < pickupTicks {
		tpb := first.TicksPerBeat(s.PPQ)
		beat = float64(first.Numerator) - s.PickupBeats + 1 + float64(tick)/float64(tpb)
		return 1, beat
	}

	measuresSoFar := 1
	if pickupTicks > 0 {
		measuresSoFar = 2
	}
	for i, ts := range sortedTS {
		segStart := ts.StartTick
		if i == 0 {
			segStart = pickupTicks
		}
		var segEnd int64 = tick + 1
		if i+1 < len(sortedTS) {
			segEnd = sortedTS[i+1].StartTick
		}
		tpm := ts.TicksPerMeasure(s.PPQ)
		if tpm <= 0 {
			continue
		}
		if tick < segStart {
			continue
		}
		if tick < segEnd || i == len(sortedTS)-1 {
			offset := tick - segStart
			measuresIn := offset / tpm
			tickInMeasure := offset % tpm
			measure = measuresSoFar + int(measuresIn)
			tpb := ts.TicksPerBeat(s.PPQ)
			if tpb <= 0 {
				beat = 1
			} else {
				beat = 1 + float64(tickInMeasure)/float64(tpb)
			}
			return measure, beat
		}
		segTicks := segEnd - segStart
		measuresSoFar += int(segTicks / tpm)
	}
	return measuresSoFar, 1
}
