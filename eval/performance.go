package eval

import (
	"math"
	"sort"
	"time"
)

// PerformanceNote is a single played note, captured live or loaded from a
// recording. The alignment-related fields (MatchedScoreID, classification,
// deviations) are not filled in by the aligners or evaluators, which report
// matches through AlignedNotePair; PerformanceNote itself stays pure input
// data and never mutates its own identity fields after creation.
type PerformanceNote struct {
	NoteEvent

	ID                NoteID
	ReceivedTimestamp time.Time
	ReleaseVelocity   *uint8

	SustainActive   bool
	SoftActive      bool
	SostenutoActive bool

	SequenceIndex int

	MatchedScoreID       NoteID
	MatchConfidence      float64
	Classification       PairClassification
	TimingDeviationMs    float64
	TimingDeviationBeats float64
	VelocityDeviation    int
}

// PedalEvent is a single sustain/soft/sostenuto pedal transition.
type PedalEvent struct {
	TimeMs    float64
	IsPressed bool
	Value     uint8
}

// Performance is an ordered collection of played notes and pedal events.
// It is built incrementally in real time or loaded from a file; once
// handed to an evaluator it is treated as immutable.
type Performance struct {
	Notes []PerformanceNote

	SustainEvents   []PedalEvent
	SoftEvents      []PedalEvent
	SostenutoEvents []PedalEvent
}

// NewPerformance sorts notes by start time and assigns sequence indices
// and ids where missing.
func NewPerformance(notes []PerformanceNote, sustain, soft, sostenuto []PedalEvent) *Performance {
	sorted := make([]PerformanceNote, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartMs < sorted[j].StartMs })

	for i := range sorted {
		if sorted[i].ID.IsNil() {
			sorted[i].ID = NewNoteID()
		}
		sorted[i].SequenceIndex = i
	}

	return &Performance{
		Notes:           sorted,
		SustainEvents:   sortedPedalEvents(sustain),
		SoftEvents:      sortedPedalEvents(soft),
		SostenutoEvents: sortedPedalEvents(sostenuto),
	}
}

func sortedPedalEvents(events []PedalEvent) []PedalEvent {
	sorted := make([]PedalEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TimeMs < sorted[j].TimeMs })
	return sorted
}

// IsSustainActiveAt reports the value of the latest sustain pedal event
// at or before t.
func (p *Performance) IsSustainActiveAt(t float64) bool {
	return pedalStateAt(p.SustainEvents, t)
}

// IsSoftActiveAt reports the value of the latest soft pedal event at or
// before t.
func (p *Performance) IsSoftActiveAt(t float64) bool {
	return pedalStateAt(p.SoftEvents, t)
}

// IsSostenutoActiveAt reports the value of the latest sostenuto pedal
// event at or before t.
func (p *Performance) IsSostenutoActiveAt(t float64) bool {
	return pedalStateAt(p.SostenutoEvents, t)
}

// SustainReleaseAfter returns the time of the next pedal-off event at or
// after t, or +Inf if the pedal never releases within the recorded events.
func (p *Performance) SustainReleaseAfter(t float64) float64 {
	for _, ev := range p.SustainEvents {
		if ev.TimeMs >= t && !ev.IsPressed {
			return ev.TimeMs
		}
	}
	return math.Inf(1)
}

func pedalStateAt(events []PedalEvent, t float64) bool {
	idx := sort.Search(len(events), func(i int) bool { return events[i].TimeMs > t })
	if idx == 0 {
		return false
	}
	return events[idx-1].IsPressed
}

// EffectiveEndMs returns a note's release time extended to the next
// sustain pedal-off when the pedal was active at the note's onset, per
// §4.5 step 7. This affects duration-sensitive checks (e.g. the extra-note
// "disruptive" threshold) but never alignment pair membership.
func (p *Performance) EffectiveEndMs(note PerformanceNote) float64 {
	end := note.EndMs()
	if !p.IsSustainActiveAt(note.StartMs) {
		return end
	}
	release := p.SustainReleaseAfter(note.StartMs)
	if release > end {
		return release
	}
	return end
}

// NoteByID looks up a performance note by its stable id.
func (p *Performance) NoteByID(id NoteID) (PerformanceNote, bool) {
	for _, n := range p.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return PerformanceNote{}, false
}
