package main

import (
	"sort"

	"github.com/ako-dev/perfeval/eval"
)

// replayEventKind tags which RealTimeDriver call a replayEvent drives.
type replayEventKind int

const (
	replayNoteOn replayEventKind = iota
	replayNoteOff
	replayPedal
)

// replayEvent is one recorded performance or pedal transition, ready to be
// fed into a RealTimeDriver in timestamp order via a synthetic clock.
type replayEvent struct {
	timeMs float64
	kind   replayEventKind

	pitch    uint8
	velocity uint8
	channel  uint8

	pedalKind eval.PedalType
	pressed   bool
	value     uint8
}

// buildReplayTimeline merges a Performance's notes and pedal events into a
// single time-ordered sequence of driver calls, splitting each
// PerformanceNote back into its note-on and note-off moments the way live
// MIDI capture would have delivered them.
func buildReplayTimeline(performance *eval.Performance) []replayEvent {
	var events []replayEvent

	for _, n := range performance.Notes {
		events = append(events, replayEvent{
			timeMs: n.StartMs, kind: replayNoteOn,
			pitch: n.Pitch, velocity: n.Velocity, channel: n.Channel,
		})
		events = append(events, replayEvent{
			timeMs: n.EndMs(), kind: replayNoteOff,
			pitch: n.Pitch, channel: n.Channel,
		})
	}
	events = append(events, pedalReplayEvents(performance.SustainEvents, eval.PedalSustain)...)
	events = append(events, pedalReplayEvents(performance.SoftEvents, eval.PedalSoft)...)
	events = append(events, pedalReplayEvents(performance.SostenutoEvents, eval.PedalSostenuto)...)

	sort.SliceStable(events, func(i, j int) bool { return events[i].timeMs < events[j].timeMs })
	return events
}

func pedalReplayEvents(pedalEvents []eval.PedalEvent, kind eval.PedalType) []replayEvent {
	out := make([]replayEvent, len(pedalEvents))
	for i, p := range pedalEvents {
		out[i] = replayEvent{
			timeMs: p.TimeMs, kind: replayPedal,
			pedalKind: kind, pressed: p.IsPressed, value: p.Value,
		}
	}
	return out
}

// apply drives the given RealTimeDriver with this event, passing the
// event's recorded time (timeMs) as the call's timestamp.
func (e replayEvent) apply(driver *eval.RealTimeDriver) {
	switch e.kind {
	case replayNoteOn:
		driver.OnNoteOn(e.pitch, e.velocity, e.channel, e.timeMs)
	case replayNoteOff:
		driver.OnNoteOff(e.pitch, e.channel, e.timeMs, nil)
	case replayPedal:
		driver.OnPedal(e.pedalKind, e.pressed, e.value, e.timeMs)
	}
}
