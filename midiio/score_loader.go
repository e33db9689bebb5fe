// Package midiio adapts gitlab.com/gomidi/midi/v2's Standard MIDI File
// reader into the eval package's immutable Score and Performance
// containers.
package midiio

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/ako-dev/perfeval/eval"
)

// openScoreNote tracks a sounding score note awaiting its note-off.
type openScoreNote struct {
	pitch     uint8
	velocity  uint8
	startTick int64
	channel   uint8
	staff     int
}

// LoadScore reads a Standard MIDI File and builds an eval.Score from its
// note-on/off pairs, tempo map, and time signatures. Each SMF track
// becomes a Staff (track index + 1), mirroring how notation software
// typically exports one staff per track. SMF carries no reliable notated
// key signature, so the key is always reported as C major; this has no
// effect on alignment or evaluation, which never consult KeySignatures.
func LoadScore(path string, pickupBeats float64) (*eval.Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("midiio: failed to read score file: %w", err)
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("midiio: failed to parse score MIDI: %w", err)
	}

	ppq := 480
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ppq = int(mt.Resolution())
	}

	var notes []eval.ScoreNote
	var tempoChanges []eval.TempoChange
	var timeSigs []eval.TimeSignature
	var keySigs []eval.KeySignature

	for trackIdx, track := range s.Tracks {
		var absTick int64
		open := make(map[openNoteKey]openScoreNote)
		staff := trackIdx + 1

		for _, ev := range track {
			absTick += int64(ev.Delta)
			msg := ev.Message

			var bpm float64
			if msg.GetMetaTempo(&bpm) && bpm > 0 {
				tempoChanges = append(tempoChanges, eval.TempoChange{
					StartTick:              absTick,
					MicrosecondsPerQuarter: int64(60_000_000.0 / bpm),
				})
			}

			var num, denom, clocksPerClick, thirtySecondNotesPerQuarter uint8
			if msg.GetMetaTimeSig(&num, &denom, &clocksPerClick, &thirtySecondNotesPerQuarter) {
				timeSigs = append(timeSigs, eval.TimeSignature{
					StartTick:   absTick,
					Numerator:   int(num),
					Denominator: int(denom),
				})
			}

			var channel, pitch, velocity uint8
			if msg.GetNoteOn(&channel, &pitch, &velocity) && velocity > 0 {
				open[openNoteKey{channel, pitch}] = openScoreNote{
					pitch: pitch, velocity: velocity, startTick: absTick, channel: channel, staff: staff,
				}
				continue
			}
			isOff := msg.GetNoteOff(&channel, &pitch, &velocity)
			if !isOff {
				if msg.GetNoteOn(&channel, &pitch, &velocity) && velocity == 0 {
					isOff = true
				}
			}
			if isOff {
				key := openNoteKey{channel, pitch}
				on, ok := open[key]
				if !ok {
					continue
				}
				delete(open, key)
				notes = append(notes, eval.ScoreNote{
					NoteEvent: eval.NoteEvent{
						Pitch:         on.pitch,
						Velocity:      on.velocity,
						StartTick:     on.startTick,
						DurationTicks: absTick - on.startTick,
						Channel:       on.channel,
						Voice:         on.staff,
					},
					Staff: on.staff,
				})
			}
		}
	}

	if len(tempoChanges) == 0 {
		tempoChanges = []eval.TempoChange{{StartTick: 0, MicrosecondsPerQuarter: 500_000}}
	}
	if len(timeSigs) == 0 {
		timeSigs = []eval.TimeSignature{{StartTick: 0, Numerator: 4, Denominator: 4}}
	}
	if len(keySigs) == 0 {
		keySigs = []eval.KeySignature{{StartTick: 0, Tonic: "C", IsMinor: false}}
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].StartTick < notes[j].StartTick })

	return eval.NewScore(notes, ppq, timeSigs, tempoChanges, keySigs, pickupBeats)
}

type openNoteKey struct {
	channel uint8
	pitch   uint8
}
