package midiio

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/ako-dev/perfeval/eval"
)

const (
	ccSoftPedal      = 67
	ccSostenutoPedal = 66
	ccSustainPedal   = 64
)

// openPerfNote tracks a sounding performance note awaiting its note-off.
type openPerfNote struct {
	pitch     uint8
	velocity  uint8
	startMs   float64
	channel   uint8
}

// LoadPerformance reads a Standard MIDI File and builds an eval.Performance
// from its note and sustain/soft/sostenuto pedal events, using the file's
// own tempo map to convert ticks to milliseconds. This is used for batch
// replay and fixture loading, not live input.
func LoadPerformance(path string) (*eval.Performance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("midiio: failed to read performance file: %w", err)
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("midiio: failed to parse performance MIDI: %w", err)
	}

	ppq := 480
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ppq = int(mt.Resolution())
	}

	var tempoChanges []eval.TempoChange
	for _, track := range s.Tracks {
		var absTick int64
		for _, ev := range track {
			absTick += int64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				tempoChanges = append(tempoChanges, eval.TempoChange{
					StartTick:              absTick,
					MicrosecondsPerQuarter: int64(60_000_000.0 / bpm),
				})
			}
		}
	}
	if len(tempoChanges) == 0 {
		tempoChanges = []eval.TempoChange{{StartTick: 0, MicrosecondsPerQuarter: 500_000}}
	}
	tempoMap := eval.NewTempoMap(tempoChanges)

	var notes []eval.PerformanceNote
	var sustain, soft, sostenuto []eval.PedalEvent

	for _, track := range s.Tracks {
		var absTick int64
		open := make(map[openNoteKey]openPerfNote)

		for _, ev := range track {
			absTick += int64(ev.Delta)
			msg := ev.Message
			ms := tempoMap.TickToMs(absTick, ppq)

			var channel, controller, value uint8
			if msg.GetControlChange(&channel, &controller, &value) {
				switch controller {
				case ccSustainPedal:
					sustain = append(sustain, eval.PedalEvent{TimeMs: ms, IsPressed: value >= 64, Value: value})
				case ccSoftPedal:
					soft = append(soft, eval.PedalEvent{TimeMs: ms, IsPressed: value >= 64, Value: value})
				case ccSostenutoPedal:
					sostenuto = append(sostenuto, eval.PedalEvent{TimeMs: ms, IsPressed: value >= 64, Value: value})
				}
				continue
			}

			var pitch, velocity uint8
			if msg.GetNoteOn(&channel, &pitch, &velocity) && velocity > 0 {
				open[openNoteKey{channel, pitch}] = openPerfNote{pitch: pitch, velocity: velocity, startMs: ms, channel: channel}
				continue
			}
			isOff := msg.GetNoteOff(&channel, &pitch, &velocity)
			if !isOff && msg.GetNoteOn(&channel, &pitch, &velocity) && velocity == 0 {
				isOff = true
			}
			if isOff {
				key := openNoteKey{channel, pitch}
				on, ok := open[key]
				if !ok {
					continue
				}
				delete(open, key)
				notes = append(notes, eval.PerformanceNote{
					NoteEvent: eval.NoteEvent{
						Pitch:      on.pitch,
						Velocity:   on.velocity,
						StartMs:    on.startMs,
						DurationMs: ms - on.startMs,
						Channel:    on.channel,
					},
				})
			}
		}
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].StartMs < notes[j].StartMs })

	return eval.NewPerformance(notes, sustain, soft, sostenuto), nil
}
