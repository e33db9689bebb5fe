// Package config loads Score and Performance fixtures from YAML
// for the CLI and for tests, mirroring the teacher's parser.Track shape:
// a plain struct tree unmarshaled with gopkg.in/yaml.v3, with one custom
// UnmarshalYAML for a field that may be given in shorthand or expanded
// form.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ako-dev/perfeval/eval"
)

// RhythmOrTicks can be unmarshaled from either a named rhythmic value
// ("quarter", "dotted_eighth", ...) or a raw tick count, the same
// shorthand-or-expanded pattern as the teacher's StringOrList.
type RhythmOrTicks struct {
	Ticks int64
}

func (r *RhythmOrTicks) UnmarshalYAML(node *yaml.Node) error {
	var asInt int64
	if err := node.Decode(&asInt); err == nil {
		r.Ticks = asInt
		return nil
	}

	var name string
	if err := node.Decode(&name); err != nil {
		return fmt.Errorf("rhythm value must be a tick count or a named value: %w", err)
	}
	ticks, ok := namedRhythmTicks[name]
	if !ok {
		return fmt.Errorf("unknown rhythmic value %q", name)
	}
	r.Ticks = ticks
	return nil
}

// namedRhythmTicks gives tick counts at PPQ=480 for each named value;
// ScoreFixture.Build rescales by the fixture's own PPQ.
var namedRhythmTicks = map[string]int64{
	"whole":          1920,
	"dotted_half":    1440,
	"half":           960,
	"dotted_quarter": 720,
	"quarter":        480,
	"dotted_eighth":  360,
	"eighth":         240,
	"sixteenth":      120,
	"thirty_second":  60,
	"sixty_fourth":   30,
}

// ScoreNoteFixture is one notated note in a YAML score fixture.
type ScoreNoteFixture struct {
	Pitch      uint8         `yaml:"pitch"`
	Velocity   uint8         `yaml:"velocity"`
	StartTick  int64         `yaml:"start_tick"`
	Duration   RhythmOrTicks `yaml:"duration"`
	Channel    uint8         `yaml:"channel,omitempty"`
	Staff      int           `yaml:"staff,omitempty"`
	IsGrace    bool          `yaml:"grace,omitempty"`
	GraceType  string        `yaml:"grace_type,omitempty"`
	ParentID   string        `yaml:"parent_id,omitempty"`
	Articulation string      `yaml:"articulation,omitempty"`
}

// TempoMarkingFixture is one tempo change in a YAML fixture.
type TempoMarkingFixture struct {
	StartTick int64   `yaml:"start_tick"`
	BPM       float64 `yaml:"bpm"`
}

// TimeSignatureFixture is one time-signature change in a YAML fixture.
type TimeSignatureFixture struct {
	StartTick   int64 `yaml:"start_tick"`
	Numerator   int   `yaml:"numerator"`
	Denominator int   `yaml:"denominator"`
}

// ScoreFixture is the YAML shape for a test/CLI score.
type ScoreFixture struct {
	PPQ            int                    `yaml:"ppq"`
	PickupBeats    float64                `yaml:"pickup_beats,omitempty"`
	Notes          []ScoreNoteFixture     `yaml:"notes"`
	Tempo          []TempoMarkingFixture  `yaml:"tempo"`
	TimeSignatures []TimeSignatureFixture `yaml:"time_signatures"`
}

// Build converts the fixture into an eval.Score. Grace-note parent ids,
// if present, are resolved against the other notes of the fixture, each
// keyed as "<start_tick>:<pitch>" (e.g. "480:62"); a parent_id that
// matches no note is left unset.
func (f ScoreFixture) Build() (*eval.Score, error) {
	ppq := f.PPQ
	if ppq <= 0 {
		ppq = 480
	}

	idByKey := make(map[string]eval.NoteID, len(f.Notes))
	notes := make([]eval.ScoreNote, len(f.Notes))
	for i, nf := range f.Notes {
		id := eval.NewNoteID()
		key := fmt.Sprintf("%d:%d", nf.StartTick, nf.Pitch)
		idByKey[key] = id

		articulation := eval.Articulation(nf.Articulation)
		if articulation == "" {
			articulation = eval.ArticulationNormal
		}

		notes[i] = eval.ScoreNote{
			NoteEvent: eval.NoteEvent{
				Pitch:         nf.Pitch,
				Velocity:      nf.Velocity,
				StartTick:     nf.StartTick,
				DurationTicks: scaleTicks(nf.Duration.Ticks, ppq),
				Channel:       nf.Channel,
			},
			ID:           id,
			Staff:        nf.Staff,
			IsGraceNote:  nf.IsGrace,
			GraceType:    eval.GraceType(nf.GraceType),
			Articulation: articulation,
		}
	}
	for i, nf := range f.Notes {
		if nf.ParentID == "" {
			continue
		}
		if parentID, ok := idByKey[nf.ParentID]; ok {
			notes[i].ParentNoteID = parentID
		}
	}

	tempo := make([]eval.TempoChange, len(f.Tempo))
	for i, t := range f.Tempo {
		micros := int64(500_000)
		if t.BPM > 0 {
			micros = int64(60_000_000.0 / t.BPM)
		}
		tempo[i] = eval.TempoChange{StartTick: t.StartTick, MicrosecondsPerQuarter: micros}
	}
	if len(tempo) == 0 {
		tempo = []eval.TempoChange{{StartTick: 0, MicrosecondsPerQuarter: 500_000}}
	}

	timeSigs := make([]eval.TimeSignature, len(f.TimeSignatures))
	for i, ts := range f.TimeSignatures {
		timeSigs[i] = eval.TimeSignature{StartTick: ts.StartTick, Numerator: ts.Numerator, Denominator: ts.Denominator}
	}
	if len(timeSigs) == 0 {
		timeSigs = []eval.TimeSignature{{StartTick: 0, Numerator: 4, Denominator: 4}}
	}

	keySigs := []eval.KeySignature{{StartTick: 0, Tonic: "C", IsMinor: false}}

	return eval.NewScore(notes, ppq, timeSigs, tempo, keySigs, f.PickupBeats)
}

// scaleTicks rescales a named-rhythm tick count (given at PPQ=480) to the
// fixture's actual PPQ; raw tick counts (already PPQ-correct) pass
// through unscaled when the fixture's PPQ is also 480.
func scaleTicks(ticks int64, ppq int) int64 {
	if ppq == 480 || ticks == 0 {
		return ticks
	}
	return ticks * int64(ppq) / 480
}

// PerformanceNoteFixture is one played note in a YAML performance fixture.
type PerformanceNoteFixture struct {
	Pitch      uint8   `yaml:"pitch"`
	Velocity   uint8   `yaml:"velocity"`
	StartMs    float64 `yaml:"start_ms"`
	DurationMs float64 `yaml:"duration_ms"`
	Channel    uint8   `yaml:"channel,omitempty"`
}

// PedalEventFixture is one pedal transition in a YAML performance fixture.
type PedalEventFixture struct {
	TimeMs    float64 `yaml:"time_ms"`
	IsPressed bool    `yaml:"pressed"`
	Value     uint8   `yaml:"value,omitempty"`
}

// PerformanceFixture is the YAML shape for a test/CLI performance.
type PerformanceFixture struct {
	Notes     []PerformanceNoteFixture `yaml:"notes"`
	Sustain   []PedalEventFixture      `yaml:"sustain,omitempty"`
	Soft      []PedalEventFixture      `yaml:"soft,omitempty"`
	Sostenuto []PedalEventFixture      `yaml:"sostenuto,omitempty"`
}

// Build converts the fixture into an eval.Performance.
func (f PerformanceFixture) Build() *eval.Performance {
	notes := make([]eval.PerformanceNote, len(f.Notes))
	for i, nf := range f.Notes {
		notes[i] = eval.PerformanceNote{
			NoteEvent: eval.NoteEvent{
				Pitch:      nf.Pitch,
				Velocity:   nf.Velocity,
				StartMs:    nf.StartMs,
				DurationMs: nf.DurationMs,
				Channel:    nf.Channel,
			},
		}
	}
	return eval.NewPerformance(notes, toPedalEvents(f.Sustain), toPedalEvents(f.Soft), toPedalEvents(f.Sostenuto))
}

func toPedalEvents(fixtures []PedalEventFixture) []eval.PedalEvent {
	out := make([]eval.PedalEvent, len(fixtures))
	for i, p := range fixtures {
		out[i] = eval.PedalEvent{TimeMs: p.TimeMs, IsPressed: p.IsPressed, Value: p.Value}
	}
	return out
}

// LoadScoreFixture reads and builds a Score from a YAML file.
func LoadScoreFixture(path string) (*eval.Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read score fixture: %w", err)
	}
	var fixture ScoreFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("config: failed to parse score fixture: %w", err)
	}
	return fixture.Build()
}

// LoadPerformanceFixture reads and builds a Performance from a YAML file.
func LoadPerformanceFixture(path string) (*eval.Performance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read performance fixture: %w", err)
	}
	var fixture PerformanceFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("config: failed to parse performance fixture: %w", err)
	}
	return fixture.Build(), nil
}
