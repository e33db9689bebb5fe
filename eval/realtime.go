package eval

import (
	"sort"
	"sync"
)

// windowAlignmentBudgetMs bounds how long one windowed alignment may take
// before its feedback is dropped and the driver enters degraded mode.
const windowAlignmentBudgetMs = 50.0

// RealTimeState is the driver's lifecycle state.
type RealTimeState string

const (
	RealTimeIdle    RealTimeState = "idle"
	RealTimeRunning RealTimeState = "running"
	RealTimeStopped RealTimeState = "stopped"
)

// PedalType selects which pedal an on_pedal call targets.
type PedalType string

const (
	PedalSustain   PedalType = "sustain"
	PedalSoft      PedalType = "soft"
	PedalSostenuto PedalType = "sostenuto"
)

// RealTimeFeedback is one windowed-alignment feedback emission.
type RealTimeFeedback struct {
	EmittedAtMs float64
	Measure     int
	Message     string
	Issues      []Issue
}

// RealTimeErrorKind tags why a RealTimeError was raised.
type RealTimeErrorKind string

const (
	ErrorUnmatchedNote RealTimeErrorKind = "unmatched_note"
	ErrorTimeout       RealTimeErrorKind = "timeout_exceeded"
)

// RealTimeError is a synchronous, non-fatal problem report from the
// real-time driver. It never becomes a panic or a returned error on the
// MIDI callback thread.
type RealTimeError struct {
	Kind    RealTimeErrorKind
	TimeMs  float64
	Pitch   uint8
	Message string
}

// ProgressReport is the snapshot returned by RealTimeDriver.Progress.
type ProgressReport struct {
	CurrentMeasure  int
	ScorePosition   int // index into the score's notes the cursor has reached
	ProgressPercent float64
	RecentFeedback  []RealTimeFeedback
	Degraded        bool
}

// RealTimeDriver drives the hybrid aligner over a sliding window of live
// performance notes, per §4.9. It owns a bounded FIFO buffer and advances
// a score cursor as notes are matched. All callbacks are invoked
// synchronously from the calling goroutine (single-threaded cooperative
// processing) — callers that need async dispatch hand off inside their
// own callback.
type RealTimeDriver struct {
	mu sync.Mutex

	score *Score
	opts  Options
	clock Clock

	onFeedback func(RealTimeFeedback)
	onError    func(RealTimeError)

	state RealTimeState

	buffer      []PerformanceNote // bounded FIFO awaiting a local alignment
	allNotes    []PerformanceNote // full history, for get_final_evaluation
	openNotes   map[openNoteKey]int

	sustainEvents   []PedalEvent
	softEvents      []PedalEvent
	sostenutoEvents []PedalEvent

	cursor         int
	lastEmissionMs float64
	recentFeedback []RealTimeFeedback
	degraded       bool
}

type openNoteKey struct {
	channel uint8
	pitch   uint8
}

// NewRealTimeDriver constructs a driver bound to a fixed Score. onFeedback
// and onError may be nil, in which case emissions are silently dropped
// (still recorded in RecentFeedback for Progress()).
func NewRealTimeDriver(score *Score, opts Options, clock Clock, onFeedback func(RealTimeFeedback), onError func(RealTimeError)) *RealTimeDriver {
	return &RealTimeDriver{
		score:      score,
		opts:       opts,
		clock:      clock,
		onFeedback: onFeedback,
		onError:    onError,
		state:      RealTimeIdle,
		openNotes:  make(map[openNoteKey]int),
	}
}

// Start transitions the driver to running. It is a no-op if already running.
func (d *RealTimeDriver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == RealTimeRunning {
		return
	}
	d.state = RealTimeRunning
	d.cursor = 0
	d.lastEmissionMs = -d.opts.RealTimeMinFeedbackGapMs // allow immediate first emission
}

// Stop transitions the driver to stopped. Further on_note_* calls are
// ignored until Start is called again.
func (d *RealTimeDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = RealTimeStopped
}

// OnNoteOn registers a note onset. timestampMs should be monotonic and
// non-decreasing across calls (receipt order == start_ms order).
func (d *RealTimeDriver) OnNoteOn(pitch, velocity, channel uint8, timestampMs float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != RealTimeRunning {
		return
	}

	note := PerformanceNote{
		NoteEvent: NoteEvent{
			Pitch:    pitch,
			Velocity: velocity,
			StartMs:  timestampMs,
			Channel:  channel,
		},
		ID: NewNoteID(),
	}
	note.SustainActive = pedalStateAt(d.sustainEvents, timestampMs)
	note.SoftActive = pedalStateAt(d.softEvents, timestampMs)
	note.SostenutoActive = pedalStateAt(d.sostenutoEvents, timestampMs)

	idx := len(d.allNotes)
	d.allNotes = append(d.allNotes, note)
	d.openNotes[openNoteKey{channel, pitch}] = idx

	d.checkUnmatched(note)

	d.buffer = append(d.buffer, note)
	if cap := d.opts.RealTimeBufferCapacity; cap > 0 && len(d.buffer) > cap {
		d.buffer = d.buffer[len(d.buffer)-cap:]
	}

	d.maybeEmit(timestampMs)
}

// OnNoteOff closes the most recent open note for (channel, pitch),
// recording its duration and, when the hardware reports one, its release
// velocity. Notes with no matching on_note_on are ignored.
func (d *RealTimeDriver) OnNoteOff(pitch, channel uint8, timestampMs float64, releaseVelocity *uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != RealTimeRunning {
		return
	}
	key := openNoteKey{channel, pitch}
	idx, ok := d.openNotes[key]
	if !ok {
		return
	}
	delete(d.openNotes, key)
	d.allNotes[idx].DurationMs = timestampMs - d.allNotes[idx].StartMs
	d.allNotes[idx].ReleaseVelocity = releaseVelocity
	for i := range d.buffer {
		if d.buffer[i].ID == d.allNotes[idx].ID {
			d.buffer[i].DurationMs = d.allNotes[idx].DurationMs
		}
	}
}

// OnPedal records a pedal transition.
func (d *RealTimeDriver) OnPedal(kind PedalType, pressed bool, value uint8, timestampMs float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != RealTimeRunning {
		return
	}
	ev := PedalEvent{TimeMs: timestampMs, IsPressed: pressed, Value: value}
	switch kind {
	case PedalSustain:
		d.sustainEvents = append(d.sustainEvents, ev)
	case PedalSoft:
		d.softEvents = append(d.softEvents, ev)
	case PedalSostenuto:
		d.sostenutoEvents = append(d.sostenutoEvents, ev)
	}
}

// checkUnmatched emits a synchronous RealTimeError, ignoring the
// feedback-interval throttle, when note matches no candidate in the
// current score window by pitch or pitch class within tolerance.
func (d *RealTimeDriver) checkUnmatched(note PerformanceNote) {
	lo, hi := d.windowBounds()
	tolerance := d.opts.RealTimeNoteMatchToleranceMs
	for i := lo; i < hi; i++ {
		sn, ok := d.score.NoteAt(i)
		if !ok {
			continue
		}
		if absF(sn.StartMs-note.StartMs) > tolerance {
			continue
		}
		if sn.Pitch == note.Pitch || sn.PitchClass() == note.PitchClass() {
			return
		}
	}
	if d.onError != nil {
		d.onError(RealTimeError{
			Kind:    ErrorUnmatchedNote,
			TimeMs:  note.StartMs,
			Pitch:   note.Pitch,
			Message: "no candidate score note matched by pitch within tolerance",
		})
	}
}

// windowBounds returns the [lo, hi) score note index range for the
// current cursor: [cursor-2, cursor+lookahead).
func (d *RealTimeDriver) windowBounds() (lo, hi int) {
	lo = d.cursor - 2
	if lo < 0 {
		lo = 0
	}
	hi = d.cursor + d.opts.RealTimeLookahead
	if hi > len(d.score.Notes) {
		hi = len(d.score.Notes)
	}
	return lo, hi
}

// maybeEmit runs a local alignment and emits feedback if the trigger
// conditions in §4.9 are met.
func (d *RealTimeDriver) maybeEmit(nowMs float64) {
	if len(d.buffer) < d.opts.RealTimeMinWindow {
		return
	}
	if nowMs-d.lastEmissionMs < d.opts.RealTimeMinFeedbackGapMs {
		return
	}

	startMs := d.clock.NowMs()
	lo, hi := d.windowBounds()
	windowNotes := append([]ScoreNote(nil), d.score.Notes[lo:hi]...)
	windowScore := buildWindowScore(d.score, windowNotes)
	windowPerf := NewPerformance(append([]PerformanceNote(nil), d.buffer...), d.sustainEvents, d.softEvents, d.sostenutoEvents)

	alignment := HybridAligner{}.Align(windowScore, windowPerf, d.opts)
	elapsedMs := d.clock.NowMs() - startMs
	if elapsedMs > windowAlignmentBudgetMs {
		d.degraded = true
		if d.onError != nil {
			d.onError(RealTimeError{
				Kind:    ErrorTimeout,
				TimeMs:  nowMs,
				Message: (&TimeoutExceededError{Budget: windowAlignmentBudgetMs, Elapsed: elapsedMs}).Error(),
			})
		}
		return
	}

	na := NoteAccuracyEvaluator{}.Evaluate(alignment, windowScore, windowPerf, d.opts)
	rh := RhythmEvaluator{}.Evaluate(alignment, windowScore, windowPerf, d.opts)

	var issues []Issue
	issues = append(issues, na.Issues...)
	issues = append(issues, rh.Issues...)
	sortIssuesBySeverity(issues)

	message := ""
	switch {
	case rh.IsRushing:
		message = "rushing"
	case rh.IsDragging:
		message = "dragging"
	}

	if len(issues) == 0 && message == "" {
		d.advanceCursor(alignment)
		d.evict()
		d.lastEmissionMs = nowMs
		return
	}

	measure := 0
	if len(windowNotes) > 0 {
		measure = windowNotes[0].Measure
	}

	feedback := RealTimeFeedback{
		EmittedAtMs: nowMs,
		Measure:     measure,
		Message:     message,
		Issues:      issues,
	}
	d.recentFeedback = append(d.recentFeedback, feedback)
	if len(d.recentFeedback) > 10 {
		d.recentFeedback = d.recentFeedback[len(d.recentFeedback)-10:]
	}
	if d.onFeedback != nil {
		d.onFeedback(feedback)
	}

	d.advanceCursor(alignment)
	d.evict()
	d.lastEmissionMs = nowMs
}

// advanceCursor moves the cursor to the highest-indexed matched score
// note in the full score plus one.
func (d *RealTimeDriver) advanceCursor(alignment *AlignmentResult) {
	maxIdx := -1
	for _, pair := range alignment.Pairs {
		idx, ok := d.score.byID[pair.ScoreNoteID]
		if ok && idx > maxIdx {
			maxIdx = idx
		}
	}
	if maxIdx >= 0 && maxIdx+1 > d.cursor {
		d.cursor = maxIdx + 1
	}
}

// evict drops the oldest RealTimeMinWindow/2 buffered notes (at least one,
// at most the whole buffer), per §4.9's memory bound.
func (d *RealTimeDriver) evict() {
	n := d.opts.RealTimeMinWindow / 2
	if n <= 0 {
		n = 1
	}
	if n > len(d.buffer) {
		n = len(d.buffer)
	}
	d.buffer = d.buffer[n:]
}

// Progress returns a snapshot of where the performance currently stands
// against the score.
func (d *RealTimeDriver) Progress() ProgressReport {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := len(d.score.Notes)
	percent := 0.0
	measure := 0
	if total > 0 {
		percent = 100 * float64(d.cursor) / float64(total)
		idx := d.cursor
		if idx >= total {
			idx = total - 1
		}
		if idx >= 0 {
			if n, ok := d.score.NoteAt(idx); ok {
				measure = n.Measure
			}
		}
	}

	return ProgressReport{
		CurrentMeasure:  measure,
		ScorePosition:   d.cursor,
		ProgressPercent: percent,
		RecentFeedback:  append([]RealTimeFeedback(nil), d.recentFeedback...),
		Degraded:        d.degraded,
	}
}

// FinalEvaluation runs the batch pipeline over every note observed so
// far, per the real-time-equals-batch-on-close property.
func (d *RealTimeDriver) FinalEvaluation() (*EvaluationResult, error) {
	d.mu.Lock()
	notes := append([]PerformanceNote(nil), d.allNotes...)
	sustain := append([]PedalEvent(nil), d.sustainEvents...)
	soft := append([]PedalEvent(nil), d.softEvents...)
	sostenuto := append([]PedalEvent(nil), d.sostenutoEvents...)
	d.mu.Unlock()

	performance := NewPerformance(notes, sustain, soft, sostenuto)
	return Evaluate(d.score, performance, d.opts)
}

// buildWindowScore constructs a lightweight Score over a subset of a
// parent score's already-computed notes, reusing the parent's tempo map
// and signatures without re-running validation.
func buildWindowScore(parent *Score, notes []ScoreNote) *Score {
	sorted := append([]ScoreNote(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartTick < sorted[j].StartTick })

	byID := make(map[NoteID]int, len(sorted))
	for i, n := range sorted {
		byID[n.ID] = i
	}

	return &Score{
		Notes:             sorted,
		PPQ:               parent.PPQ,
		TimeSignatures:    parent.TimeSignatures,
		TempoMarkings:     parent.TempoMarkings,
		KeySignatures:     parent.KeySignatures,
		PickupBeats:       parent.PickupBeats,
		FirstDownbeatTick: parent.FirstDownbeatTick,
		TotalMeasures:     parent.TotalMeasures,
		tempoMap:          parent.tempoMap,
		byID:              byID,
	}
}
