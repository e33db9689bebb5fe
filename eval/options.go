package eval

// AlignerChoice selects which aligner the batch pipeline drives.
type AlignerChoice string

const (
	AlignerDTW    AlignerChoice = "dtw"
	AlignerNW     AlignerChoice = "nw"
	AlignerHybrid AlignerChoice = "hybrid"
)

// Options configures the batch pipeline's aligner and evaluators. The
// zero value is not safe to use directly; call DefaultOptions and
// override individual fields.
type Options struct {
	Aligner AlignerChoice

	ScoringWeights ScoringWeights

	// DTW
	TimingCostCapMs  float64 // T_max in §4.2, default 500
	DTWTimingLambda  float64 // λ weighting of timing cost against pitch cost in the DTW matrix
	BandWidthMin     int     // floor on the Sakoe-Chiba band width, default 32
	BandWidthFrac    float64 // fraction of |P| added to the band width, default 0.1
	CatastropheCost  float64 // average DTW cost above which alignment is flagged catastrophic, default 0.9

	// Needleman-Wunsch
	GapPenalty float64 // g in §4.4, default 0.8

	// Grace-note / tuplet relaxation
	GraceToleranceMs float64 // default 250

	// Note accuracy
	NoteAccuracyWeights NoteAccuracyWeights
	ExtraNoteMinVelocity uint8   // disruptive-extra heuristic, default 40
	ExtraNoteMinMs       float64 // disruptive-extra heuristic, default 50

	// Rhythm
	RhythmOnTimeMs     float64 // default 30
	RhythmSlightMs     float64 // default 50
	RhythmExtremeMs    float64 // default 100
	RhythmUnevenStdDev float64 // default 40

	// Tempo
	TempoSegmentMeasures   int     // default 4
	TempoMinNotesPerSegment int    // default 4
	TempoMinExpectedIOIMs  float64 // IOIs at/below this are discarded, default 10
	TempoDeviationHigh     float64 // |deviation| above which overall tempo is flagged, default 0.15
	TempoStabilityLow      float64 // stability below which tempo is flagged unstable, default 0.85
	TempoSegmentDeviation  float64 // per-segment deviation above which a local issue is raised, default 0.20
	TempoDriftSlope        float64 // |slope/avg_bpm| above which drift is accelerating/decelerating, default 0.02

	// Real-time driver
	RealTimeBufferCapacity  int     // bounded FIFO size, default enough for ~2s at realistic density (256)
	RealTimeMinWindow       int     // default 4
	RealTimeLookahead       int     // default 8
	RealTimeMinFeedbackGapMs float64 // default 500
	RealTimeNoteMatchToleranceMs float64 // default 500, used for RealTimeError detection
}

// ScoringWeights are the combined-cost weights from §4.2. They must
// preserve cost(exact identical pair) == 0 and monotonicity in each
// component; a plug-in scoring object may override them as long as it
// keeps those properties.
type ScoringWeights struct {
	Pitch    float64
	Timing   float64
	Velocity float64
}

// NoteAccuracyWeights are the penalty weights from §4.6.
type NoteAccuracyWeights struct {
	Wrong        float64
	Octave       float64
	OctaveCredit float64
	Missed       float64
	Extra        float64
}

// DefaultScoringWeights returns the §4.2 default weights (pitch 0.6,
// timing 0.3, velocity 0.1).
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{Pitch: 0.6, Timing: 0.3, Velocity: 0.1}
}

// DefaultNoteAccuracyWeights returns the §4.6 default penalty weights.
func DefaultNoteAccuracyWeights() NoteAccuracyWeights {
	return NoteAccuracyWeights{Wrong: 3.0, Octave: 1.0, OctaveCredit: 0.5, Missed: 2.5, Extra: 0.5}
}

// DefaultOptions returns the hybrid-aligner configuration with every
// threshold set to its spec default.
func DefaultOptions() Options {
	return Options{
		Aligner:        AlignerHybrid,
		ScoringWeights: DefaultScoringWeights(),

		TimingCostCapMs: 500,
		DTWTimingLambda: 0.5,
		BandWidthMin:    32,
		BandWidthFrac:   0.1,
		CatastropheCost: 0.9,

		GapPenalty: 0.8,

		GraceToleranceMs: 250,

		NoteAccuracyWeights:  DefaultNoteAccuracyWeights(),
		ExtraNoteMinVelocity: 40,
		ExtraNoteMinMs:       50,

		RhythmOnTimeMs:     30,
		RhythmSlightMs:     50,
		RhythmExtremeMs:    100,
		RhythmUnevenStdDev: 40,

		TempoSegmentMeasures:    4,
		TempoMinNotesPerSegment: 4,
		TempoMinExpectedIOIMs:   10,
		TempoDeviationHigh:      0.15,
		TempoStabilityLow:       0.85,
		TempoSegmentDeviation:   0.20,
		TempoDriftSlope:         0.02,

		RealTimeBufferCapacity:       256,
		RealTimeMinWindow:            4,
		RealTimeLookahead:            8,
		RealTimeMinFeedbackGapMs:     500,
		RealTimeNoteMatchToleranceMs: 500,
	}
}

// BandWidth computes the Sakoe-Chiba band width for a performance
// sequence of the given length: max(BandWidthMin, BandWidthFrac * |P|).
func (o Options) BandWidth(perfLen int) int {
	frac := int(o.BandWidthFrac * float64(perfLen))
	if o.BandWidthMin > frac {
		return o.BandWidthMin
	}
	return frac
}
