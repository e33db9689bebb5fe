package eval

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DriftTrend classifies the direction of tempo change across a
// performance's segments.
type DriftTrend string

const (
	DriftStable       DriftTrend = "stable"
	DriftAccelerating DriftTrend = "accelerating"
	DriftDecelerating DriftTrend = "decelerating"
)

// TempoSegment is one measure-grouped window's local tempo estimate.
type TempoSegment struct {
	StartMeasure int
	EndMeasure   int
	MeanBPM      float64
	ExpectedBPM  float64
	Deviation    float64 // (mean-expected)/expected, signed
	NoteCount    int
	Stability    float64 // 1 - std_dev(ratios) within this segment, clamped to [0,1]
}

// TempoResult is the tempo evaluator's output.
type TempoResult struct {
	Score float64 // 0-100

	OverallMeanBPM    float64
	OverallStdDevBPM  float64
	OverallDeviation  float64 // relative to the score's notated tempo
	StabilityIndex    float64 // 1 - stddev(segment deviations)/0.2, clamped to [0,1]; 1 with fewer than 2 segments

	Segments []TempoSegment

	DriftSlopeBPMPerSegment float64
	Trend                   DriftTrend

	IsTooFast  bool
	IsTooSlow  bool
	IsUnstable bool

	Issues []Issue
}

// TempoEvaluator implements Evaluator[TempoResult] per §4.8.
type TempoEvaluator struct{}

func (TempoEvaluator) Name() string { return "tempo" }

func (TempoEvaluator) Evaluate(alignment *AlignmentResult, score *Score, performance *Performance, opts Options) TempoResult {
	var result TempoResult

	pairs := append([]AlignedNotePair(nil), alignment.Pairs...)
	sort.Slice(pairs, func(i, j int) bool {
		ni, _ := score.NoteByID(pairs[i].ScoreNoteID)
		nj, _ := score.NoteByID(pairs[j].ScoreNoteID)
		return ni.StartTick < nj.StartTick
	})
	if len(pairs) < 2 {
		return result
	}

	// Local IOI-based tempo per consecutive matched pair: expected
	// ms elapsed in the score vs. observed ms elapsed in the performance.
	type localTempo struct {
		measure     int
		ratio       float64 // actualIOI / expectedIOI
		bpm         float64
		expectedBPM float64
	}
	var locals []localTempo

	for k := 1; k < len(pairs); k++ {
		prevScore, ok1 := score.NoteByID(pairs[k-1].ScoreNoteID)
		curScore, ok2 := score.NoteByID(pairs[k].ScoreNoteID)
		if !ok1 || !ok2 {
			continue
		}
		prevPerf, ok3 := performance.NoteByID(pairs[k-1].PerformanceNoteID)
		curPerf, ok4 := performance.NoteByID(pairs[k].PerformanceNoteID)
		if !ok3 || !ok4 {
			continue
		}

		expectedIOIMs := curScore.StartMs - prevScore.StartMs
		observedIOIMs := curPerf.StartMs - prevPerf.StartMs
		if expectedIOIMs <= opts.TempoMinExpectedIOIMs || observedIOIMs <= 0 {
			continue
		}

		quarterMs := score.QuarterMs(curScore.StartTick)
		notatedBPM := 60000.0 / quarterMs
		ratio := observedIOIMs / expectedIOIMs
		localBPM := notatedBPM / ratio

		locals = append(locals, localTempo{measure: curScore.Measure, ratio: ratio, bpm: localBPM, expectedBPM: notatedBPM})
	}

	if len(locals) == 0 {
		return result
	}

	// Detected BPM = expected_BPM / median(actual_IOI/expected_IOI), per §4.8.
	ratios := make([]float64, len(locals))
	bpms := make([]float64, len(locals))
	for i, l := range locals {
		ratios[i] = l.ratio
		bpms[i] = l.bpm
	}
	notatedMean, _ := stat.MeanStdDev(func() []float64 {
		out := make([]float64, len(locals))
		for i, l := range locals {
			out[i] = l.expectedBPM
		}
		return out
	}(), nil)
	result.OverallMeanBPM = notatedMean / median(ratios)
	_, result.OverallStdDevBPM = stat.MeanStdDev(bpms, nil)
	if notatedMean > 0 {
		result.OverallDeviation = (result.OverallMeanBPM - notatedMean) / notatedMean
	}

	// Segment by measure group.
	segSize := opts.TempoSegmentMeasures
	if segSize <= 0 {
		segSize = 4
	}
	segmentBuckets := make(map[int][]localTempo)
	for _, l := range locals {
		key := (l.measure - 1) / segSize
		segmentBuckets[key] = append(segmentBuckets[key], l)
	}
	var segKeys []int
	for k := range segmentBuckets {
		segKeys = append(segKeys, k)
	}
	sort.Ints(segKeys)

	var issues []Issue
	var segmentIndices, segmentMeanBPMs, segmentDeviations []float64

	for _, key := range segKeys {
		bucket := segmentBuckets[key]
		if len(bucket) < opts.TempoMinNotesPerSegment {
			continue
		}
		vals := make([]float64, len(bucket))
		expVals := make([]float64, len(bucket))
		ratios := make([]float64, len(bucket))
		for i, l := range bucket {
			vals[i] = l.bpm
			expVals[i] = l.expectedBPM
			ratios[i] = l.ratio
		}
		meanBPM, _ := stat.MeanStdDev(vals, nil)
		expectedBPM, _ := stat.MeanStdDev(expVals, nil)
		_, ratioStdDev := stat.MeanStdDev(ratios, nil)

		deviation := 0.0
		if expectedBPM > 0 {
			deviation = (meanBPM - expectedBPM) / expectedBPM
		}

		seg := TempoSegment{
			StartMeasure: key*segSize + 1,
			EndMeasure:   (key+1)*segSize,
			MeanBPM:      meanBPM,
			ExpectedBPM:  expectedBPM,
			Deviation:    deviation,
			NoteCount:    len(bucket),
			Stability:    clamp(1-ratioStdDev, 0, 1),
		}
		result.Segments = append(result.Segments, seg)

		segmentIndices = append(segmentIndices, float64(key))
		segmentMeanBPMs = append(segmentMeanBPMs, meanBPM)
		segmentDeviations = append(segmentDeviations, deviation)

		if absF(deviation) > opts.TempoSegmentDeviation {
			startMeasure := seg.StartMeasure
			issues = append(issues, Issue{
				Severity:    SeverityMinor,
				Type:        IssueLocalTempo,
				Description: "tempo drifts noticeably in this section",
				Measure:     &startMeasure,
			})
		}
	}

	if len(segmentIndices) >= 2 {
		_, slope := stat.LinearRegression(segmentIndices, segmentMeanBPMs, nil, false)
		result.DriftSlopeBPMPerSegment = slope
		normalizedSlope := 0.0
		if result.OverallMeanBPM > 0 {
			normalizedSlope = slope / result.OverallMeanBPM
		}
		switch {
		case normalizedSlope > opts.TempoDriftSlope:
			result.Trend = DriftAccelerating
			issues = append(issues, Issue{Severity: SeverityMinor, Type: IssueAccelerating, Description: "speeds up steadily over the passage"})
		case normalizedSlope < -opts.TempoDriftSlope:
			result.Trend = DriftDecelerating
			issues = append(issues, Issue{Severity: SeverityMinor, Type: IssueDecelerating, Description: "slows down steadily over the passage"})
		default:
			result.Trend = DriftStable
		}
	} else {
		result.Trend = DriftStable
	}

	// Tempo stability overall = clamp(0, 1, 1 - std_dev(segment_deviations)/0.2), per §4.8.
	if len(segmentDeviations) >= 2 {
		_, devStdDev := stat.MeanStdDev(segmentDeviations, nil)
		result.StabilityIndex = clamp(1-devStdDev/0.2, 0, 1)
	} else {
		result.StabilityIndex = 1
	}

	result.IsTooFast = result.OverallDeviation > opts.TempoDeviationHigh
	result.IsTooSlow = result.OverallDeviation < -opts.TempoDeviationHigh
	result.IsUnstable = result.StabilityIndex < opts.TempoStabilityLow

	if result.IsTooFast {
		issues = append(issues, Issue{Severity: SeverityModerate, Type: IssueTempoTooFast, Description: "overall tempo runs faster than notated"})
	}
	if result.IsTooSlow {
		issues = append(issues, Issue{Severity: SeverityModerate, Type: IssueTempoTooSlow, Description: "overall tempo runs slower than notated"})
	}
	if result.IsUnstable {
		issues = append(issues, Issue{Severity: SeverityModerate, Type: IssueTempoUnstable, Description: "tempo is unstable across the passage"})
	}

	driftPenalty := 0.0
	if result.Trend != DriftStable {
		driftPenalty = 10
	}
	raw := 100.0
	raw -= tempoDeviationPenalty(absF(result.OverallDeviation))
	raw -= (1 - result.StabilityIndex) * 30
	raw -= driftPenalty
	result.Score = clamp(raw, 0, 100)

	result.Issues = dedupeIssues(issues)
	sortIssuesBySeverity(result.Issues)

	return result
}

// tempoDeviationPenalty implements §4.8's piecewise f(|deviation|):
// 0 -> 0, 0.1 -> 10 (linear in between), 0.2 -> 25, >= 0.3 -> 40.
func tempoDeviationPenalty(absDeviation float64) float64 {
	switch {
	case absDeviation <= 0:
		return 0
	case absDeviation < 0.1:
		return absDeviation / 0.1 * 10
	case absDeviation < 0.2:
		return 10 + (absDeviation-0.1)/0.1*15
	case absDeviation < 0.3:
		return 25 + (absDeviation-0.2)/0.1*15
	default:
		return 40
	}
}
