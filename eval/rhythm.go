package eval

import (
	"math"
	"sort"
)

// TimingSeverity tags how far off a matched pair's onset landed.
type TimingSeverity string

const (
	TimingOnTime      TimingSeverity = "on_time"
	TimingSlightlyEarly TimingSeverity = "slightly_early"
	TimingSlightlyLate TimingSeverity = "slightly_late"
	TimingVeryEarly   TimingSeverity = "very_early"
	TimingVeryLate    TimingSeverity = "very_late"
)

// RhythmMeasureStat is the per-measure timing-deviation summary.
type RhythmMeasureStat struct {
	Measure    int
	MeanAbsMs  float64
	WorstMs    float64
	PairCount  int
}

// RhythmResult is the rhythm evaluator's output.
type RhythmResult struct {
	Score float64 // 0-100

	MeanDeviationMs    float64 // signed
	MeanAbsDeviationMs float64
	StdDevMs           float64

	OnTime        int
	SlightlyEarly int
	SlightlyLate  int
	VeryEarly     int
	VeryLate      int

	IsRushing bool // systemic early bias
	IsDragging bool // systemic late bias
	IsUneven   bool // stddev above threshold

	MeasureStats []RhythmMeasureStat
	Hotspots     []RhythmMeasureStat // measures with MeanAbsMs above RhythmSlightMs, worst first, at most 5

	Issues []Issue
}

// RhythmEvaluator implements Evaluator[RhythmResult] per §4.7.
type RhythmEvaluator struct{}

func (RhythmEvaluator) Name() string { return "rhythm" }

func (RhythmEvaluator) Evaluate(alignment *AlignmentResult, score *Score, performance *Performance, opts Options) RhythmResult {
	var result RhythmResult
	if len(alignment.Pairs) == 0 {
		return result
	}

	measureStats := make(map[int]*RhythmMeasureStat)
	ensureMeasure := func(m int) *RhythmMeasureStat {
		ms, ok := measureStats[m]
		if !ok {
			ms = &RhythmMeasureStat{Measure: m}
			measureStats[m] = ms
		}
		return ms
	}

	var deviations []float64
	var issues []Issue

	for _, pair := range alignment.Pairs {
		note, ok := score.NoteByID(pair.ScoreNoteID)
		if !ok {
			continue
		}

		delta := pair.TimingDeviationMs
		deviations = append(deviations, delta)

		ms := ensureMeasure(note.Measure)
		ms.PairCount++
		if absF(delta) > absF(ms.WorstMs) {
			ms.WorstMs = delta
		}
		ms.MeanAbsMs += absF(delta)

		severity := classifyTiming(delta, note.IsGraceNote, opts)
		switch severity {
		case TimingOnTime:
			result.OnTime++
		case TimingSlightlyEarly:
			result.SlightlyEarly++
		case TimingSlightlyLate:
			result.SlightlyLate++
		case TimingVeryEarly:
			result.VeryEarly++
		case TimingVeryLate:
			result.VeryLate++
		}

		if severity == TimingVeryEarly || severity == TimingVeryLate {
			measure := note.Measure
			beat := note.Beat
			scoreID := pair.ScoreNoteID
			perfID := pair.PerformanceNoteID
			issueType := IssueRushedNote
			description := "rushed ahead of the beat"
			if severity == TimingVeryLate {
				issueType = IssueDraggedNote
				description = "dragged behind the beat"
			}
			issues = append(issues, Issue{
				Severity:          SeverityModerate,
				Type:               issueType,
				Description:        description,
				Measure:            &measure,
				Beat:               &beat,
				ScoreNoteID:        &scoreID,
				PerformanceNoteID:  &perfID,
			})
		}
	}

	n := float64(len(deviations))
	var sum, sumAbs float64
	for _, d := range deviations {
		sum += d
		sumAbs += absF(d)
	}
	result.MeanDeviationMs = sum / n
	result.MeanAbsDeviationMs = sumAbs / n

	var sumSq float64
	for _, d := range deviations {
		diff := d - result.MeanDeviationMs
		sumSq += diff * diff
	}
	result.StdDevMs = math.Sqrt(sumSq / n)

	result.IsRushing = result.MeanDeviationMs <= -opts.RhythmSlightMs
	result.IsDragging = result.MeanDeviationMs >= opts.RhythmSlightMs
	result.IsUneven = result.StdDevMs > opts.RhythmUnevenStdDev

	if result.IsRushing {
		issues = append(issues, Issue{Severity: SeverityModerate, Type: IssueRushedNote, Description: "tends to rush ahead of the beat throughout"})
	}
	if result.IsDragging {
		issues = append(issues, Issue{Severity: SeverityModerate, Type: IssueDraggedNote, Description: "tends to drag behind the beat throughout"})
	}
	if result.IsUneven {
		issues = append(issues, Issue{Severity: SeverityMinor, Type: IssueUnevenTiming, Description: "timing is inconsistent across the passage"})
	}

	for _, ms := range measureStats {
		if ms.PairCount > 0 {
			ms.MeanAbsMs /= float64(ms.PairCount)
		}
		result.MeasureStats = append(result.MeasureStats, *ms)
	}
	sort.Slice(result.MeasureStats, func(i, j int) bool { return result.MeasureStats[i].Measure < result.MeasureStats[j].Measure })

	// Hotspots are measures whose mean |Δt| exceeds the slight threshold,
	// per §4.7 - not simply the top 5 measures regardless of severity.
	var hotspots []RhythmMeasureStat
	for _, ms := range result.MeasureStats {
		if ms.MeanAbsMs > opts.RhythmSlightMs {
			hotspots = append(hotspots, ms)
		}
	}
	sort.Slice(hotspots, func(i, j int) bool { return hotspots[i].MeanAbsMs > hotspots[j].MeanAbsMs })
	if len(hotspots) > 5 {
		hotspots = hotspots[:5]
	}
	result.Hotspots = hotspots

	// Score = clamp(0, 100, 100 - mean|Δt|/10 - std_dev/15
	//   - 0.5*(very_early_count + very_late_count)), per §4.7.
	raw := 100.0
	raw -= result.MeanAbsDeviationMs / 10
	raw -= result.StdDevMs / 15
	raw -= 0.5 * float64(result.VeryEarly+result.VeryLate)
	result.Score = clamp(raw, 0, 100)

	result.Issues = dedupeIssues(issues)
	sortIssuesBySeverity(result.Issues)

	return result
}

// classifyTiming buckets a signed ms deviation per §4.7; grace notes are
// always treated as on_time since their notated position is approximate.
func classifyTiming(deltaMs float64, isGrace bool, opts Options) TimingSeverity {
	if isGrace {
		return TimingOnTime
	}
	abs := absF(deltaMs)
	switch {
	case abs <= opts.RhythmOnTimeMs:
		return TimingOnTime
	case abs <= opts.RhythmExtremeMs:
		if deltaMs < 0 {
			return TimingSlightlyEarly
		}
		return TimingSlightlyLate
	default:
		if deltaMs < 0 {
			return TimingVeryEarly
		}
		return TimingVeryLate
	}
}
