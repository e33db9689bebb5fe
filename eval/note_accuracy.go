package eval

import "sort"

// MeasureBreakdown is the correct/total tally for one measure.
type MeasureBreakdown struct {
	Measure int
	Correct int
	Total   int
}

// Accuracy returns correct/total, or 0 when Total is 0.
func (m MeasureBreakdown) Accuracy() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Total)
}

// NoteAccuracyResult is the note-accuracy evaluator's output.
type NoteAccuracyResult struct {
	Score float64 // 0-100

	Correct    int
	OctaveErrors int
	Wrong      int
	Missed     int
	Extra      int
	Total      int

	MeasureBreakdown []MeasureBreakdown
	ProblemMeasures  []MeasureBreakdown // worst 5, ascending accuracy

	Issues []Issue
}

// NoteAccuracyEvaluator implements Evaluator[NoteAccuracyResult] per §4.6.
type NoteAccuracyEvaluator struct{}

func (NoteAccuracyEvaluator) Name() string { return "note_accuracy" }

func (NoteAccuracyEvaluator) Evaluate(alignment *AlignmentResult, score *Score, performance *Performance, opts Options) NoteAccuracyResult {
	w := opts.NoteAccuracyWeights
	total := len(score.Notes)

	result := NoteAccuracyResult{Total: total}
	if total == 0 {
		return result
	}

	measureTotals := make(map[int]*MeasureBreakdown)
	ensureMeasure := func(m int) *MeasureBreakdown {
		mb, ok := measureTotals[m]
		if !ok {
			mb = &MeasureBreakdown{Measure: m}
			measureTotals[m] = mb
		}
		return mb
	}

	var issues []Issue

	for _, pair := range alignment.Pairs {
		note, ok := score.NoteByID(pair.ScoreNoteID)
		if !ok {
			continue
		}
		mb := ensureMeasure(note.Measure)
		mb.Total++

		switch pair.Classification {
		case ClassificationCorrect, ClassificationEnharmonic:
			result.Correct++
			mb.Correct++
		case ClassificationOctaveError:
			result.OctaveErrors++
			measure := note.Measure
			beat := note.Beat
			scoreID := pair.ScoreNoteID
			perfID := pair.PerformanceNoteID
			issues = append(issues, Issue{
				Severity:          SeverityMinor,
				Type:              IssueOctaveError,
				Description:       "played an octave away from " + NoteName(note.Pitch),
				Measure:           &measure,
				Beat:              &beat,
				ScoreNoteID:       &scoreID,
				PerformanceNoteID: &perfID,
			})
		default: // wrong_pitch
			result.Wrong++
			measure := note.Measure
			beat := note.Beat
			scoreID := pair.ScoreNoteID
			perfID := pair.PerformanceNoteID
			issues = append(issues, Issue{
				Severity:          SeverityModerate,
				Type:              IssueWrongNote,
				Description:       "played a wrong pitch instead of " + NoteName(note.Pitch),
				Measure:           &measure,
				Beat:              &beat,
				ScoreNoteID:       &scoreID,
				PerformanceNoteID: &perfID,
				Suggestion:        "check the fingering for " + NoteName(note.Pitch),
			})
		}
	}

	pairedTupletsByMeasure := make(map[int]int)
	for _, pair := range alignment.Pairs {
		if note, ok := score.NoteByID(pair.ScoreNoteID); ok && note.IsTuplet {
			pairedTupletsByMeasure[note.Measure]++
		}
	}

	var missedPenalty float64
	for _, m := range alignment.MissedNotes {
		note, ok := score.NoteByID(m.ExpectedScoreNoteID)
		if !ok {
			continue
		}
		if m.InferredReason == ReasonOptionalOrnament {
			// Softened: grace note reclassified, not counted as missed.
			continue
		}
		mb := ensureMeasure(note.Measure)
		mb.Total++
		result.Missed++

		// A missed tuplet note whose sibling group still landed at least
		// two matches keeps its missed status at half weight.
		if note.IsTuplet && pairedTupletsByMeasure[note.Measure] >= 2 {
			missedPenalty += w.Missed * 0.5
		} else {
			missedPenalty += w.Missed
		}

		severity := SeveritySignificant
		if note.IsGraceNote {
			severity = SeverityMinor
		}
		measure := note.Measure
		beat := note.Beat
		scoreID := m.ExpectedScoreNoteID
		issues = append(issues, Issue{
			Severity:    severity,
			Type:        IssueMissedNote,
			Description: NoteName(note.Pitch) + " was not played",
			Measure:     &measure,
			Beat:        &beat,
			ScoreNoteID: &scoreID,
		})
	}

	for _, e := range alignment.ExtraNotes {
		note, ok := performance.NoteByID(e.PerformanceNoteID)
		if !ok {
			continue
		}
		effectiveEnd := performance.EffectiveEndMs(note)
		durationMs := effectiveEnd - note.StartMs
		if note.Velocity <= opts.ExtraNoteMinVelocity || durationMs <= opts.ExtraNoteMinMs {
			continue // not disruptive enough to surface
		}
		result.Extra++
		perfID := e.PerformanceNoteID
		issues = append(issues, Issue{
			Severity:          SeverityMinor,
			Type:              IssueExtraNote,
			Description:       "extra note " + NoteName(note.Pitch) + " was played",
			PerformanceNoteID: &perfID,
		})
	}

	raw := 100*float64(result.Correct)/float64(total) -
		float64(result.Wrong)*w.Wrong -
		float64(result.OctaveErrors)*w.Octave +
		float64(result.OctaveErrors)*w.OctaveCredit*(100/float64(total)) -
		missedPenalty -
		float64(result.Extra)*w.Extra
	result.Score = clamp(raw, 0, 100)

	for _, mb := range measureTotals {
		result.MeasureBreakdown = append(result.MeasureBreakdown, *mb)
	}
	sort.Slice(result.MeasureBreakdown, func(i, j int) bool {
		return result.MeasureBreakdown[i].Measure < result.MeasureBreakdown[j].Measure
	})

	problem := append([]MeasureBreakdown(nil), result.MeasureBreakdown...)
	sort.Slice(problem, func(i, j int) bool { return problem[i].Accuracy() < problem[j].Accuracy() })
	if len(problem) > 5 {
		problem = problem[:5]
	}
	result.ProblemMeasures = problem

	result.Issues = dedupeIssues(issues)
	sortIssuesBySeverity(result.Issues)

	return result
}
