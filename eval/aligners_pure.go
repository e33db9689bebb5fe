package eval

import "time"

// pureDTWAligner exposes the whole-sequence DTW warping path (§4.3) alone,
// without the per-voice Needleman-Wunsch refinement pass. Selected via
// Options.Aligner == AlignerDTW, mainly useful for ablation comparisons
// against the hybrid aligner's own coarse DTW stage.
type pureDTWAligner struct{}

func (pureDTWAligner) Align(score *Score, performance *Performance, opts Options) *AlignmentResult {
	start := time.Now()
	if len(score.Notes) == 0 || len(performance.Notes) == 0 {
		result := trivialAlignment(score, performance)
		result.AlgorithmName = "dtw"
		result.ComputeTime = time.Since(start)
		return result
	}

	dtwResult := dtwAlign(scoreSeq(score.Notes), performanceSeq(performance.Notes), opts)

	usedScore := make(map[int]bool)
	usedPerf := make(map[int]bool)
	var pairs []AlignedNotePair

	for _, wp := range dtwResult.WarpingPath {
		if usedScore[wp.ScoreIndex] || usedPerf[wp.PerformanceIndex] {
			continue
		}
		usedScore[wp.ScoreIndex] = true
		usedPerf[wp.PerformanceIndex] = true
		s := score.Notes[wp.ScoreIndex]
		p := performance.Notes[wp.PerformanceIndex]
		pairs = append(pairs, buildPair(score, s, p, opts))
	}

	var missed []MissedNote
	for i, s := range score.Notes {
		if !usedScore[i] {
			missed = append(missed, MissedNote{ExpectedScoreNoteID: s.ID, InferredReason: ReasonSkipped})
		}
	}
	var extra []ExtraNote
	for j, p := range performance.Notes {
		if !usedPerf[j] {
			extra = append(extra, ExtraNote{PerformanceNoteID: p.ID})
		}
	}

	result := &AlignmentResult{
		Pairs:               pairs,
		MissedNotes:         missed,
		ExtraNotes:          extra,
		WarpingPath:         dtwResult.WarpingPath,
		EstimatedTempoRatio: dtwResult.TempoRatio,
		TimeOffsetMs:        dtwResult.TimeOffsetMs,
		AlgorithmName:       "dtw",
		ComputeTime:         time.Since(start),
	}
	if dtwResult.AverageCost > opts.CatastropheCost {
		result.IsCatastrophe = true
		result.NormalizedScore = 0
	}
	return result
}

// pureNWAligner runs Needleman-Wunsch gap-penalty alignment (§4.4) over the
// whole sequence with no voice separation and no DTW timing correction.
// Selected via Options.Aligner == AlignerNW.
type pureNWAligner struct{}

func (pureNWAligner) Align(score *Score, performance *Performance, opts Options) *AlignmentResult {
	start := time.Now()
	if len(score.Notes) == 0 || len(performance.Notes) == 0 {
		result := trivialAlignment(score, performance)
		result.AlgorithmName = "nw"
		result.ComputeTime = time.Since(start)
		return result
	}

	sv := score.Notes
	pv := performance.Notes

	scorePitch := make([]uint8, len(sv))
	scoreVel := make([]uint8, len(sv))
	scoreTimes := make([]float64, len(sv))
	for i, s := range sv {
		scorePitch[i] = s.Pitch
		scoreVel[i] = s.Velocity
		scoreTimes[i] = s.StartMs
	}
	perfPitch := make([]uint8, len(pv))
	perfVel := make([]uint8, len(pv))
	perfTimes := make([]float64, len(pv))
	for i, p := range pv {
		perfPitch[i] = p.Pitch
		perfVel[i] = p.Velocity
		perfTimes[i] = p.StartMs
	}

	steps := nwAlign(scorePitch, perfPitch, scoreVel, perfVel, scoreTimes, perfTimes, opts)

	var pairs []AlignedNotePair
	var missed []MissedNote
	var extra []ExtraNote
	for _, step := range steps {
		switch step.Outcome {
		case nwPair:
			pairs = append(pairs, buildPair(score, sv[step.ScoreIndex], pv[step.PerformanceIndex], opts))
		case nwGapInPerformance:
			missed = append(missed, MissedNote{ExpectedScoreNoteID: sv[step.ScoreIndex].ID, InferredReason: ReasonSkipped})
		case nwGapInScore:
			extra = append(extra, ExtraNote{PerformanceNoteID: pv[step.PerformanceIndex].ID})
		}
	}

	return &AlignmentResult{
		Pairs:               pairs,
		MissedNotes:         missed,
		ExtraNotes:          extra,
		EstimatedTempoRatio: 1,
		AlgorithmName:       "nw",
		ComputeTime:         time.Since(start),
	}
}
