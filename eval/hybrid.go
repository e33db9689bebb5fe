package eval

import (
	"sort"
	"time"
)

// HybridAligner combines coarse DTW timing with per-voice Needleman-Wunsch
// matching, per §4.5. It is the aligner the batch pipeline drives by
// default.
type HybridAligner struct{}

// Align implements the Evaluator-style contract align(score, performance,
// options) -> AlignmentResult.
func (HybridAligner) Align(score *Score, performance *Performance, opts Options) *AlignmentResult {
	start := time.Now()

	if len(score.Notes) == 0 || len(performance.Notes) == 0 {
		result := trivialAlignment(score, performance)
		result.ComputeTime = time.Since(start)
		return result
	}

	// Step 2: coarse time mapping via whole-sequence DTW.
	dtwResult := dtwAlign(scoreSeq(score.Notes), performanceSeq(performance.Notes), opts)

	// Step 1: voice separation. Performance notes are placed into the same
	// voice-key space as the score voices (see groupPerformanceByVoice) by
	// anchoring each one to its nearest time-mapped score note, rather than
	// bucketing the two sides independently.
	scoreVoices := groupScoreByVoice(score)
	perfVoices := groupPerformanceByVoice(score, scoreVoices, performance, func(ms float64) float64 {
		return mapPerformanceTimeToScore(ms, dtwResult)
	})

	voiceKeys := unionVoiceKeys(scoreVoices, perfVoices)

	type candidatePair struct {
		pair AlignedNotePair
		cost float64
	}
	var allPairs []candidatePair
	var allMissed []MissedNote
	var allExtra []ExtraNote

	for _, vk := range voiceKeys {
		sv := scoreVoices[vk]
		pv := perfVoices[vk]
		sort.Slice(sv, func(i, j int) bool { return sv[i].StartTick < sv[j].StartTick })
		sort.Slice(pv, func(i, j int) bool { return pv[i].StartMs < pv[j].StartMs })

		if len(sv) == 0 {
			for _, p := range pv {
				allExtra = append(allExtra, ExtraNote{PerformanceNoteID: p.ID, Voice: vk})
			}
			continue
		}
		if len(pv) == 0 {
			for _, s := range sv {
				allMissed = append(allMissed, MissedNote{ExpectedScoreNoteID: s.ID, InferredReason: ReasonSkipped, Voice: vk})
			}
			continue
		}

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
		perfTimesMapped := make([]float64, len(pv))
		for i, p := range pv {
			perfPitch[i] = p.Pitch
			perfVel[i] = p.Velocity
			perfTimesMapped[i] = mapPerformanceTimeToScore(p.StartMs, dtwResult)
		}

		steps := nwAlign(scorePitch, perfPitch, scoreVel, perfVel, scoreTimes, perfTimesMapped, opts)

		for _, step := range steps {
			switch step.Outcome {
			case nwPair:
				s := sv[step.ScoreIndex]
				p := pv[step.PerformanceIndex]
				pair := buildPair(score, s, p, opts)
				pair.Voice = vk
				cost := pairCostForMerge(s, p, opts)
				allPairs = append(allPairs, candidatePair{pair: pair, cost: cost})
			case nwGapInPerformance:
				s := sv[step.ScoreIndex]
				allMissed = append(allMissed, MissedNote{ExpectedScoreNoteID: s.ID, InferredReason: ReasonSkipped, Voice: vk})
			case nwGapInScore:
				p := pv[step.PerformanceIndex]
				allExtra = append(allExtra, ExtraNote{PerformanceNoteID: p.ID, Voice: vk})
			}
		}
	}

	// Step 4: merge conflicts. Score voices are disjoint, so the only
	// possible conflict is a performance note matched by more than one
	// voice's NW run; it is retained only in the voice with the lower
	// pair cost, and loses its other match (score note -> missed,
	// substituted; performance note's other candidate -> extra there).
	bestByPerf := make(map[NoteID]candidatePair)
	for _, cp := range allPairs {
		existing, ok := bestByPerf[cp.pair.PerformanceNoteID]
		if !ok || cp.cost < existing.cost {
			bestByPerf[cp.pair.PerformanceNoteID] = cp
		}
	}

	var finalPairs []AlignedNotePair
	for _, cp := range bestByPerf {
		finalPairs = append(finalPairs, cp.pair)
	}
	for _, cp := range allPairs {
		if bestByPerf[cp.pair.PerformanceNoteID].pair.ScoreNoteID == cp.pair.ScoreNoteID {
			continue // this is the retained match
		}
		allExtra = append(allExtra, ExtraNote{PerformanceNoteID: cp.pair.PerformanceNoteID, Voice: cp.pair.Voice})
		allMissed = append(allMissed, MissedNote{
			ExpectedScoreNoteID: cp.pair.ScoreNoteID,
			InferredReason:      ReasonSubstituted,
			SubstitutedBy:       bestByPerf[cp.pair.PerformanceNoteID].pair.PerformanceNoteID,
			Voice:               cp.pair.Voice,
		})
	}

	sort.Slice(finalPairs, func(i, j int) bool {
		return finalPairs[i].TimingDeviationMs < finalPairs[j].TimingDeviationMs
	})

	// Step 5: grace-note and tuplet relaxation.
	applyRelaxation(score, finalPairs, &allMissed, opts)

	result := &AlignmentResult{
		Pairs:               finalPairs,
		MissedNotes:         allMissed,
		ExtraNotes:          allExtra,
		WarpingPath:         dtwResult.WarpingPath,
		EstimatedTempoRatio: dtwResult.TempoRatio,
		TimeOffsetMs:        dtwResult.TimeOffsetMs,
		AlgorithmName:       "hybrid",
		ComputeTime:         time.Since(start),
	}

	if dtwResult.AverageCost > opts.CatastropheCost {
		result.IsCatastrophe = true
		result.NormalizedScore = 0
	}

	return result
}

func mapPerformanceTimeToScore(perfMs float64, dtw DTWResult) float64 {
	ratio := dtw.TempoRatio
	if ratio == 0 {
		ratio = 1
	}
	return (perfMs - dtw.TimeOffsetMs) / ratio
}

func unionVoiceKeys(a map[int][]ScoreNote, b map[int][]PerformanceNote) []int {
	seen := make(map[int]bool)
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]int, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// buildPair constructs an AlignedNotePair per §4.5 step 6 confidence
// formula and classification rules.
func buildPair(score *Score, s ScoreNote, p PerformanceNote, opts Options) AlignedNotePair {
	deltaMs := p.StartMs - s.StartMs
	pitchDiff := int(p.Pitch) - int(s.Pitch)
	exact := s.Pitch == p.Pitch
	octave := !exact && IsOctaveError(s.Pitch, p.Pitch)

	var base float64
	switch {
	case exact:
		base = 0.8
	case octave:
		base = 0.5
	default:
		base = 0.2
	}
	timingFactor := 1 - absF(deltaMs)/200
	if timingFactor < 0 {
		timingFactor = 0
	}
	confidence := base * timingFactor

	classification := ClassificationWrongPitch
	switch {
	case exact:
		classification = ClassificationCorrect
	case octave:
		classification = ClassificationOctaveError
	case s.Pitch%12 == p.Pitch%12:
		classification = ClassificationEnharmonic
	}

	return AlignedNotePair{
		ScoreNoteID:          s.ID,
		PerformanceNoteID:    p.ID,
		Confidence:           confidence,
		TimingDeviationMs:    deltaMs,
		TimingDeviationBeats: deltaMs / score.QuarterMs(s.StartTick),
		PitchDifference:      pitchDiff,
		VelocityDifference:   int(p.Velocity) - int(s.Velocity),
		IsExactPitchMatch:    exact,
		IsOctaveError:        octave,
		Classification:       classification,
	}
}

func pairCostForMerge(s ScoreNote, p PerformanceNote, opts Options) float64 {
	return PairCost(s.Pitch, p.Pitch, s.Velocity, p.Velocity, p.StartMs-s.StartMs, opts.TimingCostCapMs, opts.ScoringWeights)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// applyRelaxation implements §4.5 step 5: a missed grace note whose
// parent has a matched pair within the grace tolerance is reclassified
// as an optional ornament; missed tuplet notes whose sibling group has
// at least two matched members keep missed status (the softened penalty
// is applied downstream by the note-accuracy evaluator).
func applyRelaxation(score *Score, pairs []AlignedNotePair, missed *[]MissedNote, opts Options) {
	pairedScoreIDs := make(map[NoteID]AlignedNotePair, len(pairs))
	for _, p := range pairs {
		pairedScoreIDs[p.ScoreNoteID] = p
	}

	for i := range *missed {
		m := &(*missed)[i]
		note, ok := score.NoteByID(m.ExpectedScoreNoteID)
		if !ok || !note.IsGraceNote || note.ParentNoteID.IsNil() {
			continue
		}
		parentPair, ok := pairedScoreIDs[note.ParentNoteID]
		if !ok {
			continue
		}
		if absF(parentPair.TimingDeviationMs) <= opts.GraceToleranceMs {
			m.InferredReason = ReasonOptionalOrnament
		}
	}
}

