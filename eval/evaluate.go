package eval

import (
	"context"
	"time"
)

// EvaluationResult bundles an alignment together with the three fixed
// evaluators' outputs and a combined overall score.
type EvaluationResult struct {
	Alignment *AlignmentResult

	NoteAccuracy NoteAccuracyResult
	Rhythm       RhythmResult
	Tempo        TempoResult

	OverallScore float64
	Grade        string

	// Message is set when the evaluation ran on a degenerate input (an
	// empty performance, or too few matched notes to measure anything).
	Message string

	ComputeTime time.Duration
}

// OverallWeights controls how the three evaluator scores combine into
// EvaluationResult.OverallScore.
type OverallWeights struct {
	NoteAccuracy float64
	Rhythm       float64
	Tempo        float64
}

// DefaultOverallWeights weights note accuracy highest, per §6: it is the
// component most directly tied to "did you play the right notes."
func DefaultOverallWeights() OverallWeights {
	return OverallWeights{NoteAccuracy: 0.5, Rhythm: 0.3, Tempo: 0.2}
}

// Evaluate runs the configured aligner followed by all three evaluators
// and combines their scores, per the batch pipeline in §6. It is the
// single entry point a caller needs for a one-shot (non real-time)
// evaluation.
func Evaluate(score *Score, performance *Performance, opts Options) (*EvaluationResult, error) {
	return EvaluateContext(context.Background(), score, performance, opts)
}

// EvaluateContext is Evaluate with cooperative cancellation: ctx is
// checked at evaluator boundaries only, never inside an aligner or an
// evaluator's inner loops.
func EvaluateContext(ctx context.Context, score *Score, performance *Performance, opts Options) (*EvaluationResult, error) {
	if score == nil {
		return nil, newInvalidInput("score is nil")
	}
	if performance == nil {
		return nil, newInvalidInput("performance is nil")
	}

	start := time.Now()

	alignment := align(score, performance, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	na := NoteAccuracyEvaluator{}.Evaluate(alignment, score, performance, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rh := RhythmEvaluator{}.Evaluate(alignment, score, performance, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tp := TempoEvaluator{}.Evaluate(alignment, score, performance, opts)

	w := DefaultOverallWeights()
	overall := na.Score*w.NoteAccuracy + rh.Score*w.Rhythm + tp.Score*w.Tempo
	if alignment.IsCatastrophe {
		overall = 0
	}

	message := ""
	switch {
	case len(performance.Notes) == 0:
		message = "performance contains no notes"
	case len(alignment.Pairs) < 2:
		message = "too few matched notes to evaluate"
	}
	if message != "" {
		na.Score, rh.Score, tp.Score = 0, 0, 0
		overall = 0
	}

	return &EvaluationResult{
		Alignment:    alignment,
		NoteAccuracy: na,
		Rhythm:       rh,
		Tempo:        tp,
		OverallScore: overall,
		Grade:        Grade(overall),
		Message:      message,
		ComputeTime:  time.Since(start),
	}, nil
}

// align dispatches to the configured aligner. AlignerDTW and AlignerNW
// select the standalone aligners in aligners_pure.go (useful for ablation
// comparisons); AlignerHybrid, the default, runs the full §4.5 pipeline.
func align(score *Score, performance *Performance, opts Options) *AlignmentResult {
	switch opts.Aligner {
	case AlignerDTW:
		return pureDTWAligner{}.Align(score, performance, opts)
	case AlignerNW:
		return pureNWAligner{}.Align(score, performance, opts)
	default:
		return HybridAligner{}.Align(score, performance, opts)
	}
}
