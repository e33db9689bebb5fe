package eval

// Evaluator is implemented by each of the three fixed result variants.
// There is no runtime reflection or generic evaluator registry per the
// REDESIGN FLAGS: the tagged set {NoteAccuracyEvaluator, RhythmEvaluator,
// TempoEvaluator} is closed and known at compile time.
type Evaluator[T any] interface {
	Name() string
	Evaluate(alignment *AlignmentResult, score *Score, performance *Performance, opts Options) T
}
