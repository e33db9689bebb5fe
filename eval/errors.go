package eval

import "fmt"

// InvalidInputError signals a Score that failed construction-time
// validation (ppq <= 0, no time signature, tempo marking or key signature,
// an unresolved grace-note parent).
// It is fatal to the evaluation that raised it.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func newInvalidInput(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// EmptyStreamError marks a Performance with no notes or fewer than two
// paired events. It is non-fatal: evaluators return empty results with
// score 0 and a message instead of raising.
type EmptyStreamError struct {
	Reason string
}

func (e *EmptyStreamError) Error() string {
	return fmt.Sprintf("empty stream: %s", e.Reason)
}

// AlignmentCatastropheError marks an alignment whose average DTW cost
// exceeded the catastrophe threshold. Non-fatal: the alignment result is
// still returned with NormalizedScore 0, and evaluators still compute on
// whatever pairs exist.
type AlignmentCatastropheError struct {
	AverageCost float64
	Threshold   float64
}

func (e *AlignmentCatastropheError) Error() string {
	return fmt.Sprintf("alignment catastrophe: average cost %.3f exceeds threshold %.3f", e.AverageCost, e.Threshold)
}

// TimeoutExceededError marks a real-time window alignment that exceeded
// its latency budget. Non-fatal: the triggering feedback is dropped and a
// degraded-mode flag is set on the next progress report.
type TimeoutExceededError struct {
	Budget  float64 // ms
	Elapsed float64 // ms
}

func (e *TimeoutExceededError) Error() string {
	return fmt.Sprintf("real-time window alignment exceeded budget: %.2fms > %.2fms", e.Elapsed, e.Budget)
}
