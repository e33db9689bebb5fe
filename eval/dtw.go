package eval

import (
	"math"
	"sort"
)

// dtwSeq is a minimal timing/pitch view an aligner needs, satisfied by
// both ScoreNote and PerformanceNote.
type dtwSeq struct {
	pitch    uint8
	velocity uint8
	startMs  float64
}

func scoreSeq(notes []ScoreNote) []dtwSeq {
	out := make([]dtwSeq, len(notes))
	for i, n := range notes {
		out[i] = dtwSeq{pitch: n.Pitch, velocity: n.Velocity, startMs: n.StartMs}
	}
	return out
}

func performanceSeq(notes []PerformanceNote) []dtwSeq {
	out := make([]dtwSeq, len(notes))
	for i, n := range notes {
		out[i] = dtwSeq{pitch: n.Pitch, velocity: n.Velocity, startMs: n.StartMs}
	}
	return out
}

// DTWResult is the warping path and derived tempo estimate produced by
// aligning two event sequences.
type DTWResult struct {
	WarpingPath  []WarpPoint
	TempoRatio   float64 // performance-ms per score-ms
	TimeOffsetMs float64
	AverageCost  float64
}

// dtwAlign computes a Sakoe-Chiba-banded DTW path between a score
// sequence and a performance sequence, using chroma (pitch class) and
// timing cost. Diagonal steps are preferred on ties, per §4.3.
func dtwAlign(score, perf []dtwSeq, opts Options) DTWResult {
	n, m := len(score), len(perf)
	if n == 0 || m == 0 {
		return DTWResult{TempoRatio: 1}
	}

	band := opts.BandWidth(m)

	const inf = math.MaxFloat64 / 2
	D := make([][]float64, n)
	for i := range D {
		D[i] = make([]float64, m)
		for j := range D[i] {
			D[i][j] = inf
		}
	}

	cost := func(i, j int) float64 {
		pc := chromaCost(score[i].pitch, perf[j].pitch)
		tc := TimingCostMs(perf[j].startMs-score[i].startMs, opts.TimingCostCapMs)
		return pc + opts.DTWTimingLambda*tc
	}

	inBand := func(i, j int) bool {
		// Project the diagonal scaled to sequence length ratio.
		center := i * m / n
		return abs(j-center) <= band
	}

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if !inBand(i, j) {
				continue
			}
			c := cost(i, j)
			switch {
			case i == 0 && j == 0:
				D[i][j] = c
			case i == 0:
				D[i][j] = c + D[i][j-1]
			case j == 0:
				D[i][j] = c + D[i-1][j]
			default:
				diag := D[i-1][j-1]
				up := D[i-1][j]
				left := D[i][j-1]
				best := diag
				if up < best {
					best = up
				}
				if left < best {
					best = left
				}
				// Diagonal preferred on ties: only displace it if
				// another option is strictly lower.
				if diag <= up && diag <= left {
					best = diag
				}
				D[i][j] = c + best
			}
		}
	}

	path := tracebackDTW(D, n, m, inBand)

	ratio, offset := robustTempoEstimate(path, score, perf)

	avgCost := 0.0
	if len(path) > 0 {
		total := 0.0
		for _, p := range path {
			total += cost(p.ScoreIndex, p.PerformanceIndex)
		}
		avgCost = total / float64(len(path))
	}

	return DTWResult{
		WarpingPath:  path,
		TempoRatio:   ratio,
		TimeOffsetMs: offset,
		AverageCost:  avgCost,
	}
}

// chromaCost is the octave-invariant pitch cost the DTW stage uses: 0
// when the pitch classes match (including octave shifts), else the
// circular pitch-class distance normalized to [0, 1].
func chromaCost(a, b uint8) float64 {
	d := int(a)%12 - int(b)%12
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	return float64(d) / 6
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// tracebackDTW walks from (n-1, m-1) back to (0, 0) by re-deriving which
// predecessor produced D[i][j], with the same diagonal-preferred tie
// break used during the forward pass.
func tracebackDTW(D [][]float64, n, m int, inBand func(i, j int) bool) []WarpPoint {
	i, j := n-1, m-1
	var path []WarpPoint
	for i > 0 || j > 0 {
		path = append(path, WarpPoint{ScoreIndex: i, PerformanceIndex: j})
		switch {
		case i == 0:
			j--
		case j == 0:
			i--
		default:
			diag := D[i-1][j-1]
			up := D[i-1][j]
			left := D[i][j-1]
			if diag <= up && diag <= left {
				i--
				j--
			} else if up <= left {
				i--
			} else {
				j--
			}
		}
	}
	path = append(path, WarpPoint{ScoreIndex: 0, PerformanceIndex: 0})

	// reverse into forward order
	for a, b := 0, len(path)-1; a < b; a, b = a+1, b-1 {
		path[a], path[b] = path[b], path[a]
	}
	return path
}

// robustTempoEstimate fits a median slope through the warping path
// (performance-ms vs. score-ms) and derives a median time offset. The
// slope is estimated as the median of consecutive-step slopes (a
// Theil-Sen style robust estimator), which ignores the effect of any
// single outlying pair.
func robustTempoEstimate(path []WarpPoint, score, perf []dtwSeq) (ratio, offsetMs float64) {
	if len(path) == 0 {
		return 1, 0
	}

	var slopes []float64
	for k := 1; k < len(path); k++ {
		s0, s1 := score[path[k-1].ScoreIndex].startMs, score[path[k].ScoreIndex].startMs
		p0, p1 := perf[path[k-1].PerformanceIndex].startMs, perf[path[k].PerformanceIndex].startMs
		ds := s1 - s0
		if ds <= 0 {
			continue
		}
		slopes = append(slopes, (p1-p0)/ds)
	}
	ratio = median(slopes)
	if ratio == 0 {
		ratio = 1
	}

	offsets := make([]float64, len(path))
	for k, p := range path {
		offsets[k] = perf[p.PerformanceIndex].startMs - score[p.ScoreIndex].startMs
	}
	offsetMs = median(offsets)
	return ratio, offsetMs
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
