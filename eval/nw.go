package eval

// nwOutcome tags what the traceback decided for one step.
type nwOutcome int

const (
	nwPair nwOutcome = iota
	nwGapInScore    // performance note unmatched -> extra
	nwGapInPerformance // score note unmatched -> missed
)

// nwStep is one traceback decision, always referencing valid indices for
// its Outcome (a gap step only references the sequence it consumed from).
type nwStep struct {
	ScoreIndex       int
	PerformanceIndex int
	Outcome          nwOutcome
	Cost             float64
}

// nwMatchScore is s(S_i, P_j) in §4.4: +1 exact pitch match, +0.3
// octave-only match, else -cost(S_i, P_j).
func nwMatchScore(scorePitch, perfPitch, scoreVel, perfVel uint8, deltaMs float64, opts Options) float64 {
	if scorePitch == perfPitch {
		return 1
	}
	if scorePitch%12 == perfPitch%12 {
		return 0.3
	}
	pc := PitchCost(scorePitch, perfPitch)
	tc := TimingCostMs(deltaMs, opts.TimingCostCapMs)
	vc := VelocityCost(int(perfVel) - int(scoreVel))
	return -CombinedCost(pc, tc, vc, opts.ScoringWeights)
}

// nwAlign aligns one voice's score notes against the time-mapped
// performance notes of that voice, using global gap-penalty alignment.
// scoreTimesMs and perfTimesMs must be the (already tempo-mapped) times
// to use for the timing cost component.
func nwAlign(scorePitch, perfPitch []uint8, scoreVel, perfVel []uint8, scoreTimesMs, perfTimesMs []float64, opts Options) []nwStep {
	n, m := len(scorePitch), len(perfPitch)
	g := opts.GapPenalty

	H := make([][]float64, n+1)
	for i := range H {
		H[i] = make([]float64, m+1)
	}
	for i := 1; i <= n; i++ {
		H[i][0] = H[i-1][0] - g
	}
	for j := 1; j <= m; j++ {
		H[0][j] = H[0][j-1] - g
	}

	matchAt := func(i, j int) float64 {
		return nwMatchScore(scorePitch[i-1], perfPitch[j-1], scoreVel[i-1], perfVel[j-1], perfTimesMs[j-1]-scoreTimesMs[i-1], opts)
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			diag := H[i-1][j-1] + matchAt(i, j)
			up := H[i-1][j] - g   // gap in performance: score note unmatched
			left := H[i][j-1] - g // gap in score: performance note unmatched
			H[i][j] = maxOf3(diag, up, left)
		}
	}

	// Traceback, ties broken pair > gap_in_score > gap_in_performance.
	var steps []nwStep
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && H[i][j] == H[i-1][j-1]+matchAt(i, j):
			steps = append(steps, nwStep{ScoreIndex: i - 1, PerformanceIndex: j - 1, Outcome: nwPair, Cost: matchAt(i, j)})
			i--
			j--
		case j > 0 && H[i][j] == H[i][j-1]-g:
			steps = append(steps, nwStep{PerformanceIndex: j - 1, Outcome: nwGapInScore})
			j--
		case i > 0 && H[i][j] == H[i-1][j]-g:
			steps = append(steps, nwStep{ScoreIndex: i - 1, Outcome: nwGapInPerformance})
			i--
		default:
			// Numerical fallback: consume whichever index remains.
			if i > 0 {
				steps = append(steps, nwStep{ScoreIndex: i - 1, Outcome: nwGapInPerformance})
				i--
			} else {
				steps = append(steps, nwStep{PerformanceIndex: j - 1, Outcome: nwGapInScore})
				j--
			}
		}
	}
	for a, b := 0, len(steps)-1; a < b; a, b = a+1, b-1 {
		steps[a], steps[b] = steps[b], steps[a]
	}
	return steps
}

func maxOf3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
