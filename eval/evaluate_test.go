package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateNilInputsAreInvalid(t *testing.T) {
	score := buildScaleScore(t)

	_, err := Evaluate(nil, buildPerformance(nil), DefaultOptions())
	assert.Error(t, err)

	_, err = Evaluate(score, nil, DefaultOptions())
	assert.Error(t, err)
}

func TestEvaluateEmptyPerformanceScoresZeroWithMessage(t *testing.T) {
	score := buildScaleScore(t)

	result, err := Evaluate(score, NewPerformance(nil, nil, nil, nil), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.OverallScore)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, "trivial", result.Alignment.AlgorithmName)
	assert.Len(t, result.Alignment.MissedNotes, len(score.Notes))
}

func TestEvaluateContextCancellationStopsBetweenEvaluators(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	score := buildScaleScore(t)
	_, err := EvaluateContext(ctx, score, buildPerformance(performanceNotesFrom(score)), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateAlignerChoiceIsHonored(t *testing.T) {
	score := buildScaleScore(t)
	perf := buildPerformance(performanceNotesFrom(score))

	for _, choice := range []AlignerChoice{AlignerDTW, AlignerNW, AlignerHybrid} {
		opts := DefaultOptions()
		opts.Aligner = choice
		result, err := Evaluate(score, perf, opts)
		require.NoError(t, err)
		assert.Equal(t, string(choice), result.Alignment.AlgorithmName)
		assert.Len(t, result.Alignment.Pairs, len(score.Notes), "aligner %s must fully pair the identity performance", choice)
	}
}
