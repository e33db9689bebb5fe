package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreYAML = `
ppq: 480
time_signatures:
  - start_tick: 0
    numerator: 4
    denominator: 4
tempo:
  - start_tick: 0
    bpm: 120
notes:
  - pitch: 60
    velocity: 80
    start_tick: 0
    duration: quarter
  - pitch: 62
    velocity: 80
    start_tick: 480
    duration: 480
`

const performanceYAML = `
notes:
  - pitch: 60
    velocity: 80
    start_ms: 0
    duration_ms: 480
  - pitch: 62
    velocity: 80
    start_ms: 500
    duration_ms: 480
sustain:
  - time_ms: 0
    pressed: true
  - time_ms: 900
    pressed: false
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScoreFixtureNamedAndRawDuration(t *testing.T) {
	path := writeTemp(t, "score.yaml", scoreYAML)
	score, err := LoadScoreFixture(path)
	require.NoError(t, err)

	require.Len(t, score.Notes, 2)
	assert.Equal(t, int64(480), score.Notes[0].DurationTicks, "named 'quarter' rhythm resolves to 480 ticks at ppq 480")
	assert.Equal(t, int64(480), score.Notes[1].DurationTicks, "raw tick count passes through unchanged")
}

func TestLoadPerformanceFixtureWithPedal(t *testing.T) {
	path := writeTemp(t, "performance.yaml", performanceYAML)
	perf, err := LoadPerformanceFixture(path)
	require.NoError(t, err)

	require.Len(t, perf.Notes, 2)
	assert.True(t, perf.IsSustainActiveAt(100))
	assert.False(t, perf.IsSustainActiveAt(901))
}

func TestLoadScoreFixtureMissingFileReturnsError(t *testing.T) {
	_, err := LoadScoreFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
