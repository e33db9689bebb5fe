package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteName(t *testing.T) {
	cases := []struct {
		pitch uint8
		want  string
	}{
		{60, "C4"},
		{61, "C#4"},
		{69, "A4"},
		{0, "C-1"},
		{127, "G9"},
		{72, "C5"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			assert.Equal(t, c.want, NoteName(c.pitch))
		})
	}
}

func TestDynamicLevelFor(t *testing.T) {
	cases := []struct {
		velocity uint8
		want     DynamicLevel
	}{
		{0, DynamicSilent},
		{1, DynamicPP},
		{31, DynamicPP},
		{32, DynamicP},
		{47, DynamicP},
		{48, DynamicMP},
		{63, DynamicMP},
		{64, DynamicMF},
		{79, DynamicMF},
		{80, DynamicF},
		{95, DynamicF},
		{96, DynamicFF},
		{127, DynamicFF},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DynamicLevelFor(c.velocity), "velocity %d", c.velocity)
	}
}

func TestRhythmicValueFor(t *testing.T) {
	const ppq = 480
	cases := []struct {
		ticks int64
		want  RhythmicValue
	}{
		{int64(3.8 * ppq), RhythmWhole},
		{int64(2.8 * ppq), RhythmDottedHalf},
		{int64(1.8 * ppq), RhythmHalf},
		{int64(1.4 * ppq), RhythmDottedQuarter},
		{ppq, RhythmQuarter},
		{int64(0.7 * ppq), RhythmDottedEighth},
		{int64(0.45 * ppq), RhythmEighth},
		{int64(0.2 * ppq), RhythmSixteenth},
		{int64(0.1 * ppq), RhythmThirtySecond},
		{1, RhythmSixtyFourth},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RhythmicValueFor(c.ticks, ppq), "ticks %d", c.ticks)
	}
}

func TestGrade(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A+"}, {97, "A+"}, {96.9, "A"},
		{93, "A"}, {90, "A-"}, {87, "B+"},
		{83, "B"}, {80, "B-"}, {77, "C+"},
		{73, "C"}, {70, "C-"}, {67, "D+"},
		{63, "D"}, {60, "D-"}, {59.9, "F"}, {0, "F"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Grade(c.score), "score %v", c.score)
	}
}
