package eval

import "fmt"

// sharpNames are the 12 pitch-class spellings used by NoteName, always
// sharp (never flat), matching the source reference fixtures bit-exactly.
var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI pitch as e.g. "C4" (MIDI 60 = "C4").
func NoteName(pitch uint8) string {
	name := sharpNames[int(pitch)%12]
	octave := int(pitch)/12 - 1
	return fmt.Sprintf("%s%d", name, octave)
}

// DynamicLevel is a velocity-derived dynamic bucket.
type DynamicLevel string

const (
	DynamicSilent DynamicLevel = "silent"
	DynamicPP     DynamicLevel = "pp"
	DynamicP      DynamicLevel = "p"
	DynamicMP     DynamicLevel = "mp"
	DynamicMF     DynamicLevel = "mf"
	DynamicF      DynamicLevel = "f"
	DynamicFF     DynamicLevel = "ff"
)

// DynamicLevelFor buckets a velocity 0-127 into a dynamic level per
// spec §6: 0 silent; 1-31 pp; 32-47 p; 48-63 mp; 64-79 mf; 80-95 f; 96-127 ff.
func DynamicLevelFor(velocity uint8) DynamicLevel {
	switch {
	case velocity == 0:
		return DynamicSilent
	case velocity <= 31:
		return DynamicPP
	case velocity <= 47:
		return DynamicP
	case velocity <= 63:
		return DynamicMP
	case velocity <= 79:
		return DynamicMF
	case velocity <= 95:
		return DynamicF
	default:
		return DynamicFF
	}
}

// RhythmicValue names a notated duration, including triplet variants.
type RhythmicValue string

const (
	RhythmWhole          RhythmicValue = "whole"
	RhythmDottedHalf     RhythmicValue = "dotted_half"
	RhythmHalf           RhythmicValue = "half"
	RhythmDottedQuarter  RhythmicValue = "dotted_quarter"
	RhythmQuarter        RhythmicValue = "quarter"
	RhythmDottedEighth   RhythmicValue = "dotted_eighth"
	RhythmEighth         RhythmicValue = "eighth"
	RhythmSixteenth      RhythmicValue = "sixteenth"
	RhythmThirtySecond   RhythmicValue = "thirty_second"
	RhythmSixtyFourth    RhythmicValue = "sixty_fourth"

	// Triplet variants, distinguished by the IsTuplet/TupletInfo fields on
	// ScoreNote rather than by a separate bucketing function; these names
	// are used when callers want to tag a plain value as triplet-grouped.
	RhythmWholeTriplet     RhythmicValue = "whole_triplet"
	RhythmHalfTriplet      RhythmicValue = "half_triplet"
	RhythmQuarterTriplet   RhythmicValue = "quarter_triplet"
	RhythmEighthTriplet    RhythmicValue = "eighth_triplet"
	RhythmSixteenthTriplet RhythmicValue = "sixteenth_triplet"
)

// RhythmicValueFor buckets duration_ticks/ppq (in quarter notes) per
// spec §6: >=3.8 whole; >=2.8 dotted-half; >=1.8 half; >=1.4 dotted-quarter;
// >=0.9 quarter; >=0.7 dotted-eighth; >=0.45 eighth; >=0.2 sixteenth;
// >=0.1 thirty-second; else sixty-fourth.
func RhythmicValueFor(durationTicks int64, ppq int) RhythmicValue {
	if ppq <= 0 {
		return RhythmQuarter
	}
	quarters := float64(durationTicks) / float64(ppq)

	switch {
	case quarters >= 3.8:
		return RhythmWhole
	case quarters >= 2.8:
		return RhythmDottedHalf
	case quarters >= 1.8:
		return RhythmHalf
	case quarters >= 1.4:
		return RhythmDottedQuarter
	case quarters >= 0.9:
		return RhythmQuarter
	case quarters >= 0.7:
		return RhythmDottedEighth
	case quarters >= 0.45:
		return RhythmEighth
	case quarters >= 0.2:
		return RhythmSixteenth
	case quarters >= 0.1:
		return RhythmThirtySecond
	default:
		return RhythmSixtyFourth
	}
}

// Grade converts a 0-100 evaluation score into a letter grade per spec §6.
func Grade(score float64) string {
	switch {
	case score >= 97:
		return "A+"
	case score >= 93:
		return "A"
	case score >= 90:
		return "A-"
	case score >= 87:
		return "B+"
	case score >= 83:
		return "B"
	case score >= 80:
		return "B-"
	case score >= 77:
		return "C+"
	case score >= 73:
		return "C"
	case score >= 70:
		return "C-"
	case score >= 67:
		return "D+"
	case score >= 63:
		return "D"
	case score >= 60:
		return "D-"
	default:
		return "F"
	}
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
