package eval

import (
	"math"
	"sort"
)

// voiceKeyForPitch buckets a pitch into one of four ranges used as the
// fallback voice-separation heuristic when no staff information is
// available: >=72 soprano(0), 60-71 alto(1), 48-59 tenor(2), <48 bass(3).
func voiceKeyForPitch(pitch uint8) int {
	switch {
	case pitch >= 72:
		return 0
	case pitch >= 60:
		return 1
	case pitch >= 48:
		return 2
	default:
		return 3
	}
}

// scoreVoiceKey returns the voice bucket for a score note: the notated
// Staff field when present (1 => treble bucket 0, 2 => bass bucket 3),
// else the pitch-range heuristic of voiceKeyForPitch. Performance notes
// take the voice of their nearest score note, so both share one key space.
func scoreVoiceKey(n ScoreNote) int {
	switch n.Staff {
	case 1:
		return 0
	case 2:
		return 3
	default:
		return voiceKeyForPitch(n.Pitch)
	}
}

// greedyVoiceTrack is one in-progress voice during greedy assignment.
type greedyVoiceTrack struct {
	lastPitch int
	lastEndMs float64
}

// greedySeparateScore assigns score notes to voices by greedily joining
// the track whose last note doesn't overlap this one in time and is
// closest in pitch, opening a new track when no existing one qualifies.
// Used only when no note in the score carries staff information.
func greedySeparateScore(notes []ScoreNote, maxVoices int) map[NoteID]int {
	sorted := append([]ScoreNote(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMs < sorted[j].StartMs })

	var tracks []greedyVoiceTrack
	assignment := make(map[NoteID]int, len(notes))

	for _, n := range sorted {
		best := -1
		bestDist := math.MaxInt
		for ti, t := range tracks {
			if t.lastEndMs > n.StartMs {
				continue // would overlap
			}
			dist := int(n.Pitch) - t.lastPitch
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				bestDist = dist
				best = ti
			}
		}
		if best == -1 {
			if len(tracks) < maxVoices {
				tracks = append(tracks, greedyVoiceTrack{lastPitch: int(n.Pitch), lastEndMs: n.EndMs()})
				best = len(tracks) - 1
			} else {
				// All tracks full and overlapping: join the one ending
				// soonest to minimize further collisions.
				best = 0
				for ti, t := range tracks {
					if t.lastEndMs < tracks[best].lastEndMs {
						best = ti
					}
				}
			}
		}
		tracks[best].lastPitch = int(n.Pitch)
		tracks[best].lastEndMs = n.EndMs()
		assignment[n.ID] = best
	}
	return assignment
}

// groupScoreByVoice partitions score notes into voices using the Staff
// field where any note has one set, else the greedy heuristic above.
func groupScoreByVoice(score *Score) map[int][]ScoreNote {
	hasStaff := false
	for _, n := range score.Notes {
		if n.Staff != 0 {
			hasStaff = true
			break
		}
	}

	groups := make(map[int][]ScoreNote)
	if hasStaff {
		for _, n := range score.Notes {
			key := scoreVoiceKey(n)
			groups[key] = append(groups[key], n)
		}
		return groups
	}

	assignment := greedySeparateScore(score.Notes, 4)
	for _, n := range score.Notes {
		key := assignment[n.ID]
		groups[key] = append(groups[key], n)
	}
	return groups
}

// scoreVoiceIndex builds the time-sorted score notes and a lookup from
// note id to voice key, so performance notes can be placed into the same
// key space the score voices were built in (whether that came from
// Staff fields or the greedy heuristic).
func scoreVoiceIndex(score *Score, scoreVoices map[int][]ScoreNote) (sorted []ScoreNote, voiceByID map[NoteID]int) {
	voiceByID = make(map[NoteID]int, len(score.Notes))
	for key, notes := range scoreVoices {
		for _, n := range notes {
			voiceByID[n.ID] = key
		}
	}
	sorted = append([]ScoreNote(nil), score.Notes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMs < sorted[j].StartMs })
	return sorted, voiceByID
}

// groupPerformanceByVoice partitions performance notes into the same
// voice-key space as scoreVoices: each performance note's onset is mapped
// into score time (via the coarse DTW tempo/offset estimate) and assigned
// the voice of the nearest score note in time. Bucketing performance
// notes by an independent absolute pitch range (as §4.5 literally
// describes) can land a note in a different key space than its own score
// voice whenever a single voice's pitches straddle a bucket boundary;
// anchoring to the nearest time-mapped score note keeps both sides in one
// key space instead.
func groupPerformanceByVoice(score *Score, scoreVoices map[int][]ScoreNote, performance *Performance, mapToScoreMs func(float64) float64) map[int][]PerformanceNote {
	sorted, voiceByID := scoreVoiceIndex(score, scoreVoices)

	groups := make(map[int][]PerformanceNote)
	for _, n := range performance.Notes {
		key := voiceKeyForPitch(n.Pitch) // fallback when the score has no notes
		if idx := nearestScoreIndexByMs(sorted, mapToScoreMs(n.StartMs)); idx >= 0 {
			key = voiceByID[sorted[idx].ID]
		}
		groups[key] = append(groups[key], n)
	}
	return groups
}

// nearestScoreIndexByMs returns the index into a StartMs-sorted slice of
// the note whose StartMs is closest to ms, or -1 if sorted is empty.
func nearestScoreIndexByMs(sorted []ScoreNote, ms float64) int {
	if len(sorted) == 0 {
		return -1
	}
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].StartMs >= ms })
	if idx == 0 {
		return 0
	}
	if idx >= len(sorted) {
		return len(sorted) - 1
	}
	if absF(sorted[idx].StartMs-ms) < absF(sorted[idx-1].StartMs-ms) {
		return idx
	}
	return idx - 1
}
