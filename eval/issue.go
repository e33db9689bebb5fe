package eval

import "sort"

// Severity ranks how much attention an Issue deserves.
type Severity string

const (
	SeverityInfo        Severity = "info"
	SeverityMinor       Severity = "minor"
	SeverityModerate    Severity = "moderate"
	SeveritySignificant Severity = "significant"
	SeverityCritical    Severity = "critical"
)

// severityRank orders Severity for descending sort, highest first.
var severityRank = map[Severity]int{
	SeverityCritical:    4,
	SeveritySignificant: 3,
	SeverityModerate:    2,
	SeverityMinor:       1,
	SeverityInfo:        0,
}

// IssueType names the kind of structured feedback an evaluator raised.
type IssueType string

const (
	IssueWrongNote     IssueType = "WrongNote"
	IssueOctaveError   IssueType = "OctaveError"
	IssueMissedNote    IssueType = "MissedNote"
	IssueExtraNote     IssueType = "ExtraNote"
	IssueRushedNote    IssueType = "RushedNote"
	IssueDraggedNote   IssueType = "DraggedNote"
	IssueUnevenTiming  IssueType = "UnevenTiming"
	IssueTempoTooFast  IssueType = "TempoTooFast"
	IssueTempoTooSlow  IssueType = "TempoTooSlow"
	IssueTempoUnstable IssueType = "TempoUnstable"
	IssueLocalTempo    IssueType = "LocalTempoIssue"
	IssueAccelerating  IssueType = "Accelerating"
	IssueDecelerating  IssueType = "Decelerating"
)

// Issue is one piece of structured, user-visible feedback.
type Issue struct {
	Severity    Severity
	Type        IssueType
	Description string

	Measure *int
	Beat    *float64

	ScoreNoteID       *NoteID
	PerformanceNoteID *NoteID

	Suggestion string
}

// dedupeIssues collapses duplicate issues (same score note id and type),
// keeping the first occurrence.
func dedupeIssues(issues []Issue) []Issue {
	type key struct {
		id NoteID
		t  IssueType
	}
	seen := make(map[key]bool, len(issues))
	out := make([]Issue, 0, len(issues))
	for _, iss := range issues {
		var id NoteID
		if iss.ScoreNoteID != nil {
			id = *iss.ScoreNoteID
		}
		k := key{id: id, t: iss.Type}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, iss)
	}
	return out
}

// sortIssuesBySeverity orders issues by severity descending, stable on
// ties so emission order within a severity band is preserved.
func sortIssuesBySeverity(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return severityRank[issues[i].Severity] > severityRank[issues[j].Severity]
	})
}
