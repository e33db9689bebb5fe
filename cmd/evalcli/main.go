// Command evalcli drives the performance evaluation engine from the
// command line: a one-shot batch evaluation over fixture files, or a
// "listen" replay that feeds a recorded MIDI performance through the
// real-time driver as if it were live input.
package main

import (
	"fmt"
	"os"

	"github.com/ako-dev/perfeval/config"
	"github.com/ako-dev/perfeval/eval"
	"github.com/ako-dev/perfeval/midiio"
)

func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	switch command {
	case "evaluate":
		if len(args) < 3 {
			fmt.Println("Error: evaluate requires a score YAML and a performance YAML")
			printUsage()
			os.Exit(1)
		}
		if err := runEvaluate(args[1], args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "evalcli: %v\n", err)
			os.Exit(1)
		}
	case "listen":
		if len(args) < 3 {
			fmt.Println("Error: listen requires a score YAML and a performance MIDI file")
			printUsage()
			os.Exit(1)
		}
		if err := runListen(args[1], args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "evalcli: %v\n", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  evalcli evaluate <score.yaml> <performance.yaml>   run the batch pipeline and print a report")
	fmt.Println("  evalcli listen <score.yaml> <performance.mid>      replay a recorded MIDI performance through the real-time driver with live feedback")
}

// runEvaluate loads a score/performance pair and prints a batch evaluation
// report to stdout.
func runEvaluate(scorePath, performancePath string) error {
	score, err := config.LoadScoreFixture(scorePath)
	if err != nil {
		return fmt.Errorf("failed to load score: %w", err)
	}
	performance, err := config.LoadPerformanceFixture(performancePath)
	if err != nil {
		return fmt.Errorf("failed to load performance: %w", err)
	}

	result, err := eval.Evaluate(score, performance, eval.DefaultOptions())
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	printReport(result)
	return nil
}

// printReport renders an EvaluationResult as a plain-text summary, in the
// teacher's fmt.Println-based reporting style (no structured logger).
func printReport(result *eval.EvaluationResult) {
	fmt.Printf("Overall: %.1f (%s)\n", result.OverallScore, result.Grade)
	fmt.Printf("  Note accuracy: %.1f  (correct %d, octave %d, wrong %d, missed %d, extra %d)\n",
		result.NoteAccuracy.Score, result.NoteAccuracy.Correct, result.NoteAccuracy.OctaveErrors,
		result.NoteAccuracy.Wrong, result.NoteAccuracy.Missed, result.NoteAccuracy.Extra)
	fmt.Printf("  Rhythm:        %.1f  (mean %.1fms, abs %.1fms, stddev %.1fms)\n",
		result.Rhythm.Score, result.Rhythm.MeanDeviationMs, result.Rhythm.MeanAbsDeviationMs, result.Rhythm.StdDevMs)
	fmt.Printf("  Tempo:         %.1f  (%.1f BPM, deviation %.1f%%, trend %s)\n",
		result.Tempo.Score, result.Tempo.OverallMeanBPM, result.Tempo.OverallDeviation*100, result.Tempo.Trend)

	for _, iss := range result.NoteAccuracy.Issues {
		printIssue(iss)
	}
	for _, iss := range result.Rhythm.Issues {
		printIssue(iss)
	}
	for _, iss := range result.Tempo.Issues {
		printIssue(iss)
	}
}

func printIssue(iss eval.Issue) {
	location := ""
	if iss.Measure != nil {
		location = fmt.Sprintf(" (measure %d)", *iss.Measure)
	}
	fmt.Printf("  [%s] %s: %s%s\n", iss.Severity, iss.Type, iss.Description, location)
}

// runListen loads a score and a recorded performance MIDI file, then
// replays the performance's note/pedal events through a RealTimeDriver on
// a synthetic clock, rendering live feedback with the bubbletea TUI.
func runListen(scorePath, performanceMidiPath string) error {
	score, err := config.LoadScoreFixture(scorePath)
	if err != nil {
		return fmt.Errorf("failed to load score: %w", err)
	}
	performance, err := midiio.LoadPerformance(performanceMidiPath)
	if err != nil {
		return fmt.Errorf("failed to load performance MIDI: %w", err)
	}

	return runReplayTUI(score, performance)
}
