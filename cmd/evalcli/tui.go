package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ako-dev/perfeval/eval"
)

// Colors, following the teacher's live-display palette: cyan for the
// active/primary element, yellow for secondary information, green for
// positive/accent feedback, gray for dimmed chrome.
var (
	primaryColor = lipgloss.Color("#00FFFF")
	accentColor  = lipgloss.Color("#00FF00")
	warnColor    = lipgloss.Color("#FFFF00")
	errColor     = lipgloss.Color("#FF6666")
	dimColor     = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	scoreStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	dimStyle   = lipgloss.NewStyle().Foreground(dimColor)

	severityStyles = map[eval.Severity]lipgloss.Style{
		eval.SeverityInfo:        lipgloss.NewStyle().Foreground(dimColor),
		eval.SeverityMinor:       lipgloss.NewStyle().Foreground(warnColor),
		eval.SeverityModerate:    lipgloss.NewStyle().Foreground(warnColor).Bold(true),
		eval.SeveritySignificant: lipgloss.NewStyle().Foreground(errColor),
		eval.SeverityCritical:    lipgloss.NewStyle().Foreground(errColor).Bold(true),
	}
)

// tickMsg advances the replay by one recorded event.
type tickMsg time.Time

// replayModel is the bubbletea Model for the "listen" subcommand: it steps
// through a pre-built replay timeline, driving a RealTimeDriver and
// rendering its rolling progress and most recent feedback/error.
type replayModel struct {
	score    *eval.Score
	driver   *eval.RealTimeDriver
	timeline []replayEvent
	index    int

	progress eval.ProgressReport
	lastFeedback *eval.RealTimeFeedback
	lastError    *eval.RealTimeError

	final *eval.EvaluationResult
	done  bool
	err   error
}

// runReplayTUI builds a RealTimeDriver over score, replays performance's
// recorded events through it, and runs the bubbletea program until the
// timeline is exhausted.
func runReplayTUI(score *eval.Score, performance *eval.Performance) error {
	timeline := buildReplayTimeline(performance)

	m := &replayModel{score: score, timeline: timeline}
	opts := eval.DefaultOptions()
	m.driver = eval.NewRealTimeDriver(score, opts, eval.NewSyntheticClock(),
		func(f eval.RealTimeFeedback) {
			fb := f
			m.lastFeedback = &fb
		},
		func(e eval.RealTimeError) {
			re := e
			m.lastError = &re
		},
	)
	m.driver.Start()

	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if rm, ok := finalModel.(*replayModel); ok && rm.err != nil {
		return rm.err
	}
	return nil
}

func (m *replayModel) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *replayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.driver.Stop()
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		if m.index >= len(m.timeline) {
			m.driver.Stop()
			final, err := m.driver.FinalEvaluation()
			m.final = final
			m.err = err
			m.done = true
			return m, nil
		}

		m.timeline[m.index].apply(m.driver)
		m.index++
		m.progress = m.driver.Progress()

		return m, tea.Tick(time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

func (m *replayModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("perfeval — live feedback"))
	b.WriteString("\n\n")

	pct := m.progress.ProgressPercent
	b.WriteString(fmt.Sprintf("measure %d   %s\n", m.progress.CurrentMeasure, scoreStyle.Render(fmt.Sprintf("%.0f%%", pct))))
	if m.progress.Degraded {
		b.WriteString(severityStyles[eval.SeverityModerate].Render("degraded mode: a window alignment exceeded its latency budget") + "\n")
	}
	b.WriteString("\n")

	if m.lastError != nil {
		b.WriteString(severityStyles[eval.SeveritySignificant].Render(fmt.Sprintf("! %s", m.lastError.Message)) + "\n")
	}
	if m.lastFeedback != nil {
		for _, iss := range m.lastFeedback.Issues {
			style := severityStyles[iss.Severity]
			b.WriteString(style.Render(fmt.Sprintf("[%s] %s", iss.Type, iss.Description)) + "\n")
		}
		if m.lastFeedback.Message != "" {
			b.WriteString(dimStyle.Render(m.lastFeedback.Message) + "\n")
		}
	}

	if m.done && m.final != nil {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("final evaluation") + "\n")
		b.WriteString(fmt.Sprintf("overall %s  (%s)\n",
			scoreStyle.Render(fmt.Sprintf("%.1f", m.final.OverallScore)), m.final.Grade))
		b.WriteString(fmt.Sprintf("note accuracy %.1f   rhythm %.1f   tempo %.1f\n",
			m.final.NoteAccuracy.Score, m.final.Rhythm.Score, m.final.Tempo.Score))
		b.WriteString(dimStyle.Render("press q to exit") + "\n")
	}

	return b.String()
}
