package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/claudekit/nudge/internal/notify"
	"github.com/claudekit/nudge/internal/policy"
	"github.com/claudekit/nudge/internal/store"
	"github.com/claudekit/nudge/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusRunning    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // Cyan
	statusDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	statusSuperseded = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	statusMissing    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
)

// column is one fixed-width table column.
type column struct {
	title string
	width int
}

func writeRow(w io.Writer, cols []column, cells []string) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = lipgloss.NewStyle().Width(c.width).MaxWidth(c.width).Render(cells[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}

func writeHeader(w io.Writer, cols []column) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = headerStyle.Render(c.title)
	}
	writeRow(w, cols, cells)
}

var historyColumns = []column{
	{"#", 4},
	{"PROJECT", 18},
	{"SESSION", 10},
	{"STARTED", 16},
	{"DURATION", 10},
	{"STATUS", 11},
	{"PROMPT", 40},
}

// renderHistory prints tasks as a table, times relative to now.
func renderHistory(w io.Writer, tasks []*task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks recorded."))
		return
	}

	writeHeader(w, historyColumns)
	for _, t := range tasks {
		duration := "-"
		if t.HasMeasuredDuration() {
			duration = policy.FormatDuration(*t.DurationSeconds)
		}
		writeRow(w, historyColumns, []string{
			fmt.Sprintf("%d", t.Seq),
			oneLine(t.DisplayName(), 18),
			shortID(t.SessionID),
			humanize.RelTime(t.CreatedAt, now, "ago", "from now"),
			duration,
			taskStatus(t),
			oneLine(t.Prompt, 40),
		})
	}
}

var dispatchColumns = []column{
	{"SENT", 16},
	{"SESSION", 10},
	{"#", 4},
	{"EVENT", 18},
	{"BACKEND", 8},
	{"OUTCOME", 10},
	{"TITLE", 40},
}

// renderDispatches prints the notification audit trail, newest first.
func renderDispatches(w io.Writer, dispatches []store.DispatchRecord, now time.Time) {
	if len(dispatches) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No notifications recorded."))
		return
	}

	writeHeader(w, dispatchColumns)
	for _, d := range dispatches {
		seq := "-"
		if d.TaskSeq > 0 {
			seq = fmt.Sprintf("%d", d.TaskSeq)
		}
		writeRow(w, dispatchColumns, []string{
			humanize.RelTime(d.CreatedAt, now, "ago", "from now"),
			shortID(d.SessionID),
			seq,
			d.EventType,
			d.Backend,
			outcomeStatus(d.Outcome),
			oneLine(d.Title, 40),
		})
	}
}

func outcomeStatus(outcome string) string {
	switch notify.Status(outcome) {
	case notify.StatusDelivered, notify.StatusRelayed:
		return statusDone.Render(outcome)
	case notify.StatusSuppressed, notify.StatusSkipped:
		return mutedStyle.Render(outcome)
	default:
		return statusMissing.Render(outcome)
	}
}

func taskStatus(t *task.Task) string {
	switch {
	case t.IsOpen():
		return statusRunning.Render("running")
	case t.Superseded:
		return statusSuperseded.Render("superseded")
	case t.Synthesized:
		return statusMissing.Render("no prompt")
	default:
		return statusDone.Render("done")
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func yesNo(b bool) string {
	if b {
		return statusDone.Render("yes")
	}
	return mutedStyle.Render("no")
}
