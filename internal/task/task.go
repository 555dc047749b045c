package task

import (
	"path/filepath"
	"time"

	"github.com/claudekit/nudge/internal/store"
)

// Task is one unit of work: a prompt submitted to Claude Code and the
// response that followed it.
type Task struct {
	ID               int64
	SessionID        string
	Seq              int
	Prompt           string
	WorkingDirectory string

	CreatedAt       time.Time
	CompletedAt     *time.Time
	DurationSeconds *int64

	Superseded  bool // closed by a newer prompt in the same session
	Synthesized bool // created by a Stop that had no open task
}

// FromRecord converts a persisted row into a Task.
func FromRecord(r *store.TaskRecord) *Task {
	if r == nil {
		return nil
	}
	t := &Task{
		ID:               r.ID,
		SessionID:        r.SessionID,
		Seq:              r.Seq,
		Prompt:           r.Prompt,
		WorkingDirectory: r.Cwd,
		CreatedAt:        r.CreatedAt,
		Superseded:       r.Superseded,
		Synthesized:      r.Synthesized,
	}
	if !r.Open() {
		completed := r.CompletedAt
		duration := r.DurationSeconds
		t.CompletedAt = &completed
		t.DurationSeconds = &duration
	}
	return t
}

// IsOpen reports whether the task is still waiting for its Stop.
func (t *Task) IsOpen() bool {
	return t.CompletedAt == nil
}

// Duration returns the recorded duration, or zero while the task is open.
func (t *Task) Duration() time.Duration {
	if t.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*t.DurationSeconds) * time.Second
}

// HasMeasuredDuration is false for open and synthesized tasks, whose duration
// says nothing about how long Claude worked.
func (t *Task) HasMeasuredDuration() bool {
	return !t.IsOpen() && !t.Synthesized
}

// DisplayName is the project the task ran in.
func (t *Task) DisplayName() string {
	return ProjectName(t.WorkingDirectory)
}

// ProjectName is the last path element of dir, or "Claude Code" when dir
// says nothing useful.
func ProjectName(dir string) string {
	if dir == "" {
		return "Claude Code"
	}
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "Claude Code"
	}
	return base
}
