package store

import (
	"errors"
	"time"
)

// Store is the persistence interface for task history.
// Defined at the consumer side per Go conventions.
type Store interface {
	// Tasks
	OpenTask(sessionID, prompt, cwd string, now time.Time) (*TaskRecord, error)
	CloseTask(sessionID string, now time.Time) (*TaskRecord, error)
	SynthesizeTask(sessionID, cwd string, now time.Time) (*TaskRecord, error)
	NextSequence(sessionID string) (int, error)
	ActiveTask(sessionID string) (*TaskRecord, error)
	ListTasks(f TaskFilter) ([]TaskRecord, error)
	SessionSummary(sessionID string) (*SessionSummary, error)

	// Dispatch audit trail
	AddDispatch(d *DispatchRecord) error
	ListDispatches(sessionID string, limit int) ([]DispatchRecord, error)

	// Maintenance
	Prune(before time.Time) (int64, error)
	Close() error
}

var (
	// ErrNoOpenTask is returned by CloseTask when the session has no open task.
	ErrNoOpenTask = errors.New("no open task for session")
	// ErrStoreUnavailable means the durable store could not be used for this invocation.
	ErrStoreUnavailable = errors.New("task store unavailable")
	// ErrLockTimeout means the store lock was not acquired within the bounded wait.
	ErrLockTimeout = errors.New("store lock timeout")
)

// TaskRecord represents a persisted task.
type TaskRecord struct {
	ID              int64
	SessionID       string
	Seq             int
	Prompt          string
	Cwd             string
	CreatedAt       time.Time
	CompletedAt     time.Time // zero while open
	DurationSeconds int64
	Superseded      bool
	Synthesized     bool
}

// Open reports whether the task has not completed yet.
func (t *TaskRecord) Open() bool {
	return t.CompletedAt.IsZero()
}

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	SessionID string
	OpenOnly  bool
	Limit     int
	Since     time.Time
}

// SessionSummary aggregates the tasks of one session.
type SessionSummary struct {
	SessionID      string
	Tasks          int
	Completed      int
	Superseded     int
	TotalSeconds   int64
	LongestSeconds int64
	LastSeq        int
	FirstSeen      time.Time
	LastSeen       time.Time
	Open           *TaskRecord
}

// DispatchRecord is one notification outcome kept for audit.
type DispatchRecord struct {
	ID        int64
	SessionID string
	TaskSeq   int
	EventType string
	Backend   string
	Outcome   string // delivered, suppressed, relayed, failed, skipped
	Title     string
	Subtitle  string
	Error     string
	CreatedAt time.Time
}
