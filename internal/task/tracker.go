package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claudekit/nudge/internal/store"
)

// OpenFunc opens the durable store at path.
type OpenFunc func(path string, now time.Time) (store.Store, error)

func openSQLite(path string, now time.Time) (store.Store, error) {
	return store.OpenOrRecover(path, now)
}

// Tracker runs task operations against the shared store. Every call takes the
// store lock, opens the database, does one thing and releases both, because
// each hook invocation is a separate short-lived process.
type Tracker struct {
	dbPath      string
	lockTimeout time.Duration

	open     OpenFunc
	now      func() time.Time
	fallback *store.MemoryStore
	degraded bool
}

// NewTracker creates a Tracker for the database at dbPath.
func NewTracker(dbPath string, lockTimeout time.Duration) *Tracker {
	if lockTimeout <= 0 {
		lockTimeout = 2 * time.Second
	}
	return &Tracker{
		dbPath:      dbPath,
		lockTimeout: lockTimeout,
		open:        openSQLite,
		now:         time.Now,
		fallback:    store.NewMemoryStore(),
	}
}

// SetClock replaces the time source.
func (tr *Tracker) SetClock(now func() time.Time) {
	tr.now = now
}

// SetOpenFunc replaces how the durable store is opened.
func (tr *Tracker) SetOpenFunc(fn OpenFunc) {
	tr.open = fn
}

// Degraded reports whether any operation so far fell back to memory.
func (tr *Tracker) Degraded() bool {
	return tr.degraded
}

// OpenTask starts a task for a submitted prompt, superseding any task the
// session still has open.
func (tr *Tracker) OpenTask(ctx context.Context, sessionID, prompt, cwd string) (*Task, error) {
	var rec *store.TaskRecord
	err := tr.withStore(ctx, true, func(s store.Store) error {
		var err error
		rec, err = s.OpenTask(sessionID, prompt, cwd, tr.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("opening task: %w", err)
	}

	slog.Info("task opened", "session_id", sessionID, "seq", rec.Seq)
	return FromRecord(rec), nil
}

// CloseTask completes the open task of the session. A Stop with nothing open
// still yields a task: a synthesized zero-duration one.
func (tr *Tracker) CloseTask(ctx context.Context, sessionID, cwd string) (*Task, error) {
	var rec *store.TaskRecord
	err := tr.withStore(ctx, true, func(s store.Store) error {
		now := tr.now()
		var err error
		rec, err = s.CloseTask(sessionID, now)
		if errors.Is(err, store.ErrNoOpenTask) {
			slog.Info("stop without open task, synthesizing", "session_id", sessionID)
			rec, err = s.SynthesizeTask(sessionID, cwd, now)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("closing task: %w", err)
	}

	slog.Info("task closed",
		"session_id", sessionID,
		"seq", rec.Seq,
		"duration_seconds", rec.DurationSeconds,
		"synthesized", rec.Synthesized)
	return FromRecord(rec), nil
}

// RecordDispatch appends one notification outcome to the audit log.
func (tr *Tracker) RecordDispatch(ctx context.Context, d store.DispatchRecord) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = tr.now()
	}
	return tr.withStore(ctx, true, func(s store.Store) error {
		return s.AddDispatch(&d)
	})
}

// History lists tasks, newest first.
func (tr *Tracker) History(ctx context.Context, f store.TaskFilter) ([]*Task, error) {
	var recs []store.TaskRecord
	err := tr.withStore(ctx, false, func(s store.Store) error {
		var err error
		recs, err = s.ListTasks(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(recs))
	for i := range recs {
		tasks = append(tasks, FromRecord(&recs[i]))
	}
	return tasks, nil
}

// Summary aggregates one session.
func (tr *Tracker) Summary(ctx context.Context, sessionID string) (*store.SessionSummary, error) {
	var sum *store.SessionSummary
	err := tr.withStore(ctx, false, func(s store.Store) error {
		var err error
		sum, err = s.SessionSummary(sessionID)
		return err
	})
	return sum, err
}

// Dispatches returns the most recent audit rows for a session ("" for all).
func (tr *Tracker) Dispatches(ctx context.Context, sessionID string, limit int) ([]store.DispatchRecord, error) {
	var out []store.DispatchRecord
	err := tr.withStore(ctx, false, func(s store.Store) error {
		var err error
		out, err = s.ListDispatches(sessionID, limit)
		return err
	})
	return out, err
}

// Prune removes completed tasks older than retention.
func (tr *Tracker) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := tr.now().Add(-retention)
	var n int64
	err := tr.withStore(ctx, false, func(s store.Store) error {
		var err error
		n, err = s.Prune(cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("pruning: %w", err)
	}
	slog.Info("store pruned", "removed", n, "before", cutoff.Format(time.RFC3339))
	return n, nil
}

// withStore runs fn against the durable store under the file lock. With
// failOpen, a store that cannot be locked or opened is replaced by the
// in-process memory store and fn still runs.
func (tr *Tracker) withStore(ctx context.Context, failOpen bool, fn func(store.Store) error) error {
	lock := store.NewFileLock(tr.dbPath + ".lock")
	if err := lock.Acquire(ctx, tr.lockTimeout); err != nil {
		return tr.unavailable(failOpen, err, fn)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("releasing store lock", "error", err)
		}
	}()

	s, err := tr.open(tr.dbPath, tr.now())
	if err != nil {
		return tr.unavailable(failOpen, err, fn)
	}
	defer func() { _ = s.Close() }()

	return fn(s)
}

func (tr *Tracker) unavailable(failOpen bool, cause error, fn func(store.Store) error) error {
	err := fmt.Errorf("%w: %w", store.ErrStoreUnavailable, cause)
	if !failOpen {
		return err
	}
	slog.Warn("continuing without durable store", "path", tr.dbPath, "error", err)
	tr.degraded = true
	return fn(tr.fallback)
}
