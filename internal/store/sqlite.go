package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339

// migrations are applied in order; schema_version records the last one run.
var migrations = []string{
	`CREATE TABLE tasks (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id       TEXT    NOT NULL,
		seq              INTEGER NOT NULL,
		prompt           TEXT    NOT NULL DEFAULT '',
		cwd              TEXT    NOT NULL DEFAULT '',
		created_at       TEXT    NOT NULL,
		completed_at     TEXT,
		duration_seconds INTEGER,
		superseded       INTEGER NOT NULL DEFAULT 0,
		synthesized      INTEGER NOT NULL DEFAULT 0,
		UNIQUE (session_id, seq)
	)`,
	`CREATE INDEX idx_tasks_open ON tasks (session_id, completed_at)`,
	`CREATE TABLE sessions (
		session_id TEXT    PRIMARY KEY,
		last_seq   INTEGER NOT NULL
	)`,
	`CREATE TABLE dispatches (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT    NOT NULL DEFAULT '',
		task_seq   INTEGER NOT NULL DEFAULT 0,
		event_type TEXT    NOT NULL,
		backend    TEXT    NOT NULL DEFAULT '',
		outcome    TEXT    NOT NULL,
		title      TEXT    NOT NULL DEFAULT '',
		subtitle   TEXT    NOT NULL DEFAULT '',
		error      TEXT    NOT NULL DEFAULT '',
		created_at TEXT    NOT NULL
	)`,
	`CREATE INDEX idx_dispatches_session ON dispatches (session_id, created_at)`,
}

const taskColumns = `id, session_id, seq, prompt, cwd, created_at, completed_at, duration_seconds, superseded, synthesized`

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, zero CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
// The database file is created with 0600 permissions and its parent directory with 0700.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}

		// Pre-create the file with restrictive permissions if it doesn't exist
		if _, err := os.Stat(path); os.IsNotExist(err) {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return nil, fmt.Errorf("creating database file: %w", err)
			}
			_ = f.Close()
		}

		dsn = "file:" + path + "?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// OpenOrRecover opens the store at path. A file that SQLite cannot read as a
// database is moved aside to path.corrupt-<unix> and a fresh store is created,
// trading the old history for the ability to keep tracking.
func OpenOrRecover(path string, now time.Time) (*SQLiteStore, error) {
	s, err := NewSQLiteStore(path)
	if err == nil {
		return s, nil
	}
	if !isCorruption(err) {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, now.Unix())
	slog.Warn("task store unreadable, starting cold", "path", path, "moved_to", aside, "error", err)
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, fmt.Errorf("moving corrupt store aside: %w", rerr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}

	return NewSQLiteStore(path)
}

func isCorruption(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not a database") ||
		strings.Contains(msg, "malformed") ||
		strings.Contains(msg, "corrupt")
}

func (s *SQLiteStore) migrate() error {
	// Ensure schema_version table exists
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		slog.Debug("applying migration", "version", i+1)
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Tasks ---

// OpenTask supersedes any open task of the session and inserts a new one with
// the next sequence number, atomically.
func (s *SQLiteStore) OpenTask(sessionID, prompt, cwd string, now time.Time) (*TaskRecord, error) {
	now = now.UTC().Truncate(time.Second)

	var rec *TaskRecord
	err := s.inTx(func(tx *sql.Tx) error {
		open, err := queryTasks(tx, `SELECT `+taskColumns+` FROM tasks WHERE session_id = ? AND completed_at IS NULL`, sessionID)
		if err != nil {
			return err
		}
		for i := range open {
			prev := &open[i]
			stampCompletion(prev, now)
			if _, err := tx.Exec(`UPDATE tasks SET completed_at = ?, duration_seconds = ?, superseded = 1
				WHERE id = ? AND completed_at IS NULL`,
				formatTime(prev.CompletedAt), prev.DurationSeconds, prev.ID); err != nil {
				return fmt.Errorf("superseding task %d: %w", prev.ID, err)
			}
			slog.Debug("open task superseded", "session_id", sessionID, "seq", prev.Seq)
		}

		seq, err := nextSequence(tx, sessionID)
		if err != nil {
			return err
		}

		rec = &TaskRecord{SessionID: sessionID, Seq: seq, Prompt: prompt, Cwd: cwd, CreatedAt: now}
		res, err := tx.Exec(`INSERT INTO tasks (session_id, seq, prompt, cwd, created_at) VALUES (?, ?, ?, ?, ?)`,
			sessionID, seq, prompt, cwd, formatTime(now))
		if err != nil {
			return fmt.Errorf("inserting task: %w", err)
		}
		rec.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CloseTask completes the most recent open task of the session.
// Returns ErrNoOpenTask when there is none.
func (s *SQLiteStore) CloseTask(sessionID string, now time.Time) (*TaskRecord, error) {
	now = now.UTC().Truncate(time.Second)

	var rec *TaskRecord
	err := s.inTx(func(tx *sql.Tx) error {
		open, err := queryTasks(tx, `SELECT `+taskColumns+` FROM tasks
			WHERE session_id = ? AND completed_at IS NULL ORDER BY seq DESC LIMIT 1`, sessionID)
		if err != nil {
			return err
		}
		if len(open) == 0 {
			return ErrNoOpenTask
		}

		rec = &open[0]
		stampCompletion(rec, now)
		if _, err := tx.Exec(`UPDATE tasks SET completed_at = ?, duration_seconds = ?
			WHERE id = ? AND completed_at IS NULL`,
			formatTime(rec.CompletedAt), rec.DurationSeconds, rec.ID); err != nil {
			return fmt.Errorf("closing task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SynthesizeTask records a zero-duration task for a Stop that had no
// preceding prompt.
func (s *SQLiteStore) SynthesizeTask(sessionID, cwd string, now time.Time) (*TaskRecord, error) {
	now = now.UTC().Truncate(time.Second)

	var rec *TaskRecord
	err := s.inTx(func(tx *sql.Tx) error {
		seq, err := nextSequence(tx, sessionID)
		if err != nil {
			return err
		}
		rec = &TaskRecord{
			SessionID:   sessionID,
			Seq:         seq,
			Cwd:         cwd,
			CreatedAt:   now,
			CompletedAt: now,
			Synthesized: true,
		}
		res, err := tx.Exec(`INSERT INTO tasks (session_id, seq, cwd, created_at, completed_at, duration_seconds, synthesized)
			VALUES (?, ?, ?, ?, ?, 0, 1)`,
			sessionID, seq, cwd, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("inserting synthesized task: %w", err)
		}
		rec.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// NextSequence reserves and returns the next sequence number of a session.
func (s *SQLiteStore) NextSequence(sessionID string) (int, error) {
	var seq int
	err := s.inTx(func(tx *sql.Tx) error {
		var err error
		seq, err = nextSequence(tx, sessionID)
		return err
	})
	return seq, err
}

func (s *SQLiteStore) ActiveTask(sessionID string) (*TaskRecord, error) {
	tasks, err := queryTasks(s.db, `SELECT `+taskColumns+` FROM tasks
		WHERE session_id = ? AND completed_at IS NULL ORDER BY seq DESC LIMIT 1`, sessionID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNoOpenTask
	}
	return &tasks[0], nil
}

func (s *SQLiteStore) ListTasks(f TaskFilter) ([]TaskRecord, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE 1=1"
	var args []interface{}

	if f.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, f.SessionID)
	}
	if f.OpenOnly {
		query += " AND completed_at IS NULL"
	}
	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, formatTime(f.Since))
	}

	query += " ORDER BY created_at DESC, id DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return queryTasks(s.db, query, args...)
}

func (s *SQLiteStore) SessionSummary(sessionID string) (*SessionSummary, error) {
	sum := &SessionSummary{SessionID: sessionID}
	var firstSeen, lastSeen sql.NullString

	err := s.db.QueryRow(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN completed_at IS NOT NULL AND superseded = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(superseded), 0),
			COALESCE(SUM(duration_seconds), 0),
			COALESCE(MAX(duration_seconds), 0),
			MIN(created_at),
			MAX(COALESCE(completed_at, created_at))
		FROM tasks WHERE session_id = ?`, sessionID).
		Scan(&sum.Tasks, &sum.Completed, &sum.Superseded, &sum.TotalSeconds, &sum.LongestSeconds, &firstSeen, &lastSeen)
	if err != nil {
		return nil, fmt.Errorf("summarizing session: %w", err)
	}

	err = s.db.QueryRow("SELECT last_seq FROM sessions WHERE session_id = ?", sessionID).Scan(&sum.LastSeq)
	if errors.Is(err, sql.ErrNoRows) && sum.Tasks == 0 {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading session sequence: %w", err)
	}

	sum.FirstSeen = parseTime(firstSeen.String)
	sum.LastSeen = parseTime(lastSeen.String)

	open, err := s.ActiveTask(sessionID)
	if err != nil && !errors.Is(err, ErrNoOpenTask) {
		return nil, err
	}
	sum.Open = open

	return sum, nil
}

// --- Dispatches ---

func (s *SQLiteStore) AddDispatch(d *DispatchRecord) error {
	_, err := s.db.Exec(`INSERT INTO dispatches (session_id, task_seq, event_type, backend, outcome, title, subtitle, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SessionID, d.TaskSeq, d.EventType, d.Backend, d.Outcome, d.Title, d.Subtitle, d.Error, formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("adding dispatch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListDispatches(sessionID string, limit int) ([]DispatchRecord, error) {
	query := "SELECT id, session_id, task_seq, event_type, backend, outcome, title, subtitle, error, created_at FROM dispatches"
	var args []interface{}

	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing dispatches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DispatchRecord
	for rows.Next() {
		var d DispatchRecord
		var createdAt string
		if err := rows.Scan(&d.ID, &d.SessionID, &d.TaskSeq, &d.EventType, &d.Backend, &d.Outcome,
			&d.Title, &d.Subtitle, &d.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning dispatch: %w", err)
		}
		d.CreatedAt = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Maintenance ---

// Prune deletes completed tasks and dispatch rows created before the cutoff.
// Open tasks and session sequence counters are kept, so sequence numbers are
// never handed out twice.
func (s *SQLiteStore) Prune(before time.Time) (int64, error) {
	cutoff := formatTime(before)

	res, err := s.db.Exec("DELETE FROM tasks WHERE completed_at IS NOT NULL AND completed_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning tasks: %w", err)
	}
	n, _ := res.RowsAffected()

	if _, err := s.db.Exec("DELETE FROM dispatches WHERE created_at < ?", cutoff); err != nil {
		return n, fmt.Errorf("pruning dispatches: %w", err)
	}

	return n, nil
}

// --- Helpers ---

func (s *SQLiteStore) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func nextSequence(tx *sql.Tx, sessionID string) (int, error) {
	var seq int
	err := tx.QueryRow(`INSERT INTO sessions (session_id, last_seq) VALUES (?, 1)
		ON CONFLICT (session_id) DO UPDATE SET last_seq = last_seq + 1
		RETURNING last_seq`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("reserving sequence: %w", err)
	}
	return seq, nil
}

// stampCompletion sets completed_at no earlier than created_at, so the stored
// duration is never negative.
func stampCompletion(t *TaskRecord, now time.Time) {
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.CompletedAt = now
	t.DurationSeconds = int64(now.Sub(t.CreatedAt) / time.Second)
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryTasks(q querier, query string, args ...any) ([]TaskRecord, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []TaskRecord
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTaskRows(rows *sql.Rows) (*TaskRecord, error) {
	var t TaskRecord
	var createdAt string
	var completedAt sql.NullString
	var duration sql.NullInt64
	var superseded, synthesized int

	err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &t.Prompt, &t.Cwd,
		&createdAt, &completedAt, &duration, &superseded, &synthesized)
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.CreatedAt = parseTime(createdAt)
	t.CompletedAt = parseTime(completedAt.String)
	t.DurationSeconds = duration.Int64
	t.Superseded = superseded != 0
	t.Synthesized = synthesized != 0

	return &t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeFormat, s)
	return t
}
