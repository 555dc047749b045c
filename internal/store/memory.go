package store

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps task state for the lifetime of one process. It stands in
// for the file store when that cannot be locked or read.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	tasks      []TaskRecord
	seqs       map[string]int
	dispatches []DispatchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seqs: make(map[string]int)}
}

func (s *MemoryStore) OpenTask(sessionID, prompt, cwd string, now time.Time) (*TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.UTC().Truncate(time.Second)
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.SessionID == sessionID && t.Open() {
			stampCompletion(t, now)
			t.Superseded = true
		}
	}

	rec := s.insert(TaskRecord{SessionID: sessionID, Seq: s.reserve(sessionID), Prompt: prompt, Cwd: cwd, CreatedAt: now})
	return &rec, nil
}

func (s *MemoryStore) CloseTask(sessionID string, now time.Time) (*TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.openIndex(sessionID)
	if idx < 0 {
		return nil, ErrNoOpenTask
	}
	t := &s.tasks[idx]
	stampCompletion(t, now.UTC().Truncate(time.Second))
	rec := *t
	return &rec, nil
}

func (s *MemoryStore) SynthesizeTask(sessionID, cwd string, now time.Time) (*TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.UTC().Truncate(time.Second)
	rec := s.insert(TaskRecord{
		SessionID:   sessionID,
		Seq:         s.reserve(sessionID),
		Cwd:         cwd,
		CreatedAt:   now,
		CompletedAt: now,
		Synthesized: true,
	})
	return &rec, nil
}

func (s *MemoryStore) NextSequence(sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserve(sessionID), nil
}

func (s *MemoryStore) ActiveTask(sessionID string) (*TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.openIndex(sessionID)
	if idx < 0 {
		return nil, ErrNoOpenTask
	}
	rec := s.tasks[idx]
	return &rec, nil
}

func (s *MemoryStore) ListTasks(f TaskFilter) ([]TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []TaskRecord
	for _, t := range s.tasks {
		if f.SessionID != "" && t.SessionID != f.SessionID {
			continue
		}
		if f.OpenOnly && !t.Open() {
			continue
		}
		if !f.Since.IsZero() && t.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) SessionSummary(sessionID string) (*SessionSummary, error) {
	tasks, _ := s.ListTasks(TaskFilter{SessionID: sessionID})

	s.mu.Lock()
	lastSeq, known := s.seqs[sessionID]
	s.mu.Unlock()
	if !known {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}

	sum := &SessionSummary{SessionID: sessionID, LastSeq: lastSeq, Tasks: len(tasks)}
	for i := range tasks {
		t := tasks[i]
		switch {
		case t.Open():
			sum.Open = &t
		case t.Superseded:
			sum.Superseded++
		default:
			sum.Completed++
		}
		sum.TotalSeconds += t.DurationSeconds
		if t.DurationSeconds > sum.LongestSeconds {
			sum.LongestSeconds = t.DurationSeconds
		}
		if sum.FirstSeen.IsZero() || t.CreatedAt.Before(sum.FirstSeen) {
			sum.FirstSeen = t.CreatedAt
		}
		last := t.CreatedAt
		if !t.Open() {
			last = t.CompletedAt
		}
		if last.After(sum.LastSeen) {
			sum.LastSeen = last
		}
	}
	return sum, nil
}

func (s *MemoryStore) AddDispatch(d *DispatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *d
	rec.ID = int64(len(s.dispatches) + 1)
	s.dispatches = append(s.dispatches, rec)
	return nil
}

func (s *MemoryStore) ListDispatches(sessionID string, limit int) ([]DispatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []DispatchRecord
	for i := len(s.dispatches) - 1; i >= 0; i-- {
		d := s.dispatches[i]
		if sessionID != "" && d.SessionID != sessionID {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Prune(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tasks[:0]
	var n int64
	for _, t := range s.tasks {
		if !t.Open() && t.CompletedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) reserve(sessionID string) int {
	s.seqs[sessionID]++
	return s.seqs[sessionID]
}

func (s *MemoryStore) insert(t TaskRecord) TaskRecord {
	s.nextID++
	t.ID = s.nextID
	s.tasks = append(s.tasks, t)
	return t
}

func (s *MemoryStore) openIndex(sessionID string) int {
	for i := len(s.tasks) - 1; i >= 0; i-- {
		if s.tasks[i].SessionID == sessionID && s.tasks[i].Open() {
			return i
		}
	}
	return -1
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
