package notify

import (
	"context"
	"errors"
	"os/exec"
	"sync"
)

// recorder is an ExecFunc that remembers every command instead of running it.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recorder) exec(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil, r.err
}

func (r *recorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// lookPathOf reports only the named tools as installed.
func lookPathOf(tools ...string) LookPathFunc {
	set := make(map[string]bool, len(tools))
	for _, t := range tools {
		set[t] = true
	}
	return func(file string) (string, error) {
		if set[file] {
			return "/usr/bin/" + file, nil
		}
		return "", exec.ErrNotFound
	}
}

// mockBackend is a configurable Backend.
type mockBackend struct {
	name        string
	available   bool
	suppression bool
	focused     bool
	relaying    bool
	deliverErr  error

	delivered []Notification
}

func (m *mockBackend) Name() string                     { return m.name }
func (m *mockBackend) Available(_ context.Context) bool { return m.available }
func (m *mockBackend) SupportsFocus() bool              { return m.suppression }
func (m *mockBackend) SupportsSuppression() bool        { return m.suppression }
func (m *mockBackend) Relaying() bool                   { return m.relaying }

func (m *mockBackend) IsFocused(_ context.Context, _ string) bool { return m.focused }

func (m *mockBackend) Deliver(_ context.Context, n Notification) error {
	m.delivered = append(m.delivered, n)
	return m.deliverErr
}

// fakeWindows is an in-memory WindowTracker.
type fakeWindows struct {
	reachable bool
	focused   map[string]bool
	tracked   map[string]bool
	trackErr  error
}

func newFakeWindows() *fakeWindows {
	return &fakeWindows{reachable: true, focused: map[string]bool{}, tracked: map[string]bool{}}
}

func (f *fakeWindows) Reachable(_ context.Context) bool { return f.reachable }

func (f *fakeWindows) Track(_ context.Context, sessionID string) error {
	if f.trackErr != nil {
		return f.trackErr
	}
	f.tracked[sessionID] = true
	return nil
}

func (f *fakeWindows) Untrack(sessionID string) error {
	delete(f.tracked, sessionID)
	return nil
}

func (f *fakeWindows) IsFocused(_ context.Context, sessionID string) bool {
	return f.focused[sessionID]
}

// fakeRelay records sent notifications.
type fakeRelay struct {
	enabled bool
	err     error
	sent    []Notification
}

func (f *fakeRelay) Enabled() bool { return f.enabled }

func (f *fakeRelay) Send(_ context.Context, n Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

var errBoom = errors.New("boom")
