package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrBackendUnavailable means a backend's prerequisites are missing on this host.
	ErrBackendUnavailable = errors.New("notification backend unavailable")
	// ErrDeliveryFailed means the backend accepted the notification but the OS command failed.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// DefaultCommandTimeout bounds every OS command a backend runs.
const DefaultCommandTimeout = 5 * time.Second

// Backend delivers notifications through one OS mechanism.
type Backend interface {
	Name() string
	Available(ctx context.Context) bool
	Deliver(ctx context.Context, n Notification) error
	SupportsFocus() bool
	SupportsSuppression() bool
}

// SessionObserver is implemented by backends that keep per-session state,
// such as the window a session runs in.
type SessionObserver interface {
	SessionStarted(ctx context.Context, sessionID string) error
	SessionEnded(ctx context.Context, sessionID string) error
}

// FocusChecker is implemented by backends that can tell whether the user is
// already looking at a session.
type FocusChecker interface {
	IsFocused(ctx context.Context, sessionID string) bool
}

// ExecFunc runs an external command and returns its combined output.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// LookPathFunc reports where a command lives, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

func defaultExec(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return out, err
		}
		return out, fmt.Errorf("%w: %s", err, trimmed)
	}
	return out, nil
}

// runner carries the command plumbing shared by the local backends.
type runner struct {
	exec     ExecFunc
	lookPath LookPathFunc
	timeout  time.Duration
}

func newRunner(execFn ExecFunc) runner {
	if execFn == nil {
		execFn = defaultExec
	}
	return runner{exec: execFn, lookPath: exec.LookPath, timeout: DefaultCommandTimeout}
}

func (r runner) run(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.exec(ctx, name, args...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, name, err)
	}
	return nil
}

func (r runner) has(name string) bool {
	_, err := r.lookPath(name)
	return err == nil
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
