package window

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// FocusResult is what a focus request achieved.
type FocusResult string

const (
	FocusFocused   FocusResult = "focused"
	FocusGone      FocusResult = "gone"
	FocusUntracked FocusResult = "untracked"
	FocusFailed    FocusResult = "failed"
)

// entry is the on-disk form of one tracked session.
type entry struct {
	SessionID string    `json:"session_id"`
	Handle    Handle    `json:"handle"`
	TrackedAt time.Time `json:"tracked_at"`
}

// Registry maps sessions to window handles. Handles only mean something
// while the windowing session that issued them lives, so they are kept in
// a runtime directory rather than the task store.
type Registry struct {
	dir string
	mgr Manager
	now func() time.Time
}

// NewRegistry keeps handles under dir. mgr may be nil, in which case nothing
// can be tracked.
func NewRegistry(dir string, mgr Manager) *Registry {
	if dir == "" {
		dir = DefaultStateDir()
	}
	return &Registry{dir: dir, mgr: mgr, now: time.Now}
}

// DefaultStateDir is $XDG_RUNTIME_DIR/nudge/windows, or a per-user directory
// under the OS temp dir.
func DefaultStateDir() string {
	if rt := os.Getenv("XDG_RUNTIME_DIR"); rt != "" {
		return filepath.Join(rt, "nudge", "windows")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("nudge-%d", os.Getuid()), "windows")
}

// Manager returns the window manager in use, or nil.
func (r *Registry) Manager() Manager {
	return r.mgr
}

func (r *Registry) Reachable(ctx context.Context) bool {
	return r.mgr != nil && r.mgr.Reachable(ctx)
}

// Track records the window the calling process runs in for sessionID.
func (r *Registry) Track(ctx context.Context, sessionID string) error {
	if r.mgr == nil {
		return ErrUnreachable
	}
	h, err := r.mgr.Current(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return fmt.Errorf("creating window state directory: %w", err)
	}
	data, err := json.Marshal(entry{SessionID: sessionID, Handle: h, TrackedAt: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding window handle: %w", err)
	}

	path := r.path(sessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing window handle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing window handle: %w", err)
	}
	return nil
}

// Untrack forgets sessionID. Forgetting an unknown session is not an error.
func (r *Registry) Untrack(sessionID string) error {
	err := os.Remove(r.path(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing window handle: %w", err)
	}
	return nil
}

// Lookup returns the handle tracked for sessionID.
func (r *Registry) Lookup(sessionID string) (Handle, bool) {
	data, err := os.ReadFile(r.path(sessionID))
	if err != nil {
		return Handle{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		slog.Warn("discarding unreadable window handle", "session_id", sessionID, "error", err)
		_ = r.Untrack(sessionID)
		return Handle{}, false
	}
	if e.SessionID != sessionID {
		return Handle{}, false
	}
	return e.Handle, true
}

// IsFocused reports whether the session's window holds input focus. Any
// doubt answers false, so a notification is shown rather than lost.
func (r *Registry) IsFocused(ctx context.Context, sessionID string) bool {
	h, ok := r.Lookup(sessionID)
	if !ok || r.mgr == nil || h.Manager != r.mgr.Name() {
		return false
	}
	focused, err := r.mgr.Focused(ctx)
	if err != nil {
		slog.Debug("focus query failed", "error", err)
		return false
	}
	return focused.ID == h.ID
}

// Focus raises the session's window.
func (r *Registry) Focus(ctx context.Context, sessionID string) FocusResult {
	h, ok := r.Lookup(sessionID)
	if !ok {
		return FocusUntracked
	}
	if r.mgr == nil {
		return FocusFailed
	}
	if h.Manager != r.mgr.Name() || !r.mgr.Alive(ctx, h) {
		_ = r.Untrack(sessionID)
		return FocusGone
	}
	if err := r.mgr.Focus(ctx, h); err != nil {
		slog.Warn("focusing window failed", "session_id", sessionID, "window", h.ID, "error", err)
		return FocusFailed
	}
	return FocusFocused
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// path is the handle file of sessionID. The readable prefix is lossy, so a
// hash of the raw id keeps distinct sessions in distinct files.
func (r *Registry) path(sessionID string) string {
	name := unsafeFileChars.ReplaceAllString(sessionID, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	sum := sha256.Sum256([]byte(sessionID))
	return filepath.Join(r.dir, name+"-"+hex.EncodeToString(sum[:4])+".json")
}
