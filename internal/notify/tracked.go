package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// WindowTracker remembers which window each session runs in.
type WindowTracker interface {
	Reachable(ctx context.Context) bool
	Track(ctx context.Context, sessionID string) error
	Untrack(sessionID string) error
	IsFocused(ctx context.Context, sessionID string) bool
}

// Relay forwards a notification to a remote push provider.
type Relay interface {
	Enabled() bool
	Send(ctx context.Context, n Notification) error
}

// TrackedBackend ties notifications to the terminal window of their session:
// clicking focuses that window, and completions are dropped while the user
// is already looking at it. Over SSH it forwards through the relay instead.
type TrackedBackend struct {
	windows WindowTracker
	branded *BrandedBackend
	native  *NativeBackend
	relay   Relay
	remote  bool
	self    string // path of the nudge binary, run on click
}

// NewTrackedBackend wires a tracked backend. relay may be nil.
func NewTrackedBackend(windows WindowTracker, branded *BrandedBackend, native *NativeBackend, relay Relay, remote bool, self string) *TrackedBackend {
	return &TrackedBackend{
		windows: windows,
		branded: branded,
		native:  native,
		relay:   relay,
		remote:  remote,
		self:    self,
	}
}

func (b *TrackedBackend) Name() string              { return "tracked" }
func (b *TrackedBackend) SupportsFocus() bool       { return true }
func (b *TrackedBackend) SupportsSuppression() bool { return true }

// Relaying reports whether deliveries leave this host.
func (b *TrackedBackend) Relaying() bool {
	return b.remote && b.relay != nil && b.relay.Enabled()
}

func (b *TrackedBackend) Available(ctx context.Context) bool {
	if b.Relaying() {
		return true
	}
	return b.windows != nil && b.windows.Reachable(ctx)
}

func (b *TrackedBackend) Deliver(ctx context.Context, n Notification) error {
	if b.Relaying() {
		if err := b.relay.Send(ctx, n); err != nil {
			return fmt.Errorf("%w: relay: %w", ErrDeliveryFailed, err)
		}
		return nil
	}

	if b.branded != nil && b.branded.Available(ctx) {
		var onClick string
		if n.Click != ClickNone && n.SessionID != "" {
			onClick = b.FocusCommand(n.SessionID)
		}
		return b.branded.post(ctx, n, onClick)
	}
	if b.native != nil {
		return b.native.Deliver(ctx, n)
	}
	return fmt.Errorf("%w: no local notifier for tracked backend", ErrBackendUnavailable)
}

// FocusCommand is the shell command a click runs.
func (b *TrackedBackend) FocusCommand(sessionID string) string {
	return fmt.Sprintf("%s focus --session %s", shellQuote(b.self), shellQuote(sessionID))
}

// IsFocused is false over SSH: the remote user's screen cannot be inspected.
func (b *TrackedBackend) IsFocused(ctx context.Context, sessionID string) bool {
	if b.remote || b.windows == nil || sessionID == "" {
		return false
	}
	return b.windows.IsFocused(ctx, sessionID)
}

func (b *TrackedBackend) SessionStarted(ctx context.Context, sessionID string) error {
	if b.remote || b.windows == nil || sessionID == "" {
		return nil
	}
	if err := b.windows.Track(ctx, sessionID); err != nil {
		return fmt.Errorf("tracking window: %w", err)
	}
	slog.Debug("window tracked", "session_id", sessionID)
	return nil
}

func (b *TrackedBackend) SessionEnded(_ context.Context, sessionID string) error {
	if b.windows == nil || sessionID == "" {
		return nil
	}
	if err := b.windows.Untrack(sessionID); err != nil {
		return fmt.Errorf("untracking window: %w", err)
	}
	return nil
}
