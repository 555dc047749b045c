package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracked(remote bool) (*TrackedBackend, *fakeWindows, *fakeRelay, *recorder) {
	rec := &recorder{}
	branded := NewBrandedBackend("terminal-notifier", "zed", rec.exec)
	branded.SetLookPath(lookPathOf("terminal-notifier"))
	native := NewNativeBackend(rec.exec)
	windows := newFakeWindows()
	relay := &fakeRelay{enabled: true}
	return NewTrackedBackend(windows, branded, native, relay, remote, "/opt/bin/nudge"), windows, relay, rec
}

func TestTrackedBackend_ClickFocusesSession(t *testing.T) {
	t.Parallel()
	b, _, relay, rec := newTestTracked(false)

	require.NoError(t, b.Deliver(context.Background(), sampleNotification()))
	call := rec.last()
	require.NotEmpty(t, call)
	assert.Equal(t, "terminal-notifier", call[0])
	assert.Equal(t, "'/opt/bin/nudge' focus --session 'abc'", call[len(call)-1])
	assert.Empty(t, relay.sent)
}

func TestTrackedBackend_FallsBackToNativeLocally(t *testing.T) {
	t.Parallel()
	b, _, _, rec := newTestTracked(false)
	b.branded.SetLookPath(lookPathOf())
	b.native.goos = "linux"

	require.NoError(t, b.Deliver(context.Background(), sampleNotification()))
	assert.Equal(t, "notify-send", rec.last()[0])
}

func TestTrackedBackend_AvailabilityFollowsWindowManager(t *testing.T) {
	t.Parallel()
	b, windows, _, _ := newTestTracked(false)

	assert.True(t, b.Available(context.Background()))
	windows.reachable = false
	assert.False(t, b.Available(context.Background()))
}

func TestTrackedBackend_RemoteUsesRelay(t *testing.T) {
	t.Parallel()
	b, windows, relay, rec := newTestTracked(true)
	windows.reachable = false
	windows.focused["abc"] = true

	assert.True(t, b.Available(context.Background()), "relay makes tracked usable over SSH")
	assert.True(t, b.Relaying())
	assert.False(t, b.IsFocused(context.Background(), "abc"), "no suppression when remote")

	require.NoError(t, b.Deliver(context.Background(), sampleNotification()))
	assert.Len(t, relay.sent, 1)
	assert.Zero(t, rec.count(), "nothing runs on the remote host's desktop")
}

func TestTrackedBackend_RemoteRelayFailure(t *testing.T) {
	t.Parallel()
	b, _, relay, _ := newTestTracked(true)
	relay.err = errBoom

	err := b.Deliver(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, errBoom)
}

func TestTrackedBackend_RemoteWithoutRelayIsLocal(t *testing.T) {
	t.Parallel()
	b, _, relay, _ := newTestTracked(true)
	relay.enabled = false

	assert.False(t, b.Relaying())
}

func TestTrackedBackend_SessionLifecycle(t *testing.T) {
	t.Parallel()
	b, windows, _, _ := newTestTracked(false)
	ctx := context.Background()

	require.NoError(t, b.SessionStarted(ctx, "abc"))
	assert.True(t, windows.tracked["abc"])

	windows.focused["abc"] = true
	assert.True(t, b.IsFocused(ctx, "abc"))

	require.NoError(t, b.SessionEnded(ctx, "abc"))
	assert.False(t, windows.tracked["abc"])
}

func TestTrackedBackend_TrackErrorWrapped(t *testing.T) {
	t.Parallel()
	b, windows, _, _ := newTestTracked(false)
	windows.trackErr = errBoom

	assert.ErrorIs(t, b.SessionStarted(context.Background(), "abc"), errBoom)
}

func TestTrackedBackend_SuppressionThroughDispatcher(t *testing.T) {
	t.Parallel()
	b, windows, _, rec := newTestTracked(false)
	windows.focused["abc"] = true
	d := NewDispatcher(b)

	out := d.Dispatch(context.Background(), b, sampleNotification())
	assert.Equal(t, StatusSuppressed, out.Status)
	assert.Zero(t, rec.count())

	windows.focused["abc"] = false
	out = d.Dispatch(context.Background(), b, sampleNotification())
	assert.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, 1, rec.count())
}
