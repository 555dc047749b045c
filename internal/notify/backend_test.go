package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification() Notification {
	return Notification{
		Title:      "my-api",
		Subtitle:   "Task #3 complete",
		Message:    "Duration: 2m 23s",
		Sound:      "Glass",
		Urgency:    UrgencyNormal,
		Click:      ClickOpenEditorAtPath,
		Path:       "/code/my-api",
		SessionID:  "abc",
		EventType:  "Stop",
		TaskSeq:    3,
		Completion: true,
	}
}

func TestUrgency_OrderingAndNames(t *testing.T) {
	t.Parallel()

	assert.Less(t, UrgencyLow, UrgencyNormal)
	assert.Less(t, UrgencyNormal, UrgencyHigh)
	assert.Less(t, UrgencyHigh, UrgencyCritical)

	for _, u := range []Urgency{UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical} {
		parsed, err := ParseUrgency(u.String())
		require.NoError(t, err)
		assert.Equal(t, u, parsed)
	}
	_, err := ParseUrgency("urgent")
	assert.Error(t, err)
}

func TestNotification_Body(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\nb", Notification{Subtitle: "a", Message: "b"}.Body())
	assert.Equal(t, "b", Notification{Message: "b"}.Body())
	assert.Equal(t, "a", Notification{Subtitle: "a"}.Body())
}

func TestEditorCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		editor, path, want string
	}{
		{"zed", "/p", `zed "/p"`},
		{"code", "/p", `/usr/local/bin/code "/p"`},
		{"cursor", "/p", `cursor "/p"`},
		{"subl", "/p", `subl "/p"`},
		{"atom", "/p", `atom "/p"`},
		{"nvim", "/p", `nvim "/p"`},
		{"", "/p", ""},
		{"zed", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EditorCommand(tt.editor, tt.path), "editor=%q path=%q", tt.editor, tt.path)
	}
}

func TestShellQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestNativeBackend_Linux(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	b := NewNativeBackend(rec.exec)
	b.goos = "linux"
	b.SetLookPath(lookPathOf("notify-send"))

	b.getenv = func(string) string { return "" }
	assert.False(t, b.Available(context.Background()), "no display, no notifications")

	b.getenv = func(k string) string {
		if k == "WAYLAND_DISPLAY" {
			return "wayland-0"
		}
		return ""
	}
	assert.True(t, b.Available(context.Background()))

	n := sampleNotification()
	n.Urgency = UrgencyCritical
	require.NoError(t, b.Deliver(context.Background(), n))
	assert.Equal(t, []string{"notify-send", "-u", "critical", "-a", "Claude Code", "my-api", "Task #3 complete\nDuration: 2m 23s"}, rec.last())
	assert.False(t, b.SupportsFocus())
	assert.False(t, b.SupportsSuppression())
}

func TestNativeBackend_Darwin(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	b := NewNativeBackend(rec.exec)
	b.goos = "darwin"
	b.SetLookPath(lookPathOf("osascript"))

	assert.True(t, b.Available(context.Background()))
	require.NoError(t, b.Deliver(context.Background(), sampleNotification()))

	call := rec.last()
	require.Len(t, call, 3)
	assert.Equal(t, "osascript", call[0])
	assert.Equal(t, `display notification "Duration: 2m 23s" with title "my-api" subtitle "Task #3 complete" sound name "Glass"`, call[2])
}

func TestNativeBackend_Windows(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	b := NewNativeBackend(rec.exec)
	b.goos = "windows"
	b.SetLookPath(lookPathOf("powershell"))

	n := sampleNotification()
	n.Title = "it's $home"
	require.NoError(t, b.Deliver(context.Background(), n))

	call := rec.last()
	assert.Equal(t, "powershell", call[0])
	assert.Contains(t, call[len(call)-1], "it''s `$home")
}

func TestNativeBackend_UnsupportedOS(t *testing.T) {
	t.Parallel()
	b := NewNativeBackend((&recorder{}).exec)
	b.goos = "plan9"

	assert.False(t, b.Available(context.Background()))
	assert.ErrorIs(t, b.Deliver(context.Background(), sampleNotification()), ErrBackendUnavailable)
}

func TestNotifySendUrgency(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "low", notifySendUrgency(UrgencyLow))
	assert.Equal(t, "normal", notifySendUrgency(UrgencyNormal))
	assert.Equal(t, "critical", notifySendUrgency(UrgencyHigh))
	assert.Equal(t, "critical", notifySendUrgency(UrgencyCritical))
}

func TestBrandedBackend_Deliver(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	b := NewBrandedBackend("", "zed", rec.exec)
	b.SetLookPath(lookPathOf("terminal-notifier"))

	assert.True(t, b.Available(context.Background()))
	require.NoError(t, b.Deliver(context.Background(), sampleNotification()))
	assert.Equal(t, []string{
		"terminal-notifier",
		"-title", "my-api",
		"-message", "Duration: 2m 23s",
		"-subtitle", "Task #3 complete",
		"-sound", "Glass",
		"-group", "nudge-abc",
		"-execute", `zed "/code/my-api"`,
	}, rec.last())
}

func TestBrandedBackend_NoClickWithoutAction(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	b := NewBrandedBackend("terminal-notifier", "zed", rec.exec)

	n := sampleNotification()
	n.Click = ClickNone
	require.NoError(t, b.Deliver(context.Background(), n))
	assert.NotContains(t, rec.last(), "-execute")
}

func TestBrandedBackend_Unavailable(t *testing.T) {
	t.Parallel()
	b := NewBrandedBackend("terminal-notifier", "zed", (&recorder{}).exec)
	b.SetLookPath(lookPathOf())
	assert.False(t, b.Available(context.Background()))
}

func TestBrandedBackend_CommandFailureIsDeliveryFailed(t *testing.T) {
	t.Parallel()
	rec := &recorder{err: errBoom}
	b := NewBrandedBackend("terminal-notifier", "zed", rec.exec)

	err := b.Deliver(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, errBoom)
}

func TestRunner_AppliesTimeout(t *testing.T) {
	t.Parallel()
	var deadline time.Time
	b := NewBrandedBackend("terminal-notifier", "", func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		deadline, _ = ctx.Deadline()
		return nil, nil
	})
	b.SetTimeout(time.Second)

	start := time.Now()
	require.NoError(t, b.Deliver(context.Background(), sampleNotification()))
	assert.WithinDuration(t, start.Add(time.Second), deadline, 500*time.Millisecond)
}
