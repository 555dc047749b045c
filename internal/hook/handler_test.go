package hook

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claudekit/nudge/internal/event"
	"github.com/claudekit/nudge/internal/notify"
	"github.com/claudekit/nudge/internal/store"
	"github.com/claudekit/nudge/internal/task"
)

// fakeBackend records deliveries and session lifecycle calls.
type fakeBackend struct {
	name        string
	available   bool
	suppression bool
	focused     bool
	err         error

	delivered []notify.Notification
	started   []string
	ended     []string
}

func (f *fakeBackend) Name() string                     { return f.name }
func (f *fakeBackend) Available(_ context.Context) bool { return f.available }
func (f *fakeBackend) SupportsFocus() bool              { return f.suppression }
func (f *fakeBackend) SupportsSuppression() bool        { return f.suppression }

func (f *fakeBackend) Deliver(_ context.Context, n notify.Notification) error {
	f.delivered = append(f.delivered, n)
	return f.err
}

func (f *fakeBackend) IsFocused(_ context.Context, _ string) bool { return f.focused }

func (f *fakeBackend) SessionStarted(_ context.Context, id string) error {
	f.started = append(f.started, id)
	return nil
}

func (f *fakeBackend) SessionEnded(_ context.Context, id string) error {
	f.ended = append(f.ended, id)
	return nil
}

type harness struct {
	handler *Handler
	tracker *task.Tracker
	tracked *fakeBackend
	native  *fakeBackend
	clock   time.Time
}

func newHarness(t *testing.T, preferred string) *harness {
	t.Helper()
	h := &harness{
		tracked: &fakeBackend{name: "tracked", available: true, suppression: true},
		native:  &fakeBackend{name: "native", available: true},
		clock:   time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC),
	}
	h.tracker = task.NewTracker(filepath.Join(t.TempDir(), "sessions.db"), time.Second)
	h.tracker.SetClock(func() time.Time { return h.clock })

	d := notify.NewDispatcher(h.tracked, h.native)
	h.handler = NewHandler(h.tracker, d, Options{Backend: preferred, Sound: "Glass"})
	h.handler.SetClock(func() time.Time { return h.clock })
	return h
}

func (h *harness) send(t *testing.T, payload, hookName string) error {
	t.Helper()
	return h.handler.Handle(context.Background(), strings.NewReader(payload), hookName)
}

func TestHandle_PromptThenStop(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")

	require.NoError(t, h.send(t, `{"type":"UserPromptSubmit","session_id":"s1","prompt":"fix the bug","cwd":"/code/my-api"}`, ""))
	assert.Empty(t, h.native.delivered, "prompts notify nobody")

	h.clock = h.clock.Add(143 * time.Second)
	require.NoError(t, h.send(t, `{"type":"Stop","session_id":"s1","cwd":"/code/my-api"}`, ""))

	require.Len(t, h.native.delivered, 1)
	n := h.native.delivered[0]
	assert.Equal(t, "my-api", n.Title)
	assert.Equal(t, "Task #1 complete", n.Subtitle)
	assert.Equal(t, "Duration: 2m 23s", n.Message)

	rows, err := h.tracker.Dispatches(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "delivered", rows[0].Outcome)
	assert.Equal(t, 1, rows[0].TaskSeq)
}

func TestHandle_SequenceAcrossTasks(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")

	for i := 1; i <= 3; i++ {
		require.NoError(t, h.send(t, `{"type":"UserPromptSubmit","session_id":"s1","prompt":"p"}`, ""))
		h.clock = h.clock.Add(42 * time.Second)
		require.NoError(t, h.send(t, `{"type":"Stop","session_id":"s1"}`, ""))
	}

	require.Len(t, h.native.delivered, 3)
	assert.Equal(t, "Task #3 complete", h.native.delivered[2].Subtitle)
	assert.Equal(t, "Duration: 42s", h.native.delivered[2].Message)
}

func TestHandle_StopWithoutPrompt(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")

	require.NoError(t, h.send(t, `{"type":"Stop","session_id":"s1"}`, ""))
	require.Len(t, h.native.delivered, 1)
	assert.Equal(t, "Task complete", h.native.delivered[0].Subtitle)
	assert.Equal(t, "Finished responding", h.native.delivered[0].Message)
}

func TestHandle_MalformedInput(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")

	for _, payload := range []string{"", "not json", "[1,2]", `{"session_id":"s1"}`} {
		err := h.send(t, payload, "")
		assert.ErrorIs(t, err, event.ErrMalformedEvent, "payload %q", payload)
	}
	assert.Empty(t, h.native.delivered)
}

func TestHandle_UnknownTypeIsIgnored(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")

	assert.NoError(t, h.send(t, `{"type":"PreCompact","session_id":"s1"}`, ""))
	assert.Empty(t, h.native.delivered)
}

func TestHandle_HookNameFillsMissingType(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")

	require.NoError(t, h.send(t, `{"session_id":"s1","notification_type":"permission_prompt","message":"Allow Bash?"}`, "Notification"))
	require.Len(t, h.native.delivered, 1)
	assert.Equal(t, "Permission Required", h.native.delivered[0].Title)
	assert.Equal(t, notify.UrgencyCritical, h.native.delivered[0].Urgency)
}

func TestHandle_FocusedCompletionSuppressed(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "tracked")
	h.tracked.focused = true

	require.NoError(t, h.send(t, `{"type":"UserPromptSubmit","session_id":"s1","prompt":"p"}`, ""))
	require.NoError(t, h.send(t, `{"type":"Stop","session_id":"s1"}`, ""))
	assert.Empty(t, h.tracked.delivered)

	require.NoError(t, h.send(t, `{"type":"Notification","session_id":"s1","notification_type":"permission_prompt","message":"?"}`, ""))
	assert.Len(t, h.tracked.delivered, 1, "critical events are never suppressed")

	rows, err := h.tracker.Dispatches(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "suppressed", rows[1].Outcome)
}

func TestHandle_BackendFallback(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "tracked")
	h.tracked.available = false

	require.NoError(t, h.send(t, `{"type":"SubagentStop","session_id":"s1","cwd":"/w/app"}`, ""))
	assert.Empty(t, h.tracked.delivered)
	require.Len(t, h.native.delivered, 1)
	assert.Equal(t, "Agent task complete", h.native.delivered[0].Subtitle)
}

func TestHandle_SessionLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "tracked")

	require.NoError(t, h.send(t, `{"type":"SessionStart","session_id":"s1","source":"startup","cwd":"/w/app"}`, ""))
	assert.Equal(t, []string{"s1"}, h.tracked.started)
	require.Len(t, h.tracked.delivered, 1)
	assert.Equal(t, "Session started", h.tracked.delivered[0].Subtitle)
	assert.Equal(t, "Ready to work • 10:00", h.tracked.delivered[0].Message)

	h.tracked.available = false
	require.NoError(t, h.send(t, `{"type":"SessionEnd","session_id":"s1","reason":"logout"}`, ""))
	assert.Equal(t, []string{"s1"}, h.tracked.ended, "untracked even when another backend delivers")
	require.Len(t, h.native.delivered, 1)
	assert.Equal(t, "Reason: logout", h.native.delivered[0].Message)
}

func TestHandle_DeliveryFailureIsAbsorbed(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")
	h.native.err = notify.ErrDeliveryFailed

	require.NoError(t, h.send(t, `{"type":"Stop","session_id":"s1"}`, ""))

	rows, err := h.tracker.Dispatches(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "failed", rows[0].Outcome)
	assert.NotEmpty(t, rows[0].Error)
}

func TestHandle_NoBackendAvailable(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "tracked")
	h.tracked.available = false
	h.native.available = false

	require.NoError(t, h.send(t, `{"type":"Stop","session_id":"s1"}`, ""))

	rows, err := h.tracker.Dispatches(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "skipped", rows[0].Outcome)
}

func TestHandle_EmptySessionStillNotifies(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "native")

	require.NoError(t, h.send(t, `{"type":"UserPromptSubmit","prompt":"p"}`, ""))
	require.NoError(t, h.send(t, `{"type":"Stop"}`, ""))
	require.Len(t, h.native.delivered, 1)
	assert.Equal(t, "Task complete", h.native.delivered[0].Subtitle)

	history, err := h.tracker.History(context.Background(), store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInvocationLogger(t *testing.T) {
	t.Parallel()
	_, a := InvocationLogger(slog.Default())
	_, b := InvocationLogger(slog.Default())
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
