// Package hook runs one lifecycle event through decoding, task tracking,
// policy and delivery.
package hook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claudekit/nudge/internal/event"
	"github.com/claudekit/nudge/internal/notify"
	"github.com/claudekit/nudge/internal/policy"
	"github.com/claudekit/nudge/internal/store"
	"github.com/claudekit/nudge/internal/task"
)

// Options are the per-user settings the pipeline needs.
type Options struct {
	Backend string // preferred backend name
	Sound   string // default sound
}

// Handler processes hook invocations. Only a malformed payload is reported
// to the caller; every later failure is logged and absorbed so the host is
// never blocked by a notification problem.
type Handler struct {
	tracker    *task.Tracker
	dispatcher *notify.Dispatcher
	opts       Options
	now        func() time.Time
}

func NewHandler(tracker *task.Tracker, dispatcher *notify.Dispatcher, opts Options) *Handler {
	return &Handler{tracker: tracker, dispatcher: dispatcher, opts: opts, now: time.Now}
}

// SetClock replaces the time source used for notification text.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// InvocationLogger derives a logger whose lines all carry one fresh
// invocation_id.
func InvocationLogger(base *slog.Logger) (*slog.Logger, string) {
	id := uuid.NewString()
	return base.With("invocation_id", id), id
}

// Handle reads one event from r and acts on it. hookName is the event name
// the host invoked us for, used when the payload omits its type.
func (h *Handler) Handle(ctx context.Context, r io.Reader, hookName string) error {
	ev, err := event.DecodeReader(r, hookName)
	switch {
	case errors.Is(err, event.ErrMalformedEvent):
		slog.Error("rejecting hook input", "hook", hookName, "error", err)
		return err
	case errors.Is(err, event.ErrUnknownEventType):
		slog.Warn("ignoring unknown event", "error", err)
		return nil
	case err != nil:
		slog.Error("decoding hook input", "error", err)
		return nil
	}

	log := slog.With("event", string(ev.Type), "session_id", ev.SessionID)
	log.Debug("hook event received", "subtype", string(ev.Subtype), "cwd", ev.WorkingDirectory)
	if ev.SessionID == "" {
		log.Warn("event has no session id, task tracking skipped")
	}

	if ev.Type == event.UserPromptSubmit {
		h.openTask(ctx, ev)
		return nil
	}

	backend, err := h.dispatcher.Resolve(ctx, h.opts.Backend)
	if err != nil {
		log.Error("no notification backend", "error", err)
	}

	var closed *task.Task
	switch ev.Type {
	case event.Stop:
		closed = h.closeTask(ctx, ev)
	case event.SessionStart:
		if obs, ok := backend.(notify.SessionObserver); ok && ev.SessionID != "" {
			if err := obs.SessionStarted(ctx, ev.SessionID); err != nil {
				log.Warn("session window not tracked", "error", err)
			}
		}
	case event.SessionEnd:
		h.endSession(ctx, ev.SessionID)
	}

	n, ok := policy.Resolve(ev, policy.Context{Task: closed, Sound: h.opts.Sound, Now: h.now()})
	if !ok {
		return nil
	}

	out := h.dispatcher.Dispatch(ctx, backend, n)
	h.record(ctx, n, out)
	return nil
}

func (h *Handler) openTask(ctx context.Context, ev event.Event) {
	if ev.SessionID == "" {
		return
	}
	if _, err := h.tracker.OpenTask(ctx, ev.SessionID, ev.Prompt, ev.WorkingDirectory); err != nil {
		slog.Error("task not recorded", "session_id", ev.SessionID, "error", err)
	}
}

func (h *Handler) closeTask(ctx context.Context, ev event.Event) *task.Task {
	if ev.SessionID == "" {
		return nil
	}
	t, err := h.tracker.CloseTask(ctx, ev.SessionID, ev.WorkingDirectory)
	if err != nil {
		slog.Error("task not closed", "session_id", ev.SessionID, "error", err)
		return nil
	}
	return t
}

// endSession releases per-session state in every backend that keeps some,
// not only the one resolved now: the session may have started under another.
func (h *Handler) endSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	for _, b := range h.dispatcher.Backends() {
		obs, ok := b.(notify.SessionObserver)
		if !ok {
			continue
		}
		if err := obs.SessionEnded(ctx, sessionID); err != nil {
			slog.Warn("session state not released", "backend", b.Name(), "error", err)
		}
	}
}

func (h *Handler) record(ctx context.Context, n notify.Notification, out notify.Outcome) {
	if n.SessionID == "" {
		return
	}
	rec := store.DispatchRecord{
		SessionID: n.SessionID,
		TaskSeq:   n.TaskSeq,
		EventType: n.EventType,
		Backend:   out.Backend,
		Outcome:   string(out.Status),
		Title:     n.Title,
		Subtitle:  n.Subtitle,
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if err := h.tracker.RecordDispatch(ctx, rec); err != nil {
		slog.Warn("dispatch not recorded", "error", err)
	}
}
