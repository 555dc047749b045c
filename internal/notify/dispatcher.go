package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Status is the fate of one notification.
type Status string

const (
	StatusDelivered  Status = "delivered"
	StatusSuppressed Status = "suppressed"
	StatusRelayed    Status = "relayed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Outcome describes what Dispatch did.
type Outcome struct {
	Backend string
	Status  Status
	Err     error
}

// Dispatcher picks a backend and delivers through it. Backends are held in
// fallback order: the richest first, the always-present last.
type Dispatcher struct {
	backends []Backend
}

// NewDispatcher creates a Dispatcher. The order of backends is the fallback
// order used by Resolve.
func NewDispatcher(backends ...Backend) *Dispatcher {
	return &Dispatcher{backends: backends}
}

// Backends lists the configured backends in fallback order.
func (d *Dispatcher) Backends() []Backend {
	return d.backends
}

// Lookup finds a backend by name.
func (d *Dispatcher) Lookup(name string) (Backend, bool) {
	for _, b := range d.backends {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// Resolve returns the preferred backend if it is available on this host,
// otherwise the next available one down the fallback chain.
func (d *Dispatcher) Resolve(ctx context.Context, preferred string) (Backend, error) {
	start := -1
	for i, b := range d.backends {
		if b.Name() == preferred {
			start = i
			break
		}
	}
	if start < 0 {
		slog.Warn("unknown notification backend, using fallback chain", "backend", preferred)
		start = 0
	}

	for _, b := range d.backends[start:] {
		if b.Available(ctx) {
			if b.Name() != preferred {
				slog.Info("notification backend fell back", "preferred", preferred, "using", b.Name())
			}
			return b, nil
		}
		slog.Warn("notification backend skipped", "backend", b.Name(), "error", ErrBackendUnavailable)
	}
	return nil, fmt.Errorf("%w: none of the backends from %q down are usable", ErrBackendUnavailable, preferred)
}

// Dispatch delivers n through b unless the user is already looking at the
// session and the notification is a non-critical completion. Delivery
// errors are logged and reported in the Outcome, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, b Backend, n Notification) Outcome {
	if b == nil {
		return Outcome{Status: StatusSkipped, Err: ErrBackendUnavailable}
	}
	out := Outcome{Backend: b.Name()}

	if Suppressible(b, n) {
		if fc, ok := b.(FocusChecker); ok && fc.IsFocused(ctx, n.SessionID) {
			slog.Info("notification suppressed, session window focused",
				"session_id", n.SessionID, "event", n.EventType)
			out.Status = StatusSuppressed
			return out
		}
	}

	if err := b.Deliver(ctx, n); err != nil {
		if !errors.Is(err, ErrDeliveryFailed) {
			err = fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		}
		slog.Error("notification delivery failed", "backend", b.Name(), "event", n.EventType, "error", err)
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	out.Status = StatusDelivered
	if r, ok := b.(interface{ Relaying() bool }); ok && r.Relaying() {
		out.Status = StatusRelayed
	}
	slog.Info("notification sent",
		"backend", b.Name(),
		"status", string(out.Status),
		"title", n.Title,
		"urgency", n.Urgency.String())
	return out
}

// Suppressible reports whether n may be dropped for a focused window on b.
// Critical notifications never are.
func Suppressible(b Backend, n Notification) bool {
	return n.Completion && n.Urgency < UrgencyCritical && b.SupportsSuppression()
}
