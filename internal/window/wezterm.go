package window

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WezTerm tracks panes rather than OS windows: the session lives in the
// pane named by $WEZTERM_PANE.
type WezTerm struct {
	env Env
}

func NewWezTerm(env Env) *WezTerm {
	return &WezTerm{env: env}
}

type weztermClient struct {
	FocusedPaneID *int64 `json:"focused_pane_id"`
}

type weztermPane struct {
	PaneID int64 `json:"pane_id"`
}

func (w *WezTerm) Name() string { return "wezterm" }

func (w *WezTerm) Reachable(ctx context.Context) bool {
	if !w.env.has("wezterm") {
		return false
	}
	_, err := w.env.run(ctx, "wezterm", "cli", "list", "--format", "json")
	return err == nil
}

func (w *WezTerm) Current(_ context.Context) (Handle, error) {
	raw := strings.TrimSpace(w.env.Getenv("WEZTERM_PANE"))
	if raw == "" {
		return Handle{}, fmt.Errorf("%w: not running inside a WezTerm pane", ErrUnreachable)
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return Handle{}, fmt.Errorf("parse WEZTERM_PANE %q: %w", raw, err)
	}
	return Handle{Manager: w.Name(), ID: raw}, nil
}

func (w *WezTerm) Focused(ctx context.Context) (Handle, error) {
	out, err := w.env.run(ctx, "wezterm", "cli", "list-clients", "--format", "json")
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	var clients []weztermClient
	if err := json.Unmarshal([]byte(out), &clients); err != nil {
		return Handle{}, fmt.Errorf("decode wezterm list-clients json: %w", err)
	}
	for _, c := range clients {
		if c.FocusedPaneID != nil {
			return Handle{Manager: w.Name(), ID: strconv.FormatInt(*c.FocusedPaneID, 10)}, nil
		}
	}
	return Handle{}, fmt.Errorf("%w: no focused pane", ErrUnreachable)
}

func (w *WezTerm) Focus(ctx context.Context, h Handle) error {
	_, err := w.env.run(ctx, "wezterm", "cli", "activate-pane", "--pane-id", h.ID)
	return err
}

func (w *WezTerm) Alive(ctx context.Context, h Handle) bool {
	out, err := w.env.run(ctx, "wezterm", "cli", "list", "--format", "json")
	if err != nil {
		return false
	}
	var panes []weztermPane
	if err := json.Unmarshal([]byte(out), &panes); err != nil {
		return false
	}
	for _, p := range panes {
		if strconv.FormatInt(p.PaneID, 10) == h.ID {
			return true
		}
	}
	return false
}
