package window

import (
	"context"
	"fmt"
	"strconv"
)

// Hammerspoon drives macOS windows through the hs CLI, which needs
// hs.ipc loaded in the user's Hammerspoon config.
type Hammerspoon struct {
	env Env
}

func NewHammerspoon(env Env) *Hammerspoon {
	return &Hammerspoon{env: env}
}

func (h *Hammerspoon) Name() string { return "hammerspoon" }

func (h *Hammerspoon) Reachable(ctx context.Context) bool {
	if h.env.GOOS != "darwin" || !h.env.has("hs") {
		return false
	}
	out, err := h.env.run(ctx, "hs", "-c", "print(hs.ipc ~= nil)")
	return err == nil && out == "true"
}

func (h *Hammerspoon) Current(ctx context.Context) (Handle, error) {
	return h.Focused(ctx)
}

func (h *Hammerspoon) Focused(ctx context.Context) (Handle, error) {
	out, err := h.env.run(ctx, "hs", "-c", "local w = hs.window.focusedWindow(); print(w and w:id() or '')")
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if out == "" {
		return Handle{}, fmt.Errorf("%w: no focused window", ErrUnreachable)
	}
	if _, err := strconv.ParseInt(out, 10, 64); err != nil {
		return Handle{}, fmt.Errorf("parse window id %q: %w", out, err)
	}
	return Handle{Manager: h.Name(), ID: out}, nil
}

func (h *Hammerspoon) Focus(ctx context.Context, w Handle) error {
	out, err := h.env.run(ctx, "hs", "-c",
		fmt.Sprintf("local w = hs.window.get(%s); if w then w:focus(); print('ok') else print('gone') end", w.ID))
	if err != nil {
		return err
	}
	if out != "ok" {
		return fmt.Errorf("window %s not found", w.ID)
	}
	return nil
}

func (h *Hammerspoon) Alive(ctx context.Context, w Handle) bool {
	out, err := h.env.run(ctx, "hs", "-c", fmt.Sprintf("print(hs.window.get(%s) ~= nil)", w.ID))
	return err == nil && out == "true"
}
