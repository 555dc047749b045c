package window

import (
	"context"
	"fmt"
	"strconv"
)

// Xdotool drives X11 windows through the xdotool CLI.
type Xdotool struct {
	env Env
}

func NewXdotool(env Env) *Xdotool {
	return &Xdotool{env: env}
}

func (x *Xdotool) Name() string { return "xdotool" }

func (x *Xdotool) Reachable(_ context.Context) bool {
	return x.env.Getenv("DISPLAY") != "" && x.env.has("xdotool")
}

// Current is the active window: the hook fires as the user starts the
// session, so that window is the terminal.
func (x *Xdotool) Current(ctx context.Context) (Handle, error) {
	return x.Focused(ctx)
}

func (x *Xdotool) Focused(ctx context.Context) (Handle, error) {
	out, err := x.env.run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if _, err := strconv.ParseUint(out, 10, 64); err != nil {
		return Handle{}, fmt.Errorf("parse window id %q: %w", out, err)
	}
	return Handle{Manager: x.Name(), ID: out}, nil
}

func (x *Xdotool) Focus(ctx context.Context, h Handle) error {
	_, err := x.env.run(ctx, "xdotool", "windowactivate", "--sync", h.ID)
	return err
}

func (x *Xdotool) Alive(ctx context.Context, h Handle) bool {
	_, err := x.env.run(ctx, "xdotool", "getwindowname", h.ID)
	return err == nil
}
