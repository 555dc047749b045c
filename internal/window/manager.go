// Package window remembers which terminal window each assistant session
// runs in, and talks to the window manager to query and change focus.
package window

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// ErrUnreachable means the window manager could not be queried.
var ErrUnreachable = errors.New("window manager unreachable")

// commandTimeout bounds every window-manager call.
const commandTimeout = 5 * time.Second

// Handle identifies one window (or terminal pane) to its manager.
type Handle struct {
	Manager string `json:"manager"`
	ID      string `json:"id"`
}

// Manager is the subset of a window manager nudge needs.
type Manager interface {
	Name() string
	Reachable(ctx context.Context) bool
	// Current is the window the calling process runs in.
	Current(ctx context.Context) (Handle, error)
	// Focused is the window holding input focus right now.
	Focused(ctx context.Context) (Handle, error)
	Focus(ctx context.Context, h Handle) error
	Alive(ctx context.Context, h Handle) bool
}

type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultExec(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, err
	}
	return out, nil
}

// Env is how a manager sees its surroundings; tests replace every field.
type Env struct {
	Exec     ExecFunc
	LookPath func(string) (string, error)
	Getenv   func(string) string
	GOOS     string
}

// SystemEnv is the real process environment.
func SystemEnv() Env {
	return Env{Exec: defaultExec, LookPath: exec.LookPath, Getenv: os.Getenv, GOOS: runtime.GOOS}
}

func (e Env) has(name string) bool {
	_, err := e.LookPath(name)
	return err == nil
}

func (e Env) run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	out, err := e.Exec(ctx, name, args...)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Detect returns the manager named by kind, or for "auto" the first one that
// fits this host: wezterm inside a WezTerm pane, Hammerspoon on macOS,
// xdotool under X11. It returns nil when nothing fits.
func Detect(kind string, env Env) Manager {
	switch kind {
	case "wezterm":
		return NewWezTerm(env)
	case "hammerspoon":
		return NewHammerspoon(env)
	case "xdotool":
		return NewXdotool(env)
	case "", "auto":
	default:
		return nil
	}

	if env.Getenv("WEZTERM_PANE") != "" && env.has("wezterm") {
		return NewWezTerm(env)
	}
	if env.GOOS == "darwin" && env.has("hs") {
		return NewHammerspoon(env)
	}
	if env.Getenv("DISPLAY") != "" && env.has("xdotool") {
		return NewXdotool(env)
	}
	return nil
}
