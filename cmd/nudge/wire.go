package main

import (
	"os"

	"github.com/claudekit/nudge/internal/config"
	"github.com/claudekit/nudge/internal/hook"
	"github.com/claudekit/nudge/internal/notify"
	"github.com/claudekit/nudge/internal/relay"
	"github.com/claudekit/nudge/internal/task"
	"github.com/claudekit/nudge/internal/window"
)

// app is the object graph every command draws from.
type app struct {
	cfg        *config.Config
	tracker    *task.Tracker
	registry   *window.Registry
	relay      *relay.Pushover
	remote     bool
	dispatcher *notify.Dispatcher
}

func newApp(cfg *config.Config) *app {
	mgr := window.Detect(cfg.Window.Manager, window.SystemEnv())
	registry := window.NewRegistry(cfg.Window.StateDir, mgr)

	native := notify.NewNativeBackend(nil)
	native.SetTimeout(cfg.Notifications.Timeout)

	branded := notify.NewBrandedBackend(cfg.Notifications.BrandedBinary, cfg.Notifications.Editor, nil)
	branded.SetTimeout(cfg.Notifications.Timeout)

	push := relay.NewPushover(cfg.Relay.ProviderURL, cfg.Relay.APIToken, cfg.Relay.UserKey, cfg.Relay.Timeout)
	remote := relay.IsRemoteSession(os.Getenv)

	tracked := notify.NewTrackedBackend(registry, branded, native, push, remote, selfPath())

	return &app{
		cfg:        cfg,
		tracker:    task.NewTracker(cfg.Database.Path, cfg.Database.LockTimeout),
		registry:   registry,
		relay:      push,
		remote:     remote,
		dispatcher: notify.NewDispatcher(tracked, branded, native),
	}
}

func (a *app) handler() *hook.Handler {
	return hook.NewHandler(a.tracker, a.dispatcher, hook.Options{
		Backend: a.cfg.Notifications.Backend,
		Sound:   a.cfg.Notifications.Sound,
	})
}

// selfPath is the binary a notification click runs.
func selfPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "nudge"
	}
	return exe
}
