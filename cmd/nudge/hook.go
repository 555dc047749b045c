package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/claudekit/nudge/internal/config"
	"github.com/claudekit/nudge/internal/event"
	"github.com/claudekit/nudge/internal/hook"
)

// maxHookDeadline caps one invocation whatever the configured timeouts say.
const maxHookDeadline = 10 * time.Second

// hookDeadline bounds one invocation so a stuck notifier never holds up the
// host: one database lock wait, then the slower of the local notifier and
// the push relay, plus a little slack for parsing and logging.
func hookDeadline(cfg *config.Config) time.Duration {
	d := cfg.Database.LockTimeout + max(cfg.Notifications.Timeout, cfg.Relay.Timeout) + 500*time.Millisecond
	return min(d, maxHookDeadline)
}

var hookCmd = &cobra.Command{
	Use:   "hook [event]",
	Short: "Handle one Claude Code hook event read from stdin",
	Long: `Reads one hook event as JSON from stdin and dispatches the matching
notification. The optional event argument names the hook and is used when
the payload carries no type.

Exits 1 only when stdin is not a usable event. Every other failure is
logged and swallowed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHook,
}

func runHook(cmd *cobra.Command, args []string) error {
	cfg, cfgErr := loadConfigOrDefaults()
	closeLog := setupLogging(cfg, cmd.ErrOrStderr())
	defer closeLog()

	logger, _ := hook.InvocationLogger(slog.Default())
	slog.SetDefault(logger)
	if cfgErr != nil {
		slog.Error("configuration rejected, using defaults", "error", cfgErr)
	}

	var hookName string
	if len(args) > 0 {
		hookName = args[0]
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), hookDeadline(cfg))
	defer cancel()

	start := time.Now()
	err := newApp(cfg).handler().Handle(ctx, cmd.InOrStdin(), hookName)
	slog.Debug("hook finished", "elapsed", time.Since(start))

	if errors.Is(err, event.ErrMalformedEvent) {
		return err
	}
	return nil
}
