package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/claudekit/nudge/internal/window"
)

var focusSession string

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Raise the terminal window of a session",
	Long: `Raises the window a Claude Code session runs in. Tracked notifications
run this when clicked.`,
	RunE: runFocus,
}

func init() {
	focusCmd.Flags().StringVar(&focusSession, "session", "", "Claude Code session ID (required)")
	_ = focusCmd.MarkFlagRequired("session")
}

func runFocus(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := loadConfigOrDefaults()
	closeLog := setupLogging(cfg, cmd.ErrOrStderr())
	defer closeLog()
	if cfgErr != nil {
		slog.Error("configuration rejected, using defaults", "error", cfgErr)
	}

	res := newApp(cfg).registry.Focus(cmd.Context(), focusSession)
	slog.Info("focus requested", "session_id", focusSession, "result", string(res))
	fmt.Fprintln(cmd.OutOrStdout(), focusMessage(res))
	return nil
}

// focusMessage describes res for whoever clicked. A window that cannot be
// raised is an expected outcome, not a command failure.
func focusMessage(res window.FocusResult) string {
	switch res {
	case window.FocusFocused:
		return "focused"
	case window.FocusGone:
		return "window is gone, no longer tracked"
	case window.FocusUntracked:
		return "no tracked window"
	default:
		return "focus failed"
	}
}
