package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/claudekit/nudge/internal/notify"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show notification backends and what they can do",
	RunE:  runBackends,
}

var backendColumns = []column{
	{"BACKEND", 10},
	{"CLICK-FOCUS", 12},
	{"SUPPRESSION", 12},
	{"REMOTE", 7},
	{"AVAILABLE", 10},
}

func runBackends(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	closeLog := setupLogging(cfg, cmd.ErrOrStderr())
	defer closeLog()

	a := newApp(cfg)
	out := cmd.OutOrStdout()

	renderBackends(cmd.Context(), out, a.dispatcher, cfg.Notifications.Backend)

	fmt.Fprintln(out)
	manager := "none"
	if m := a.registry.Manager(); m != nil {
		manager = m.Name()
	}
	fmt.Fprintf(out, "window manager: %s\n", manager)
	fmt.Fprintf(out, "remote session: %s\n", yesNo(a.remote))
	fmt.Fprintf(out, "push relay:     %s\n", enabledWord(a.relay.Enabled()))
	return nil
}

// renderBackends prints one row per backend in fallback order. The
// preferred one is starred.
func renderBackends(ctx context.Context, w io.Writer, d *notify.Dispatcher, preferred string) {
	writeHeader(w, backendColumns)
	for _, b := range d.Backends() {
		name := b.Name()
		if name == preferred {
			name += " *"
		}
		_, remote := b.(interface{ Relaying() bool })
		writeRow(w, backendColumns, []string{
			name,
			yesNo(b.SupportsFocus()),
			yesNo(b.SupportsSuppression()),
			yesNo(remote),
			yesNo(b.Available(ctx)),
		})
	}
}
