package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/claudekit/nudge/internal/event"
	"github.com/claudekit/nudge/internal/notify"
	"github.com/claudekit/nudge/internal/policy"
	"github.com/claudekit/nudge/internal/task"
)

var testBackend string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample task-complete notification",
	Long: `Runs a synthetic Stop event through policy and delivery without touching
the task history. Use it to check that a backend works on this machine.`,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVar(&testBackend, "backend", "", "Backend to try (default: configured backend)")
}

func runTest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	closeLog := setupLogging(cfg, cmd.ErrOrStderr())
	defer closeLog()

	a := newApp(cfg)
	ctx := cmd.Context()

	preferred := cfg.Notifications.Backend
	if testBackend != "" {
		if err := checkBackendName(a.dispatcher, testBackend); err != nil {
			return err
		}
		preferred = testBackend
	}

	b, err := a.dispatcher.Resolve(ctx, preferred)
	if err != nil {
		return err
	}

	n, _ := policy.Resolve(event.Event{Type: event.Stop, WorkingDirectory: workingDir()},
		policy.Context{Task: sampleTask(time.Now()), Sound: cfg.Notifications.Sound})

	out := a.dispatcher.Dispatch(ctx, b, n)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Backend, out.Status)
	return out.Err
}

// checkBackendName rejects a name the dispatcher does not know, listing the
// ones it does.
func checkBackendName(d *notify.Dispatcher, name string) error {
	if _, ok := d.Lookup(name); ok {
		return nil
	}
	names := make([]string, 0, len(d.Backends()))
	for _, b := range d.Backends() {
		names = append(names, b.Name())
	}
	return fmt.Errorf("unknown backend %q (known: %s)", name, strings.Join(names, ", "))
}

// sampleTask is a finished 42-second task for test notifications.
func sampleTask(now time.Time) *task.Task {
	started := now.Add(-42 * time.Second)
	seconds := int64(42)
	return &task.Task{
		Seq:             1,
		CreatedAt:       started,
		CompletedAt:     &now,
		DurationSeconds: &seconds,
	}
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
