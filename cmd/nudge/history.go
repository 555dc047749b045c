package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/claudekit/nudge/internal/store"
)

var (
	historySession  string
	historyLimit    int
	historyOpenOnly bool
	historySince    time.Duration
	historyNotified bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tasks",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historySession, "session", "", "Only tasks of this session")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of tasks")
	historyCmd.Flags().BoolVar(&historyOpenOnly, "open", false, "Only tasks still running")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Only tasks started within this window (e.g. 24h)")
	historyCmd.Flags().BoolVar(&historyNotified, "dispatches", false, "Show sent notifications instead of tasks")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	closeLog := setupLogging(cfg, cmd.ErrOrStderr())
	defer closeLog()

	now := time.Now()
	tracker := newApp(cfg).tracker

	if historyNotified {
		dispatches, err := tracker.Dispatches(cmd.Context(), historySession, historyLimit)
		if err != nil {
			return err
		}
		renderDispatches(cmd.OutOrStdout(), dispatches, now)
		return nil
	}

	filter := store.TaskFilter{
		SessionID: historySession,
		OpenOnly:  historyOpenOnly,
		Limit:     historyLimit,
	}
	if historySince > 0 {
		filter.Since = now.Add(-historySince)
	}

	tasks, err := tracker.History(cmd.Context(), filter)
	if err != nil {
		return err
	}

	renderHistory(cmd.OutOrStdout(), tasks, now)
	return nil
}
