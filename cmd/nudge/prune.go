package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete finished tasks older than the retention period",
	Long: `Deletes finished tasks and their notification records older than the
retention period. Session sequence numbers survive, so task numbers are
never reused.`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", -1, "Retention in days (default: database.retention_days)")
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	closeLog := setupLogging(cfg, cmd.ErrOrStderr())
	defer closeLog()

	days := cfg.Database.RetentionDays
	if pruneDays >= 0 {
		days = pruneDays
	}
	if days == 0 && pruneDays < 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "retention disabled (database.retention_days is 0), nothing pruned")
		return nil
	}

	n, err := newApp(cfg).tracker.Prune(cmd.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d task(s) older than %d day(s)\n", n, days)
	return nil
}
