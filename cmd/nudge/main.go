package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/claudekit/nudge/internal/config"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Desktop notifications for Claude Code hooks",
	Long: `nudge turns Claude Code hook events into desktop notifications.

Claude Code runs "nudge hook" once per event with the event JSON on stdin.
The other commands inspect and maintain the task history nudge keeps.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nudge %s\n", version)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "configuration is valid")
		fmt.Fprintf(out, "  backend:  %s\n", cfg.Notifications.Backend)
		fmt.Fprintf(out, "  database: %s\n", cfg.Database.Path)
		fmt.Fprintf(out, "  log file: %s\n", cfg.Server.LogFile)
		fmt.Fprintf(out, "  relay:    %s\n", enabledWord(cfg.Relay.Enabled()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// loadConfigOrDefaults never fails: a broken config file must not stop
// notifications, so the defaults stand in and the problem is logged.
func loadConfigOrDefaults() (*config.Config, error) {
	cfg, err := loadConfig()
	if err == nil {
		return cfg, nil
	}
	cfg = config.Defaults()
	cfg.Database.Path = config.ExpandHome(cfg.Database.Path)
	cfg.Server.LogFile = config.ExpandHome(cfg.Server.LogFile)
	cfg.Server.TokenDir = config.ExpandHome(cfg.Server.TokenDir)
	return cfg, err
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging sends JSON lines at the configured level to the log file and
// errors alone to stderr. Stdout stays clean: the host may read hook stdout.
// The returned func closes the log file.
func setupLogging(cfg *config.Config, stderr io.Writer) func() {
	level := parseLevel(cfg.Server.LogLevel)

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelError}),
	}

	closeFn := func() {}
	if cfg.Server.LogFile != "" {
		f, err := openLogFile(cfg.Server.LogFile)
		if err != nil {
			fmt.Fprintf(stderr, "nudge: log file unavailable, logging errors to stderr only: %v\n", err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
			closeFn = func() { _ = f.Close() }
		}
	}

	slog.SetDefault(slog.New(slog.NewMultiHandler(handlers...)))
	return closeFn
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // path comes from configuration
}

func enabledWord(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
