package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/claudekit/nudge/internal/auth"
	"github.com/claudekit/nudge/internal/config"
	nudgemcp "github.com/claudekit/nudge/internal/mcp"
	"github.com/claudekit/nudge/internal/mcp/handlers"
	"github.com/claudekit/nudge/internal/mcp/middleware"
)

var serveRotateToken bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task history over MCP on localhost",
	Long: `Starts a localhost HTTP server with /health and an MCP endpoint at /mcp
exposing the list_tasks and session_summary tools. Requests to /mcp need
the bearer token stored in server.token_dir, created on first run.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveRotateToken, "rotate-token", false, "Replace the bearer token before starting")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	closeLog := setupLogging(cfg, cmd.ErrOrStderr())
	defer closeLog()

	token, err := loadToken(cfg.Server.TokenDir, serveRotateToken)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "bearer token: %s\n", auth.TokenPath(cfg.Server.TokenDir))

	slog.Info("starting nudge serve",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return serve(ctx, cfg, newApp(cfg).tracker, token)
}

func loadToken(dir string, rotate bool) (string, error) {
	if rotate {
		return auth.RotateToken(dir)
	}
	return auth.LoadOrCreateToken(dir)
}

func newRouter(history handlers.History, token string) http.Handler {
	mcpServer := nudgemcp.NewServer(&nudgemcp.Deps{
		History: history,
		Version: version,
	})
	mcpHTTP := server.NewStreamableHTTPServer(mcpServer)

	r := chi.NewRouter()
	r.Use(middleware.SecurityHeaders)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(token))
		r.Handle("/mcp", mcpHTTP)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

func serve(ctx context.Context, cfg *config.Config, history handlers.History, token string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(history, token),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("nudge serve is ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
