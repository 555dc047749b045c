package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claudekit/nudge/internal/policy"
	"github.com/claudekit/nudge/internal/task"
)

// SessionSummary returns a handler that aggregates the tasks of one session.
func SessionSummary(h History) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		sessionID, _ := args["session_id"].(string)
		if sessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}

		sum, err := h.Summary(ctx, sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Session not found: %s", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Session %s\n\n", sum.SessionID)
		fmt.Fprintf(&sb, "Tasks: %d (completed %d, superseded %d)\n", sum.Tasks, sum.Completed, sum.Superseded)
		fmt.Fprintf(&sb, "Last task: #%d\n", sum.LastSeq)
		fmt.Fprintf(&sb, "Total time: %s | Longest: %s\n",
			policy.FormatDuration(sum.TotalSeconds), policy.FormatDuration(sum.LongestSeconds))
		fmt.Fprintf(&sb, "First seen: %s\n", sum.FirstSeen.UTC().Format(time.RFC3339))
		fmt.Fprintf(&sb, "Last seen: %s\n", sum.LastSeen.UTC().Format(time.RFC3339))

		if sum.Open != nil {
			open := task.FromRecord(sum.Open)
			fmt.Fprintf(&sb, "\nIn progress: %s #%d since %s\n",
				open.DisplayName(), open.Seq, open.CreatedAt.UTC().Format(time.RFC3339))
			if open.Prompt != "" {
				fmt.Fprintf(&sb, "  Prompt: %q\n", preview(open.Prompt))
			}
		}

		dispatches, err := h.Dispatches(ctx, sessionID, recentDispatches)
		if err != nil {
			slog.Warn("listing dispatches failed", "session_id", sessionID, "error", err)
		}
		if len(dispatches) > 0 {
			sb.WriteString("\nRecent notifications:\n")
			for _, d := range dispatches {
				fmt.Fprintf(&sb, "- %s %s via %s: %s", d.CreatedAt.UTC().Format(time.RFC3339), d.EventType, d.Backend, d.Outcome)
				if d.Title != "" {
					fmt.Fprintf(&sb, " %q", d.Title)
				}
				sb.WriteString("\n")
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
