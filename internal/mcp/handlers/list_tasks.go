package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claudekit/nudge/internal/policy"
	"github.com/claudekit/nudge/internal/store"
	"github.com/claudekit/nudge/internal/task"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	promptPreview    = 80
	recentDispatches = 5
)

// History is the slice of the tracker the MCP tools read from.
type History interface {
	History(ctx context.Context, f store.TaskFilter) ([]*task.Task, error)
	Summary(ctx context.Context, sessionID string) (*store.SessionSummary, error)
	Dispatches(ctx context.Context, sessionID string, limit int) ([]store.DispatchRecord, error)
}

// ListTasks returns a handler that lists recorded tasks with optional filters.
func ListTasks(h History) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		filter := store.TaskFilter{Limit: defaultListLimit}
		if sid, ok := args["session_id"].(string); ok {
			filter.SessionID = sid
		}
		if open, ok := args["open_only"].(bool); ok {
			filter.OpenOnly = open
		}
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			filter.Limit = min(int(limit), maxListLimit)
		}
		if since, ok := args["since"].(string); ok && since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("since must be RFC 3339: %s", err)), nil
			}
			filter.Since = t
		}

		tasks, err := h.History(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Task history unavailable: %s", err)), nil
		}

		if len(tasks) == 0 {
			return mcp.NewToolResultText("No tasks found matching the given filters."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Tasks (%d found)\n\n", len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(&sb, "%s **%s #%d** (%s)\n", taskIcon(t), t.DisplayName(), t.Seq, t.SessionID)
			if t.Prompt != "" {
				fmt.Fprintf(&sb, "  Prompt: %q\n", preview(t.Prompt))
			}
			fmt.Fprintf(&sb, "  Started: %s", t.CreatedAt.UTC().Format(time.RFC3339))
			switch {
			case t.IsOpen():
				sb.WriteString(" | running")
			case t.HasMeasuredDuration():
				fmt.Fprintf(&sb, " | Duration: %s", policy.FormatDuration(*t.DurationSeconds))
			}
			if t.Superseded {
				sb.WriteString(" | superseded")
			}
			sb.WriteString("\n\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func taskIcon(t *task.Task) string {
	switch {
	case t.IsOpen():
		return "🔄"
	case t.Superseded:
		return "⏭️"
	case t.Synthesized:
		return "❔"
	default:
		return "✅"
	}
}

func preview(prompt string) string {
	prompt = strings.Join(strings.Fields(prompt), " ")
	r := []rune(prompt)
	if len(r) <= promptPreview {
		return prompt
	}
	return string(r[:promptPreview]) + "..."
}
