package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claudekit/nudge/internal/mcp/handlers"
)

func registerTools(s *server.MCPServer, deps *Deps) {
	// list_tasks: recorded tasks, newest first
	s.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List recorded Claude Code tasks, newest first, with their duration and status."),
			mcp.WithString("session_id",
				mcp.Description("Only tasks from this Claude Code session"),
			),
			mcp.WithBoolean("open_only",
				mcp.Description("If true, only tasks still waiting for a response"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of tasks to return (default: 20)"),
			),
			mcp.WithString("since",
				mcp.Description("RFC 3339 datetime; only tasks created after this time"),
			),
		),
		handlers.ListTasks(deps.History),
	)

	// session_summary: aggregates for one session
	s.AddTool(
		mcp.NewTool("session_summary",
			mcp.WithDescription("Summarize one Claude Code session: task counts, total and longest duration, and the task in progress."),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("Claude Code session ID"),
			),
		),
		handlers.SessionSummary(deps.History),
	)
}
