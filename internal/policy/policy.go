// Package policy maps events to notifications. It performs no I/O.
package policy

import (
	"fmt"
	"time"

	"github.com/claudekit/nudge/internal/event"
	"github.com/claudekit/nudge/internal/notify"
	"github.com/claudekit/nudge/internal/task"
)

// Context is the state a resolution may depend on besides the event.
type Context struct {
	Task  *task.Task // the task a Stop closed, if any
	Sound string     // configured default sound
	Now   time.Time
}

// rule is one row of the notification table. An empty sound means the
// configured default.
type rule struct {
	title    string
	subtitle string
	message  string
	sound    string
	urgency  notify.Urgency
	click    notify.ClickAction
}

const defaultMessage = "Claude Code notification"

var notificationRules = map[event.Subtype]rule{
	event.PermissionPrompt: {
		title: "Permission Required", subtitle: "Claude needs approval",
		sound: "Basso", urgency: notify.UrgencyCritical, click: notify.ClickOpenEditorAtPath,
	},
	event.IdlePrompt: {
		title: "Waiting for Input", subtitle: "Claude is idle", message: "Waiting for your input (60+ seconds)",
		sound: "Purr", urgency: notify.UrgencyLow, click: notify.ClickOpenEditorAtPath,
	},
	event.ElicitationDialog: {
		title: "Input Needed", subtitle: "MCP tool requires input",
		sound: "Ping", urgency: notify.UrgencyHigh, click: notify.ClickOpenEditorAtPath,
	},
	event.AuthSuccess: {
		title: "Authentication Success", subtitle: "Logged in successfully",
		sound: "Glass", urgency: notify.UrgencyLow, click: notify.ClickNone,
	},
}

var otherNotification = rule{
	title: "Claude Code", subtitle: "Notification",
	urgency: notify.UrgencyNormal, click: notify.ClickOpenEditorAtPath,
}

var permissionRequest = rule{
	title: "Permission Required", subtitle: "Tool needs approval",
	sound: "Basso", urgency: notify.UrgencyCritical, click: notify.ClickOpenEditorAtPath,
}

var sessionSources = map[string]string{
	"startup": "Session started",
	"resume":  "Session resumed",
	"clear":   "Session cleared",
	"compact": "Session compacted",
}

// Resolve returns the notification for ev. The boolean is false for events
// that produce none.
func Resolve(ev event.Event, c Context) (notify.Notification, bool) {
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	project := task.ProjectName(ev.WorkingDirectory)

	var r rule
	switch ev.Type {
	case event.SessionStart:
		subtitle, ok := sessionSources[ev.Source]
		if !ok {
			subtitle = "Session event"
		}
		r = rule{
			title: project, subtitle: subtitle, message: "Ready to work • " + c.Now.Format("15:04"),
			sound: "Glass", urgency: notify.UrgencyLow, click: notify.ClickNone,
		}
	case event.SessionEnd:
		reason := ev.Reason
		if reason == "" {
			reason = "exit"
		}
		r = rule{
			title: project, subtitle: "Session ended", message: "Reason: " + reason,
			sound: "Glass", urgency: notify.UrgencyLow, click: notify.ClickNone,
		}
	case event.Stop:
		r = rule{
			title: project, subtitle: "Task complete", message: "Finished responding",
			urgency: notify.UrgencyNormal, click: notify.ClickOpenEditorAtPath,
		}
		if t := c.Task; t != nil && t.HasMeasuredDuration() {
			r.subtitle = fmt.Sprintf("Task #%d complete", t.Seq)
			r.message = "Duration: " + FormatDuration(*t.DurationSeconds)
		}
	case event.SubagentStop:
		r = rule{
			title: project, subtitle: "Agent task complete", message: "Subagent finished processing",
			urgency: notify.UrgencyLow, click: notify.ClickOpenEditorAtPath,
		}
	case event.Notification:
		var ok bool
		if r, ok = notificationRules[ev.Subtype]; !ok {
			r = otherNotification
		}
	case event.PermissionRequest:
		r = permissionRequest
	default:
		// UserPromptSubmit and anything unrecognised
		return notify.Notification{}, false
	}

	if r.message == "" {
		r.message = ev.Message
		if r.message == "" {
			r.message = defaultMessage
		}
	}
	if r.sound == "" {
		r.sound = c.Sound
	}

	n := notify.Notification{
		Title:      r.title,
		Subtitle:   r.subtitle,
		Message:    r.message,
		Sound:      r.sound,
		Urgency:    r.urgency,
		Click:      r.click,
		SessionID:  ev.SessionID,
		EventType:  string(ev.Type),
		Completion: ev.Type.Completion(),
	}
	if r.click != notify.ClickNone {
		n.Path = ev.WorkingDirectory
	}
	if c.Task != nil {
		n.TaskSeq = c.Task.Seq
		if n.Path == "" && r.click != notify.ClickNone {
			n.Path = c.Task.WorkingDirectory
		}
	}
	return n, true
}

// FormatDuration renders whole seconds as "42s", "2m 23s" or "2h 15m".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}
