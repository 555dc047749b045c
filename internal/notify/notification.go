package notify

import "fmt"

// Urgency orders notifications from background chatter to "needs you now".
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyHigh
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	default:
		return fmt.Sprintf("urgency(%d)", int(u))
	}
}

// ParseUrgency maps a name back to an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	switch s {
	case "low":
		return UrgencyLow, nil
	case "normal":
		return UrgencyNormal, nil
	case "high":
		return UrgencyHigh, nil
	case "critical":
		return UrgencyCritical, nil
	}
	return UrgencyNormal, fmt.Errorf("unknown urgency %q", s)
}

// ClickAction is what happens when the user clicks the notification.
type ClickAction string

const (
	ClickNone             ClickAction = "none"
	ClickOpenEditorAtPath ClickAction = "open_editor_at_path"
	ClickFocusWindow      ClickAction = "focus_window"
)

// Notification is a fully resolved, backend-agnostic notification.
type Notification struct {
	Title    string
	Subtitle string
	Message  string
	Sound    string
	Urgency  Urgency
	Click    ClickAction
	Path     string // working directory the click action refers to

	SessionID  string
	EventType  string
	TaskSeq    int
	Completion bool // Stop or SubagentStop; eligible for focus suppression
}

// Body joins subtitle and message for targets that have no subtitle line.
func (n Notification) Body() string {
	switch {
	case n.Subtitle == "":
		return n.Message
	case n.Message == "":
		return n.Subtitle
	default:
		return n.Subtitle + "\n" + n.Message
	}
}
