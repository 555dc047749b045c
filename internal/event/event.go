// Package event decodes the lifecycle events the assistant host writes to a
// hook's standard input.
package event

import "errors"

// Type is a hook event name. The set is closed.
type Type string

const (
	SessionStart      Type = "SessionStart"
	SessionEnd        Type = "SessionEnd"
	UserPromptSubmit  Type = "UserPromptSubmit"
	Stop              Type = "Stop"
	SubagentStop      Type = "SubagentStop"
	Notification      Type = "Notification"
	PermissionRequest Type = "PermissionRequest"
)

// Types lists every recognised event type.
var Types = []Type{
	SessionStart, SessionEnd, UserPromptSubmit, Stop, SubagentStop, Notification, PermissionRequest,
}

// Known reports whether t belongs to the closed set.
func (t Type) Known() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// Completion reports whether the event marks the end of assistant work.
func (t Type) Completion() bool {
	return t == Stop || t == SubagentStop
}

// Subtype qualifies a Notification event.
type Subtype string

const (
	PermissionPrompt  Subtype = "permission_prompt"
	IdlePrompt        Subtype = "idle_prompt"
	ElicitationDialog Subtype = "elicitation_dialog"
	AuthSuccess       Subtype = "auth_success"
)

// Event is one decoded hook payload.
type Event struct {
	Type             Type
	Subtype          Subtype
	SessionID        string
	WorkingDirectory string
	Prompt           string
	Message          string
	Source           string // SessionStart: startup, resume, clear, compact
	Reason           string // SessionEnd
}

var (
	// ErrMalformedEvent means the payload could not be parsed or lacks a type.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrUnknownEventType means the payload parsed but names no known event.
	ErrUnknownEventType = errors.New("unknown event type")
)
