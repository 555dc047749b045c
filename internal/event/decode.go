package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	// maxPayloadBytes caps stdin reads; hook payloads are small JSON objects.
	maxPayloadBytes = 1 << 20

	// MaxPromptRunes bounds the prompt summary kept with a task.
	MaxPromptRunes = 500
)

// payload accepts both the documented field names and the ones the host
// actually emits (hook_event_name, notification_type, cwd).
type payload struct {
	Type             string `json:"type"`
	HookEventName    string `json:"hook_event_name"`
	NotificationType string `json:"notificationType"`
	NotificationAlt  string `json:"notification_type"`
	SessionID        string `json:"session_id"`
	WorkingDirectory string `json:"workingDirectory"`
	CWD              string `json:"cwd"`
	Prompt           string `json:"prompt"`
	Message          string `json:"message"`
	Source           string `json:"source"`
	Reason           string `json:"reason"`
}

// Decode parses one hook payload.
func Decode(buf []byte) (Event, error) {
	return decode(buf, "")
}

// DecodeReader reads one payload from r. fallbackType is the hook name given
// on the command line; it is used when the payload carries no type.
func DecodeReader(r io.Reader, fallbackType string) (Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes))
	if err != nil {
		return Event{}, fmt.Errorf("%w: reading input: %v", ErrMalformedEvent, err)
	}
	return decode(data, fallbackType)
}

func decode(buf []byte, fallbackType string) (Event, error) {
	buf = bytes.TrimSpace(buf)
	if len(buf) == 0 {
		return Event{}, fmt.Errorf("%w: empty input", ErrMalformedEvent)
	}
	if buf[0] != '{' {
		return Event{}, fmt.Errorf("%w: input is not a JSON object", ErrMalformedEvent)
	}

	var p payload
	if err := json.Unmarshal(buf, &p); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	name := firstNonEmpty(p.Type, p.HookEventName)
	if fallbackType != "" {
		if name == "" {
			name = fallbackType
		} else if name != fallbackType {
			slog.Warn("hook name mismatch, using payload type", "expected", fallbackType, "got", name)
		}
	}
	if name == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	ev := Event{
		Type:             Type(name),
		Subtype:          Subtype(firstNonEmpty(p.NotificationType, p.NotificationAlt)),
		SessionID:        strings.TrimSpace(p.SessionID),
		WorkingDirectory: firstNonEmpty(p.WorkingDirectory, p.CWD),
		Prompt:           TruncatePrompt(p.Prompt),
		Message:          p.Message,
		Source:           p.Source,
		Reason:           p.Reason,
	}

	if !ev.Type.Known() {
		return ev, fmt.Errorf("%w: %q", ErrUnknownEventType, name)
	}

	return ev, nil
}

// TruncatePrompt shortens a prompt to MaxPromptRunes, marking the cut.
func TruncatePrompt(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxPromptRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxPromptRunes]) + "…"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
