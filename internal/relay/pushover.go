// Package relay forwards notifications to a phone through a push provider
// when the assistant runs on a machine the user is not sitting at.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claudekit/nudge/internal/notify"
)

// DefaultURL is the Pushover message endpoint.
const DefaultURL = "https://api.pushover.net/1/messages.json"

// ErrNotConfigured means the API token or user key is missing.
var ErrNotConfigured = errors.New("relay credentials not configured")

// Pushover posts notifications to the Pushover API. It makes exactly one
// attempt per notification.
type Pushover struct {
	endpoint string
	token    string
	user     string
	client   *http.Client
}

// NewPushover creates a client. An empty endpoint uses DefaultURL.
func NewPushover(endpoint, token, user string, timeout time.Duration) *Pushover {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Pushover{
		endpoint: endpoint,
		token:    token,
		user:     user,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether both credentials are present.
func (p *Pushover) Enabled() bool {
	return p.token != "" && p.user != ""
}

// Priority maps urgency onto Pushover's priority scale.
func Priority(u notify.Urgency) int {
	switch u {
	case notify.UrgencyLow:
		return -1
	case notify.UrgencyHigh, notify.UrgencyCritical:
		return 1
	default:
		return 0
	}
}

type apiResponse struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
}

// Send posts n. The title carries the notification title and subtitle,
// since Pushover has no subtitle field.
func (p *Pushover) Send(ctx context.Context, n notify.Notification) error {
	if !p.Enabled() {
		return ErrNotConfigured
	}

	title := n.Title
	if n.Subtitle != "" {
		title += " · " + n.Subtitle
	}
	form := url.Values{
		"token":    {p.token},
		"user":     {p.user},
		"title":    {title},
		"message":  {n.Message},
		"priority": {strconv.Itoa(Priority(n.Urgency))},
	}
	if s := pushoverSound(n.Sound); s != "" {
		form.Set("sound", s)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		var ar apiResponse
		if json.Unmarshal(body, &ar) == nil && len(ar.Errors) > 0 {
			return fmt.Errorf("relay rejected (%d): %s", resp.StatusCode, strings.Join(ar.Errors, "; "))
		}
		return fmt.Errorf("relay rejected: HTTP %d", resp.StatusCode)
	}
	return nil
}

// pushoverSound maps macOS system sound names onto Pushover's built-in set.
// Unknown names use the account default.
func pushoverSound(s string) string {
	switch strings.ToLower(s) {
	case "basso":
		return "siren"
	case "purr":
		return "none"
	case "ping":
		return "pushover"
	case "glass", "hero", "tink":
		return "magic"
	default:
		return ""
	}
}

// IsRemoteSession reports whether the process runs under an SSH login.
func IsRemoteSession(getenv func(string) string) bool {
	for _, k := range []string{"SSH_CONNECTION", "SSH_CLIENT", "SSH_TTY"} {
		if getenv(k) != "" {
			return true
		}
	}
	return false
}
