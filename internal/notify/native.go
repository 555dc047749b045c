package notify

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// NativeBackend posts through the operating system's own notification
// facility. It has no click actions and never suppresses.
type NativeBackend struct {
	runner
	goos   string
	getenv func(string) string
}

// NewNativeBackend creates a backend for the running OS. A nil execFn runs
// real commands.
func NewNativeBackend(execFn ExecFunc) *NativeBackend {
	return &NativeBackend{runner: newRunner(execFn), goos: runtime.GOOS, getenv: os.Getenv}
}

func (b *NativeBackend) SetTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

func (b *NativeBackend) SetLookPath(fn LookPathFunc) { b.lookPath = fn }

func (b *NativeBackend) Name() string              { return "native" }
func (b *NativeBackend) SupportsFocus() bool       { return false }
func (b *NativeBackend) SupportsSuppression() bool { return false }

func (b *NativeBackend) Available(_ context.Context) bool {
	switch b.goos {
	case "darwin":
		return b.has("osascript")
	case "linux", "freebsd", "openbsd", "netbsd":
		return b.has("notify-send") && b.hasDisplay()
	case "windows":
		return b.has("powershell")
	default:
		return false
	}
}

func (b *NativeBackend) hasDisplay() bool {
	return b.getenv("DISPLAY") != "" || b.getenv("WAYLAND_DISPLAY") != ""
}

func (b *NativeBackend) Deliver(ctx context.Context, n Notification) error {
	switch b.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q subtitle %q`, n.Message, n.Title, n.Subtitle)
		if n.Sound != "" {
			script += fmt.Sprintf(` sound name %q`, n.Sound)
		}
		return b.run(ctx, "osascript", "-e", script)
	case "windows":
		return b.run(ctx, "powershell", "-ExecutionPolicy", "Bypass", "-NoProfile", "-Command", toastScript(n))
	case "linux", "freebsd", "openbsd", "netbsd":
		return b.run(ctx, "notify-send", "-u", notifySendUrgency(n.Urgency), "-a", "Claude Code", n.Title, n.Body())
	default:
		return fmt.Errorf("%w: no native notifier on %s", ErrBackendUnavailable, b.goos)
	}
}

// notifySendUrgency folds the four levels onto notify-send's three.
func notifySendUrgency(u Urgency) string {
	switch {
	case u >= UrgencyHigh:
		return "critical"
	case u == UrgencyLow:
		return "low"
	default:
		return "normal"
	}
}

func toastScript(n Notification) string {
	return fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$textNodes = $template.GetElementsByTagName('text')
$textNodes.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
$textNodes.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('Claude Code').Show($toast)
`, escapeForPowerShell(n.Title), escapeForPowerShell(n.Body()))
}

func escapeForPowerShell(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '\'':
			b.WriteString("''")
		case '`', '$':
			b.WriteRune('`')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
