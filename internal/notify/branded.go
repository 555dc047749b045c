package notify

import (
	"context"
	"fmt"
	"time"
)

// editorCommands maps known editors to their open-folder invocation.
var editorCommands = map[string]string{
	"zed":    `zed "%s"`,
	"code":   `/usr/local/bin/code "%s"`,
	"cursor": `cursor "%s"`,
	"subl":   `subl "%s"`,
	"atom":   `atom "%s"`,
}

// EditorCommand returns the shell command that opens path in editor, or ""
// when either is empty.
func EditorCommand(editor, path string) string {
	if editor == "" || path == "" {
		return ""
	}
	if tmpl, ok := editorCommands[editor]; ok {
		return fmt.Sprintf(tmpl, path)
	}
	return fmt.Sprintf(`%s "%s"`, editor, path)
}

// BrandedBackend posts through terminal-notifier, which carries a subtitle,
// a sound, a group id and a shell command to run on click.
type BrandedBackend struct {
	runner
	binary string
	editor string
}

func NewBrandedBackend(binary, editor string, execFn ExecFunc) *BrandedBackend {
	if binary == "" {
		binary = "terminal-notifier"
	}
	return &BrandedBackend{runner: newRunner(execFn), binary: binary, editor: editor}
}

func (b *BrandedBackend) SetTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

func (b *BrandedBackend) SetLookPath(fn LookPathFunc) { b.lookPath = fn }

func (b *BrandedBackend) Name() string                     { return "branded" }
func (b *BrandedBackend) SupportsFocus() bool              { return false }
func (b *BrandedBackend) SupportsSuppression() bool        { return false }
func (b *BrandedBackend) Available(_ context.Context) bool { return b.has(b.binary) }

func (b *BrandedBackend) Deliver(ctx context.Context, n Notification) error {
	var onClick string
	if n.Click == ClickOpenEditorAtPath {
		onClick = EditorCommand(b.editor, n.Path)
	}
	return b.post(ctx, n, onClick)
}

// post runs terminal-notifier with onClick as the -execute command.
func (b *BrandedBackend) post(ctx context.Context, n Notification, onClick string) error {
	args := []string{"-title", n.Title, "-message", n.Message}
	if n.Subtitle != "" {
		args = append(args, "-subtitle", n.Subtitle)
	}
	if n.Sound != "" {
		args = append(args, "-sound", n.Sound)
	}
	if n.SessionID != "" {
		args = append(args, "-group", "nudge-"+n.SessionID)
	}
	if onClick != "" {
		args = append(args, "-execute", onClick)
	}
	return b.run(ctx, b.binary, args...)
}
