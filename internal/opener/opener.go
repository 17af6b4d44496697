// Package opener hands selected attachments to the desktop.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// DefaultCommand is the freedesktop default-handler launcher.
const DefaultCommand = "xdg-open"

// Opener opens a file with some external handler.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// CommandOpener runs a command with the path as its last argument and does
// not wait for the handler to exit.
type CommandOpener struct {
	name   string
	args   []string
	logger *zap.Logger // optional
}

// OpenerOption configures a CommandOpener.
type OpenerOption func(*CommandOpener)

// WithLogger sets a logger for debug output (spawned commands).
func WithLogger(l *zap.Logger) OpenerOption {
	return func(o *CommandOpener) { o.logger = l }
}

// NewCommandOpener parses command ("xdg-open", "zathura --fork") into a program
// and leading arguments. An empty command selects DefaultCommand.
func NewCommandOpener(command string, opts ...OpenerOption) *CommandOpener {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{DefaultCommand}
	}
	o := &CommandOpener{name: fields[0], args: fields[1:]}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Command returns the program and arguments that Open would run for path.
func (o *CommandOpener) Command(path string) []string {
	argv := make([]string, 0, len(o.args)+2)
	argv = append(argv, o.name)
	argv = append(argv, o.args...)
	return append(argv, path)
}

// Open starts the handler and reaps it in the background.
func (o *CommandOpener) Open(ctx context.Context, path string) error {
	argv := o.Command(path)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", o.name, err)
	}
	if o.logger != nil {
		o.logger.Debug("opener started", zap.Strings("argv", argv), zap.Int("pid", cmd.Process.Pid))
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Copier puts text somewhere the user can paste it from.
type Copier interface {
	Copy(text string) error
}

// ClipboardCopier writes to the system clipboard.
type ClipboardCopier struct{}

// Copy writes text to the clipboard.
func (ClipboardCopier) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}
