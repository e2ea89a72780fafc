// Package handoff dispatches steam:// deep links to whatever the host
// environment routes them to. Dispatch is fire-and-forget: there is no
// channel telling us whether a Steam client actually launched.
package handoff

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
)

// Dispatcher performs the hand-off of one deep link.
type Dispatcher interface {
	Dispatch(ctx context.Context, link string) error
}

// Launcher hands links to the operating system's protocol handler
// (xdg-open, open, or the Windows URL handler).
type Launcher struct {
	command string
	args    []string
	logger  *slog.Logger
	start   func(name string, args ...string) error
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithCommand overrides the opener binary. The link is appended to args.
func WithCommand(name string, args ...string) LauncherOption {
	return func(l *Launcher) {
		l.command = name
		l.args = args
	}
}

// WithLauncherLogger sets a custom logger.
func WithLauncherLogger(logger *slog.Logger) LauncherOption {
	return func(l *Launcher) { l.logger = logger }
}

// NewLauncher returns a Launcher using the platform default opener.
func NewLauncher(opts ...LauncherOption) *Launcher {
	name, args := defaultOpener(runtime.GOOS)
	l := &Launcher{
		command: name,
		args:    args,
		logger:  slog.Default(),
		start:   startDetached,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func defaultOpener(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// Dispatch starts the opener and returns without waiting for it. The
// opener outlives ctx: cancelling a request must not kill the client launch.
func (l *Launcher) Dispatch(_ context.Context, link string) error {
	args := append(append([]string(nil), l.args...), link)
	if err := l.start(l.command, args...); err != nil {
		return fmt.Errorf("handoff: start %s: %w", l.command, err)
	}
	l.logger.Info("handoff: dispatched via launcher", "command", l.command, "link", link)
	return nil
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// Printer writes links to w instead of dispatching them. Used for dry runs.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a Printer writing one link per line.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Dispatch(_ context.Context, link string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintln(p.w, link)
	return err
}
