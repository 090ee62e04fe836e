// Package notify shows desktop notifications through the platform's own tools.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/alessio/shellescape"
)

type Notifier interface {
	Notify(title, body string) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// Desktop runs notify-send on Linux and osascript on macOS.
type Desktop struct {
	// Expire is how long the notification stays on screen where supported.
	Expire time.Duration
	run    func(ctx context.Context, name string, args ...string) error
}

// New returns a Desktop notifier when enabled and supported, Nop otherwise.
func New(enabled bool, expire time.Duration) Notifier {
	if !enabled {
		return Nop{}
	}
	switch runtime.GOOS {
	case "linux", "darwin":
		return &Desktop{Expire: expire}
	}
	slog.Debug("Desktop notifications not supported", "os", runtime.GOOS)
	return Nop{}
}

func (d *Desktop) Notify(title, body string) error {
	name, args := d.command(runtime.GOOS, title, body)
	if name == "" {
		return nil
	}

	slog.Debug("Executing command", "cmd", shellescape.QuoteCommand(append([]string{name}, args...)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run := d.run
	if run == nil {
		run = runCommand
	}
	if err := run(ctx, name, args...); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

func (d *Desktop) command(goos, title, body string) (string, []string) {
	switch goos {
	case "linux":
		args := []string{"--app-name=SaveTube"}
		if d.Expire > 0 {
			args = append(args, "-t", fmt.Sprint(d.Expire.Milliseconds()))
		}
		return "notify-send", append(args, title, body)
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptString(body), appleScriptString(title))
		return "osascript", []string{"-e", script}
	}
	return "", nil
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w, output: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
