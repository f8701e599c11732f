// Package preview runs the static site generator's development server.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// Status of a Start call.
type Status string

const (
	StatusRunning        Status = "running"
	StatusAlreadyRunning Status = "already-running"
)

// DefaultURL is where `zola serve` listens unless told otherwise.
const DefaultURL = "http://127.0.0.1:1111"

// Launcher owns at most one preview server process.
type Launcher struct {
	// Binary defaults to "zola".
	Binary string
	// Args default to "serve".
	Args   []string
	Logger *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// Start launches the server in root unless one is already running. The
// process is not bound to ctx; ctx only bounds the launch itself.
func (l *Launcher) Start(ctx context.Context, root string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cmd != nil {
		return StatusAlreadyRunning, nil
	}

	bin := l.Binary
	if bin == "" {
		bin = "zola"
	}
	args := l.Args
	if len(args) == 0 {
		args = []string{"serve"}
	}

	cmd := exec.Command(bin, args...)
	cmd.Dir = root
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("preview: start %s: %w", bin, err)
	}
	done := make(chan struct{})
	l.cmd, l.done = cmd, done
	l.logger().Info("preview: started", slog.String("root", root), slog.Int("pid", cmd.Process.Pid))

	go func() {
		err := cmd.Wait()
		l.mu.Lock()
		if l.cmd == cmd {
			l.cmd, l.done = nil, nil
		}
		l.mu.Unlock()
		close(done)
		if err != nil {
			l.logger().Warn("preview: exited", slog.String("error", err.Error()))
			return
		}
		l.logger().Info("preview: exited")
	}()
	return StatusRunning, nil
}

// Running reports whether a server process is alive.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cmd != nil
}

// Stop kills the running server and waits for it to exit.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	cmd, done := l.cmd, l.done
	l.mu.Unlock()
	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("preview: stop: %w", err)
	}
	<-done
	return nil
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
