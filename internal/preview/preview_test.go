package preview

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func sleeper(t *testing.T) *Launcher {
	t.Helper()
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	l := &Launcher{Binary: "sleep", Args: []string{"30"}}
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func TestStart_SecondCallReportsAlreadyRunning(t *testing.T) {
	l := sleeper(t)
	st, err := l.Start(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st != StatusRunning {
		t.Errorf("status = %q, want %q", st, StatusRunning)
	}
	st, err = l.Start(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if st != StatusAlreadyRunning {
		t.Errorf("status = %q, want %q", st, StatusAlreadyRunning)
	}
}

func TestStop_AllowsRestart(t *testing.T) {
	l := sleeper(t)
	if _, err := l.Start(context.Background(), t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if l.Running() {
		t.Fatal("still running after Stop")
	}
	st, err := l.Start(context.Background(), t.TempDir())
	if err != nil || st != StatusRunning {
		t.Fatalf("restart = %q, %v", st, err)
	}
}

func TestProcessExitClearsState(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	l := &Launcher{Binary: "true", Args: []string{"x"}}
	if _, err := l.Start(context.Background(), t.TempDir()); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for l.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if l.Running() {
		t.Fatal("launcher still reports running after process exit")
	}
}

func TestStart_MissingBinary(t *testing.T) {
	l := &Launcher{Binary: "zolapub-no-such-binary"}
	if _, err := l.Start(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestStop_NotRunning(t *testing.T) {
	var l Launcher
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
