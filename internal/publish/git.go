// Package publish commits the site tree and pushes it to the configured remote.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/stella-dust/zolapub/internal/apperr"
)

// DefaultRemote is pushed to when no repository URL is configured.
const DefaultRemote = "origin"

// Result describes a successful publish.
type Result struct {
	Commit string `json:"commit"`
	Remote string `json:"remote"`
	Branch string `json:"branch"`
}

// Git publishes a working tree with the git binary.
type Git struct {
	// RepoURL is pushed to directly; empty means DefaultRemote.
	RepoURL string
	// Branch is the remote branch; empty means the current branch name.
	Branch string
	Logger *slog.Logger
}

// Publish stages everything under dir, commits with message and pushes.
// A clean working tree yields apperr.ErrNothingToCommit.
func (g *Git) Publish(ctx context.Context, dir, message string) (*Result, error) {
	if message == "" {
		return nil, fmt.Errorf("commit message is required")
	}
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}

	status, err := g.exec(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(status)) == "" {
		return nil, apperr.ErrNothingToCommit
	}

	if _, err := g.exec(ctx, dir, "add", "-A"); err != nil {
		return nil, err
	}
	if _, err := g.exec(ctx, dir, "commit", "-m", message); err != nil {
		return nil, err
	}
	head, err := g.exec(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}

	res := &Result{
		Commit: strings.TrimSpace(string(head)),
		Remote: g.RepoURL,
		Branch: g.Branch,
	}
	if res.Remote == "" {
		res.Remote = DefaultRemote
	}
	if res.Branch == "" {
		cur, err := g.exec(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return nil, err
		}
		res.Branch = strings.TrimSpace(string(cur))
	}

	if _, err := g.exec(ctx, dir, "push", res.Remote, "HEAD:"+res.Branch); err != nil {
		return nil, err
	}
	logger.Info("publish: pushed",
		slog.String("commit", res.Commit),
		slog.String("branch", res.Branch))
	return res, nil
}

func (g *Git) exec(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\n%s",
			strings.Join(args, " "), err, string(output))
	}
	return output, nil
}
