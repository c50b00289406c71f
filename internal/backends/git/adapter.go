package git

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"codetour/internal/config"
	"codetour/internal/errors"
	"codetour/internal/repostate"
)

const (
	// BackendID is the unique identifier for the Git backend
	BackendID = "git"

	// DefaultRenameSimilarity is the -M threshold used when config leaves it unset.
	DefaultRenameSimilarity = 50
)

// GitAdapter answers revision questions by shelling out to git in the repo root.
// It implements revision.Oracle.
type GitAdapter struct {
	repoRoot         string
	queryTimeout     time.Duration
	renameSimilarity int
	logger           *slog.Logger
}

// NewGitAdapter creates a new Git backend adapter
func NewGitAdapter(cfg *config.Config, logger *slog.Logger) (*GitAdapter, error) {
	if logger == nil {
		return nil, errors.NewTourError(
			errors.InternalError,
			"Logger is required for GitAdapter",
			nil,
			nil,
		)
	}

	if !cfg.Git.Enabled {
		return nil, errors.NewTourError(
			errors.BackendUnavailable,
			"Git backend is disabled in config",
			nil,
			nil,
		)
	}

	similarity := cfg.Git.RenameSimilarity
	if similarity <= 0 || similarity > 100 {
		similarity = DefaultRenameSimilarity
	}

	adapter := &GitAdapter{
		repoRoot:         cfg.RepoRoot,
		queryTimeout:     time.Duration(cfg.Git.TimeoutMs) * time.Millisecond,
		renameSimilarity: similarity,
		logger:           logger,
	}

	if !adapter.IsAvailable() {
		return nil, errors.NewTourError(
			errors.BackendUnavailable,
			"Git is not available in this repository",
			nil,
			errors.GetSuggestedFixes(errors.BackendUnavailable),
		)
	}

	logger.Debug("Git adapter initialized",
		"backend", BackendID,
		"repoRoot", cfg.RepoRoot,
		"timeout", adapter.queryTimeout.String(),
		"renameSimilarity", similarity,
	)

	return adapter, nil
}

// ID returns the backend identifier
func (g *GitAdapter) ID() string {
	return BackendID
}

// IsAvailable checks if git is installed and the root is a git repository
func (g *GitAdapter) IsAvailable() bool {
	if _, err := exec.LookPath("git"); err != nil {
		return false
	}
	return repostate.IsGitRepository(g.repoRoot)
}

// executeGitCommand runs a git command with the configured timeout and returns
// stdout with surrounding whitespace removed.
func (g *GitAdapter) executeGitCommand(ctx context.Context, args ...string) (string, error) {
	output, err := g.executeGitCommandRaw(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// executeGitCommandRaw runs a git command and returns stdout untouched. Diff output
// must not be trimmed: leading spaces are significant.
func (g *GitAdapter) executeGitCommandRaw(ctx context.Context, args ...string) (string, error) {
	if g.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.queryTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	g.logger.Debug("Executing git command",
		"args", args,
		"timeout", g.queryTimeout.String(),
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.NewTourError(
				errors.Timeout,
				"Git command timed out",
				err,
				nil,
			).WithDetails(map[string]interface{}{
				"args": args,
			})
		}

		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", errors.NewTourError(
				errors.InternalError,
				"Git command failed",
				err,
				nil,
			).WithDetails(map[string]interface{}{
				"args":   args,
				"stderr": strings.TrimSpace(string(exitErr.Stderr)),
			})
		}

		return "", errors.NewTourError(
			errors.InternalError,
			"Failed to execute git command",
			err,
			nil,
		)
	}

	return string(output), nil
}

// executeGitCommandLines runs a git command and returns non-empty output lines
func (g *GitAdapter) executeGitCommandLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := g.executeGitCommand(ctx, args...)
	if err != nil {
		return nil, err
	}

	if output == "" {
		return []string{}, nil
	}

	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result, nil
}

// CurrentRevision returns the commit hash of HEAD.
func (g *GitAdapter) CurrentRevision(ctx context.Context) (string, bool) {
	head, err := g.executeGitCommand(ctx, "rev-parse", "HEAD")
	if err != nil || head == "" {
		g.logger.Warn("Cannot determine current revision", "error", err)
		return "", false
	}
	return head, true
}

// PathExistsAt reports whether path names a blob at rev.
func (g *GitAdapter) PathExistsAt(ctx context.Context, rev, path string) bool {
	if rev == "" || path == "" {
		return false
	}
	_, err := g.executeGitCommand(ctx, "cat-file", "-e", rev+":"+path)
	return err == nil
}
