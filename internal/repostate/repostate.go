// Package repostate inspects the working copy of a git repository.
package repostate

import (
	"os/exec"
	"sort"
	"strings"
	"time"

	"codetour/internal/errors"
)

// RepoState is a snapshot of the working copy.
type RepoState struct {
	HeadCommit string `json:"headCommit"`
	Dirty      bool   `json:"dirty"`

	// ChangedPaths lists repo-relative paths with staged, unstaged or untracked
	// changes, sorted. Renames report the new path.
	ChangedPaths []string `json:"changedPaths,omitempty"`

	ComputedAt string `json:"computedAt"`
}

// ComputeRepoState reads HEAD and the porcelain status of repoRoot.
func ComputeRepoState(repoRoot string) (*RepoState, error) {
	headCommit, err := gitOutput(repoRoot, "rev-parse", "HEAD")
	if err != nil {
		return nil, errors.NewTourError(
			errors.BackendUnavailable,
			"Failed to get HEAD commit",
			err,
			errors.GetSuggestedFixes(errors.BackendUnavailable),
		)
	}

	status, err := gitOutput(repoRoot, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, errors.NewTourError(
			errors.InternalError,
			"Failed to get working tree status",
			err,
			nil,
		)
	}

	changed := parsePorcelain(status)
	return &RepoState{
		HeadCommit:   headCommit,
		Dirty:        len(changed) > 0,
		ChangedPaths: changed,
		ComputedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// IsChanged reports whether path has uncommitted changes.
func (s *RepoState) IsChanged(path string) bool {
	i := sort.SearchStrings(s.ChangedPaths, path)
	return i < len(s.ChangedPaths) && s.ChangedPaths[i] == path
}

// parsePorcelain extracts paths from `git status --porcelain` v1 output.
func parsePorcelain(out string) []string {
	if out == "" {
		return nil
	}

	seen := make(map[string]bool)
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		p := line[3:]
		if idx := strings.Index(p, " -> "); idx >= 0 {
			p = p[idx+4:]
		}
		p = strings.Trim(p, `"`)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func gitOutput(repoRoot string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(output), "\n"), nil
}

// IsGitRepository checks if the given path is inside a git work tree
func IsGitRepository(repoRoot string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = repoRoot
	return cmd.Run() == nil
}

// GetRepoRoot finds the git repository root from the given directory
func GetRepoRoot(startPath string) (string, error) {
	root, err := gitOutput(startPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.NewTourError(
			errors.BackendUnavailable,
			"Not a git repository",
			err,
			[]errors.FixAction{
				{
					Type:        errors.RunCommand,
					Command:     "git init",
					Safe:        false,
					Description: "Initialize a git repository",
				},
			},
		)
	}
	return root, nil
}
