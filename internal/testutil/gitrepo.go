// Package testutil provides helpers for tests that need a real git repository.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// GitRepo is a throwaway repository rooted in a test temp dir.
type GitRepo struct {
	t    *testing.T
	Root string
}

// RequireGit skips the test when the git binary is not installed.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// NewGitRepo initializes an empty repository with a fixed identity.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	RequireGit(t)

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}

	r := &GitRepo{t: t, Root: root}
	r.Git("init", "-q")
	r.Git("config", "user.name", "Tour Test")
	r.Git("config", "user.email", "tour@example.com")
	r.Git("config", "commit.gpgsign", "false")
	return r
}

// Git runs a git command in the repository and returns trimmed stdout.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Root
	cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// Write creates or replaces a file, creating parent directories.
func (r *GitRepo) Write(path, content string) {
	r.t.Helper()

	full := filepath.Join(r.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("Failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// Move renames a tracked file with git mv, creating the destination directory.
func (r *GitRepo) Move(from, to string) {
	r.t.Helper()

	dir := filepath.Dir(filepath.Join(r.Root, filepath.FromSlash(to)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.t.Fatalf("Failed to create dir for %s: %v", to, err)
	}
	r.Git("mv", from, to)
}

// Commit stages everything and commits, returning the new HEAD.
func (r *GitRepo) Commit(message string) string {
	r.t.Helper()

	r.Git("add", "-A")
	r.Git("commit", "-q", "-m", message)
	return r.Git("rev-parse", "HEAD")
}

// NumberedLines returns "prefix1\nprefix2\n...prefixN\n".
func NumberedLines(prefix string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString(prefix)
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('\n')
	}
	return b.String()
}
