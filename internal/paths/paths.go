package paths

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// ConfigDirName is the per-repository directory holding config and history.
	ConfigDirName = ".codetour"
	// HistoryDBName is the run history database file inside ConfigDirName.
	HistoryDBName = "history.db"
	// DefaultToursDir is where tour files live, relative to the repo root.
	DefaultToursDir = ".tours"
)

// ConfigDir returns <repoRoot>/.codetour
func ConfigDir(repoRoot string) string {
	return filepath.Join(repoRoot, ConfigDirName)
}

// EnsureConfigDir creates <repoRoot>/.codetour if needed and returns it.
func EnsureConfigDir(repoRoot string) (string, error) {
	dir := ConfigDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// ResolveRepoPath makes a configured path absolute against the repo root.
func ResolveRepoPath(repoRoot, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		repoRootResolved = repoRoot
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// StepPath turns a user-supplied path (absolute, or relative to the repo root)
// into the repo-relative form stored in tour steps.
func StepPath(p string, repoRoot string) (string, error) {
	if !filepath.IsAbs(p) {
		rel := NormalizePath(filepath.Clean(p))
		if !IsRepoRelative(rel) {
			return "", fmt.Errorf("path %s is outside the repository", p)
		}
		return rel, nil
	}
	canonical, err := CanonicalizePath(p, repoRoot)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(canonical, "..") {
		return "", fmt.Errorf("path %s is outside the repository", p)
	}
	return canonical, nil
}

// IsRepoRelative reports whether p names a location inside the repository: not
// absolute, and not climbing out through "..".
func IsRepoRelative(p string) bool {
	slashed := strings.ReplaceAll(p, "\\", "/")
	if slashed == "" || filepath.IsAbs(p) || strings.HasPrefix(slashed, "/") || filepath.VolumeName(p) != "" {
		return false
	}
	cleaned := path.Clean(slashed)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// NormalizePath converts OS separators to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
