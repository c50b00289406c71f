package repostate

import (
	"reflect"
	"testing"

	"codetour/internal/testutil"
)

func TestParsePorcelain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty output",
			input:    "",
			expected: nil,
		},
		{
			name:     "modified and untracked",
			input:    " M src/a.ts\n?? notes.md\nM  src/b.ts",
			expected: []string{"notes.md", "src/a.ts", "src/b.ts"},
		},
		{
			name:     "rename reports new path",
			input:    "R  old/name.go -> new/name.go",
			expected: []string{"new/name.go"},
		},
		{
			name:     "duplicates collapse",
			input:    "MM a.go\nMM a.go",
			expected: []string{"a.go"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parsePorcelain(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("parsePorcelain(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestIsGitRepository(t *testing.T) {
	repo := testutil.NewGitRepo(t)

	t.Run("valid git repository", func(t *testing.T) {
		if !IsGitRepository(repo.Root) {
			t.Errorf("Expected %s to be a git repository", repo.Root)
		}
	})

	t.Run("non-git directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		if IsGitRepository(tmpDir) {
			t.Errorf("Expected %s to NOT be a git repository", tmpDir)
		}
	})
}

func TestGetRepoRoot(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	repo.Write("pkg/main.go", "package main\n")
	repo.Commit("initial")

	t.Run("from subdirectory", func(t *testing.T) {
		root, err := GetRepoRoot(repo.Root + "/pkg")
		if err != nil {
			t.Fatalf("GetRepoRoot failed: %v", err)
		}
		if root != repo.Root {
			t.Errorf("GetRepoRoot = %s, expected %s", root, repo.Root)
		}
	})

	t.Run("non-git directory returns error", func(t *testing.T) {
		if _, err := GetRepoRoot(t.TempDir()); err == nil {
			t.Error("Expected error for non-git directory")
		}
	})
}

func TestComputeRepoState(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	repo.Write("a.ts", "one\n")
	head := repo.Commit("initial")

	state, err := ComputeRepoState(repo.Root)
	if err != nil {
		t.Fatalf("ComputeRepoState failed: %v", err)
	}
	if state.HeadCommit != head {
		t.Errorf("HeadCommit = %s, expected %s", state.HeadCommit, head)
	}
	if state.Dirty {
		t.Errorf("Expected clean state, got changed paths %v", state.ChangedPaths)
	}

	repo.Write("a.ts", "one\ntwo\n")
	repo.Write("b.ts", "new\n")

	state, err = ComputeRepoState(repo.Root)
	if err != nil {
		t.Fatalf("ComputeRepoState failed: %v", err)
	}
	if !state.Dirty {
		t.Error("Expected dirty state")
	}
	if !state.IsChanged("a.ts") || !state.IsChanged("b.ts") {
		t.Errorf("Expected a.ts and b.ts changed, got %v", state.ChangedPaths)
	}
	if state.IsChanged("c.ts") {
		t.Error("c.ts should not be reported as changed")
	}

	if _, err := ComputeRepoState(t.TempDir()); err == nil {
		t.Error("Expected error for non-git directory")
	}
}
