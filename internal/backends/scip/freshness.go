package scip

import (
	"fmt"

	"codetour/internal/repostate"
)

// IndexFreshness tracks whether SCIP positions still describe the working tree
type IndexFreshness struct {
	// StaleAgainstHead indicates the index was built from a commit other than HEAD
	StaleAgainstHead bool

	// IndexedCommit is the commit the index was built from
	IndexedCommit string

	// HeadCommit is the current HEAD commit
	HeadCommit string

	// Warning is a human-readable warning message
	Warning string

	state *repostate.RepoState
}

// ComputeIndexFreshness compares the index commit with the repository state. A nil
// state (no git) trusts the index.
func ComputeIndexFreshness(index *SCIPIndex, state *repostate.RepoState) *IndexFreshness {
	f := &IndexFreshness{
		IndexedCommit: index.IndexedCommit,
		state:         state,
	}
	if state == nil {
		return f
	}

	f.HeadCommit = state.HeadCommit
	if index.IsStale(state.HeadCommit) {
		f.StaleAgainstHead = true
		f.Warning = fmt.Sprintf("SCIP index was built from %s but HEAD is %s", shortCommit(index.IndexedCommit), shortCommit(state.HeadCommit))
	}
	return f
}

// Trusts reports whether the index positions for path can be used: the index matches
// HEAD and path has no uncommitted changes.
func (f *IndexFreshness) Trusts(path string) bool {
	if f.StaleAgainstHead {
		return false
	}
	return f.state == nil || !f.state.IsChanged(path)
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}
