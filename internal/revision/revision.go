// Package revision defines the version-control port used by the staleness resolver
// and the repair engine.
package revision

import (
	"context"

	"codetour/internal/remap"
)

// Oracle answers the questions the staleness engine asks of version control. Every
// method is best-effort: when the backend is missing or a command fails, the method
// returns its zero value instead of an error.
type Oracle interface {
	// CurrentRevision returns the commit checked out in the working copy.
	CurrentRevision(ctx context.Context) (string, bool)

	// PathExistsAt reports whether path was tracked at rev.
	PathExistsAt(ctx context.Context, rev, path string) bool

	// RenamedPath returns the name at `to` of the file called path at `from`, when
	// rename detection paired them.
	RenamedPath(ctx context.Context, from, to, path string) (string, bool)

	// DiffHunks returns the zero-context hunks for path between two revisions. An
	// empty result means no diff data is available, not that the file is unchanged.
	DiffHunks(ctx context.Context, from, to, path string) []remap.Hunk
}

// HunkCache memoizes DiffHunks per path for one resolve or repair invocation. It is
// not safe for concurrent use.
type HunkCache struct {
	oracle Oracle
	from   string
	to     string
	hunks  map[string][]remap.Hunk
}

// NewHunkCache binds a cache to one (from, to) revision pair.
func NewHunkCache(oracle Oracle, from, to string) *HunkCache {
	return &HunkCache{
		oracle: oracle,
		from:   from,
		to:     to,
		hunks:  make(map[string][]remap.Hunk),
	}
}

// Hunks returns the hunks for path, querying the oracle at most once per path.
func (c *HunkCache) Hunks(ctx context.Context, path string) []remap.Hunk {
	if h, ok := c.hunks[path]; ok {
		return h
	}
	h := c.oracle.DiffHunks(ctx, c.from, c.to, path)
	c.hunks[path] = h
	return h
}

// Unavailable is the Oracle used when no version control backend can be reached.
// Every question gets the "no data" answer, which routes callers to their fallbacks.
type Unavailable struct{}

func (Unavailable) CurrentRevision(context.Context) (string, bool) { return "", false }

func (Unavailable) PathExistsAt(context.Context, string, string) bool { return false }

func (Unavailable) RenamedPath(context.Context, string, string, string) (string, bool) {
	return "", false
}

func (Unavailable) DiffHunks(context.Context, string, string, string) []remap.Hunk { return nil }
