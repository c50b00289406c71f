package revision

import (
	"context"
	"sync"

	"codetour/internal/remap"
)

// Memory is an in-memory Oracle for tests and for tours played outside a repository.
type Memory struct {
	mu sync.Mutex

	current string
	paths   map[string]map[string]bool // rev -> path set
	renames map[[3]string]string       // (from, to, path) -> new path
	hunks   map[[3]string][]remap.Hunk // (from, to, path) -> hunks
	calls   map[string]int             // DiffHunks calls per path
}

// NewMemory creates a fake whose working copy is at current. An empty current
// revision behaves like a directory outside version control.
func NewMemory(current string) *Memory {
	return &Memory{
		current: current,
		paths:   make(map[string]map[string]bool),
		renames: make(map[[3]string]string),
		hunks:   make(map[[3]string][]remap.Hunk),
		calls:   make(map[string]int),
	}
}

// AddPath records that path existed at rev.
func (m *Memory) AddPath(rev, path string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paths[rev] == nil {
		m.paths[rev] = make(map[string]bool)
	}
	m.paths[rev][path] = true
	return m
}

// AddRename records that oldPath at from became newPath at to.
func (m *Memory) AddRename(from, to, oldPath, newPath string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renames[[3]string{from, to, oldPath}] = newPath
	return m
}

// SetHunks records the diff for path between from and to.
func (m *Memory) SetHunks(from, to, path string, hunks ...remap.Hunk) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hunks[[3]string{from, to, path}] = hunks
	return m
}

// DiffCalls reports how many times DiffHunks was asked about path.
func (m *Memory) DiffCalls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

func (m *Memory) CurrentRevision(context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.current != ""
}

func (m *Memory) PathExistsAt(_ context.Context, rev, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paths[rev][path]
}

func (m *Memory) RenamedPath(_ context.Context, from, to, path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.renames[[3]string{from, to, path}]; ok {
		return p, true
	}
	// Reverse direction: a rename recorded to -> from whose new side is path.
	for k, v := range m.renames {
		if k[0] == to && k[1] == from && v == path {
			return k[2], true
		}
	}
	return "", false
}

func (m *Memory) DiffHunks(_ context.Context, from, to, path string) []remap.Hunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[path]++
	h := m.hunks[[3]string{from, to, path}]
	out := make([]remap.Hunk, len(h))
	copy(out, h)
	return out
}
