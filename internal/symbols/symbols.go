// Package symbols looks up the declarations of a source file. The staleness resolver
// uses it to relocate a step by name when no diff data is available, and the recorder
// uses it to capture the declaration enclosing a new step.
package symbols

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"codetour/internal/tour"
)

// Declaration is a named span in a file. Children are the declarations nested inside it.
type Declaration struct {
	Name      string        `json:"name"`
	Kind      string        `json:"kind"` // "function", "method", "class", "type", "interface"
	StartLine int           `json:"startLine"`
	EndLine   int           `json:"endLine"`
	Children  []Declaration `json:"children,omitempty"`
}

// Contains reports whether line falls inside the declaration.
func (d *Declaration) Contains(line int) bool {
	return line >= d.StartLine && line <= d.EndLine
}

// Provider returns the declaration tree of a repository-relative path. A file in an
// unsupported language yields no declarations and no error.
type Provider interface {
	Declarations(ctx context.Context, path string) ([]Declaration, error)
}

// Find searches depth-first, parents before children, and returns the first
// declaration named exactly name.
func Find(decls []Declaration, name string) (*Declaration, bool) {
	for i := range decls {
		if decls[i].Name == name {
			return &decls[i], true
		}
		if d, ok := Find(decls[i].Children, name); ok {
			return d, true
		}
	}
	return nil, false
}

// Enclosing returns the innermost declaration containing the first line of r.
func Enclosing(decls []Declaration, r tour.LineRange) (*Declaration, bool) {
	for i := range decls {
		if !decls[i].Contains(r.Start) {
			continue
		}
		if inner, ok := Enclosing(decls[i].Children, r); ok {
			return inner, true
		}
		return &decls[i], true
	}
	return nil, false
}

// Nest builds a tree from flat declarations by span containment. Input children are
// ignored. Siblings come out in source order.
func Nest(flat []Declaration) []Declaration {
	sorted := make([]Declaration, len(flat))
	copy(sorted, flat)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartLine != sorted[j].StartLine {
			return sorted[i].StartLine < sorted[j].StartLine
		}
		return sorted[i].EndLine > sorted[j].EndLine
	})

	type node struct {
		decl     Declaration
		children []*node
	}

	var roots []*node
	var stack []*node
	for _, d := range sorted {
		d.Children = nil
		n := &node{decl: d}
		for len(stack) > 0 && stack[len(stack)-1].decl.EndLine < d.StartLine {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}

	var build func([]*node) []Declaration
	build = func(nodes []*node) []Declaration {
		if len(nodes) == 0 {
			return nil
		}
		out := make([]Declaration, len(nodes))
		for i, n := range nodes {
			out[i] = n.decl
			out[i].Children = build(n.children)
		}
		return out
	}
	return build(roots)
}

// markMethods renames functions declared directly inside a type to methods.
func markMethods(decls []Declaration, insideType bool) {
	for i := range decls {
		if insideType && decls[i].Kind == "function" {
			decls[i].Kind = "method"
		}
		switch decls[i].Kind {
		case "class", "type", "interface":
			markMethods(decls[i].Children, true)
		default:
			markMethods(decls[i].Children, false)
		}
	}
}

// Backend is a named provider tried by a Ladder.
type Backend struct {
	Name     string
	Provider Provider
}

// Ladder asks each backend in order and returns the first non-empty answer. Backend
// errors are logged and the next backend is tried.
type Ladder struct {
	backends []Backend
	logger   *slog.Logger
}

// NewLadder creates a ladder over backends in preference order.
func NewLadder(logger *slog.Logger, backends ...Backend) *Ladder {
	return &Ladder{backends: backends, logger: logger}
}

// Backends returns the backend names in preference order.
func (l *Ladder) Backends() []string {
	names := make([]string, len(l.backends))
	for i, b := range l.backends {
		names[i] = b.Name
	}
	return names
}

func (l *Ladder) Declarations(ctx context.Context, path string) ([]Declaration, error) {
	for _, b := range l.backends {
		decls, err := b.Provider.Declarations(ctx, path)
		if err != nil {
			l.logger.Debug("Symbol backend failed",
				"backend", b.Name,
				"path", path,
				"error", err,
			)
			continue
		}
		if len(decls) > 0 {
			return decls, nil
		}
	}
	return nil, nil
}

// Memory is a map-backed Provider for tests.
type Memory struct {
	mu    sync.Mutex
	decls map[string][]Declaration
	errs  map[string]error
	calls int
}

// NewMemory creates an empty provider.
func NewMemory() *Memory {
	return &Memory{
		decls: make(map[string][]Declaration),
		errs:  make(map[string]error),
	}
}

// Set stores the declaration tree for path.
func (m *Memory) Set(path string, decls ...Declaration) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decls[path] = decls
	return m
}

// Fail makes lookups of path return err.
func (m *Memory) Fail(path string, err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[path] = err
	return m
}

// Calls reports how many lookups were made.
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Memory) Declarations(_ context.Context, path string) ([]Declaration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	return m.decls[path], nil
}
