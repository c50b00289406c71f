// Package content gives the staleness engine line-oriented access to file text.
package content

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"codetour/internal/paths"
	"codetour/internal/tour"
)

// Source opens repository-relative paths.
type Source interface {
	Open(ctx context.Context, path string) (*Document, error)
}

// Document is the text of one file split into lines. Line endings are normalized to
// "\n" so fingerprints do not depend on the platform that wrote the file.
type Document struct {
	Path  string
	lines []string
}

// NewDocument splits text into lines. A trailing newline does not start a new line.
func NewDocument(path, text string) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")

	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return &Document{Path: path, lines: lines}
}

// LineCount is the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Text returns lines r.Start..r.End (1-indexed, inclusive) joined with "\n". Bounds
// outside the document are clipped; a range entirely outside yields "".
func (d *Document) Text(r tour.LineRange) string {
	start := r.Start
	if start < 1 {
		start = 1
	}
	end := r.End
	if end > len(d.lines) {
		end = len(d.lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(d.lines[start-1:end], "\n")
}

// Bytes returns the normalized text with a trailing newline, suitable for parsers.
func (d *Document) Bytes() []byte {
	if len(d.lines) == 0 {
		return nil
	}
	return []byte(strings.Join(d.lines, "\n") + "\n")
}

// FileSource reads from the working tree under Root.
type FileSource struct {
	Root string
}

// NewFileSource creates a source rooted at repoRoot.
func NewFileSource(repoRoot string) *FileSource {
	return &FileSource{Root: repoRoot}
}

// Open reads path relative to the root. Paths resolving outside the root are refused.
func (s *FileSource) Open(_ context.Context, path string) (*Document, error) {
	if !paths.IsRepoRelative(path) {
		return nil, fmt.Errorf("%s is outside the repository", path)
	}
	full := paths.JoinRepoPath(s.Root, path)
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	return NewDocument(path, string(data)), nil
}

// MemorySource serves documents from a map. Safe for concurrent use.
type MemorySource struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemorySource creates a source with the given path -> text contents.
func NewMemorySource(files map[string]string) *MemorySource {
	m := &MemorySource{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// Put adds or replaces a file.
func (m *MemorySource) Put(path, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = text
}

// Remove deletes a file.
func (m *MemorySource) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

// Open returns the stored text for path or os.ErrNotExist.
func (m *MemorySource) Open(_ context.Context, path string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return NewDocument(path, text), nil
}
