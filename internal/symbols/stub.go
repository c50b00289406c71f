//go:build !cgo

package symbols

import (
	"context"
	"errors"

	"codetour/internal/content"
)

// ErrNoCGO is returned when tree-sitter parsing is unavailable due to missing CGO.
var ErrNoCGO = errors.New("tree-sitter symbol lookup requires CGO")

// TreeSitter is a stub for non-CGO builds.
type TreeSitter struct{}

// NewTreeSitter creates a provider that always fails with ErrNoCGO.
func NewTreeSitter(content.Source) *TreeSitter {
	return &TreeSitter{}
}

// IsAvailable returns whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return false
}

func (t *TreeSitter) Declarations(context.Context, string) ([]Declaration, error) {
	return nil, ErrNoCGO
}

// ParseSource always fails with ErrNoCGO.
func (t *TreeSitter) ParseSource(context.Context, []byte, Language) ([]Declaration, error) {
	return nil, ErrNoCGO
}
