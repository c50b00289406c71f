// Package scip serves declarations from a SCIP index built by an external indexer
// (scip-go, scip-typescript, ...).
package scip

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"codetour/internal/repostate"
	"codetour/internal/symbols"
)

// BackendID is the name of this backend in symbol ladder configuration
const BackendID = "scip"

// Provider implements symbols.Provider over a SCIP index file. The index is loaded on
// first use and reloaded when the file changes on disk.
type Provider struct {
	repoRoot  string
	indexPath string
	logger    *slog.Logger

	mu        sync.Mutex
	index     *SCIPIndex
	freshness *IndexFreshness
}

// NewProvider creates a provider for the index at indexPath (absolute, or relative to
// repoRoot).
func NewProvider(repoRoot, indexPath string, logger *slog.Logger) *Provider {
	return &Provider{
		repoRoot:  repoRoot,
		indexPath: GetIndexPath(repoRoot, indexPath),
		logger:    logger,
	}
}

// IsAvailable reports whether the index file exists
func (p *Provider) IsAvailable() bool {
	_, err := os.Stat(p.indexPath)
	return err == nil
}

// load returns the current index, reloading it if the file was rewritten.
func (p *Provider) load() (*SCIPIndex, *IndexFreshness, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.index != nil {
		info, err := os.Stat(p.indexPath)
		if err == nil && info.ModTime().Equal(p.index.ModTime) {
			return p.index, p.freshness, nil
		}
	}

	index, err := LoadSCIPIndex(p.indexPath)
	if err != nil {
		return nil, nil, err
	}

	state, err := repostate.ComputeRepoState(p.repoRoot)
	if err != nil {
		p.logger.Debug("Repository state unavailable, trusting SCIP index", "error", err)
		state = nil
	}

	p.index = index
	p.freshness = ComputeIndexFreshness(index, state)
	if p.freshness.Warning != "" {
		p.logger.Warn(p.freshness.Warning, "index", p.indexPath)
	}

	p.logger.Debug("SCIP index loaded",
		"path", p.indexPath,
		"documents", len(index.Documents),
		"indexedCommit", index.IndexedCommit,
	)
	return p.index, p.freshness, nil
}

func (p *Provider) Declarations(_ context.Context, path string) ([]symbols.Declaration, error) {
	index, freshness, err := p.load()
	if err != nil {
		return nil, err
	}
	if !freshness.Trusts(path) {
		return nil, fmt.Errorf("SCIP index is out of date for %s", path)
	}

	doc := index.GetDocument(path)
	if doc == nil {
		return nil, nil
	}

	flat := make([]symbols.Declaration, 0, len(doc.Definitions))
	for _, occ := range doc.Definitions {
		name, kind, ok := describe(occ.Symbol, doc.Symbols[occ.Symbol])
		if !ok {
			continue
		}
		start, end, ok := occurrenceLines(occ)
		if !ok {
			continue
		}
		flat = append(flat, symbols.Declaration{
			Name:      name,
			Kind:      kind,
			StartLine: start,
			EndLine:   end,
		})
	}

	return symbols.Nest(flat), nil
}
