// Package staleness decides, for each step of a tour, whether its stored line range
// still points at the content it was recorded against, and where that content went
// if not.
package staleness

import (
	"context"
	"fmt"
	"log/slog"

	"codetour/internal/content"
	"codetour/internal/fingerprint"
	"codetour/internal/remap"
	"codetour/internal/revision"
	"codetour/internal/symbols"
	"codetour/internal/tour"
)

// Status is the outcome of resolving one step.
type Status string

const (
	// Fresh means the stored range still holds the recorded content, or the step has
	// no fingerprint to check.
	Fresh Status = "fresh"
	// RevisionResolved means the content moved and was found again through the diff
	// between the baseline and current revisions.
	RevisionResolved Status = "revision-resolved"
	// Drifted means the content changed. Resolved may still carry a best guess.
	Drifted Status = "drifted"
	// Missing means the file cannot be opened.
	Missing Status = "missing"
)

// Verdict is the resolution of a single step.
type Verdict struct {
	Index    int             `json:"index"`
	Path     string          `json:"path"`
	Status   Status          `json:"status"`
	Resolved *tour.LineRange `json:"resolvedLines,omitempty"`
	Detail   string          `json:"detail,omitempty"`
}

// NavigationRange is where a player should take the user for step: the resolved range
// when one was found, the stored range otherwise.
func (v Verdict) NavigationRange(step tour.Step) tour.LineRange {
	if v.Resolved != nil {
		return *v.Resolved
	}
	return step.Lines
}

// Resolver runs the tiered staleness check. Oracle and source are required; the
// symbol provider may be nil.
type Resolver struct {
	oracle  revision.Oracle
	source  content.Source
	symbols symbols.Provider
	logger  *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(oracle revision.Oracle, source content.Source, provider symbols.Provider, logger *slog.Logger) *Resolver {
	return &Resolver{
		oracle:  oracle,
		source:  source,
		symbols: provider,
		logger:  logger,
	}
}

// Resolve returns one verdict per step, in input order. Environmental problems (no
// git, unreadable files, failing symbol backends) become verdicts; the error is only
// returned when a step violates the line range invariant.
func (r *Resolver) Resolve(ctx context.Context, steps []tour.Step, baseline string) ([]Verdict, error) {
	if err := tour.ValidateSteps(steps); err != nil {
		return nil, err
	}

	p := &pass{Resolver: r, baseline: baseline}
	verdicts := make([]Verdict, len(steps))
	for i, step := range steps {
		verdicts[i] = p.resolveStep(ctx, i, step)
		r.logger.Debug("Step resolved",
			"index", i,
			"path", step.Path,
			"status", string(verdicts[i].Status),
		)
	}
	return verdicts, nil
}

// pass holds the state scoped to one Resolve call.
type pass struct {
	*Resolver
	baseline string

	currentKnown bool
	current      string
	cache        *revision.HunkCache
}

// hunkCache returns the per-call cache, or nil when revision-diff resolution cannot
// run. The current revision is asked for at most once.
func (p *pass) hunkCache(ctx context.Context) *revision.HunkCache {
	if p.baseline == "" {
		return nil
	}
	if !p.currentKnown {
		p.currentKnown = true
		current, ok := p.oracle.CurrentRevision(ctx)
		if ok && current != p.baseline {
			p.current = current
			p.cache = revision.NewHunkCache(p.oracle, p.baseline, current)
		}
	}
	return p.cache
}

func (p *pass) resolveStep(ctx context.Context, index int, step tour.Step) Verdict {
	v := Verdict{Index: index, Path: step.Path}

	doc, err := p.source.Open(ctx, step.Path)
	if err != nil {
		v.Status = Missing
		v.Detail = "file not found"
		return v
	}

	if step.ContentFingerprint == "" {
		v.Status = Fresh
		return v
	}

	lineCount := doc.LineCount()
	if fingerprint.Matches(step.ContentFingerprint, doc.Text(remap.Clamp(step.Lines, lineCount))) {
		v.Status = Fresh
		return v
	}

	var hunks []remap.Hunk
	if cache := p.hunkCache(ctx); cache != nil {
		hunks = cache.Hunks(ctx, step.Path)
	}

	if len(hunks) > 0 {
		resolved := remap.Clamp(remap.Remap(step.Lines, hunks), lineCount)
		v.Resolved = &resolved
		if fingerprint.Matches(step.ContentFingerprint, doc.Text(resolved)) {
			v.Status = RevisionResolved
			v.Detail = fmt.Sprintf("moved from %s to %s", step.Lines, resolved)
			return v
		}
		v.Status = Drifted
		v.Detail = "content changed; location estimated from revision diff"
		return v
	}

	if decl, ok := p.findSymbol(ctx, step); ok {
		resolved := remap.Clamp(tour.Lines(decl.StartLine, decl.StartLine+step.Lines.Span()), lineCount)
		v.Status = Drifted
		v.Resolved = &resolved
		v.Detail = fmt.Sprintf("located by symbol %s", step.SymbolName)
		return v
	}

	v.Status = Drifted
	v.Detail = "content changed"
	return v
}

// findSymbol looks up step.SymbolName in the current file. Provider failures count as
// not found.
func (p *pass) findSymbol(ctx context.Context, step tour.Step) (*symbols.Declaration, bool) {
	if step.SymbolName == "" || p.symbols == nil {
		return nil, false
	}

	decls, err := p.symbols.Declarations(ctx, step.Path)
	if err != nil {
		p.logger.Debug("Symbol lookup failed",
			"path", step.Path,
			"symbol", step.SymbolName,
			"error", err,
		)
		return nil, false
	}
	return symbols.Find(decls, step.SymbolName)
}

// Summary counts verdicts per status.
type Summary struct {
	Total            int `json:"total"`
	Fresh            int `json:"fresh"`
	RevisionResolved int `json:"revisionResolved"`
	Drifted          int `json:"drifted"`
	Missing          int `json:"missing"`
}

// Summarize tallies verdicts.
func Summarize(verdicts []Verdict) Summary {
	s := Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Status {
		case Fresh:
			s.Fresh++
		case RevisionResolved:
			s.RevisionResolved++
		case Drifted:
			s.Drifted++
		case Missing:
			s.Missing++
		}
	}
	return s
}

// NeedsAttention is true when any step is drifted or missing, the cases a player
// should warn about before playback.
func (s Summary) NeedsAttention() bool {
	return s.Drifted > 0 || s.Missing > 0
}
