// Package repair rewrites a tour so its steps point at where their content lives in
// the current revision, and advances the tour's baseline to that revision.
package repair

import (
	"context"
	"log/slog"

	"codetour/internal/content"
	"codetour/internal/fingerprint"
	"codetour/internal/remap"
	"codetour/internal/revision"
	"codetour/internal/tour"
)

// Action describes what repair did to one step.
type Action string

const (
	Unchanged  Action = "unchanged"
	Fixed      Action = "fixed"
	// PathOnly steps had no diff data. They take the new path and a fingerprint of the
	// original range, which is also clamped to the current file length. They count
	// as unresolved.
	PathOnly   Action = "path-only"
	Unresolved Action = "unresolved"
)

// StepResult reports the before and after of one step.
type StepResult struct {
	Index    int            `json:"index"`
	Action   Action         `json:"action"`
	OldPath  string         `json:"oldPath"`
	NewPath  string         `json:"newPath"`
	OldLines tour.LineRange `json:"oldLines"`
	NewLines tour.LineRange `json:"newLines"`
}

// Outcome is the result of a repair. Tour is always a separate copy; the input tour is
// never modified.
type Outcome struct {
	Repaired          bool         `json:"repaired"`
	StepsFixed        int          `json:"stepsFixed"`
	StepsUnresolvable int          `json:"stepsUnresolvable"`
	FromRevision      string       `json:"fromRevision,omitempty"`
	ToRevision        string       `json:"toRevision,omitempty"`
	Reason            string       `json:"reason,omitempty"`
	Steps             []StepResult `json:"steps"`
	Tour              *tour.Tour   `json:"-"`
}

// Engine repairs tours against a revision oracle and the current content.
type Engine struct {
	oracle revision.Oracle
	source content.Source
	logger *slog.Logger
}

// NewEngine creates a repair engine.
func NewEngine(oracle revision.Oracle, source content.Source, logger *slog.Logger) *Engine {
	return &Engine{oracle: oracle, source: source, logger: logger}
}

// Repair computes the rewritten tour. The error is only returned for a tour whose
// steps violate the line range invariant.
func (e *Engine) Repair(ctx context.Context, t *tour.Tour) (*Outcome, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	out := &Outcome{
		FromRevision: t.BaselineRevision,
		Tour:         t.Clone(),
		Steps:        make([]StepResult, len(t.Steps)),
	}
	for i, s := range t.Steps {
		out.Steps[i] = StepResult{Index: i, Action: Unchanged, OldPath: s.Path, NewPath: s.Path, OldLines: s.Lines, NewLines: s.Lines}
	}

	current, ok := e.oracle.CurrentRevision(ctx)
	if t.BaselineRevision == "" || !ok {
		out.Reason = "no baseline revision"
		if t.BaselineRevision != "" {
			out.Reason = "current revision unavailable"
		}
		out.StepsUnresolvable = len(t.Steps)
		for i := range out.Steps {
			out.Steps[i].Action = Unresolved
		}
		e.logger.Warn("Tour cannot be repaired",
			"title", t.Title,
			"reason", out.Reason,
		)
		return out, nil
	}

	out.ToRevision = current
	if current == t.BaselineRevision {
		out.Repaired = true
		out.Reason = "baseline is current"
		return out, nil
	}

	cache := revision.NewHunkCache(e.oracle, t.BaselineRevision, current)
	for i := range out.Tour.Steps {
		e.repairStep(ctx, t.BaselineRevision, current, cache, &out.Tour.Steps[i], &out.Steps[i])
		switch out.Steps[i].Action {
		case Fixed:
			out.StepsFixed++
		case PathOnly, Unresolved:
			out.StepsUnresolvable++
		}
	}

	out.Repaired = out.StepsFixed > 0 || out.StepsUnresolvable == 0
	out.Tour.BaselineRevision = current

	e.logger.Info("Tour repaired",
		"title", t.Title,
		"from", t.BaselineRevision,
		"to", current,
		"fixed", out.StepsFixed,
		"unresolved", out.StepsUnresolvable,
	)
	return out, nil
}

// repairStep rewrites step in place and fills res.
func (e *Engine) repairStep(ctx context.Context, from, to string, cache *revision.HunkCache, step *tour.Step, res *StepResult) {
	path := step.Path
	if e.oracle.PathExistsAt(ctx, from, path) {
		if renamed, ok := e.oracle.RenamedPath(ctx, from, to, path); ok {
			path = renamed
		}
	}

	doc, err := e.source.Open(ctx, path)
	if err != nil {
		res.Action = Unresolved
		e.logger.Debug("Step content unavailable",
			"index", res.Index,
			"path", path,
			"error", err,
		)
		return
	}

	lineCount := doc.LineCount()
	original := remap.Clamp(step.Lines, lineCount)
	if path == step.Path && fingerprint.Matches(step.ContentFingerprint, doc.Text(original)) {
		return
	}

	step.Path = path
	res.NewPath = path

	hunks := cache.Hunks(ctx, path)
	if len(hunks) == 0 {
		step.Lines = original
		step.ContentFingerprint = fingerprint.Of(doc.Text(original))
		res.NewLines = original
		res.Action = PathOnly
		return
	}

	moved := remap.Clamp(remap.Remap(step.Lines, hunks), lineCount)
	step.Lines = moved
	step.ContentFingerprint = fingerprint.Of(doc.Text(moved))
	res.NewLines = moved
	res.Action = Fixed
}
