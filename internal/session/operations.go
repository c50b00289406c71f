package session

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"codetour/internal/errors"
	"codetour/internal/fingerprint"
	"codetour/internal/paths"
	"codetour/internal/remap"
	"codetour/internal/repair"
	"codetour/internal/repostate"
	"codetour/internal/runs"
	"codetour/internal/staleness"
	"codetour/internal/symbols"
	"codetour/internal/tour"
)

// StepReport is a verdict together with the step it belongs to.
type StepReport struct {
	staleness.Verdict
	Lines      tour.LineRange `json:"lines"`
	Navigate   tour.LineRange `json:"navigate"`
	SymbolName string         `json:"symbolName,omitempty"`
	Annotation string         `json:"annotation"`

	// Uncommitted marks steps whose file has local modifications, which the revision
	// diff cannot see.
	Uncommitted bool `json:"uncommitted,omitempty"`
}

// CheckReport is the result of checking one tour.
type CheckReport struct {
	TourPath string            `json:"tourPath"`
	Title    string            `json:"title"`
	Baseline string            `json:"baselineRevision,omitempty"`
	Revision string            `json:"currentRevision,omitempty"`
	Summary  staleness.Summary `json:"summary"`
	Steps    []StepReport      `json:"steps"`
	RunID    string            `json:"runId,omitempty"`
}

// RepairReport is the result of repairing one tour.
type RepairReport struct {
	TourPath string `json:"tourPath"`
	Title    string `json:"title"`
	*repair.Outcome
	Written bool   `json:"written"`
	RunID   string `json:"runId,omitempty"`
}

// Check loads a tour, resolves every step and records the run.
func (s *Session) Check(ctx context.Context, tourPath string) (*CheckReport, error) {
	t, err := tour.Load(tourPath)
	if err != nil {
		return nil, err
	}

	verdicts, err := s.Resolver().Resolve(ctx, t.Steps, t.BaselineRevision)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{
		TourPath: s.TourKey(tourPath),
		Title:    t.Title,
		Baseline: t.BaselineRevision,
		Revision: s.CurrentRevision(ctx),
		Summary:  staleness.Summarize(verdicts),
		Steps:    make([]StepReport, len(verdicts)),
	}

	state := s.repoState(ctx)
	for i, v := range verdicts {
		step := t.Steps[i]
		report.Steps[i] = StepReport{
			Verdict:     v,
			Lines:       step.Lines,
			Navigate:    v.NavigationRange(step),
			SymbolName:  step.SymbolName,
			Annotation:  step.Annotation,
			Uncommitted: state != nil && state.IsChanged(step.Path),
		}
	}

	s.Logger.Info("Tour checked",
		"tour", report.TourPath,
		"steps", report.Summary.Total,
		"drifted", report.Summary.Drifted,
		"missing", report.Summary.Missing,
	)

	run := runs.NewRun(runs.KindCheck, report.TourPath)
	run.Baseline = report.Baseline
	run.Revision = report.Revision
	run.Steps = report.Summary.Total
	run.Fresh = report.Summary.Fresh
	run.RevisionResolved = report.Summary.RevisionResolved
	run.Drifted = report.Summary.Drifted
	run.Missing = report.Summary.Missing
	report.RunID = s.record(run, report)

	return report, nil
}

// Repair loads a tour, repairs it and, when write is set and the tour moved to a new
// baseline, saves it back in place.
func (s *Session) Repair(ctx context.Context, tourPath string, write bool) (*RepairReport, error) {
	t, err := tour.Load(tourPath)
	if err != nil {
		return nil, err
	}

	outcome, err := s.RepairEngine().Repair(ctx, t)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{
		TourPath: s.TourKey(tourPath),
		Title:    t.Title,
		Outcome:  outcome,
	}

	if write && outcome.ToRevision != "" && outcome.ToRevision != outcome.FromRevision {
		if err := tour.Save(tourPath, outcome.Tour); err != nil {
			return nil, err
		}
		report.Written = true
		s.Logger.Info("Tour rewritten", "tour", report.TourPath, "baseline", outcome.ToRevision)
	}

	run := runs.NewRun(runs.KindRepair, report.TourPath)
	run.Baseline = outcome.FromRevision
	run.Revision = outcome.ToRevision
	run.Steps = len(outcome.Steps)
	run.Fixed = outcome.StepsFixed
	run.Unresolved = outcome.StepsUnresolvable
	run.Repaired = outcome.Repaired
	report.RunID = s.record(run, report)

	return report, nil
}

// Capture builds a step for lines of path as a recorder would: the fingerprint of the
// current text and the innermost enclosing declaration as the symbol name. The range
// is clamped to the file.
func (s *Session) Capture(ctx context.Context, path string, lines tour.LineRange) (*tour.Step, error) {
	if err := lines.Validate(); err != nil {
		return nil, err
	}

	stepPath, err := paths.StepPath(path, s.RepoRoot)
	if err != nil {
		return nil, errors.InvalidFormatf("cannot record %s: %v", path, err)
	}

	doc, err := s.Source.Open(ctx, stepPath)
	if err != nil {
		return nil, errors.NewTourError(
			errors.FileNotFound,
			fmt.Sprintf("cannot open %s", stepPath),
			err,
			nil,
		)
	}

	r := remap.Clamp(lines, doc.LineCount())
	step := &tour.Step{
		Path:               stepPath,
		Lines:              r,
		ContentFingerprint: fingerprint.Of(doc.Text(r)),
	}

	decls, err := s.Symbols.Declarations(ctx, stepPath)
	if err != nil {
		s.Logger.Debug("No symbols for capture", "path", stepPath, "error", err)
	}
	if d, ok := symbols.Enclosing(decls, r); ok {
		step.SymbolName = d.Name
	}

	return step, nil
}

// repoState is the working tree status, or nil outside git.
func (s *Session) repoState(ctx context.Context) *repostate.RepoState {
	if _, ok := s.Oracle.CurrentRevision(ctx); !ok {
		return nil
	}
	state, err := repostate.ComputeRepoState(s.RepoRoot)
	if err != nil {
		s.Logger.Debug("Working tree status unavailable", "error", err)
		return nil
	}
	return state
}

// record stores run with report as its payload and returns the run ID, or "" when
// history is off. Failures are logged, never returned.
func (s *Session) record(run *runs.Run, report interface{}) string {
	if s.History == nil {
		return ""
	}

	data, err := json.Marshal(report)
	if err != nil {
		s.Logger.Warn("Failed to encode run report", "error", err)
	} else {
		run.Report = data
	}

	if err := s.History.Record(run); err != nil {
		s.Logger.Warn("Failed to record run", "error", err)
		return ""
	}
	return run.ID
}

// TourKey is the name runs of the tour at p are recorded under: the repo-relative
// path when p lies inside the repository, p itself otherwise.
func (s *Session) TourKey(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	rel, err := paths.StepPath(abs, s.RepoRoot)
	if err != nil {
		return p
	}
	return rel
}
