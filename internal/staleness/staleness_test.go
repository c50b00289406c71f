package staleness

import (
	"context"
	"strings"
	"testing"

	"codetour/internal/content"
	"codetour/internal/errors"
	"codetour/internal/fingerprint"
	"codetour/internal/remap"
	"codetour/internal/revision"
	"codetour/internal/slogutil"
	"codetour/internal/symbols"
	"codetour/internal/testutil"
	"codetour/internal/tour"
)

const (
	baseline = "1111111"
	head     = "2222222"
)

func newResolver(oracle revision.Oracle, src content.Source, provider symbols.Provider) *Resolver {
	return NewResolver(oracle, src, provider, slogutil.NewDiscardLogger())
}

// stepAt builds a step whose fingerprint matches lines r of text.
func stepAt(path, text string, r tour.LineRange) tour.Step {
	doc := content.NewDocument(path, text)
	return tour.Step{
		Path:               path,
		Lines:              r,
		ContentFingerprint: fingerprint.Of(doc.Text(r)),
		Annotation:         "note",
	}
}

func TestResolve_FreshSkipsRevisionDiff(t *testing.T) {
	text := testutil.NumberedLines("line ", 20)
	src := content.NewMemorySource(map[string]string{"a.go": text})
	oracle := revision.NewMemory(head)

	steps := []tour.Step{stepAt("a.go", text, tour.Lines(3, 5))}
	verdicts, err := newResolver(oracle, src, nil).Resolve(context.Background(), steps, baseline)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if verdicts[0].Status != Fresh {
		t.Errorf("Status = %s, want fresh", verdicts[0].Status)
	}
	if verdicts[0].Resolved != nil {
		t.Errorf("Resolved = %v, want nil", verdicts[0].Resolved)
	}
	if calls := oracle.DiffCalls("a.go"); calls != 0 {
		t.Errorf("DiffHunks called %d times for a fresh step", calls)
	}
}

func TestResolve_NoFingerprintIsFresh(t *testing.T) {
	src := content.NewMemorySource(map[string]string{"a.go": "x\n"})
	steps := []tour.Step{{Path: "a.go", Lines: tour.Lines(40, 50), Annotation: "weak"}}

	verdicts, err := newResolver(revision.Unavailable{}, src, nil).Resolve(context.Background(), steps, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if verdicts[0].Status != Fresh {
		t.Errorf("Status = %s, want fresh", verdicts[0].Status)
	}
}

func TestResolve_MissingFile(t *testing.T) {
	src := content.NewMemorySource(nil)
	steps := []tour.Step{{Path: "gone.go", Lines: tour.Lines(1, 2), ContentFingerprint: "abc"}}

	verdicts, err := newResolver(revision.NewMemory(head), src, nil).Resolve(context.Background(), steps, baseline)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	v := verdicts[0]
	if v.Status != Missing || v.Detail != "file not found" || v.Resolved != nil {
		t.Errorf("verdict = %+v, want missing with detail and no range", v)
	}
}

func TestResolve_RevisionDiff(t *testing.T) {
	old := testutil.NumberedLines("line ", 10)
	step := stepAt("a.ts", old, tour.Lines(5, 7))
	hunk := remap.Hunk{OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 4}

	t.Run("content moved intact", func(t *testing.T) {
		// line 1 replaced by four lines; everything below shifts by 3.
		current := "a\nb\nc\nd\n" + strings.TrimPrefix(old, "line 1\n")
		src := content.NewMemorySource(map[string]string{"a.ts": current})
		oracle := revision.NewMemory(head).SetHunks(baseline, head, "a.ts", hunk)

		verdicts, err := newResolver(oracle, src, nil).Resolve(context.Background(), []tour.Step{step}, baseline)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		v := verdicts[0]
		if v.Status != RevisionResolved {
			t.Fatalf("Status = %s, want revision-resolved (detail %q)", v.Status, v.Detail)
		}
		if *v.Resolved != tour.Lines(8, 10) {
			t.Errorf("Resolved = %v, want 8-10", *v.Resolved)
		}
	})

	t.Run("content moved and edited", func(t *testing.T) {
		current := "a\nb\nc\nd\n" + strings.Replace(strings.TrimPrefix(old, "line 1\n"), "line 6", "line six", 1)
		src := content.NewMemorySource(map[string]string{"a.ts": current})
		oracle := revision.NewMemory(head).SetHunks(baseline, head, "a.ts", hunk)

		verdicts, err := newResolver(oracle, src, nil).Resolve(context.Background(), []tour.Step{step}, baseline)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		v := verdicts[0]
		if v.Status != Drifted {
			t.Fatalf("Status = %s, want drifted", v.Status)
		}
		if v.Resolved == nil || *v.Resolved != tour.Lines(8, 10) {
			t.Errorf("Resolved = %v, want 8-10", v.Resolved)
		}
	})
}

func TestResolve_HunksCachedPerPath(t *testing.T) {
	old := testutil.NumberedLines("line ", 10)
	current := "new\n" + old
	src := content.NewMemorySource(map[string]string{"a.go": current})
	oracle := revision.NewMemory(head).
		SetHunks(baseline, head, "a.go", remap.Hunk{OldStart: 1, OldCount: 0, NewStart: 1, NewCount: 1})

	steps := []tour.Step{
		stepAt("a.go", old, tour.Lines(2, 3)),
		stepAt("a.go", old, tour.Lines(6, 8)),
	}
	verdicts, err := newResolver(oracle, src, nil).Resolve(context.Background(), steps, baseline)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	for i, v := range verdicts {
		if v.Status != RevisionResolved {
			t.Errorf("step %d: Status = %s, want revision-resolved", i, v.Status)
		}
	}
	if *verdicts[1].Resolved != tour.Lines(7, 9) {
		t.Errorf("step 1 Resolved = %v, want 7-9", *verdicts[1].Resolved)
	}
	if calls := oracle.DiffCalls("a.go"); calls != 1 {
		t.Errorf("DiffHunks calls = %d, want 1", calls)
	}
}

func TestResolve_SameRevisionSkipsDiff(t *testing.T) {
	src := content.NewMemorySource(map[string]string{"a.go": "changed\n"})
	oracle := revision.NewMemory(head)
	steps := []tour.Step{{Path: "a.go", Lines: tour.Lines(1, 1), ContentFingerprint: fingerprint.Of("original")}}

	verdicts, err := newResolver(oracle, src, nil).Resolve(context.Background(), steps, head)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if verdicts[0].Status != Drifted || verdicts[0].Detail != "content changed" {
		t.Errorf("verdict = %+v, want drifted/content changed", verdicts[0])
	}
	if calls := oracle.DiffCalls("a.go"); calls != 0 {
		t.Errorf("DiffHunks calls = %d, want 0", calls)
	}
}

func TestResolve_SymbolFallback(t *testing.T) {
	current := testutil.NumberedLines("code ", 40)
	src := content.NewMemorySource(map[string]string{"svc.go": current})
	provider := symbols.NewMemory().Set("svc.go",
		symbols.Declaration{Name: "Server", Kind: "class", StartLine: 2, EndLine: 30, Children: []symbols.Declaration{
			{Name: "Start", Kind: "method", StartLine: 20, EndLine: 26},
		}},
	)

	step := tour.Step{
		Path:               "svc.go",
		Lines:              tour.Lines(10, 13),
		SymbolName:         "Start",
		ContentFingerprint: fingerprint.Of("something else"),
	}

	verdicts, err := newResolver(revision.Unavailable{}, src, provider).Resolve(context.Background(), []tour.Step{step}, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	v := verdicts[0]
	if v.Status != Drifted {
		t.Fatalf("Status = %s, want drifted", v.Status)
	}
	if v.Resolved == nil || *v.Resolved != tour.Lines(20, 23) {
		t.Errorf("Resolved = %v, want 20-23", v.Resolved)
	}
	if !strings.Contains(v.Detail, "Start") {
		t.Errorf("Detail = %q, want symbol name", v.Detail)
	}
}

func TestResolve_SymbolFallbackClampsToFile(t *testing.T) {
	src := content.NewMemorySource(map[string]string{"svc.go": testutil.NumberedLines("code ", 12)})
	provider := symbols.NewMemory().Set("svc.go",
		symbols.Declaration{Name: "tail", Kind: "function", StartLine: 10, EndLine: 12},
	)
	step := tour.Step{Path: "svc.go", Lines: tour.Lines(1, 6), SymbolName: "tail", ContentFingerprint: "stale"}

	verdicts, err := newResolver(revision.Unavailable{}, src, provider).Resolve(context.Background(), []tour.Step{step}, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := verdicts[0].Resolved; got == nil || *got != tour.Lines(10, 12) {
		t.Errorf("Resolved = %v, want 10-12", got)
	}
}

func TestResolve_SymbolNotFound(t *testing.T) {
	src := content.NewMemorySource(map[string]string{"svc.go": "package svc\n"})
	provider := symbols.NewMemory().Set("svc.go",
		symbols.Declaration{Name: "Other", Kind: "function", StartLine: 1, EndLine: 1},
	)
	step := tour.Step{Path: "svc.go", Lines: tour.Lines(1, 1), SymbolName: "Gone", ContentFingerprint: "stale"}

	verdicts, err := newResolver(revision.Unavailable{}, src, provider).Resolve(context.Background(), []tour.Step{step}, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	v := verdicts[0]
	if v.Status != Drifted || v.Resolved != nil || v.Detail != "content changed" {
		t.Errorf("verdict = %+v, want drifted with no range", v)
	}
}

func TestResolve_SymbolProviderErrorIsNotFatal(t *testing.T) {
	src := content.NewMemorySource(map[string]string{"svc.go": "package svc\n"})
	provider := symbols.NewMemory().Fail("svc.go", errors.NewTourError(errors.BackendUnavailable, "down", nil, nil))
	step := tour.Step{Path: "svc.go", Lines: tour.Lines(1, 1), SymbolName: "Run", ContentFingerprint: "stale"}

	verdicts, err := newResolver(revision.Unavailable{}, src, provider).Resolve(context.Background(), []tour.Step{step}, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if verdicts[0].Status != Drifted {
		t.Errorf("Status = %s, want drifted", verdicts[0].Status)
	}
}

func TestResolve_InvalidRange(t *testing.T) {
	steps := []tour.Step{{Path: "a.go", Lines: tour.Lines(5, 2)}}
	_, err := newResolver(revision.Unavailable{}, content.NewMemorySource(nil), nil).Resolve(context.Background(), steps, "")
	if !errors.HasCode(err, errors.InvalidRange) {
		t.Errorf("Resolve() error = %v, want INVALID_RANGE", err)
	}
}

func TestResolve_PreservesOrder(t *testing.T) {
	src := content.NewMemorySource(map[string]string{"b.go": "b\n"})
	steps := []tour.Step{
		{Path: "a.go", Lines: tour.Lines(1, 1)},
		{Path: "b.go", Lines: tour.Lines(1, 1)},
	}
	verdicts, err := newResolver(revision.Unavailable{}, src, nil).Resolve(context.Background(), steps, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(verdicts) != 2 || verdicts[0].Index != 0 || verdicts[1].Index != 1 {
		t.Fatalf("verdicts = %+v", verdicts)
	}
	if verdicts[0].Status != Missing || verdicts[1].Status != Fresh {
		t.Errorf("statuses = %s, %s; want missing, fresh", verdicts[0].Status, verdicts[1].Status)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Verdict{
		{Status: Fresh}, {Status: Fresh}, {Status: RevisionResolved}, {Status: Drifted}, {Status: Missing},
	})
	want := Summary{Total: 5, Fresh: 2, RevisionResolved: 1, Drifted: 1, Missing: 1}
	if s != want {
		t.Errorf("Summarize() = %+v, want %+v", s, want)
	}
	if !s.NeedsAttention() {
		t.Error("NeedsAttention() = false with drifted and missing steps")
	}
	if (Summary{Total: 1, RevisionResolved: 1}).NeedsAttention() {
		t.Error("NeedsAttention() = true for revision-resolved only")
	}
}

func TestNavigationRange(t *testing.T) {
	step := tour.Step{Lines: tour.Lines(3, 4)}
	if got := (Verdict{}).NavigationRange(step); got != step.Lines {
		t.Errorf("NavigationRange() = %v, want stored range", got)
	}
	r := tour.Lines(9, 10)
	if got := (Verdict{Resolved: &r}).NavigationRange(step); got != r {
		t.Errorf("NavigationRange() = %v, want resolved range", got)
	}
}
