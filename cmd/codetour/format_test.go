package main

import (
	"encoding/json"
	"strings"
	"testing"

	"codetour/internal/repair"
	"codetour/internal/runs"
	"codetour/internal/session"
	"codetour/internal/staleness"
	"codetour/internal/symbols"
	"codetour/internal/tour"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := &ValidateResponseCLI{
		Valid: true,
		Tours: []ValidateResultCLI{{Path: "a.tour", Valid: true, Title: "A", Steps: 2}},
	}

	out, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse() error = %v", err)
	}

	var decoded ValidateResponseCLI
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !decoded.Valid || decoded.Tours[0].Steps != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	if _, err := FormatResponse(&CheckResponseCLI{}, OutputFormat("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatResponse_HumanFallsBackToJSON(t *testing.T) {
	out, err := FormatResponse(&tour.Step{Path: "a.go", Lines: tour.Lines(1, 2)}, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"lineRange": [`) {
		t.Errorf("expected JSON step, got %q", out)
	}
}

func TestFormatCheckHuman(t *testing.T) {
	moved := tour.Lines(8, 10)
	resp := &CheckResponseCLI{
		NeedsAttention: true,
		Tours: []*session.CheckReport{{
			TourPath: ".tours/a.tour",
			Title:    "Intro",
			Baseline: "0123456789abcdef",
			Steps: []session.StepReport{
				{
					Verdict: staleness.Verdict{Index: 0, Path: "a.go", Status: staleness.Fresh},
					Lines:   tour.Lines(1, 2),
				},
				{
					Verdict:     staleness.Verdict{Index: 1, Path: "b.go", Status: staleness.Drifted, Resolved: &moved, Detail: "content changed"},
					Lines:       tour.Lines(5, 7),
					Uncommitted: true,
				},
			},
			Summary: staleness.Summary{Total: 2, Fresh: 1, Drifted: 1},
		}},
	}

	out := formatCheckHuman(resp)

	for _, want := range []string{
		"Intro (.tours/a.tour)",
		"Baseline: 0123456  Current: (none)",
		"a.go:1-2\n",
		"b.go:5-7 -> 8-10 [uncommitted]",
		"      content changed",
		"2 steps: 1 fresh, 0 revision-resolved, 1 drifted, 0 missing",
		"codetour repair",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRepairHuman(t *testing.T) {
	r := &session.RepairReport{
		Title:    "Intro",
		TourPath: ".tours/a.tour",
		Outcome: &repair.Outcome{
			Repaired:     true,
			StepsFixed:   1,
			FromRevision: "aaaaaaaaaa",
			ToRevision:   "bbbbbbbbbb",
			Steps: []repair.StepResult{
				{Index: 0, Action: repair.Fixed, OldPath: "old.go", NewPath: "new.go", OldLines: tour.Lines(3, 5), NewLines: tour.Lines(4, 6)},
				{Index: 1, Action: repair.Unchanged, OldPath: "a.go", NewPath: "a.go", OldLines: tour.Lines(1, 1), NewLines: tour.Lines(1, 1)},
			},
		},
	}

	out := formatRepairHuman(r)
	for _, want := range []string{
		"Result: repaired, 1 fixed, 0 unresolved",
		"Baseline: aaaaaaa -> bbbbbbb",
		"old.go:3-5 -> new.go:4-6",
		"unchanged  a.go:1\n",
		"Dry run",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	r.Written = true
	if out := formatRepairHuman(r); !strings.Contains(out, "Tour file updated.") {
		t.Errorf("written repair output = %q", out)
	}
}

func TestFormatSymbolsHuman(t *testing.T) {
	resp := &SymbolsResponseCLI{
		Path:     "server.go",
		Backends: []string{"treesitter"},
		Declarations: []symbols.Declaration{{
			Name: "Server", Kind: "class", StartLine: 3, EndLine: 20,
			Children: []symbols.Declaration{{Name: "Start", Kind: "method", StartLine: 5, EndLine: 9}},
		}},
	}

	out := formatSymbolsHuman(resp)
	if !strings.Contains(out, "class Server (3-20)\n  method Start (5-9)\n") {
		t.Errorf("unexpected outline:\n%s", out)
	}

	resp.Declarations = nil
	if out := formatSymbolsHuman(resp); !strings.Contains(out, "No declarations found.") {
		t.Errorf("empty outline = %q", out)
	}
}

func TestRunSummary(t *testing.T) {
	check := &runs.Run{Kind: runs.KindCheck, Steps: 4, Drifted: 1, Missing: 2}
	if got := runSummary(check); got != "4 steps, 1 drifted, 2 missing" {
		t.Errorf("check summary = %q", got)
	}

	rep := &runs.Run{Kind: runs.KindRepair, Fixed: 2, Unresolved: 1}
	if got := runSummary(rep); got != "not repaired, 2 fixed, 1 unresolved" {
		t.Errorf("repair summary = %q", got)
	}
}

func TestShortValues(t *testing.T) {
	if shortRev("") != "(none)" || shortRev("abc") != "abc" || shortRev("0123456789") != "0123456" {
		t.Error("shortRev mismatch")
	}
	if shortID("1234") != "1234" || shortID("0123456789") != "01234567" {
		t.Error("shortID mismatch")
	}
}
