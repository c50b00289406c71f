package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codetour/internal/content"
	"codetour/internal/fingerprint"
	"codetour/internal/symbols"
	"codetour/internal/testutil"
	"codetour/internal/tour"
	"codetour/internal/version"
)

// execute runs the CLI with args and returns stdout and the command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func exitCode(err error) int {
	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		return 1
	}
	return 0
}

func writeTour(t *testing.T, path string, tr *tour.Tour) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := tour.Save(path, tr); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func stepFor(path, text string, r tour.LineRange) tour.Step {
	return tour.Step{
		Path:               path,
		Lines:              r,
		ContentFingerprint: fingerprint.Of(content.NewDocument(path, text).Text(r)),
		Annotation:         "note",
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version error = %v", err)
	}
	if out != "codetour version "+version.Version+"\n" {
		t.Errorf("--version output = %q", out)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", "--repo", dir)
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	if !strings.Contains(out, "Initialized codetour") {
		t.Errorf("init output = %q", out)
	}
	for _, p := range []string{".codetour/config.json", ".tours"} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("%s not created: %v", p, err)
		}
	}

	out, err = execute(t, "init", "--repo", dir)
	if err != nil {
		t.Fatalf("second init error = %v", err)
	}
	if !strings.Contains(out, "already initialized") {
		t.Errorf("second init output = %q", out)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tour")
	writeTour(t, good, &tour.Tour{Title: "Good", Steps: []tour.Step{{Path: "a.go", Lines: tour.Lines(1, 2), Annotation: "a"}}})

	bad := filepath.Join(dir, "bad.tour")
	if err := os.WriteFile(bad, []byte(`{"title":"Bad","description":"","steps":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good error = %v", err)
	}
	if !strings.Contains(out, `✓`) || !strings.Contains(out, `"Good", 1 steps`) {
		t.Errorf("validate output = %q", out)
	}

	out, err = execute(t, "validate", "--format", "json", good, bad)
	if exitCode(err) != 1 {
		t.Fatalf("validate with invalid tour exit = %d, want 1", exitCode(err))
	}
	var resp ValidateResponseCLI
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Valid || len(resp.Tours) != 2 || resp.Tours[1].Valid {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Tours[1].Error, "INVALID_FORMAT") {
		t.Errorf("error = %q, want INVALID_FORMAT", resp.Tours[1].Error)
	}
}

func TestCheckRepairHistory(t *testing.T) {
	repo := testutil.NewGitRepo(t)

	original := testutil.NumberedLines("line ", 12)
	repo.Write("src/app.go", original)
	base := repo.Commit("initial")

	tourPath := filepath.Join(repo.Root, ".tours", "app.tour")
	writeTour(t, tourPath, &tour.Tour{
		Title:            "App",
		Description:      "How the app starts",
		BaselineRevision: base,
		Steps: []tour.Step{
			stepFor("src/app.go", original, tour.Lines(3, 4)),
			stepFor("src/app.go", original, tour.Lines(9, 10)),
		},
	})

	out, err := execute(t, "check", "--repo", repo.Root, "--strict", "-q")
	if err != nil {
		t.Fatalf("check error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 steps: 2 fresh") {
		t.Errorf("check output = %q", out)
	}

	// Insert two lines at the top and rewrite line 10.
	edited := "// a\n// b\n" + strings.Replace(original, "line 10\n", "line ten\n", 1)
	repo.Write("src/app.go", edited)
	repo.Commit("edit")

	out, err = execute(t, "check", "--repo", repo.Root, "--strict", "--format", "json", "-q", tourPath)
	if exitCode(err) != 2 {
		t.Fatalf("strict check exit = %d, want 2 (err %v)", exitCode(err), err)
	}
	var check CheckResponseCLI
	if err := json.Unmarshal([]byte(out), &check); err != nil {
		t.Fatalf("check output is not JSON: %v\n%s", err, out)
	}
	if !check.NeedsAttention || len(check.Tours) != 1 {
		t.Fatalf("check = %+v", check)
	}
	steps := check.Tours[0].Steps
	if steps[0].Status != "revision-resolved" || steps[1].Status != "drifted" {
		t.Errorf("statuses = %s, %s", steps[0].Status, steps[1].Status)
	}

	out, err = execute(t, "repair", "--repo", repo.Root, "-q", tourPath)
	if err != nil {
		t.Fatalf("repair error = %v", err)
	}
	if !strings.Contains(out, "2 fixed") || !strings.Contains(out, "--write") {
		t.Errorf("dry-run repair output = %q", out)
	}
	if saved, _ := tour.Load(tourPath); saved.BaselineRevision != base {
		t.Error("dry run rewrote the tour")
	}

	if _, err := execute(t, "repair", "--repo", repo.Root, "-q", "--write", tourPath); err != nil {
		t.Fatalf("repair --write error = %v", err)
	}
	saved, err := tour.Load(tourPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Steps[0].Lines != tour.Lines(5, 6) || saved.Steps[1].Lines != tour.Lines(11, 12) {
		t.Errorf("repaired lines = %v, %v", saved.Steps[0].Lines, saved.Steps[1].Lines)
	}

	if _, err := execute(t, "check", "--repo", repo.Root, "--strict", "-q"); err != nil {
		t.Errorf("check after repair error = %v", err)
	}

	out, err = execute(t, "history", "--repo", repo.Root, "--format", "json", "--tour", tourPath)
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var history HistoryResponseCLI
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if history.TotalCount != 5 {
		t.Errorf("history has %d runs, want 5", history.TotalCount)
	}

	out, err = execute(t, "history", "show", "--repo", repo.Root, history.Runs[0].ID)
	if err != nil {
		t.Fatalf("history show error = %v", err)
	}
	if !strings.Contains(out, "Kind: check") || !strings.Contains(out, `"title": "App"`) {
		t.Errorf("history show output = %q", out)
	}
}

func TestCapture(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	text := testutil.NumberedLines("row ", 6)
	repo.Write("notes.txt", text)
	repo.Commit("initial")

	out, err := execute(t, "capture", "--repo", repo.Root, "-q", "-a", "Look", filepath.Join(repo.Root, "notes.txt"), "2", "3")
	if err != nil {
		t.Fatalf("capture error = %v", err)
	}

	var step tour.Step
	if err := json.Unmarshal([]byte(out), &step); err != nil {
		t.Fatalf("capture output is not a step: %v\n%s", err, out)
	}
	want := stepFor("notes.txt", text, tour.Lines(2, 3))
	want.Annotation = "Look"
	if step != want {
		t.Errorf("captured %+v, want %+v", step, want)
	}

	if _, err := execute(t, "capture", "--repo", repo.Root, "notes.txt", "0", "3"); err == nil {
		t.Error("capture should reject line 0")
	}
}

func TestSymbols(t *testing.T) {
	if !symbols.IsAvailable() {
		t.Skip("tree-sitter not compiled in")
	}

	repo := testutil.NewGitRepo(t)
	repo.Write("main.go", "package main\n\nfunc NewHandler() {\n}\n\nfunc run() {\n\tNewHandler()\n}\n")
	repo.Commit("initial")

	out, err := execute(t, "symbols", "--repo", repo.Root, "-q", "--format", "json", filepath.Join(repo.Root, "main.go"))
	if err != nil {
		t.Fatalf("symbols error = %v", err)
	}

	var resp SymbolsResponseCLI
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("symbols output is not JSON: %v\n%s", err, out)
	}
	if resp.Path != "main.go" || len(resp.Backends) != 1 || resp.Backends[0] != "treesitter" {
		t.Errorf("resp = %+v", resp)
	}
	d, ok := symbols.Find(resp.Declarations, "NewHandler")
	if !ok || d.StartLine != 3 || d.EndLine != 4 {
		t.Errorf("NewHandler = %+v, %v", d, ok)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"4x", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLine("start", tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseLine(%q) = %d, %v", tt.in, got, err)
		}
	}
}
