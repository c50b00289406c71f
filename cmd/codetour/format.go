package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"codetour/internal/repair"
	"codetour/internal/runs"
	"codetour/internal/session"
	"codetour/internal/staleness"
	"codetour/internal/symbols"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// writeResponse formats resp and writes it to w followed by a newline.
func writeResponse(w io.Writer, resp interface{}, format string) error {
	out, err := FormatResponse(resp, OutputFormat(format))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	return err
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *CheckResponseCLI:
		return formatCheckHuman(v), nil
	case *session.RepairReport:
		return formatRepairHuman(v), nil
	case *ValidateResponseCLI:
		return formatValidateHuman(v), nil
	case *SymbolsResponseCLI:
		return formatSymbolsHuman(v), nil
	case *HistoryResponseCLI:
		return formatHistoryHuman(v), nil
	case *RunDetailCLI:
		return formatRunHuman(v), nil
	default:
		// Step skeletons and anything else read best as JSON.
		return formatJSON(resp)
	}
}

var statusIcons = map[staleness.Status]string{
	staleness.Fresh:            "✓",
	staleness.RevisionResolved: "↻",
	staleness.Drifted:          "~",
	staleness.Missing:          "✗",
}

func formatCheckHuman(resp *CheckResponseCLI) string {
	var b strings.Builder

	for i, report := range resp.Tours {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s (%s)\n", report.Title, report.TourPath))
		b.WriteString(strings.Repeat("=", 60) + "\n")
		b.WriteString(fmt.Sprintf("Baseline: %s  Current: %s\n\n", shortRev(report.Baseline), shortRev(report.Revision)))

		for _, step := range report.Steps {
			location := fmt.Sprintf("%s:%s", step.Path, step.Lines)
			if step.Resolved != nil && *step.Resolved != step.Lines {
				location += " -> " + step.Resolved.String()
			}
			b.WriteString(fmt.Sprintf("  %2d. %s %-17s %s", step.Index+1, statusIcons[step.Status], step.Status, location))
			if step.Uncommitted {
				b.WriteString(" [uncommitted]")
			}
			b.WriteString("\n")
			if step.Detail != "" && step.Status != staleness.Fresh {
				b.WriteString(fmt.Sprintf("      %s\n", step.Detail))
			}
		}

		s := report.Summary
		b.WriteString(fmt.Sprintf("\n%d steps: %d fresh, %d revision-resolved, %d drifted, %d missing\n",
			s.Total, s.Fresh, s.RevisionResolved, s.Drifted, s.Missing))
	}

	if resp.NeedsAttention {
		b.WriteString("\nSome steps need attention. Run 'codetour repair <tour> --write' to re-anchor them.\n")
	}
	return b.String()
}

func formatRepairHuman(r *session.RepairReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Repair: %s (%s)\n", r.Title, r.TourPath))
	b.WriteString(strings.Repeat("=", 60) + "\n")

	verdict := "repaired"
	if !r.Repaired {
		verdict = "not repaired"
	}
	b.WriteString(fmt.Sprintf("Result: %s, %d fixed, %d unresolved\n", verdict, r.StepsFixed, r.StepsUnresolvable))
	if r.ToRevision != "" {
		b.WriteString(fmt.Sprintf("Baseline: %s -> %s\n", shortRev(r.FromRevision), shortRev(r.ToRevision)))
	}
	if r.Reason != "" {
		b.WriteString(fmt.Sprintf("Note: %s\n", r.Reason))
	}
	b.WriteString("\n")

	for _, step := range r.Steps {
		from := fmt.Sprintf("%s:%s", step.OldPath, step.OldLines)
		line := fmt.Sprintf("  %2d. %-10s %s", step.Index+1, step.Action, from)
		if step.Action == repair.Fixed || step.Action == repair.PathOnly {
			line += fmt.Sprintf(" -> %s:%s", step.NewPath, step.NewLines)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	switch {
	case r.Written:
		b.WriteString("Tour file updated.\n")
	case r.ToRevision != "" && r.ToRevision != r.FromRevision:
		b.WriteString("Dry run. Re-run with --write to save the repaired tour.\n")
	}
	return b.String()
}

func formatValidateHuman(resp *ValidateResponseCLI) string {
	var b strings.Builder
	for _, t := range resp.Tours {
		if t.Valid {
			b.WriteString(fmt.Sprintf("✓ %s: %q, %d steps\n", t.Path, t.Title, t.Steps))
			continue
		}
		b.WriteString(fmt.Sprintf("✗ %s: %s\n", t.Path, t.Error))
	}
	return b.String()
}

func formatSymbolsHuman(resp *SymbolsResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Declarations in %s (backends: %s)\n", resp.Path, strings.Join(resp.Backends, ", ")))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if len(resp.Declarations) == 0 {
		b.WriteString("No declarations found.\n")
		return b.String()
	}
	writeDeclarations(&b, resp.Declarations, 0)
	return b.String()
}

func writeDeclarations(b *strings.Builder, decls []symbols.Declaration, depth int) {
	for _, d := range decls {
		b.WriteString(fmt.Sprintf("%s%s %s (%d-%d)\n", strings.Repeat("  ", depth), d.Kind, d.Name, d.StartLine, d.EndLine))
		writeDeclarations(b, d.Children, depth+1)
	}
}

func formatHistoryHuman(resp *HistoryResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Run history (%d of %d)\n", len(resp.Runs), resp.TotalCount))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, r := range resp.Runs {
		b.WriteString(fmt.Sprintf("%s  %s  %-6s %-30s %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), shortID(r.ID), r.Kind, r.TourPath, runSummary(r)))
	}
	return b.String()
}

func formatRunHuman(d *RunDetailCLI) string {
	r := d.Run
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Run %s\n", r.ID))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("Kind: %s\n", r.Kind))
	b.WriteString(fmt.Sprintf("Tour: %s\n", r.TourPath))
	b.WriteString(fmt.Sprintf("When: %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Revisions: %s -> %s\n", shortRev(r.Baseline), shortRev(r.Revision)))
	b.WriteString(fmt.Sprintf("Result: %s\n", runSummary(r)))
	if len(d.Report) > 0 {
		b.WriteString("\nReport:\n")
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, d.Report, "", "  "); err != nil {
			b.Write(d.Report)
		} else {
			b.Write(pretty.Bytes())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func runSummary(r *runs.Run) string {
	if r.Kind == runs.KindRepair {
		state := "repaired"
		if !r.Repaired {
			state = "not repaired"
		}
		return fmt.Sprintf("%s, %d fixed, %d unresolved", state, r.Fixed, r.Unresolved)
	}
	return fmt.Sprintf("%d steps, %d drifted, %d missing", r.Steps, r.Drifted, r.Missing)
}

func shortRev(rev string) string {
	if rev == "" {
		return "(none)"
	}
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
