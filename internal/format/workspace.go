package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vedsharma/pingforge/internal/model"
)

// PrintEnvironmentList marks the selected environment with an asterisk.
func PrintEnvironmentList(w io.Writer, envs []model.Environment, selectedID string) {
	if len(envs) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No environments found"))
		return
	}
	for _, e := range envs {
		marker := " "
		if e.ID == selectedID {
			marker = successColor.Sprint("*")
		}
		enabled := 0
		for _, v := range e.Variables {
			if v.Enabled {
				enabled++
			}
		}
		fmt.Fprintf(w, "%s %s %s\n", marker, headerKeyColor.Sprint(sanitizeOutput(e.Name)),
			dimColor.Sprintf("(%d/%d variables enabled)", enabled, len(e.Variables)))
	}
}

// PrintEnvironment prints an environment's variables in store order.
func PrintEnvironment(w io.Writer, e *model.Environment) {
	fmt.Fprintln(w, headerKeyColor.Sprintf("Environment: %s", sanitizeOutput(e.Name)))
	if e.Description != "" {
		fmt.Fprintln(w, dimColor.Sprint(sanitizeOutput(e.Description)))
	}
	if len(e.Variables) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("(no variables)"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Value", "Enabled"})
	for _, v := range e.Variables {
		t.AppendRow(table.Row{sanitizeOutput(v.Key), sanitizeOutput(v.Value), v.Enabled})
	}
	t.Render()
}

// PrintMissingVariables warns about {{tokens}} left after resolution.
func PrintMissingVariables(names []string) {
	if len(names) == 0 {
		return
	}
	PrintWarning(fmt.Sprintf("Unresolved variables: %s", strings.Join(names, ", ")))
}

// PrintScanReport prints findings most severe first.
func PrintScanReport(w io.Writer, r *model.ScanReport) {
	res := r.Result
	fmt.Fprintf(w, "Scan %s of %s\n", dimColor.Sprint(sanitizeOutput(r.ScanID)), urlColor.Sprint(sanitizeOutput(res.TargetURL)))
	fmt.Fprintf(w, "%d findings in %.1fs\n", res.TotalFindings, res.ScanDuration)

	var counts []string
	for _, level := range model.Severities {
		if n := res.FindingsByLevel[level]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s=%d", levelCell(level), n))
		}
	}
	if len(counts) > 0 {
		fmt.Fprintln(w, strings.Join(counts, "  "))
	}
	if len(res.Findings) == 0 {
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Level", "Title", "CWE", "Recommendation"})
	for _, f := range sortFindings(res.Findings) {
		t.AppendRow(table.Row{levelCell(f.Level), sanitizeOutput(f.Title), sanitizeOutput(f.CWEID), sanitizeOutput(preview(f.Recommendation, 60))})
	}
	t.Render()
}

// PrintReplayResult prints a successful replay.
func PrintReplayResult(w io.Writer, r *model.ReplayResult) {
	fmt.Fprintf(w, "%s %s\n", successColor.Sprint("Replayed"), statusCell(r.StatusCode))
	if r.ResponsePreview != "" {
		fmt.Fprintln(w, sanitizeOutput(r.ResponsePreview))
	}
}

// sortFindings orders by severity, keeping report order within a level.
// Unknown levels go last.
func sortFindings(findings []model.Finding) []model.Finding {
	rank := func(level string) int {
		for i, l := range model.Severities {
			if l == level {
				return i
			}
		}
		return len(model.Severities)
	}
	out := append([]model.Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i].Level) < rank(out[j].Level) })
	return out
}
