package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"pacdeck/internal/history"
	"pacdeck/pkg/pacman"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
	rows    [][]string
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	return &Table{
		writer:  tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: header,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Render writes the header and all rows.
func (t *Table) Render() {
	if len(t.headers) > 0 {
		headerRow := make([]string, len(t.headers))
		for i, h := range t.headers {
			headerRow[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(t.writer, strings.Join(headerRow, "\t"))
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, strings.Join(row, "\t"))
	}
	t.writer.Flush()
}

// PrintStatuses prints package status records in a table.
func PrintStatuses(w io.Writer, statuses []pacman.PackageStatus) {
	if len(statuses) == 0 {
		Muted.Fprintln(w, "No packages checked")
		return
	}

	t := NewTableWriter(w, []string{"name", "installed", "latest", "status"})
	for _, st := range statuses {
		current := NotInstalled.Sprint("-")
		if st.Installed {
			v := st.CurrentVersion
			if v == "" {
				v = "?"
			}
			current = PackageVersion.Sprint(v)
		}

		latest := st.LatestVersion
		if latest == "" {
			latest = "-"
		}
		if st.AvailableUpdate {
			latest = UpdateVersion.Sprint(latest)
		}

		var status string
		switch {
		case !st.CheckSuccess:
			status = Error.Sprint(SymbolError + " " + st.Message)
		case st.AvailableUpdate:
			status = Warning.Sprint(SymbolArrow + " update available")
		case st.Installed:
			status = Installed.Sprint(SymbolSuccess + " " + st.Message)
		default:
			status = NotInstalled.Sprint(SymbolPending + " not installed")
		}

		t.AddRow(PackageName.Sprint(st.Name), current, latest, status)
	}
	t.Render()
}

// PrintUpdateSummary prints the pending update summary.
func PrintUpdateSummary(w io.Writer, s pacman.SystemUpdateStatus, verbose bool) {
	switch {
	case !s.CheckSuccess:
		Error.Fprintf(w, "%s %s\n", SymbolError, s.Message)
	case s.UpdatesAvailable:
		Warning.Fprintf(w, "%s %s\n", SymbolArrow, s.Message)
	default:
		Success.Fprintf(w, "%s %s\n", SymbolSuccess, s.Message)
	}

	printField(w, "Pending updates", fmt.Sprintf("%d", s.PendingUpdatesCount))
	last := s.LastUpdateDate
	if last == "" {
		last = "unknown"
	}
	printField(w, "Last update", last)

	if verbose {
		for _, line := range s.Pending {
			Muted.Fprintf(w, "    %s\n", line)
		}
	}
}

// PrintResult prints the outcome of one operation.
func PrintResult(w io.Writer, r pacman.Result) {
	if r.Success {
		Success.Fprintf(w, "%s %s\n", SymbolSuccess, r.Message)
		return
	}

	Error.Fprintf(w, "%s %s\n", SymbolError, firstLine(r.Message))
	if rest := remainingLines(r.Message); rest != "" {
		fmt.Fprintln(w, rest)
	}
}

// PrintHistory prints journal entries, newest first.
func PrintHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		Muted.Fprintln(w, "No operations recorded")
		return
	}

	t := NewTableWriter(w, []string{"time", "operation", "package", "result", "id"})
	for _, e := range entries {
		result := Installed.Sprint(SymbolSuccess)
		if !e.Success {
			result = Error.Sprint(SymbolError + " " + e.Failure)
		}
		if e.DryRun {
			result += Muted.Sprint(" (dry run)")
		}
		pkg := e.Package
		if pkg == "" {
			pkg = "-"
		}
		t.AddRow(e.FormatTime(), string(e.Operation), pkg, result, Muted.Sprint(shortID(e.ID)))
	}
	t.Render()
}

// printField prints a single field with formatting.
func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s: %s\n", Cyan(label), value)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func remainingLines(s string) string {
	_, rest, _ := strings.Cut(s, "\n")
	return strings.TrimRight(rest, "\n")
}
