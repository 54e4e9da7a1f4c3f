package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/osvaldoandrade/sqldojo/pkg/domain"
)

func renderTasks(w io.Writer, ui *ui, tasks []domain.TaskView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, ui.dim("ID\tLEVEL\tTITLE\tTOPIC\tDIFFICULTY"))
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", t.ID, t.Level, t.Title, t.Topic, stars(t.Difficulty))
	}
	_ = tw.Flush()
}

func renderTask(w io.Writer, ui *ui, t domain.TaskView) {
	fmt.Fprintf(w, "%s %s\n", ui.title(fmt.Sprintf("Level %d:", t.Level)), t.Title)
	fmt.Fprintf(w, "%s %s  %s %s\n", ui.dim("Topic:"), t.Topic, ui.dim("Difficulty:"), stars(t.Difficulty))
	fmt.Fprintln(w)
	fmt.Fprintln(w, t.Goal)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", ui.dim("Expected columns:"), strings.Join(t.ExpectedColumns, ", "))
	if t.RequiresOrder {
		fmt.Fprintf(w, "%s %s\n", ui.dim("Ordering:"), "rows must come back in the expected order")
	}
	if t.MaxRows != domain.Unbounded {
		fmt.Fprintf(w, "%s %d\n", ui.dim("Row limit:"), t.MaxRows)
	}
	fmt.Fprintf(w, "%s %d (sqldojo hint %d 1)\n", ui.dim("Hints:"), t.HintCount, t.ID)
	if t.Badge != "" {
		fmt.Fprintf(w, "%s %s\n", ui.dim("Badge:"), t.Badge)
	}
}

// renderOutcome prints the grading message and reports whether the level passed.
func renderOutcome(w io.Writer, ui *ui, out *domain.CheckOutcome) bool {
	switch out.Kind {
	case domain.OutcomePassed:
		fmt.Fprintln(w, ui.ok(out.Message))
	case domain.OutcomeMismatch:
		fmt.Fprintln(w, ui.warn(out.Message))
	default:
		fmt.Fprintln(w, ui.err(out.Message))
	}
	if out.Kind == domain.OutcomeMismatch {
		fmt.Fprintln(w, ui.dim(fmt.Sprintf("expected %d row(s), got %d", out.ExpectedRowCount, out.ActualRowCount)))
	}
	return out.OK
}

func renderReport(w io.Writer, ui *ui, report *domain.SelfTestReport) {
	for _, r := range report.Results {
		if r.Outcome.OK {
			continue
		}
		fmt.Fprintf(w, "%s #%d %s: %s\n", ui.err("FAIL"), r.TaskID, r.Title, r.Outcome.Message)
	}
	total := report.Passed + report.Failed
	if report.Failed == 0 {
		fmt.Fprintf(w, "%s %d/%d canonical queries pass\n", ui.ok("[OK]"), report.Passed, total)
		return
	}
	fmt.Fprintf(w, "%s %d/%d canonical queries pass\n", ui.err("[FAIL]"), report.Passed, total)
}

func stars(n int) string {
	if n <= 0 {
		return "-"
	}
	return strings.Repeat("*", n)
}
