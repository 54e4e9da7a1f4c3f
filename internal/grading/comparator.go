package grading

import (
	"fmt"
	"sort"
	"strings"

	"github.com/osvaldoandrade/sqldojo/pkg/domain"
)

// FieldSeparator joins the fields of a row before comparison. It is the ASCII
// unit separator; catalog data must never contain it.
const FieldSeparator = "\x1f"

const SuccessMessage = "✅ Nice work, your query matches the expected output for this level."

// MismatchReason names which check rejected a submission.
type MismatchReason string

const (
	ReasonNone        MismatchReason = ""
	ReasonColumns     MismatchReason = "columns"
	ReasonTooManyRows MismatchReason = "too_many_rows"
	ReasonRowCount    MismatchReason = "row_count"
	ReasonContent     MismatchReason = "content"
)

type Verdict struct {
	OK      bool
	Reason  MismatchReason
	Message string
}

// Compare grades actual against expected under the task's policy. Checks run
// in a fixed order and stop at the first failure: column shape, row ceiling,
// row count, row content.
func Compare(task domain.Task, expected, actual Result) Verdict {
	if !EqualColumns(actual.Columns, task.ExpectedColumns) {
		return Verdict{
			Reason: ReasonColumns,
			Message: fmt.Sprintf("Column mismatch. Expected columns: [%s], got: [%s]. Tip: use aliases (AS ...) to match expected column names.",
				strings.Join(task.ExpectedColumns, ", "), strings.Join(actual.Columns, ", ")),
		}
	}

	if task.Bounded() && actual.RowCount() > task.MaxRows {
		return Verdict{
			Reason: ReasonTooManyRows,
			Message: fmt.Sprintf("Too many rows. This level expects at most %d row(s), but your query returned %d. Tip: use LIMIT %d.",
				task.MaxRows, actual.RowCount(), task.MaxRows),
		}
	}

	if expected.RowCount() != actual.RowCount() {
		return Verdict{
			Reason: ReasonRowCount,
			Message: fmt.Sprintf("Row count mismatch. Expected %d row(s), got %d. Tip: check your WHERE / GROUP BY / LIMIT logic.",
				expected.RowCount(), actual.RowCount()),
		}
	}

	exp := JoinRows(expected.Rows)
	act := JoinRows(actual.Rows)
	if !task.RequiresOrder {
		// Sorting both sides turns positional comparison into multiset equality.
		sort.Strings(exp)
		sort.Strings(act)
	}
	for i := range exp {
		if exp[i] == act[i] {
			continue
		}
		var b strings.Builder
		b.WriteString("Result mismatch. Your output does not match the expected result.")
		if task.RequiresOrder {
			b.WriteString(" This level checks ordering, so make sure to include the ORDER BY from the goal.")
		} else {
			b.WriteString(" Note: this level does not require ordering.")
		}
		fmt.Fprintf(&b, " First difference at row %d.", i+1)
		return Verdict{Reason: ReasonContent, Message: b.String()}
	}

	return Verdict{OK: true, Message: SuccessMessage}
}

// EqualColumns compares column lists case-insensitively, count and order included.
func EqualColumns(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !strings.EqualFold(got[i], want[i]) {
			return false
		}
	}
	return true
}

// JoinRow serializes a row into one comparable string.
func JoinRow(row []string) string {
	return strings.Join(row, FieldSeparator)
}

func JoinRows(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = JoinRow(r)
	}
	return out
}
