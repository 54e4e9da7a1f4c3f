package grading

import (
	"fmt"
	"strconv"
	"time"

	"github.com/osvaldoandrade/sqldojo/pkg/engine"
)

// NullText is the canonical form of SQL NULL.
const NullText = "NULL"

const timestampLayout = "2006-01-02 15:04:05.999999999"

// Result is a static snapshot of a query result. Values are in canonical
// string form: two values are equal for grading iff their strings are equal.
type Result struct {
	Columns []string
	Rows    [][]string
}

func (r Result) RowCount() int { return len(r.Rows) }

// Materialize drains rows to completion and closes them.
func Materialize(rows engine.Rows) (Result, error) {
	defer rows.Close()

	out := Result{Columns: rows.Columns()}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return Result{}, err
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = Canonical(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return out, nil
}

// Canonical renders a driver value to its display string.
func Canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(timestampLayout)
	default:
		return fmt.Sprint(x)
	}
}
