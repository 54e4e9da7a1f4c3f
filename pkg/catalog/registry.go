package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/osvaldoandrade/sqldojo/pkg/domain"
)

// Registry is an immutable, ordered task catalog. It is safe for concurrent use
// because nothing mutates it after New returns.
type Registry struct {
	tasks []domain.Task
	byID  map[int]int
}

// New validates tasks and builds a registry over a private copy of them.
func New(tasks []domain.Task) (*Registry, error) {
	if err := Validate(tasks); err != nil {
		return nil, err
	}
	r := &Registry{
		tasks: make([]domain.Task, len(tasks)),
		byID:  make(map[int]int, len(tasks)),
	}
	for i, t := range tasks {
		r.tasks[i] = clone(t)
		r.byID[t.ID] = i
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shipped catalog. An invalid shipped catalog is an
// authoring bug and panics on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := New(shipped)
		if err != nil {
			panic("catalog: shipped tasks are invalid: " + err.Error())
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// All returns every task in insertion order.
func (r *Registry) All() []domain.Task {
	out := make([]domain.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = clone(t)
	}
	return out
}

func (r *Registry) Len() int { return len(r.tasks) }

// Find looks a task up by id. Unknown ids report false.
func (r *Registry) Find(id int) (domain.Task, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Task{}, false
	}
	return clone(r.tasks[i]), true
}

// Hint returns the n-th hint (1-based) of a task.
func (r *Registry) Hint(id int, n int) (domain.Hint, error) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Hint{}, domain.ErrTaskNotFound
	}
	t := r.tasks[i]
	if n < 1 {
		return domain.Hint{}, fmt.Errorf("%w: Hint levels start at 1.", domain.ErrHintOutOfRange)
	}
	if n > len(t.Hints) {
		return domain.Hint{}, fmt.Errorf("%w: No more hints. This level has %d hint(s).", domain.ErrHintOutOfRange, len(t.Hints))
	}
	return domain.Hint{TaskID: id, Index: n, Total: len(t.Hints), Text: t.Hints[n-1]}, nil
}

// Validate checks the authoring invariants of a catalog.
func Validate(tasks []domain.Task) error {
	if len(tasks) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[int]bool, len(tasks))
	for i, t := range tasks {
		where := fmt.Sprintf("task[%d] (id %d)", i, t.ID)
		if t.ID <= 0 {
			return fmt.Errorf("%s: id must be positive", where)
		}
		if seen[t.ID] {
			return fmt.Errorf("%s: duplicate id", where)
		}
		seen[t.ID] = true
		if len(t.ExpectedColumns) == 0 {
			return fmt.Errorf("%s: expected columns are empty", where)
		}
		for _, c := range t.ExpectedColumns {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("%s: blank expected column name", where)
			}
		}
		if strings.TrimSpace(t.ExpectedSQL) == "" {
			return fmt.Errorf("%s: expected sql is empty", where)
		}
		if t.MaxRows < domain.Unbounded {
			return fmt.Errorf("%s: maxRows %d is invalid", where, t.MaxRows)
		}
		if len(t.Hints) == 0 {
			return fmt.Errorf("%s: at least one hint is required", where)
		}
	}
	return validateLevels(tasks)
}

// validateLevels requires levels to be non-decreasing in id order, whatever
// order the tasks are listed in.
func validateLevels(tasks []domain.Task) error {
	byID := make([]domain.Task, len(tasks))
	copy(byID, tasks)
	sort.Slice(byID, func(i, j int) bool { return byID[i].ID < byID[j].ID })
	for i := 1; i < len(byID); i++ {
		prev, t := byID[i-1], byID[i]
		if t.Level < prev.Level {
			return fmt.Errorf("task id %d: level %d goes backwards from %d (id %d)", t.ID, t.Level, prev.Level, prev.ID)
		}
	}
	return nil
}

func clone(t domain.Task) domain.Task {
	t.ExpectedColumns = append([]string(nil), t.ExpectedColumns...)
	t.Hints = append([]string(nil), t.Hints...)
	return t
}
