package domain

import (
	"encoding"
	"errors"
	"strconv"
)

// Unbounded is the MaxRows sentinel for tasks without a row ceiling.
const Unbounded = -1

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrHintOutOfRange = errors.New("hint out of range")
)

// Task is one graded exercise. Tasks are defined statically and never mutated.
type Task struct {
	ID              int      `json:"taskId"`
	Level           int      `json:"level"`
	Title           string   `json:"title"`
	Topic           string   `json:"topic"`
	Difficulty      int      `json:"difficulty"`
	Goal            string   `json:"goal"`
	Badge           string   `json:"badge"`
	RequiresOrder   bool     `json:"requiresOrder"`
	MaxRows         int      `json:"maxRows"`
	ExpectedColumns []string `json:"expectedColumns"`
	ExpectedSQL     string   `json:"-"`
	Hints           []string `json:"-"`
}

// Bounded reports whether the task caps the number of rows a submission may return.
func (t Task) Bounded() bool { return t.MaxRows != Unbounded }

// View returns the learner-facing projection of the task.
func (t Task) View() TaskView {
	cols := make([]string, len(t.ExpectedColumns))
	copy(cols, t.ExpectedColumns)
	return TaskView{
		ID:              t.ID,
		Level:           t.Level,
		Title:           t.Title,
		Topic:           t.Topic,
		Difficulty:      t.Difficulty,
		Goal:            t.Goal,
		Badge:           t.Badge,
		RequiresOrder:   t.RequiresOrder,
		MaxRows:         t.MaxRows,
		ExpectedColumns: cols,
		HintCount:       len(t.Hints),
	}
}

// TaskView is what the listing endpoints expose: no canonical SQL, no hint text.
type TaskView struct {
	ID              int      `json:"taskId"`
	Level           int      `json:"level"`
	Title           string   `json:"title"`
	Topic           string   `json:"topic"`
	Difficulty      int      `json:"difficulty"`
	Goal            string   `json:"goal"`
	Badge           string   `json:"badge"`
	RequiresOrder   bool     `json:"requiresOrder"`
	MaxRows         int      `json:"maxRows"`
	ExpectedColumns []string `json:"expectedColumns"`
	HintCount       int      `json:"hintCount"`
}

type Hint struct {
	TaskID int    `json:"taskId"`
	Index  int    `json:"index"`
	Total  int    `json:"total"`
	Text   string `json:"hint"`
}

// TaskID is the path form of a task identifier.
type TaskID int

var _ encoding.TextUnmarshaler = (*TaskID)(nil)

func (id *TaskID) UnmarshalText(b []byte) error {
	n, err := strconv.Atoi(string(b))
	if err != nil || n <= 0 {
		return errors.New("task id must be a positive integer")
	}
	*id = TaskID(n)
	return nil
}
