package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTaskViewOmitsCanonicalSQL(t *testing.T) {
	task := Task{
		ID:              7,
		Level:           7,
		Title:           "Count the Yellow",
		MaxRows:         1,
		ExpectedColumns: []string{"count"},
		ExpectedSQL:     "SELECT COUNT(*) AS count FROM ducklings",
		Hints:           []string{"a", "b"},
	}

	view := task.View()
	if view.HintCount != 2 {
		t.Fatalf("expected hintCount 2, got %d", view.HintCount)
	}
	b, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "SELECT") {
		t.Fatalf("view leaked canonical sql: %s", b)
	}

	view.ExpectedColumns[0] = "changed"
	if task.ExpectedColumns[0] != "count" {
		t.Fatalf("view shares expected columns with task")
	}
}

func TestTaskMarshalHidesSQLAndHints(t *testing.T) {
	b, err := json.Marshal(Task{ID: 1, ExpectedSQL: "SELECT 1", Hints: []string{"secret"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "SELECT 1") || strings.Contains(string(b), "secret") {
		t.Fatalf("task json leaked internals: %s", b)
	}
}

func TestTaskBounded(t *testing.T) {
	tests := []struct {
		name    string
		maxRows int
		want    bool
	}{
		{"unbounded", Unbounded, false},
		{"zero is a bound", 0, true},
		{"positive", 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Task{MaxRows: tt.maxRows}).Bounded(); got != tt.want {
				t.Errorf("Bounded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskIDUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    TaskID
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id TaskID
			err := id.UnmarshalText([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && id != tt.want {
				t.Errorf("UnmarshalText(%q) = %d, want %d", tt.in, id, tt.want)
			}
		})
	}
}

func TestCheckOutcomeInternal(t *testing.T) {
	if !(CheckOutcome{Kind: OutcomeInternalError}).Internal() {
		t.Fatal("expected internal_error outcome to be internal")
	}
	if (CheckOutcome{Kind: OutcomeQueryError}).Internal() {
		t.Fatal("query_error must not be internal")
	}
}
