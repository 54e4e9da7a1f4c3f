package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/sqldojo/pkg/domain"
	"github.com/osvaldoandrade/sqldojo/pkg/engine"
)

const Table = "ducklings"

var Columns = []string{"name", "color", "age"}

type Duckling struct {
	Name  string
	Color string
	Age   int
}

// Ducklings is the fixed starter dataset every check runs against.
var Ducklings = []Duckling{
	{"Daffy", "yellow", 1},
	{"Goldie", "yellow", 2},
	{"Daisy", "yellow", 3},
	{"Puddles", "brown", 4},
	{"Waddles", "green", 5},
	{"Beakley", "brown", 6},
	{"Mallow", "green", 7},
	{"Nugget", "yellow", 8},
	{"Duke", "brown", 9},
	{"Splash", "blue", 10},
	{"Moss", "brown", 11},
	{"Sunny", "yellow", 12},
}

// ProvisionError marks a dataset reset failure. It always indicates a tool
// problem, never a learner mistake.
type ProvisionError struct {
	Statement string
	Err       error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("failed to initialize %s dataset: %v", Table, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

type Provisioner interface {
	Provision(ctx context.Context, sess engine.Session) error
}

type provisioner struct {
	statements []string
}

func NewProvisioner() Provisioner {
	return &provisioner{statements: Statements()}
}

// Provision drops and recreates the temporary dataset in sess. It is safe to
// call before every check: nothing a previous query did survives it.
func (p *provisioner) Provision(ctx context.Context, sess engine.Session) error {
	for _, stmt := range p.statements {
		if err := sess.Exec(ctx, stmt); err != nil {
			return &ProvisionError{Statement: stmt, Err: err}
		}
	}
	return nil
}

// Statements returns the reset sequence, one statement per entry.
func Statements() []string {
	return []string{
		"DROP TABLE IF EXISTS " + Table,
		"CREATE TEMP TABLE " + Table + " (\n  name  VARCHAR,\n  color VARCHAR,\n  age   INTEGER\n)",
		insertStatement(),
	}
}

func insertStatement() string {
	var b strings.Builder
	b.WriteString("INSERT INTO " + Table + " (name, color, age) VALUES\n")
	for i, d := range Ducklings {
		fmt.Fprintf(&b, "  (%s, %s, %d)", quote(d.Name), quote(d.Color), d.Age)
		if i < len(Ducklings)-1 {
			b.WriteString(",\n")
		}
	}
	return b.String()
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Script renders the reset sequence as a standalone file learners can load
// into their own session.
func Script() string {
	var b strings.Builder
	b.WriteString("-- sqldojo starter dataset\n")
	b.WriteString("-- Run this in your session before attempting dojo levels.\n\n")
	for _, stmt := range Statements() {
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	b.WriteString("-- Sanity check:\n-- SELECT * FROM " + Table + " ORDER BY age;\n")
	return b.String()
}

func Describe() domain.DatasetInfo {
	return domain.DatasetInfo{
		Table:    Table,
		Columns:  append([]string(nil), Columns...),
		RowCount: len(Ducklings),
		Script:   Script(),
	}
}
