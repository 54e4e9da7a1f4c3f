package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/osvaldoandrade/sqldojo/pkg/engine"
	"github.com/osvaldoandrade/sqldojo/pkg/engine/memory"
	_ "github.com/osvaldoandrade/sqldojo/pkg/engine/sqlite"
)

func openSQLite(t *testing.T) engine.Session {
	t.Helper()
	eng, err := engine.New(engine.ProviderConfig{Type: "sqlite"}, engine.PluginConfig{})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	sess, err := eng.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func countRows(t *testing.T, sess engine.Session) int {
	t.Helper()
	rows, err := sess.Query(context.Background(), "SELECT COUNT(*) FROM ducklings")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("count returned no row")
	}
	vals, err := rows.Values()
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	return int(vals[0].(int64))
}

func TestProvisionIsIdempotentAndResetsMutations(t *testing.T) {
	ctx := context.Background()
	sess := openSQLite(t)
	p := NewProvisioner()

	if err := p.Provision(ctx, sess); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if n := countRows(t, sess); n != 12 {
		t.Fatalf("expected 12 rows, got %d", n)
	}

	if err := sess.Exec(ctx, "DELETE FROM ducklings WHERE color = 'yellow'"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := sess.Exec(ctx, "INSERT INTO ducklings VALUES ('Intruder', 'red', 99)"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := p.Provision(ctx, sess); err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if n := countRows(t, sess); n != 12 {
		t.Fatalf("expected dataset reset to 12 rows, got %d", n)
	}
}

func TestProvisionRecreatesDroppedTable(t *testing.T) {
	ctx := context.Background()
	sess := openSQLite(t)
	p := NewProvisioner()

	if err := p.Provision(ctx, sess); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if err := sess.Exec(ctx, "DROP TABLE ducklings"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := p.Provision(ctx, sess); err != nil {
		t.Fatalf("provision after drop: %v", err)
	}
	if n := countRows(t, sess); n != 12 {
		t.Fatalf("expected 12 rows, got %d", n)
	}
}

func TestProvisionFailureIsTagged(t *testing.T) {
	boom := errors.New("disk on fire")
	eng := memory.New().FailExec(boom)
	sess, _ := eng.Open(context.Background())

	err := NewProvisioner().Provision(context.Background(), sess)
	var perr *ProvisionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProvisionError, got %T %v", err, err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("expected ProvisionError to unwrap to the engine error")
	}
	if !strings.Contains(err.Error(), "failed to initialize ducklings dataset") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestScriptAndDescribe(t *testing.T) {
	script := Script()
	for _, want := range []string{"CREATE TEMP TABLE ducklings", "('Sunny', 'yellow', 12)", "DROP TABLE IF EXISTS ducklings"} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
	info := Describe()
	if info.Table != "ducklings" || info.RowCount != 12 || len(info.Columns) != 3 {
		t.Fatalf("unexpected dataset info: %+v", info)
	}
}
