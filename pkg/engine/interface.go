package engine

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned when a session or engine is used after Close
	ErrClosed = errors.New("engine closed")
)

// Engine is the narrow capability the grader depends on: open an isolated
// session and run SQL in it. Any compliant backend can be plugged in.
type Engine interface {
	// Open returns a session that no other caller shares
	Open(ctx context.Context) (Session, error)

	// Health checks if the backend can serve queries
	Health(ctx context.Context) error

	// Close releases resources held by the engine
	Close() error
}

// Session is one connection scope. Temporary objects created in a session are
// invisible to every other session.
type Session interface {
	// Exec runs one or more statements and discards their output
	Exec(ctx context.Context, query string) error

	// Query runs a statement and returns its rows for streaming fetch
	Query(ctx context.Context, query string) (Rows, error)

	Close() error
}

// Rows is a forward-only cursor over a query result.
type Rows interface {
	Columns() []string
	Next() bool
	// Values returns the current row. The slice is owned by the caller.
	Values() ([]any, error)
	Err() error
	Close() error
}
