package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/osvaldoandrade/sqldojo/pkg/engine"
)

// Plugin implements engine.Engine with canned results keyed by query text.
// This is primarily for testing and should not be used in production
type Plugin struct {
	mu       sync.RWMutex
	results  map[string]Table
	failures map[string]error
	execErr  error
	panicOn  map[string]bool
	execs    []string
	opened   int
	closed   int
}

// Table is a canned query result
type Table struct {
	Columns []string
	Rows    [][]any
}

// New creates an empty scripted engine
func New() *Plugin {
	return &Plugin{
		results:  make(map[string]Table),
		failures: make(map[string]error),
		panicOn:  make(map[string]bool),
	}
}

// NewPlugin creates a new in-memory engine for the provider registry
func NewPlugin(config engine.PluginConfig) (engine.Engine, error) {
	return New(), nil
}

func init() {
	engine.RegisterProvider("memory", NewPlugin)
}

// Normalize collapses whitespace and drops a trailing semicolon so callers can
// register queries without matching formatting exactly.
func Normalize(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	return strings.TrimSpace(strings.TrimSuffix(q, ";"))
}

// Register scripts the result of a query
func (p *Plugin) Register(query string, columns []string, rows ...[]any) *Plugin {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[Normalize(query)] = Table{Columns: columns, Rows: rows}
	return p
}

// Fail scripts a query to fail with err
func (p *Plugin) Fail(query string, err error) *Plugin {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[Normalize(query)] = err
	return p
}

// FailExec makes every Exec fail with err
func (p *Plugin) FailExec(err error) *Plugin {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.execErr = err
	return p
}

// PanicOn makes a query panic, simulating a misbehaving driver
func (p *Plugin) PanicOn(query string) *Plugin {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panicOn[Normalize(query)] = true
	return p
}

// Execs returns every statement passed to Exec, in order
func (p *Plugin) Execs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.execs...)
}

// Sessions returns how many sessions were opened and closed
func (p *Plugin) Sessions() (opened, closed int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opened, p.closed
}

func (p *Plugin) Open(ctx context.Context) (engine.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened++
	return &session{plugin: p}, nil
}

// Health always returns nil for the in-memory engine
func (p *Plugin) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory engine
func (p *Plugin) Close() error {
	return nil
}

type session struct {
	plugin *Plugin
	closed bool
}

func (s *session) Exec(ctx context.Context, query string) error {
	if s.closed {
		return engine.ErrClosed
	}
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()
	s.plugin.execs = append(s.plugin.execs, Normalize(query))
	return s.plugin.execErr
}

func (s *session) Query(ctx context.Context, query string) (engine.Rows, error) {
	if s.closed {
		return nil, engine.ErrClosed
	}
	key := Normalize(query)
	s.plugin.mu.RLock()
	tbl, ok := s.plugin.results[key]
	failure := s.plugin.failures[key]
	explode := s.plugin.panicOn[key]
	s.plugin.mu.RUnlock()

	if explode {
		panic("memory engine: scripted panic for " + key)
	}
	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, fmt.Errorf("memory engine: no result scripted for %q", key)
	}
	return NewRows(tbl.Columns, tbl.Rows...), nil
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()
	s.plugin.closed++
	return nil
}

// NewRows returns an engine.Rows cursor over literal values
func NewRows(columns []string, rows ...[]any) engine.Rows {
	return &sliceRows{cols: columns, rows: rows, pos: -1}
}

type sliceRows struct {
	cols []string
	rows [][]any
	pos  int
}

func (r *sliceRows) Columns() []string { return append([]string(nil), r.cols...) }

func (r *sliceRows) Next() bool {
	if r.pos+1 >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, fmt.Errorf("memory engine: no current row")
	}
	return append([]any(nil), r.rows[r.pos]...), nil
}

func (r *sliceRows) Err() error   { return nil }
func (r *sliceRows) Close() error { return nil }
