// Package sqlite serves the engine capability from an embedded SQLite
// database (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osvaldoandrade/sqldojo/pkg/engine"

	msqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DefaultDSN gives every connection its own private in-memory database.
const DefaultDSN = ":memory:"

// Plugin implements engine.Engine on top of database/sql.
type Plugin struct {
	mu      sync.RWMutex
	db      *sql.DB
	timeout time.Duration
}

// NewPlugin opens the database described by config. With the default DSN and
// the idle pool disabled, every session starts from an empty database.
func NewPlugin(config engine.PluginConfig) (engine.Engine, error) {
	dsn := config.DSN
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxIdleConns(0)
	if config.MaxOpenSessions > 0 {
		db.SetMaxOpenConns(config.MaxOpenSessions)
	}
	return &Plugin{db: db, timeout: config.QueryTimeout}, nil
}

func init() {
	engine.RegisterProvider("sqlite", NewPlugin)
}

// Open pins a dedicated connection for the lifetime of the session. The
// connection cannot attach other database files, so submitted SQL never
// reaches the filesystem through ATTACH or VACUUM INTO.
func (p *Plugin) Open(ctx context.Context) (engine.Session, error) {
	p.mu.RLock()
	db := p.db
	p.mu.RUnlock()
	if db == nil {
		return nil, engine.ErrClosed
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection: %w", err)
	}
	if _, err := msqlite.Limit(conn, sqlitelib.SQLITE_LIMIT_ATTACHED, 0); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite attach limit: %w", err)
	}
	return &session{conn: conn, timeout: p.timeout}, nil
}

// Health pings the database
func (p *Plugin) Health(ctx context.Context) error {
	p.mu.RLock()
	db := p.db
	p.mu.RUnlock()
	if db == nil {
		return engine.ErrClosed
	}
	return db.PingContext(ctx)
}

// Close releases the connection pool
func (p *Plugin) Close() error {
	p.mu.Lock()
	db := p.db
	p.db = nil
	p.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}

type session struct {
	conn    *sql.Conn
	timeout time.Duration
}

func (s *session) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *session) Exec(ctx context.Context, query string) error {
	qctx, cancel := s.bound(ctx)
	defer cancel()
	if _, err := s.conn.ExecContext(qctx, query); err != nil {
		return s.describe(qctx, err)
	}
	return nil
}

func (s *session) Query(ctx context.Context, query string) (engine.Rows, error) {
	qctx, cancel := s.bound(ctx)
	rs, err := s.conn.QueryContext(qctx, query)
	if err != nil {
		err = s.describe(qctx, err)
		cancel()
		return nil, err
	}
	cols, err := rs.Columns()
	if err != nil {
		_ = rs.Close()
		cancel()
		return nil, err
	}
	return &rows{rs: rs, cols: cols, cancel: cancel, ctx: qctx, sess: s}, nil
}

func (s *session) Close() error {
	return s.conn.Close()
}

// describe turns a context expiry into a readable engine error so timeouts
// surface like any other failed statement.
func (s *session) describe(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("query timed out after %s", s.timeout)
	}
	return err
}

type rows struct {
	rs     *sql.Rows
	cols   []string
	cancel context.CancelFunc
	ctx    context.Context
	sess   *session
}

func (r *rows) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

func (r *rows) Next() bool { return r.rs.Next() }

func (r *rows) Values() ([]any, error) {
	vals := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rs.Scan(ptrs...); err != nil {
		return nil, r.sess.describe(r.ctx, err)
	}
	return vals, nil
}

func (r *rows) Err() error {
	if err := r.rs.Err(); err != nil {
		return r.sess.describe(r.ctx, err)
	}
	return nil
}

func (r *rows) Close() error {
	err := r.rs.Close()
	r.cancel()
	return err
}
