package relational

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite" // pure-Go driver, registered as "sqlite"
)

// StatementStats is a point-in-time snapshot of connection activity
// (spec §4.7): prepares, executes, and begin/commit/rollback counts
// (classified from the leading keyword of the SQL text), plus whether a
// call reused a cached prepared statement (hit) or compiled a fresh one
// (miss).
type StatementStats struct {
	Prepares   uint64
	Executes   uint64
	Begins     uint64
	Commits    uint64
	Rollbacks  uint64
	StmtHits   uint64
	StmtMisses uint64
}

// connStats holds the running counters behind StatementStats.
type connStats struct {
	prepares   atomic.Uint64
	executes   atomic.Uint64
	begins     atomic.Uint64
	commits    atomic.Uint64
	rollbacks  atomic.Uint64
	stmtHits   atomic.Uint64
	stmtMisses atomic.Uint64
}

func (s *connStats) snapshot() StatementStats {
	return StatementStats{
		Prepares:   s.prepares.Load(),
		Executes:   s.executes.Load(),
		Begins:     s.begins.Load(),
		Commits:    s.commits.Load(),
		Rollbacks:  s.rollbacks.Load(),
		StmtHits:   s.stmtHits.Load(),
		StmtMisses: s.stmtMisses.Load(),
	}
}

// recordControl attributes one call to the right counter based on the
// leading keyword of query, the way spec §4.7 asks statements to be
// classified.
func (s *connStats) recordControl(query string) {
	switch classifyStatement(query) {
	case "begin":
		s.begins.Add(1)
	case "commit":
		s.commits.Add(1)
	case "rollback":
		s.rollbacks.Add(1)
	default:
		s.executes.Add(1)
	}
}

func classifyStatement(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "execute"
	}
	switch strings.ToUpper(fields[0]) {
	case "BEGIN":
		return "begin"
	case "COMMIT":
		return "commit"
	case "ROLLBACK":
		return "rollback"
	default:
		return "execute"
	}
}

// connection wraps *sql.DB with the pragmas this engine requires, a
// prepared-statement cache keyed by query text, and the activity counters
// surfaced through the CLI `status` command (spec §6) the way
// steveyegge-beads's doctor/sql commands report connection health.
type connection struct {
	db    *sql.DB
	stats connStats

	stmtMu    sync.Mutex
	stmtCache map[string]*sql.Stmt
}

// openConnection opens path (or ":memory:") with foreign keys and a busy
// timeout enabled, applies spec §4.7's default pragma set for file-backed
// databases, and caps concurrent connections at 1 — modernc.org/sqlite
// serializes writers at the OS file level, and steveyegge-beads's sqlite
// package takes the same MaxOpenConns(1) approach to avoid SQLITE_BUSY
// under its own txguard.
func openConnection(path string) (*connection, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &connection{db: db, stmtCache: make(map[string]*sql.Stmt)}
	if err := applyDefaultPragmas(context.Background(), c, path); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// applyDefaultPragmas sets spec §4.7's default pragma set for file-backed
// databases on open: WAL journal mode (falling back to SQLite's default
// journaling mode if WAL is unavailable, e.g. on some network
// filesystems), balanced (NORMAL) synchronous mode, a sizable page cache,
// a memory temp store, and an mmap hint. An in-memory database has none
// of WAL's durability concerns and mmap is meaningless for it, so it is
// left at SQLite's defaults entirely.
func applyDefaultPragmas(ctx context.Context, c *connection, path string) error {
	if path == ":memory:" {
		return nil
	}
	// journal_mode is the one pragma spec §4.7 says to fall back on
	// rather than fail the whole open over.
	c.exec(ctx, `PRAGMA journal_mode = WAL`)

	for _, stmt := range []string{
		`PRAGMA synchronous = NORMAL`,
		`PRAGMA cache_size = -20000`,
		`PRAGMA temp_store = MEMORY`,
		`PRAGMA mmap_size = 268435456`,
	} {
		if _, err := c.exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply default pragma %q: %w", stmt, err)
		}
	}
	return nil
}

// prepare returns a cached *sql.Stmt for query, compiling and caching one
// on a miss. Scoped to the db-level connection — the per-transaction path
// in txguard.go uses its own short-lived cache against the pinned
// *sql.Conn instead, since a *sql.Stmt prepared here would try to borrow a
// second connection from a pool of size 1 if run while withTx already has
// the sole connection pinned out, and deadlock.
func (c *connection) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	c.stmtMu.Lock()
	defer c.stmtMu.Unlock()

	if stmt, ok := c.stmtCache[query]; ok {
		c.stats.stmtHits.Add(1)
		return stmt, nil
	}
	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.stats.prepares.Add(1)
	c.stats.stmtMisses.Add(1)
	c.stmtCache[query] = stmt
	return stmt, nil
}

func (c *connection) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.stats.recordControl(query)
	stmt, err := c.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return stmt.ExecContext(ctx, args...)
}

func (c *connection) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.stats.recordControl(query)
	stmt, err := c.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, args...)
}

func (c *connection) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	c.stats.recordControl(query)
	stmt, err := c.prepare(ctx, query)
	if err != nil {
		return c.db.QueryRowContext(ctx, query, args...)
	}
	return stmt.QueryRowContext(ctx, args...)
}

// statementCount reports the total number of non-prepare statements
// executed (begins + commits + rollbacks + plain executes), surfaced by
// the CLI `status` command. Use statementStats for the full breakdown.
func (c *connection) statementCount() uint64 {
	s := c.stats.snapshot()
	return s.Executes + s.Begins + s.Commits + s.Rollbacks
}

// statementStats returns the full spec §4.7 activity breakdown.
func (c *connection) statementStats() StatementStats { return c.stats.snapshot() }

func (c *connection) close() error {
	c.stmtMu.Lock()
	for _, stmt := range c.stmtCache {
		stmt.Close()
	}
	c.stmtCache = nil
	c.stmtMu.Unlock()
	return c.db.Close()
}
