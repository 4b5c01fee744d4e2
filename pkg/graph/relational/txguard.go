package relational

import (
	"context"
	"database/sql"
	"fmt"
)

// withTx pins a single physical connection, opens it with BEGIN IMMEDIATE,
// and runs fn against it, committing on success and rolling back on any
// error or panic. modernc.org/sqlite's BeginTx always issues BEGIN DEFERRED
// regardless of the requested isolation level (noted in
// steveyegge-beads's queries.go), so an immediate writer lock is obtained
// by hand; pinning the connection (rather than relying on the pool to hand
// BEGIN IMMEDIATE and the later statements the same one) is what makes that
// safe — c already caps MaxOpenConns(1), so Conn always returns the same
// underlying connection, but only conn.ExecContext, never db.ExecContext,
// is used for the lifetime of the transaction.
func withTx(ctx context.Context, c *connection, fn func(execer) error) (retErr error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	c.stats.recordControl("BEGIN IMMEDIATE")
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin immediate: %w", err)
	}

	pc := pinnedConn{conn: conn, stats: &c.stats, stmtCache: make(map[string]*sql.Stmt)}
	defer pc.closeStatements()

	defer func() {
		if p := recover(); p != nil {
			c.stats.recordControl("ROLLBACK")
			conn.ExecContext(ctx, "ROLLBACK")
			panic(p)
		}
	}()

	if err := fn(pc); err != nil {
		c.stats.recordControl("ROLLBACK")
		if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	c.stats.recordControl("COMMIT")
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// execer is the subset of *sql.Conn / *connection this package's statement
// helpers need, letting bulk-insert and single-write code paths share the
// same prepared-statement call sites whether or not they run inside a
// withTx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// pinnedConn adapts a *sql.Conn held for the duration of one withTx call to
// execer. It keeps its own prepared-statement cache scoped to that single
// call rather than sharing connection.prepare's db-level cache: a
// *sql.Stmt prepared against *sql.DB would try to check out a second
// connection from the pool while this one is pinned out, and with
// MaxOpenConns(1) that blocks forever.
type pinnedConn struct {
	conn      *sql.Conn
	stats     *connStats
	stmtCache map[string]*sql.Stmt
}

func (p pinnedConn) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := p.stmtCache[query]; ok {
		p.stats.stmtHits.Add(1)
		return stmt, nil
	}
	stmt, err := p.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	p.stats.prepares.Add(1)
	p.stats.stmtMisses.Add(1)
	p.stmtCache[query] = stmt
	return stmt, nil
}

func (p pinnedConn) closeStatements() {
	for _, stmt := range p.stmtCache {
		stmt.Close()
	}
}

func (p pinnedConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	p.stats.recordControl(query)
	stmt, err := p.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return stmt.ExecContext(ctx, args...)
}

func (p pinnedConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	p.stats.recordControl(query)
	stmt, err := p.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, args...)
}

func (p pinnedConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	p.stats.recordControl(query)
	stmt, err := p.prepare(ctx, query)
	if err != nil {
		return p.conn.QueryRowContext(ctx, query, args...)
	}
	return stmt.QueryRowContext(ctx, args...)
}
