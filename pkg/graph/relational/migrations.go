package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migration is one step of the linear ladder applied in order, recorded in
// schema_migrations so re-opening an existing database is a no-op (spec
// §4.6: "schema is versioned"; grounded on steveyegge-beads's numbered
// migrations/NNN_*.go files, simplified to a single in-package slice since
// this schema has far fewer evolutions than beads's issue tracker).
type migration struct {
	version int
	desc    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{
		version: 1,
		desc:    "base schema: nodes, edges, labels, properties",
		apply: func(ctx context.Context, tx *sql.Tx) error {
			for _, stmt := range schemaDDL {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("apply base schema: %w", err)
				}
			}
			return nil
		},
	},
}

// runMigrations applies every migration whose version is not yet recorded,
// each inside its own transaction, following beads's "check then apply,
// idempotent DDL" convention rather than a single irreversible batch.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if err := m.apply(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.desc, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, ?)`, m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
