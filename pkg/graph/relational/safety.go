package relational

import (
	"context"
	"encoding/json"
	"fmt"
)

// SafetyReport is the result of RunSafetyChecks (spec §4.15).
type SafetyReport struct {
	NodeCount              int
	EdgeCount              int
	OrphanEdges            int // edges whose endpoint is missing
	DuplicateTriples       int // COUNT(*) - distinct(from, to, edge_type)
	LabelsOnMissingEntity  int
	PropsOnMissingEntity   int
	DeepMessages           []string // non-"ok" messages from store integrity verification
	IntegritySweepIssues   []string
}

// OK reports whether every count is zero and no sweep issues were found.
func (r SafetyReport) OK() bool {
	return r.OrphanEdges == 0 && r.DuplicateTriples == 0 &&
		r.LabelsOnMissingEntity == 0 && r.PropsOnMissingEntity == 0 &&
		len(r.DeepMessages) == 0 && len(r.IntegritySweepIssues) == 0
}

// RunSafetyChecks computes the cheap structural counts (spec §4.15).
func (e *Engine) RunSafetyChecks(ctx context.Context) (SafetyReport, error) {
	var r SafetyReport
	if err := e.conn.queryRow(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&r.NodeCount); err != nil {
		return r, fmt.Errorf("count nodes: %w", err)
	}
	if err := e.conn.queryRow(ctx, `SELECT COUNT(*) FROM edges`).Scan(&r.EdgeCount); err != nil {
		return r, fmt.Errorf("count edges: %w", err)
	}
	if err := e.conn.queryRow(ctx, `
		SELECT COUNT(*) FROM edges e
		WHERE NOT EXISTS (SELECT 1 FROM nodes n WHERE n.id = e.from_id)
		   OR NOT EXISTS (SELECT 1 FROM nodes n WHERE n.id = e.to_id)
	`).Scan(&r.OrphanEdges); err != nil {
		return r, fmt.Errorf("count orphan edges: %w", err)
	}
	if err := e.conn.queryRow(ctx, `
		SELECT COUNT(*) - COUNT(DISTINCT from_id || '|' || to_id || '|' || edge_type) FROM edges
	`).Scan(&r.DuplicateTriples); err != nil {
		return r, fmt.Errorf("count duplicate triples: %w", err)
	}
	if err := e.conn.queryRow(ctx, `
		SELECT COUNT(*) FROM labels l WHERE NOT EXISTS (SELECT 1 FROM nodes n WHERE n.id = l.node_id)
	`).Scan(&r.LabelsOnMissingEntity); err != nil {
		return r, fmt.Errorf("count dangling labels: %w", err)
	}
	if err := e.conn.queryRow(ctx, `
		SELECT COUNT(*) FROM properties p WHERE NOT EXISTS (SELECT 1 FROM nodes n WHERE n.id = p.node_id)
	`).Scan(&r.PropsOnMissingEntity); err != nil {
		return r, fmt.Errorf("count dangling properties: %w", err)
	}
	return r, nil
}

// RunDeepSafetyChecks runs RunSafetyChecks and additionally executes
// SQLite's own integrity verification, recording any message that isn't
// "ok" (spec §4.15).
func (e *Engine) RunDeepSafetyChecks(ctx context.Context) (SafetyReport, error) {
	r, err := e.RunSafetyChecks(ctx)
	if err != nil {
		return r, err
	}
	rows, err := e.conn.query(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return r, fmt.Errorf("integrity_check: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return r, fmt.Errorf("integrity_check: scan: %w", err)
		}
		if msg != "ok" {
			r.DeepMessages = append(r.DeepMessages, msg)
		}
	}
	return r, rows.Err()
}

// RunIntegritySweep runs RunSafetyChecks (whose counts cover dangling
// edges, labels and properties) and then iterates nodes and edges in id
// order, flagging id monotonicity breaks and JSON decode failures (spec
// §4.15). The labels and properties tables are not iterated row by row.
func (e *Engine) RunIntegritySweep(ctx context.Context) (SafetyReport, error) {
	r, err := e.RunSafetyChecks(ctx)
	if err != nil {
		return r, err
	}

	rows, err := e.conn.query(ctx, `SELECT id, data FROM nodes ORDER BY id`)
	if err != nil {
		return r, fmt.Errorf("sweep nodes: %w", err)
	}
	var lastID int64 = -1
	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			rows.Close()
			return r, fmt.Errorf("sweep nodes: scan: %w", err)
		}
		if id <= lastID {
			r.IntegritySweepIssues = append(r.IntegritySweepIssues, fmt.Sprintf("node id monotonicity break at %d", id))
		}
		lastID = id
		if !json.Valid([]byte(data)) {
			r.IntegritySweepIssues = append(r.IntegritySweepIssues, fmt.Sprintf("node %d: invalid JSON data", id))
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return r, err
	}

	edgeRows, err := e.conn.query(ctx, `SELECT id, from_id, to_id, data FROM edges ORDER BY id`)
	if err != nil {
		return r, fmt.Errorf("sweep edges: %w", err)
	}
	lastID = -1
	for edgeRows.Next() {
		var id, from, to int64
		var data string
		if err := edgeRows.Scan(&id, &from, &to, &data); err != nil {
			edgeRows.Close()
			return r, fmt.Errorf("sweep edges: scan: %w", err)
		}
		if id <= lastID {
			r.IntegritySweepIssues = append(r.IntegritySweepIssues, fmt.Sprintf("edge id monotonicity break at %d", id))
		}
		lastID = id
		if !json.Valid([]byte(data)) {
			r.IntegritySweepIssues = append(r.IntegritySweepIssues, fmt.Sprintf("edge %d: invalid JSON data", id))
		}
	}
	edgeRows.Close()
	return r, edgeRows.Err()
}
