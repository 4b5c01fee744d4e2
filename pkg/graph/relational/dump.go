package relational

import (
	"context"
	"encoding/json"

	"github.com/sqlitegraph/graphdb/pkg/graph/dump"
)

// Engine implements dump.Source and dump.Sink directly; the CLI `dump-graph`
// and `load-graph` commands (spec §6) construct a dump.Dump/dump.Restore call
// against *Engine. The native engine has no labels/properties tables, so
// this surface is relational-only (see DESIGN.md).
//
// dump.Source and dump.Sink carry no context parameter, so these methods
// use context.Background(); callers needing cancellation should wrap Dump
// and Restore at the CLI layer with a timeout on the surrounding command.
var dumpCtx = context.Background()

func (e *Engine) DumpNodes() ([]dump.NodeLine, error) {
	rows, err := e.conn.query(dumpCtx, `SELECT id, kind, name, file_path, data FROM nodes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dump.NodeLine
	for rows.Next() {
		var n dump.NodeLine
		var data string
		if err := rows.Scan(&n.ID, &n.Kind, &n.Name, &n.FilePath, &data); err != nil {
			return nil, err
		}
		n.Data = json.RawMessage(data)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (e *Engine) DumpEdges() ([]dump.EdgeLine, error) {
	rows, err := e.conn.query(dumpCtx, `SELECT id, from_id, to_id, edge_type, data FROM edges ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dump.EdgeLine
	for rows.Next() {
		var ed dump.EdgeLine
		var data string
		if err := rows.Scan(&ed.ID, &ed.From, &ed.To, &ed.EdgeType, &data); err != nil {
			return nil, err
		}
		ed.Data = json.RawMessage(data)
		out = append(out, ed)
	}
	return out, rows.Err()
}

func (e *Engine) DumpLabels() ([]dump.LabelLine, error) {
	rows, err := e.conn.query(dumpCtx, `SELECT node_id, label FROM labels ORDER BY node_id, label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dump.LabelLine
	for rows.Next() {
		var l dump.LabelLine
		if err := rows.Scan(&l.NodeID, &l.Label); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (e *Engine) DumpProperties() ([]dump.PropertyLine, error) {
	rows, err := e.conn.query(dumpCtx, `SELECT node_id, key, value FROM properties ORDER BY node_id, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dump.PropertyLine
	for rows.Next() {
		var p dump.PropertyLine
		if err := rows.Scan(&p.NodeID, &p.Key, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RestoreClear truncates all four tables inside one transaction so Restore
// either fully replaces the graph or leaves it untouched (spec §4.17).
func (e *Engine) RestoreClear() error {
	return withTx(dumpCtx, e.conn, func(tx execer) error {
		for _, stmt := range []string{
			`DELETE FROM properties`, `DELETE FROM labels`, `DELETE FROM edges`, `DELETE FROM nodes`,
		} {
			if _, err := tx.ExecContext(dumpCtx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) RestoreNode(n dump.NodeLine) error {
	data := n.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	_, err := e.conn.exec(dumpCtx, `INSERT INTO nodes(id, kind, name, file_path, data) VALUES (?, ?, ?, ?, ?)`,
		int64(n.ID), n.Kind, n.Name, n.FilePath, string(data))
	return err
}

func (e *Engine) RestoreEdge(ed dump.EdgeLine) error {
	data := ed.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	_, err := e.conn.exec(dumpCtx, `INSERT INTO edges(id, from_id, to_id, edge_type, data) VALUES (?, ?, ?, ?, ?)`,
		int64(ed.ID), int64(ed.From), int64(ed.To), ed.EdgeType, string(data))
	return err
}

func (e *Engine) RestoreLabel(l dump.LabelLine) error {
	_, err := e.conn.exec(dumpCtx, `INSERT INTO labels(node_id, label) VALUES (?, ?)`, int64(l.NodeID), l.Label)
	return err
}

func (e *Engine) RestoreProperty(p dump.PropertyLine) error {
	_, err := e.conn.exec(dumpCtx, `INSERT INTO properties(node_id, key, value) VALUES (?, ?, ?)`, int64(p.NodeID), p.Key, p.Value)
	return err
}

// RestoreFinish clears caches and refreshes the snapshot after a
// successful Restore, per spec §4.17 ("on success clears caches").
func (e *Engine) RestoreFinish(ctx context.Context) error {
	e.cache.invalidate()
	return e.refreshSnapshot(ctx)
}
