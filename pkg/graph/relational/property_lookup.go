package relational

import (
	"context"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// FindByProperty returns every node id carrying the exact (key, value)
// property pair, in ascending id order (spec §8 scenario 6). This is a
// relational-only convenience backed directly by idx_properties_key_value;
// the native engine has no properties table to index, so equivalent
// lookups there would require a full node scan decoding each Data blob —
// out of scope for this engine (see DESIGN.md).
func (e *Engine) FindByProperty(ctx context.Context, key, value string) ([]graph.NodeID, error) {
	rows, err := e.conn.query(ctx,
		`SELECT node_id FROM properties WHERE key = ? AND value = ? ORDER BY node_id`, key, value)
	if err != nil {
		return nil, graph.Wrap(graph.KindQuery, "find_by_property", err)
	}
	defer rows.Close()

	var out []graph.NodeID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, graph.Wrap(graph.KindQuery, "find_by_property: scan", err)
		}
		out = append(out, graph.NodeID(id))
	}
	return out, rows.Err()
}
