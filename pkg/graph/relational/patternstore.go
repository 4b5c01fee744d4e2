package relational

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// This file implements pattern.Store and pattern.FastStore for Engine,
// backing the authoritative path with the queries spec §4.11 describes
// directly (a single SELECT over edges by type; label and property
// predicates are then checked per triple by pattern.Match through
// NodeLabel and NodeProperties) and the fast path (§4.12) with the
// adjacency cache plus a point validation query per candidate.

func (e *Engine) EdgesByType(ctx context.Context, edgeType string, dir graph.Direction) ([]graph.Triple, error) {
	rows, err := e.conn.query(ctx, `SELECT id, from_id, to_id FROM edges WHERE edge_type = ?`, edgeType)
	if err != nil {
		return nil, graph.Wrap(graph.KindQuery, "edges_by_type", err)
	}
	defer rows.Close()

	var out []graph.Triple
	for rows.Next() {
		var id, from, to int64
		if err := rows.Scan(&id, &from, &to); err != nil {
			return nil, graph.Wrap(graph.KindQuery, "edges_by_type: scan", err)
		}
		start, end := graph.NodeID(from), graph.NodeID(to)
		if dir == graph.Incoming {
			start, end = end, start
		}
		out = append(out, graph.Triple{Start: start, EdgeID: graph.EdgeID(id), End: end})
	}
	return out, rows.Err()
}

func (e *Engine) NodeLabel(ctx context.Context, id graph.NodeID) (string, error) {
	var kind string
	if err := e.conn.queryRow(ctx, `SELECT kind FROM nodes WHERE id = ?`, int64(id)).Scan(&kind); err != nil {
		if err == sql.ErrNoRows {
			return "", graph.NotFoundf("node %d not found", id)
		}
		return "", graph.Wrap(graph.KindQuery, "node_label", err)
	}
	return kind, nil
}

func (e *Engine) NodeProperties(ctx context.Context, id graph.NodeID) (map[string]string, error) {
	rows, err := e.conn.query(ctx, `SELECT key, value FROM properties WHERE node_id = ?`, int64(id))
	if err != nil {
		return nil, graph.Wrap(graph.KindQuery, "node_properties", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, graph.Wrap(graph.KindQuery, "node_properties: scan", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (e *Engine) AllNodeIDs(ctx context.Context) ([]graph.NodeID, error) {
	rows, err := e.conn.query(ctx, `SELECT id FROM nodes`)
	if err != nil {
		return nil, graph.Wrap(graph.KindQuery, "all_node_ids", err)
	}
	defer rows.Close()

	var out []graph.NodeID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, graph.Wrap(graph.KindQuery, "all_node_ids: scan", err)
		}
		out = append(out, graph.NodeID(id))
	}
	return out, rows.Err()
}

func (e *Engine) CachedNeighbors(ctx context.Context, node graph.NodeID, dir graph.Direction) ([]graph.NodeID, bool) {
	if cached, ok := e.cache.get(node, dir, ""); ok {
		return cached, true
	}
	neighbors, err := e.Neighbors(ctx, node, graph.NeighborQuery{Direction: dir})
	if err != nil {
		return nil, false
	}
	return neighbors, true
}

// ValidateEdge returns every edge id of edgeType between from and to.
// (from, to, edge_type) is not unique — InsertEdge never rejects parallel
// edges sharing a triple, only DuplicateTriples in safety.go flags them —
// so a single LIMIT 1 row would silently drop results the authoritative
// path (EdgesByType) surfaces via a full scan.
func (e *Engine) ValidateEdge(ctx context.Context, from, to graph.NodeID, edgeType string) ([]graph.EdgeID, error) {
	rows, err := e.conn.query(ctx, `SELECT id FROM edges WHERE from_id = ? AND to_id = ? AND edge_type = ? ORDER BY id`,
		int64(from), int64(to), edgeType)
	if err != nil {
		return nil, graph.Wrap(graph.KindQuery, "validate_edge", fmt.Errorf("%w", err))
	}
	defer rows.Close()

	var out []graph.EdgeID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, graph.Wrap(graph.KindQuery, "validate_edge: scan", err)
		}
		out = append(out, graph.EdgeID(id))
	}
	return out, rows.Err()
}
