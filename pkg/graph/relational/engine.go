// Package relational implements the SQL-backed storage engine (spec
// §4.6-§4.8) over modernc.org/sqlite, with an adjacency cache accelerating
// the pattern matcher's fast path (§4.12) and neighbor lookups.
package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sqlitegraph/graphdb/pkg/graph"
	"github.com/sqlitegraph/graphdb/pkg/graph/pattern"
	"github.com/sqlitegraph/graphdb/pkg/graph/snapshot"
	"github.com/sqlitegraph/graphdb/pkg/graph/traversal"
)

// Config tunes the relational engine beyond the DSN (spec §10.3).
type Config struct {
	Path          string
	CacheCapacity int
	// SkipMigrations opens the database without running the migration
	// ladder, asserting the schema is already current.
	SkipMigrations bool
	// Pragmas is applied as `PRAGMA key = value` statements, in Go map
	// iteration order (unspecified), immediately after opening the
	// connection and before migrations (unless skipped).
	Pragmas map[string]string
}

// DefaultCacheCapacity follows nornicdb's query_cache.go default.
const DefaultCacheCapacity = 10000

// Engine is the relational-format implementation of graph.Backend.
type Engine struct {
	conn  *connection
	cache *adjacencyCache
	stats graph.Counters
	snaps *snapshot.Manager
}

// Open opens (creating if absent) the SQLite database at cfg.Path and
// brings its schema up to date.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
	conn, err := openConnection(cfg.Path)
	if err != nil {
		return nil, graph.Wrap(graph.KindConnection, "open", err)
	}
	for name, value := range cfg.Pragmas {
		if _, err := conn.exec(ctx, fmt.Sprintf(`PRAGMA %s = %s`, name, value)); err != nil {
			conn.close()
			return nil, graph.Wrap(graph.KindConnection, "apply_pragma:"+name, err)
		}
	}
	if !cfg.SkipMigrations {
		if err := runMigrations(ctx, conn.db); err != nil {
			conn.close()
			return nil, graph.Wrap(graph.KindSchema, "migrate", err)
		}
	}
	e := &Engine{conn: conn, cache: newAdjacencyCache(cfg.CacheCapacity), snaps: snapshot.NewManager()}
	if err := e.refreshSnapshot(ctx); err != nil {
		conn.close()
		return nil, err
	}
	return e, nil
}

// refreshSnapshot rebuilds the adjacency snapshot by streaming the edges
// table in id order and swaps the published pointer (spec §4.13).
func (e *Engine) refreshSnapshot(ctx context.Context) error {
	rows, err := e.conn.query(ctx, `SELECT from_id, to_id FROM edges ORDER BY id`)
	if err != nil {
		return graph.Wrap(graph.KindQuery, "refresh_snapshot", err)
	}
	defer rows.Close()

	outgoing := make(map[graph.NodeID][]graph.NodeID)
	incoming := make(map[graph.NodeID][]graph.NodeID)
	for rows.Next() {
		var from, to int64
		if err := rows.Scan(&from, &to); err != nil {
			return graph.Wrap(graph.KindQuery, "refresh_snapshot: scan", err)
		}
		f, t := graph.NodeID(from), graph.NodeID(to)
		outgoing[f] = append(outgoing[f], t)
		incoming[t] = append(incoming[t], f)
	}
	if err := rows.Err(); err != nil {
		return graph.Wrap(graph.KindQuery, "refresh_snapshot: rows", err)
	}
	e.snaps.Swap(snapshot.NewState(outgoing, incoming, time.Now()))
	return nil
}

// Snapshot returns the snapshot manager backing this engine, exposing
// acquire_snapshot() to callers per spec §4.13.
func (e *Engine) Snapshot() *snapshot.Manager { return e.snaps }

func (e *Engine) Close() error { return e.conn.close() }

func (e *Engine) InsertNode(ctx context.Context, node *graph.Node) (graph.NodeID, error) {
	if err := node.Validate(); err != nil {
		return 0, err
	}
	data := node.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	res, err := e.conn.exec(ctx, `INSERT INTO nodes(kind, name, file_path, data) VALUES (?, ?, ?, ?)`,
		node.Kind, node.Name, node.FilePath, string(data))
	if err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_node", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_node: last_insert_id", err)
	}
	if _, err := e.conn.exec(ctx, `INSERT INTO labels(node_id, label) VALUES (?, ?)`, id, node.Kind); err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_node: label", err)
	}
	if err := e.indexProperties(ctx, id, data); err != nil {
		return 0, err
	}
	e.stats.IncNodesInserted()
	return graph.NodeID(id), nil
}

// indexProperties flattens the top-level string fields of data into the
// properties table the pattern matcher's property predicates query.
func (e *Engine) indexProperties(ctx context.Context, nodeID int64, data json.RawMessage) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil // non-object data simply has no queryable properties
	}
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		if _, err := e.conn.exec(ctx, `INSERT OR REPLACE INTO properties(node_id, key, value) VALUES (?, ?, ?)`, nodeID, k, s); err != nil {
			return graph.Wrap(graph.KindQuery, "index_properties", err)
		}
	}
	return nil
}

func (e *Engine) GetNode(ctx context.Context, id graph.NodeID) (*graph.Node, error) {
	row := e.conn.queryRow(ctx, `SELECT id, kind, name, file_path, data FROM nodes WHERE id = ?`, int64(id))
	var n graph.Node
	var idVal int64
	var data string
	if err := row.Scan(&idVal, &n.Kind, &n.Name, &n.FilePath, &data); err != nil {
		if err == sql.ErrNoRows {
			return nil, graph.NotFoundf("node %d not found", id)
		}
		return nil, graph.Wrap(graph.KindQuery, "get_node", err)
	}
	n.ID = graph.NodeID(idVal)
	n.Data = json.RawMessage(data)

	out, in, err := e.NodeDegree(ctx, id)
	if err != nil {
		return nil, err
	}
	n.OutgoingCount, n.IncomingCount = uint32(out), uint32(in)
	return &n, nil
}

func (e *Engine) InsertEdge(ctx context.Context, edge *graph.Edge) (graph.EdgeID, error) {
	if err := edge.Validate(); err != nil {
		return 0, err
	}
	if edge.From == edge.To {
		return 0, graph.InvalidInputf("self-loops are not permitted by the relational engine")
	}
	var exists int
	if err := e.conn.queryRow(ctx, `SELECT COUNT(*) FROM nodes WHERE id IN (?, ?)`, int64(edge.From), int64(edge.To)).Scan(&exists); err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_edge: endpoint check", err)
	}
	if exists != 2 {
		return 0, graph.NotFoundf("edge endpoint not found")
	}

	data := edge.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	res, err := e.conn.exec(ctx, `INSERT INTO edges(from_id, to_id, edge_type, data) VALUES (?, ?, ?, ?)`,
		int64(edge.From), int64(edge.To), edge.EdgeType, string(data))
	if err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_edge", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_edge: last_insert_id", err)
	}
	e.cache.invalidate()
	e.stats.IncEdgesInserted()
	if err := e.refreshSnapshot(ctx); err != nil {
		return 0, err
	}
	return graph.EdgeID(id), nil
}

func (e *Engine) GetEdge(ctx context.Context, id graph.EdgeID) (*graph.Edge, error) {
	row := e.conn.queryRow(ctx, `SELECT id, from_id, to_id, edge_type, data FROM edges WHERE id = ?`, int64(id))
	var ed graph.Edge
	var idVal, from, to int64
	var data string
	if err := row.Scan(&idVal, &from, &to, &ed.EdgeType, &data); err != nil {
		if err == sql.ErrNoRows {
			return nil, graph.NotFoundf("edge %d not found", id)
		}
		return nil, graph.Wrap(graph.KindQuery, "get_edge", err)
	}
	ed.ID, ed.From, ed.To = graph.EdgeID(idVal), graph.NodeID(from), graph.NodeID(to)
	ed.Data = json.RawMessage(data)
	return &ed, nil
}

func (e *Engine) Neighbors(ctx context.Context, node graph.NodeID, q graph.NeighborQuery) ([]graph.NodeID, error) {
	if cached, ok := e.cache.get(node, q.Direction, q.EdgeType); ok {
		return cached, nil
	}

	col, otherCol := "from_id", "to_id"
	if q.Direction == graph.Incoming {
		col, otherCol = "to_id", "from_id"
	}
	query := fmt.Sprintf(`SELECT %s, id, edge_type FROM edges WHERE %s = ?`, otherCol, col)
	args := []any{int64(node)}
	if q.EdgeType != "" {
		query += ` AND edge_type = ?`
		args = append(args, q.EdgeType)
	}
	query += fmt.Sprintf(` ORDER BY %s, edge_type, id`, otherCol)

	rows, err := e.conn.query(ctx, query, args...)
	if err != nil {
		return nil, graph.Wrap(graph.KindQuery, "neighbors", err)
	}
	defer rows.Close()

	var out []graph.NodeID
	for rows.Next() {
		var other, edgeID int64
		var edgeType string
		if err := rows.Scan(&other, &edgeID, &edgeType); err != nil {
			return nil, graph.Wrap(graph.KindQuery, "neighbors: scan", err)
		}
		out = append(out, graph.NodeID(other))
	}
	if err := rows.Err(); err != nil {
		return nil, graph.Wrap(graph.KindQuery, "neighbors: rows", err)
	}

	e.cache.put(node, q.Direction, q.EdgeType, out)
	return out, nil
}

func (e *Engine) NodeDegree(ctx context.Context, node graph.NodeID) (int, int, error) {
	var out, in int
	if err := e.conn.queryRow(ctx, `SELECT COUNT(*) FROM edges WHERE from_id = ?`, int64(node)).Scan(&out); err != nil {
		return 0, 0, graph.Wrap(graph.KindQuery, "node_degree: out", err)
	}
	if err := e.conn.queryRow(ctx, `SELECT COUNT(*) FROM edges WHERE to_id = ?`, int64(node)).Scan(&in); err != nil {
		return 0, 0, graph.Wrap(graph.KindQuery, "node_degree: in", err)
	}
	return out, in, nil
}

func (e *Engine) BFS(ctx context.Context, start graph.NodeID, depth int) ([]graph.NodeID, error) {
	e.stats.IncTraversalsRun()
	return traversal.BFS(ctx, e, start, depth)
}

func (e *Engine) ShortestPath(ctx context.Context, start, end graph.NodeID) ([]graph.NodeID, bool, error) {
	e.stats.IncTraversalsRun()
	return traversal.ShortestPath(ctx, e, start, end)
}

func (e *Engine) KHop(ctx context.Context, start graph.NodeID, depth int, dir graph.Direction) ([]graph.NodeID, error) {
	e.stats.IncTraversalsRun()
	return traversal.KHop(ctx, e, start, depth, dir)
}

func (e *Engine) KHopFiltered(ctx context.Context, start graph.NodeID, depth int, dir graph.Direction, allowedTypes []string) ([]graph.NodeID, error) {
	e.stats.IncTraversalsRun()
	return traversal.KHopFiltered(ctx, e, start, depth, dir, allowedTypes)
}

func (e *Engine) ChainQuery(ctx context.Context, start graph.NodeID, steps []graph.Step) ([]graph.NodeID, error) {
	e.stats.IncTraversalsRun()
	return traversal.ChainQuery(ctx, e, start, steps)
}

// PatternSearch picks the fast path for eligible patterns and the
// authoritative path otherwise (spec §4.12).
func (e *Engine) PatternSearch(ctx context.Context, p graph.Pattern) ([]graph.Triple, error) {
	e.stats.IncPatternQueriesRun()
	if p.Eligible() {
		return pattern.FastMatch(ctx, e, p)
	}
	return pattern.Match(ctx, e, p)
}

// StatementCount reports the number of statements executed on this
// engine's connection, surfaced by the CLI `status` command.
func (e *Engine) StatementCount() uint64 { return e.conn.statementCount() }

// StatementStats reports the full spec §4.7 connection activity
// breakdown: prepares, executes, begin/commit/rollback counts, and
// statement-cache hit/miss counts.
func (e *Engine) StatementStats() StatementStats { return e.conn.statementStats() }

// CacheStats reports cache hit/miss counters.
func (e *Engine) CacheStats() (hits, misses uint64) { return e.cache.stats() }

// Metrics returns a point-in-time snapshot of engine activity counters,
// surfaced by the CLI `metrics` command and the Prometheus registry. Cache
// hit/miss counts are read from the adjacency cache directly rather than
// duplicated into Counters, since the cache is the sole source of truth
// for them.
func (e *Engine) Metrics(now func() time.Time) graph.Metrics {
	m := e.stats.Snapshot(now)
	m.CacheHits, m.CacheMisses = e.cache.stats()
	return m
}

// ResetMetrics zeroes the activity counters, backing `metrics --reset-metrics`.
func (e *Engine) ResetMetrics() { e.stats.Reset() }

// NodeCount and EdgeCount report the current number of rows, surfaced by
// the CLI `status` command.
func (e *Engine) NodeCount(ctx context.Context) (int, error) {
	var n int
	err := e.conn.queryRow(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n)
	return n, err
}

func (e *Engine) EdgeCount(ctx context.Context) (int, error) {
	var n int
	err := e.conn.queryRow(ctx, `SELECT COUNT(*) FROM edges`).Scan(&n)
	return n, err
}
