package native

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sqlitegraph/graphdb/pkg/graph"
	"github.com/sqlitegraph/graphdb/pkg/graph/pattern"
	"github.com/sqlitegraph/graphdb/pkg/graph/snapshot"
	"github.com/sqlitegraph/graphdb/pkg/graph/traversal"
)

// Engine is the native-format implementation of graph.Backend, backed by a
// single *file plus in-memory node/edge/adjacency indexes rebuilt on open
// (spec §4.2-§4.5). Unlike the relational engine, the native engine has no
// separate query planner: every read is served from the in-memory indexes,
// and the file exists purely for durability.
type Engine struct {
	mu    sync.RWMutex
	f     *file
	nodes *nodeStore
	edges *edgeStore
	adj   *adjacencyIndex
	stats graph.Counters
	snaps *snapshot.Manager
}

// Create initializes a fresh native graph file at path.
func Create(path string) (*Engine, error) {
	return CreateWithHints(path, 0, 0)
}

// CreateWithHints initializes a fresh native graph file at path, pre-sizing
// the in-memory indexes to the given node/edge capacity hints (spec §6
// "capacity hints for node/edge pre-allocation").
func CreateWithHints(path string, nodeHint, edgeHint int) (*Engine, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, graph.Wrap(graph.KindConnection, "create", err)
	}
	return &Engine{
		f:     f,
		nodes: newNodeStoreWithHint(f, nodeHint),
		edges: newEdgeStoreWithHint(f, edgeHint),
		adj:   newAdjacencyIndexWithHint(nodeHint),
		snaps: snapshot.NewManager(),
	}, nil
}

// Open opens an existing native graph file at path and rebuilds its
// in-memory indexes by scanning every record.
func Open(path string) (*Engine, error) {
	return OpenWithHints(path, 0, 0)
}

// OpenWithHints is Open with capacity hints applied to the indexes before
// the scan populates them.
func OpenWithHints(path string, nodeHint, edgeHint int) (*Engine, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, graph.Wrap(graph.KindConnection, "open", err)
	}
	e := &Engine{
		f:     f,
		nodes: newNodeStoreWithHint(f, nodeHint),
		edges: newEdgeStoreWithHint(f, edgeHint),
		adj:   newAdjacencyIndexWithHint(nodeHint),
		snaps: snapshot.NewManager(),
	}

	nodeSectionEnd := f.header.EdgeDataOffset
	if err := e.nodes.scan(nodeSectionEnd); err != nil {
		return nil, graph.Wrap(graph.KindConnection, "open", err)
	}
	size, err := f.fileSize()
	if err != nil {
		return nil, graph.Wrap(graph.KindConnection, "open", err)
	}
	if err := e.edges.scan(size, func(rec *edgeRecord) { e.adj.addEdge(rec) }); err != nil {
		return nil, graph.Wrap(graph.KindConnection, "open", err)
	}
	return e, nil
}

// Close flushes the header and releases the file handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.f.header.NodeCount = uint64(e.nodes.count())
	e.f.header.EdgeCount = uint64(e.edges.count())
	return e.f.close()
}

func (e *Engine) InsertNode(_ context.Context, node *graph.Node) (graph.NodeID, error) {
	if err := node.Validate(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := &nodeRecord{
		ID:       int64(node.ID),
		Kind:     node.Kind,
		Name:     node.Name,
		FilePath: node.FilePath,
		Data:     node.Data,
	}
	id, err := e.nodes.insert(rec)
	if err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_node", err)
	}
	e.stats.IncNodesInserted()
	e.refreshSnapshotLocked()
	return graph.NodeID(id), nil
}

func (e *Engine) GetNode(_ context.Context, id graph.NodeID) (*graph.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.nodes.get(int64(id))
	if err != nil {
		return nil, graph.NotFoundf("node %d not found", id)
	}
	return &graph.Node{
		ID:            graph.NodeID(rec.ID),
		Kind:          rec.Kind,
		Name:          rec.Name,
		FilePath:      rec.FilePath,
		Data:          json.RawMessage(rec.Data),
		OutgoingCount: rec.OutgoingCount,
		IncomingCount: rec.IncomingCount,
	}, nil
}

func (e *Engine) InsertEdge(_ context.Context, edge *graph.Edge) (graph.EdgeID, error) {
	if err := edge.Validate(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.nodes.get(int64(edge.From)); err != nil {
		return 0, graph.NotFoundf("edge endpoint %d not found", edge.From)
	}
	if _, err := e.nodes.get(int64(edge.To)); err != nil {
		return 0, graph.NotFoundf("edge endpoint %d not found", edge.To)
	}

	rec := &edgeRecord{
		ID:       int64(edge.ID),
		From:     int64(edge.From),
		To:       int64(edge.To),
		EdgeType: edge.EdgeType,
		Data:     edge.Data,
	}
	id, err := e.edges.insert(rec)
	if err != nil {
		return 0, graph.Wrap(graph.KindQuery, "insert_edge", err)
	}
	e.adj.addEdge(rec)
	if err := e.nodes.updateCounts(int64(edge.From), 1, 0); err != nil {
		return 0, err
	}
	if err := e.nodes.updateCounts(int64(edge.To), 0, 1); err != nil {
		return 0, err
	}
	e.stats.IncEdgesInserted()
	e.refreshSnapshotLocked()
	return graph.EdgeID(id), nil
}

// refreshSnapshotLocked rebuilds and publishes a new immutable adjacency
// snapshot; callers must already hold e.mu for writing (spec §4.13: "after
// any write... the engine rebuilds the maps... and swaps the pointer").
func (e *Engine) refreshSnapshotLocked() {
	outgoing := make(map[graph.NodeID][]graph.NodeID, len(e.adj.outgoing))
	for k, list := range e.adj.outgoing {
		ids := make([]graph.NodeID, len(list))
		for i, entry := range list {
			ids[i] = graph.NodeID(entry.neighbor)
		}
		outgoing[graph.NodeID(k)] = ids
	}
	incoming := make(map[graph.NodeID][]graph.NodeID, len(e.adj.incoming))
	for k, list := range e.adj.incoming {
		ids := make([]graph.NodeID, len(list))
		for i, entry := range list {
			ids[i] = graph.NodeID(entry.neighbor)
		}
		incoming[graph.NodeID(k)] = ids
	}
	e.snaps.Swap(snapshot.NewState(outgoing, incoming, time.Now()))
}

// Snapshot returns the snapshot manager backing this engine, exposing
// acquire_snapshot() to callers per spec §4.13.
func (e *Engine) Snapshot() *snapshot.Manager { return e.snaps }

func (e *Engine) GetEdge(_ context.Context, id graph.EdgeID) (*graph.Edge, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.edges.get(int64(id))
	if err != nil {
		return nil, graph.NotFoundf("edge %d not found", id)
	}
	return &graph.Edge{
		ID:       graph.EdgeID(rec.ID),
		From:     graph.NodeID(rec.From),
		To:       graph.NodeID(rec.To),
		EdgeType: rec.EdgeType,
		Data:     json.RawMessage(rec.Data),
	}, nil
}

func (e *Engine) Neighbors(_ context.Context, node graph.NodeID, q graph.NeighborQuery) ([]graph.NodeID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list := e.adj.outgoing[int64(node)]
	if q.Direction == graph.Incoming {
		list = e.adj.incoming[int64(node)]
	}
	var out []graph.NodeID
	for _, entry := range list {
		if q.EdgeType != "" && entry.edgeType != q.EdgeType {
			continue
		}
		out = append(out, graph.NodeID(entry.neighbor))
	}
	return out, nil
}

func (e *Engine) NodeDegree(_ context.Context, node graph.NodeID) (int, int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.adj.outgoing[int64(node)]), len(e.adj.incoming[int64(node)]), nil
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

func (e *Engine) PatternSearch(ctx context.Context, p graph.Pattern) ([]graph.Triple, error) {
	e.stats.IncPatternQueriesRun()
	return pattern.Match(ctx, e, p)
}

// Metrics returns a point-in-time snapshot of engine activity counters.
func (e *Engine) Metrics(now func() time.Time) graph.Metrics {
	return e.stats.Snapshot(now)
}

// ResetMetrics zeroes the activity counters, backing `metrics --reset-metrics`.
func (e *Engine) ResetMetrics() { e.stats.Reset() }

// NodeCount and EdgeCount report the current number of live records,
// surfaced by the CLI `status` command.
func (e *Engine) NodeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.count()
}

func (e *Engine) EdgeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.edges.count()
}
