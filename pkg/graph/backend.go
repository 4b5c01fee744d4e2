package graph

import "context"

// Backend is the uniform operation contract implemented by both storage
// engines (spec §4.9). Both engines are byte-for-byte interchangeable for
// callers that only use this interface and do not depend on file layout.
//
// Ordering of any returned id sequence is fully determined by the algorithm
// that produced it, never by underlying storage order. Insert operations
// return the assigned id. Read operations never mutate the logical graph;
// they may populate caches and rebuild internal indexes.
type Backend interface {
	// InsertNode assigns an id (if node.ID == 0) and persists node,
	// returning the assigned id.
	InsertNode(ctx context.Context, node *Node) (NodeID, error)
	// GetNode returns the node with the given id, or a KindNotFound
	// error.
	GetNode(ctx context.Context, id NodeID) (*Node, error)

	// InsertEdge assigns an id (if edge.ID == 0) and persists edge after
	// validating both endpoints exist, returning the assigned id.
	InsertEdge(ctx context.Context, edge *Edge) (EdgeID, error)
	// GetEdge returns the edge with the given id, or a KindNotFound
	// error.
	GetEdge(ctx context.Context, id EdgeID) (*Edge, error)

	// Neighbors returns the adjacency list for node in the requested
	// direction, optionally restricted to one edge type, sorted by
	// opposite endpoint then edge type then edge id (spec §4.10).
	Neighbors(ctx context.Context, node NodeID, q NeighborQuery) ([]NodeID, error)

	// NodeDegree returns (outgoing, incoming) edge counts for node.
	NodeDegree(ctx context.Context, node NodeID) (out, in int, err error)

	// BFS performs a level-order traversal from start up to and
	// including depth hops, returning visited nodes in discovery order
	// with no repeats (spec §4.10).
	BFS(ctx context.Context, start NodeID, depth int) ([]NodeID, error)

	// ShortestPath returns the shortest path from start to end inclusive
	// of both endpoints, or ok=false if end is unreachable.
	ShortestPath(ctx context.Context, start, end NodeID) (path []NodeID, ok bool, err error)

	// KHop performs level-synchronous expansion, returning newly
	// discovered nodes ordered by first-discovery level then ascending
	// id (spec §4.10).
	KHop(ctx context.Context, start NodeID, depth int, dir Direction) ([]NodeID, error)
	// KHopFiltered restricts every edge traversal to allowedTypes; an
	// empty set yields an empty result.
	KHopFiltered(ctx context.Context, start NodeID, depth int, dir Direction, allowedTypes []string) ([]NodeID, error)

	// ChainQuery follows steps in sequence from start, returning the
	// deduplicated, sorted set of nodes reachable by following exactly
	// that sequence.
	ChainQuery(ctx context.Context, start NodeID, steps []Step) ([]NodeID, error)

	// PatternSearch matches a single-hop triple pattern across the whole
	// graph, returning (start_id, edge_id, end_id) triples ordered by
	// start id, then edge id, then end id (spec §4.11). The pattern
	// carries no start node: it is a graph-wide search, not a
	// from-one-origin traversal — see DESIGN.md for why the interface
	// drops the "start" parameter spec §4.9 lists alongside it.
	PatternSearch(ctx context.Context, pattern Pattern) ([]Triple, error)
}
