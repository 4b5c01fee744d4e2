// Package traversal implements the deterministic graph-walking algorithms
// (spec §4.10) as free functions over graph.Backend, so the relational and
// native engines share one implementation instead of each re-deriving BFS,
// shortest path, and k-hop expansion.
package traversal

import (
	"context"
	"sort"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// Neighbors delegates directly to the backend; it exists so callers in this
// package have one entry point to the adjacency primitive everything else
// is built from.
func Neighbors(ctx context.Context, b graph.Backend, node graph.NodeID, q graph.NeighborQuery) ([]graph.NodeID, error) {
	return b.Neighbors(ctx, node, q)
}

// BFS performs a level-order traversal from start up to and including depth
// hops over outgoing edges of any type, returning visited nodes in
// discovery order with start included first and no repeats (spec §4.10).
func BFS(ctx context.Context, b graph.Backend, start graph.NodeID, depth int) ([]graph.NodeID, error) {
	if depth < 0 {
		return nil, graph.InvalidInputf("bfs depth must be >= 0")
	}
	visited := map[graph.NodeID]bool{start: true}
	order := []graph.NodeID{start}
	frontier := []graph.NodeID{start}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		next := getFrontier()
		for _, n := range frontier {
			neighbors, err := b.Neighbors(ctx, n, graph.NeighborQuery{Direction: graph.Outgoing})
			if err != nil {
				return nil, err
			}
			for _, nb := range neighbors {
				if !visited[nb] {
					visited[nb] = true
					order = append(order, nb)
					next = append(next, nb)
				}
			}
		}
		putFrontier(frontier)
		frontier = next
	}
	return order, nil
}

// ShortestPath runs a breadth-first search tracking parents, returning the
// inclusive path from start to end, or ok=false if end is unreachable.
// Among equal-length paths the one discovered first under ascending
// neighbor order (as returned by Neighbors) wins, making the result
// deterministic.
func ShortestPath(ctx context.Context, b graph.Backend, start, end graph.NodeID) ([]graph.NodeID, bool, error) {
	if start == end {
		return []graph.NodeID{start}, true, nil
	}
	parent := map[graph.NodeID]graph.NodeID{start: start}
	frontier := []graph.NodeID{start}

	for len(frontier) > 0 {
		var next []graph.NodeID
		for _, n := range frontier {
			neighbors, err := b.Neighbors(ctx, n, graph.NeighborQuery{Direction: graph.Outgoing})
			if err != nil {
				return nil, false, err
			}
			for _, nb := range neighbors {
				if _, seen := parent[nb]; seen {
					continue
				}
				parent[nb] = n
				if nb == end {
					return buildPath(parent, start, end), true, nil
				}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return nil, false, nil
}

func buildPath(parent map[graph.NodeID]graph.NodeID, start, end graph.NodeID) []graph.NodeID {
	var path []graph.NodeID
	for cur := end; ; {
		path = append(path, cur)
		if cur == start {
			break
		}
		cur = parent[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// KHop performs level-synchronous expansion up to depth hops in the given
// direction, returning newly discovered nodes ordered by first-discovery
// level then ascending id (spec §4.10). Start is not included.
func KHop(ctx context.Context, b graph.Backend, start graph.NodeID, depth int, dir graph.Direction) ([]graph.NodeID, error) {
	return KHopFiltered(ctx, b, start, depth, dir, nil)
}

// KHopFiltered restricts every hop to edges whose type is in allowedTypes;
// a nil allowedTypes means "any type", while a non-nil empty slice matches
// nothing.
func KHopFiltered(ctx context.Context, b graph.Backend, start graph.NodeID, depth int, dir graph.Direction, allowedTypes []string) ([]graph.NodeID, error) {
	if depth < 0 {
		return nil, graph.InvalidInputf("k_hop depth must be >= 0")
	}
	if allowedTypes != nil && len(allowedTypes) == 0 {
		return nil, nil
	}
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}

	visited := map[graph.NodeID]int{start: 0}
	frontier := []graph.NodeID{start}
	type discovered struct {
		id    graph.NodeID
		level int
	}
	var found []discovered

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		next := getFrontier()
		for _, n := range frontier {
			neighbors, err := neighborsByTypes(ctx, b, n, dir, allowed, allowedTypes != nil)
			if err != nil {
				return nil, err
			}
			for _, nb := range neighbors {
				if _, seen := visited[nb]; seen {
					continue
				}
				visited[nb] = level
				found = append(found, discovered{id: nb, level: level})
				next = append(next, nb)
			}
		}
		putFrontier(frontier)
		frontier = next
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].level != found[j].level {
			return found[i].level < found[j].level
		}
		return found[i].id < found[j].id
	})
	out := make([]graph.NodeID, len(found))
	for i, d := range found {
		out[i] = d.id
	}
	return out, nil
}

func neighborsByTypes(ctx context.Context, b graph.Backend, n graph.NodeID, dir graph.Direction, allowed map[string]bool, filtering bool) ([]graph.NodeID, error) {
	if !filtering {
		return b.Neighbors(ctx, n, graph.NeighborQuery{Direction: dir})
	}
	var out []graph.NodeID
	for t := range allowed {
		ids, err := b.Neighbors(ctx, n, graph.NeighborQuery{Direction: dir, EdgeType: t})
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

// ChainQuery follows steps in strict sequence from start, returning the
// deduplicated, sorted set of nodes reachable by following exactly that
// sequence of typed hops (spec §4.10).
func ChainQuery(ctx context.Context, b graph.Backend, start graph.NodeID, steps []graph.Step) ([]graph.NodeID, error) {
	frontier := []graph.NodeID{start}
	for _, step := range steps {
		seen := make(map[graph.NodeID]bool)
		var next []graph.NodeID
		for _, n := range frontier {
			neighbors, err := b.Neighbors(ctx, n, graph.NeighborQuery{Direction: step.Direction, EdgeType: step.EdgeType})
			if err != nil {
				return nil, err
			}
			for _, nb := range neighbors {
				if !seen[nb] {
					seen[nb] = true
					next = append(next, nb)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			return nil, nil
		}
	}
	sort.Slice(frontier, func(i, j int) bool { return frontier[i] < frontier[j] })
	return frontier, nil
}
