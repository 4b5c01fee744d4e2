package pattern

import (
	"context"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// FastStore extends Store with the cache-assisted primitives the fast path
// needs. The relational engine implements it in patternstore.go and is the
// only engine whose PatternSearch calls FastMatch; the native engine has the
// same method set but no separate cache layer (its adjacency index already
// is the authoritative structure) and always uses Match.
type FastStore interface {
	Store

	// AllNodeIDs returns every node id in the graph, any order.
	AllNodeIDs(ctx context.Context) ([]graph.NodeID, error)
	// CachedNeighbors returns node's neighbor list for dir, and false when
	// no list is available; the relational engine fills a cache miss from
	// the edges table before answering, so it reports false only on a
	// query error.
	CachedNeighbors(ctx context.Context, node graph.NodeID, dir graph.Direction) ([]graph.NodeID, bool)
	// ValidateEdge returns the ids of every edge of edgeType between from
	// and to. This is the "point SQL" step of §4.12 that keeps the fast
	// path from ever diverging from the authoritative edge table — it
	// must return every matching edge, not just one, since (from, to,
	// edge_type) is not unique: ordinary InsertEdge allows parallel edges
	// sharing a triple, and Match (via EdgesByType) surfaces all of them.
	ValidateEdge(ctx context.Context, from, to graph.NodeID, edgeType string) ([]graph.EdgeID, error)
}

// FastMatch implements the cache-assisted fast path (spec §4.12). It is
// only valid for patterns with p.Eligible() == true; callers must fall back
// to Match otherwise. For every candidate the cache offers, it re-validates
// against the authoritative edge store before including it, so the output
// is required to equal Match's output element-wise for any eligible
// pattern and any graph state.
func FastMatch(ctx context.Context, store FastStore, p graph.Pattern) ([]graph.Triple, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !p.Eligible() {
		return nil, graph.InvalidInputf("fast path requires an eligible pattern (edge type only, no label/property predicates)")
	}

	ids, err := store.AllNodeIDs(ctx)
	if err != nil {
		return nil, err
	}

	var out []graph.Triple
	for _, id := range ids {
		neighbors, ok := store.CachedNeighbors(ctx, id, p.Direction)
		if !ok {
			continue
		}
		for _, nb := range neighbors {
			from, to := id, nb
			if p.Direction == graph.Incoming {
				from, to = nb, id
			}
			edgeIDs, err := store.ValidateEdge(ctx, from, to, p.EdgeType)
			if err != nil {
				return nil, err
			}
			start, end := from, to
			if p.Direction == graph.Incoming {
				start, end = to, from
			}
			for _, edgeID := range edgeIDs {
				out = append(out, graph.Triple{Start: start, EdgeID: edgeID, End: end})
			}
		}
	}
	sortTriples(out)
	return out, nil
}
