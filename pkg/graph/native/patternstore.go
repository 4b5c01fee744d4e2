package native

import (
	"context"
	"encoding/json"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// This file gives Engine the method set of pattern.Store and
// pattern.FastStore. The native format has no separate labels/properties
// tables (those are a relational-engine concept, spec §4.6); Kind stands in
// for label and the top-level string values of Data stand in for
// properties, matched against every live node by a linear scan. See
// DESIGN.md for why PatternSearch on the native engine always takes the
// O(edges) authoritative path (pattern.Match) and never calls
// pattern.FastMatch: there is no separate adjacency cache to narrow from,
// the adjacency index already is the lookup structure.

func (e *Engine) EdgesByType(_ context.Context, edgeType string, dir graph.Direction) ([]graph.Triple, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []graph.Triple
	for from, list := range e.adj.outgoing {
		for _, entry := range list {
			if entry.edgeType != edgeType {
				continue
			}
			start, end := graph.NodeID(from), graph.NodeID(entry.neighbor)
			if dir == graph.Incoming {
				start, end = end, start
			}
			out = append(out, graph.Triple{Start: start, EdgeID: graph.EdgeID(entry.edgeID), End: end})
		}
	}
	return out, nil
}

func (e *Engine) NodeLabel(_ context.Context, id graph.NodeID) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, err := e.nodes.get(int64(id))
	if err != nil {
		return "", graph.NotFoundf("node %d not found", id)
	}
	return rec.Kind, nil
}

func (e *Engine) NodeProperties(_ context.Context, id graph.NodeID) (map[string]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, err := e.nodes.get(int64(id))
	if err != nil {
		return nil, graph.NotFoundf("node %d not found", id)
	}
	return decodeStringProperties(rec.Data), nil
}

// decodeStringProperties flattens the top-level string-valued fields of a
// JSON object into a map, ignoring non-string values; non-object or
// malformed data yields an empty map rather than an error, since Data is
// optional and predicate matching against it should simply fail to match.
func decodeStringProperties(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
		}
	}
	return out
}

func (e *Engine) AllNodeIDs(_ context.Context) ([]graph.NodeID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := e.nodes.all()
	out := make([]graph.NodeID, len(ids))
	for i, id := range ids {
		out[i] = graph.NodeID(id)
	}
	return out, nil
}

// CachedNeighbors is never consulted: the native PatternSearch never calls
// pattern.FastMatch (see file comment).
func (e *Engine) CachedNeighbors(context.Context, graph.NodeID, graph.Direction) ([]graph.NodeID, bool) {
	return nil, false
}

// ValidateEdge returns every edge id of edgeType between from and to; it
// is never consulted since the native PatternSearch never calls
// pattern.FastMatch (see file comment), but still returns every match
// rather than one, for the reason given on pattern.FastStore.ValidateEdge.
func (e *Engine) ValidateEdge(ctx context.Context, from, to graph.NodeID, edgeType string) ([]graph.EdgeID, error) {
	e.mu.RLock()
	list := e.adj.outgoing[int64(from)]
	e.mu.RUnlock()

	var out []graph.EdgeID
	for _, entry := range list {
		if graph.NodeID(entry.neighbor) == to && entry.edgeType == edgeType {
			out = append(out, graph.EdgeID(entry.edgeID))
		}
	}
	return out, nil
}
