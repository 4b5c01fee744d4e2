// Package pattern implements the triple-pattern matcher (spec §4.11-§4.12):
// an authoritative scan-and-validate path every engine must support exactly,
// and an optional cache-assisted fast path that is required to produce
// byte-identical output to the authoritative path for eligible patterns.
package pattern

import (
	"context"
	"sort"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// Store is the minimum surface an engine exposes for pattern matching. It
// deliberately does not assume SQL: the relational engine backs EdgesByType
// with a `WHERE edge_type = ?` query, NodeLabel with the node row's kind
// column and NodeProperties with a properties table lookup (spec §4.11);
// the native engine backs the
// same methods with a scan over its node/edge stores using Kind as the
// label and Data as the property bag.
type Store interface {
	// EdgesByType returns every edge of the given type as a Triple with
	// Start/End already normalized for dir (Incoming swaps from/to).
	EdgesByType(ctx context.Context, edgeType string, dir graph.Direction) ([]graph.Triple, error)
	// NodeLabel returns the label-equivalent of a node (relational:
	// nodes.kind; native: Kind).
	NodeLabel(ctx context.Context, id graph.NodeID) (string, error)
	// NodeProperties returns the property-equivalent of a node
	// (relational: properties table; native: parsed Data JSON object).
	NodeProperties(ctx context.Context, id graph.NodeID) (map[string]string, error)
}

// Match runs the authoritative matcher: scan edges of pattern.EdgeType,
// normalize direction, then filter by label and property predicates
// (spec §4.11). Result order is start id, then edge id, then end id.
func Match(ctx context.Context, store Store, p graph.Pattern) ([]graph.Triple, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	triples, err := store.EdgesByType(ctx, p.EdgeType, p.Direction)
	if err != nil {
		return nil, err
	}

	var out []graph.Triple
	for _, t := range triples {
		ok, err := matchesPredicates(ctx, store, p, t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	sortTriples(out)
	return out, nil
}

func matchesPredicates(ctx context.Context, store Store, p graph.Pattern, t graph.Triple) (bool, error) {
	if p.StartLabel != "" {
		label, err := store.NodeLabel(ctx, t.Start)
		if err != nil {
			return false, err
		}
		if label != p.StartLabel {
			return false, nil
		}
	}
	if p.EndLabel != "" {
		label, err := store.NodeLabel(ctx, t.End)
		if err != nil {
			return false, err
		}
		if label != p.EndLabel {
			return false, nil
		}
	}
	if len(p.StartProps) > 0 {
		ok, err := hasProperties(ctx, store, t.Start, p.StartProps)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(p.EndProps) > 0 {
		ok, err := hasProperties(ctx, store, t.End, p.EndProps)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func hasProperties(ctx context.Context, store Store, id graph.NodeID, want map[string]string) (bool, error) {
	props, err := store.NodeProperties(ctx, id)
	if err != nil {
		return false, err
	}
	for k, v := range want {
		if props[k] != v {
			return false, nil
		}
	}
	return true, nil
}

func sortTriples(triples []graph.Triple) {
	sort.Slice(triples, func(i, j int) bool {
		a, b := triples[i], triples[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.EdgeID != b.EdgeID {
			return a.EdgeID < b.EdgeID
		}
		return a.End < b.End
	})
}
