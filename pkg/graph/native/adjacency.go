package native

import "sort"

// adjacencyEntry is one outgoing or incoming edge reference kept in the
// in-memory adjacency maps that every traversal operation walks directly —
// the node/edge stores exist for durability and identity lookups, not for
// graph walks (spec §4.5, restored from original_source's adjacency.rs).
type adjacencyEntry struct {
	neighbor int64
	edgeID   int64
	edgeType string
}

// adjacencyIndex holds the full in-memory graph shape: two maps from node
// id to its sorted outgoing/incoming edge list.
type adjacencyIndex struct {
	outgoing map[int64][]adjacencyEntry
	incoming map[int64][]adjacencyEntry
}

func newAdjacencyIndex() *adjacencyIndex {
	return newAdjacencyIndexWithHint(0)
}

// newAdjacencyIndexWithHint pre-sizes both maps to capacityHint entries
// (spec §6 native capacity hints).
func newAdjacencyIndexWithHint(capacityHint int) *adjacencyIndex {
	return &adjacencyIndex{
		outgoing: make(map[int64][]adjacencyEntry, capacityHint),
		incoming: make(map[int64][]adjacencyEntry, capacityHint),
	}
}

// addEdge records rec in both endpoints' adjacency lists, keeping each list
// sorted by (neighbor, edgeType, edgeID) so Neighbors never needs a sort at
// query time.
func (a *adjacencyIndex) addEdge(rec *edgeRecord) {
	insertSorted(a.outgoing, rec.From, adjacencyEntry{neighbor: rec.To, edgeID: rec.ID, edgeType: rec.EdgeType})
	insertSorted(a.incoming, rec.To, adjacencyEntry{neighbor: rec.From, edgeID: rec.ID, edgeType: rec.EdgeType})
}

func (a *adjacencyIndex) removeEdge(rec *edgeRecord) {
	removeEntry(a.outgoing, rec.From, rec.ID)
	removeEntry(a.incoming, rec.To, rec.ID)
}

func insertSorted(m map[int64][]adjacencyEntry, node int64, e adjacencyEntry) {
	list := m[node]
	i := sort.Search(len(list), func(i int) bool { return lessAdjacency(e, list[i]) })
	list = append(list, adjacencyEntry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	m[node] = list
}

func removeEntry(m map[int64][]adjacencyEntry, node int64, edgeID int64) {
	list := m[node]
	for i, e := range list {
		if e.edgeID == edgeID {
			m[node] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func lessAdjacency(a, b adjacencyEntry) bool {
	if a.neighbor != b.neighbor {
		return a.neighbor < b.neighbor
	}
	if a.edgeType != b.edgeType {
		return a.edgeType < b.edgeType
	}
	return a.edgeID < b.edgeID
}

// clone deep-copies the index for the snapshot manager (spec §4.13),
// mirroring original_source/sqlitegraph/src/mvcc.rs's SnapshotState::new.
func (a *adjacencyIndex) clone() *adjacencyIndex {
	out := newAdjacencyIndex()
	for k, v := range a.outgoing {
		cp := make([]adjacencyEntry, len(v))
		copy(cp, v)
		out.outgoing[k] = cp
	}
	for k, v := range a.incoming {
		cp := make([]adjacencyEntry, len(v))
		copy(cp, v)
		out.incoming[k] = cp
	}
	return out
}
