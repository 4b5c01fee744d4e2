package pattern

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

type fakeStore struct {
	triples   []graph.Triple
	labels    map[graph.NodeID]string
	props     map[graph.NodeID]map[string]string
	neighbors map[graph.NodeID][]graph.NodeID
	edges     map[[3]any][]graph.EdgeID
}

func (f *fakeStore) EdgesByType(context.Context, string, graph.Direction) ([]graph.Triple, error) {
	return f.triples, nil
}

func (f *fakeStore) NodeLabel(_ context.Context, id graph.NodeID) (string, error) {
	return f.labels[id], nil
}

func (f *fakeStore) NodeProperties(_ context.Context, id graph.NodeID) (map[string]string, error) {
	return f.props[id], nil
}

func (f *fakeStore) AllNodeIDs(context.Context) ([]graph.NodeID, error) {
	ids := make([]graph.NodeID, 0, len(f.neighbors))
	for id := range f.neighbors {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) CachedNeighbors(_ context.Context, node graph.NodeID, _ graph.Direction) ([]graph.NodeID, bool) {
	n, ok := f.neighbors[node]
	return n, ok
}

func (f *fakeStore) ValidateEdge(_ context.Context, from, to graph.NodeID, edgeType string) ([]graph.EdgeID, error) {
	return f.edges[[3]any{from, to, edgeType}], nil
}

func TestMatchFiltersByLabelAndProperties(t *testing.T) {
	store := &fakeStore{
		triples: []graph.Triple{
			{Start: 1, EdgeID: 10, End: 2},
			{Start: 3, EdgeID: 11, End: 4},
		},
		labels: map[graph.NodeID]string{1: "function", 3: "class"},
		props:  map[graph.NodeID]map[string]string{1: {"visibility": "public"}, 3: {"visibility": "private"}},
	}
	p := graph.Pattern{EdgeType: "calls", StartLabel: "function", StartProps: map[string]string{"visibility": "public"}}

	got, err := Match(context.Background(), store, p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, graph.NodeID(1), got[0].Start)
}

func TestMatchSortsByStartThenEdgeThenEnd(t *testing.T) {
	store := &fakeStore{
		triples: []graph.Triple{
			{Start: 2, EdgeID: 5, End: 1},
			{Start: 1, EdgeID: 9, End: 3},
			{Start: 1, EdgeID: 2, End: 4},
		},
		labels: map[graph.NodeID]string{},
		props:  map[graph.NodeID]map[string]string{},
	}
	p := graph.Pattern{EdgeType: "calls"}

	got, err := Match(context.Background(), store, p)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, graph.EdgeID(2), got[0].EdgeID)
	assert.Equal(t, graph.EdgeID(9), got[1].EdgeID)
	assert.Equal(t, graph.EdgeID(5), got[2].EdgeID)
}

func TestMatchInvalidPatternErrors(t *testing.T) {
	store := &fakeStore{}
	_, err := Match(context.Background(), store, graph.Pattern{})
	assert.Error(t, err)
}

func TestFastMatchRejectsIneligiblePattern(t *testing.T) {
	store := &fakeStore{neighbors: map[graph.NodeID][]graph.NodeID{}}
	p := graph.Pattern{EdgeType: "calls", StartLabel: "function"}
	_, err := FastMatch(context.Background(), store, p)
	require.Error(t, err)
	assert.True(t, graph.Is(err, graph.KindInvalidInput))
}

func TestFastMatchMatchesAuthoritativeOutput(t *testing.T) {
	store := &fakeStore{
		triples: []graph.Triple{{Start: 1, EdgeID: 10, End: 2}},
		labels:  map[graph.NodeID]string{},
		props:   map[graph.NodeID]map[string]string{},
		neighbors: map[graph.NodeID][]graph.NodeID{
			1: {2},
		},
		edges: map[[3]any][]graph.EdgeID{
			{graph.NodeID(1), graph.NodeID(2), "calls"}: {10},
		},
	}
	p := graph.Pattern{EdgeType: "calls", Direction: graph.Outgoing}

	authoritative, err := Match(context.Background(), store, p)
	require.NoError(t, err)

	fast, err := FastMatch(context.Background(), store, p)
	require.NoError(t, err)

	assert.Equal(t, authoritative, fast)
}

func TestFastMatchSkipsStaleCacheEntries(t *testing.T) {
	store := &fakeStore{
		neighbors: map[graph.NodeID][]graph.NodeID{
			1: {2},
		},
		edges: map[[3]any][]graph.EdgeID{},
	}
	p := graph.Pattern{EdgeType: "calls", Direction: graph.Outgoing}

	got, err := FastMatch(context.Background(), store, p)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFastMatchSurfacesParallelEdgesBetweenSameNodes(t *testing.T) {
	store := &fakeStore{
		triples: []graph.Triple{
			{Start: 1, EdgeID: 10, End: 2},
			{Start: 1, EdgeID: 11, End: 2},
		},
		labels: map[graph.NodeID]string{},
		props:  map[graph.NodeID]map[string]string{},
		neighbors: map[graph.NodeID][]graph.NodeID{
			1: {2},
		},
		edges: map[[3]any][]graph.EdgeID{
			{graph.NodeID(1), graph.NodeID(2), "calls"}: {10, 11},
		},
	}
	p := graph.Pattern{EdgeType: "calls", Direction: graph.Outgoing}

	authoritative, err := Match(context.Background(), store, p)
	require.NoError(t, err)
	require.Len(t, authoritative, 2)

	fast, err := FastMatch(context.Background(), store, p)
	require.NoError(t, err)
	assert.Equal(t, authoritative, fast)
}
