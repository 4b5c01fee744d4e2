package traversal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// fakeBackend is a minimal in-memory graph.Backend sufficient to exercise
// this package's free functions, which only ever call Neighbors. The other
// interface methods are stubs: the real engines implement them by calling
// back into this package, so nothing here needs them.
type fakeBackend struct {
	out map[graph.NodeID][]fakeEdge
	in  map[graph.NodeID][]fakeEdge
}

type fakeEdge struct {
	id   graph.EdgeID
	to   graph.NodeID
	kind string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{out: map[graph.NodeID][]fakeEdge{}, in: map[graph.NodeID][]fakeEdge{}}
}

func (f *fakeBackend) addEdge(id graph.EdgeID, from, to graph.NodeID, kind string) {
	f.out[from] = append(f.out[from], fakeEdge{id: id, to: to, kind: kind})
	f.in[to] = append(f.in[to], fakeEdge{id: id, to: from, kind: kind})
}

func (f *fakeBackend) Neighbors(_ context.Context, node graph.NodeID, q graph.NeighborQuery) ([]graph.NodeID, error) {
	var edges []fakeEdge
	if q.Direction == graph.Outgoing {
		edges = f.out[node]
	} else {
		edges = f.in[node]
	}
	var out []graph.NodeID
	for _, e := range edges {
		if q.EdgeType != "" && q.EdgeType != e.kind {
			continue
		}
		out = append(out, e.to)
	}
	return out, nil
}

func (f *fakeBackend) InsertNode(context.Context, *graph.Node) (graph.NodeID, error) { return 0, nil }
func (f *fakeBackend) GetNode(context.Context, graph.NodeID) (*graph.Node, error)    { return nil, nil }
func (f *fakeBackend) InsertEdge(context.Context, *graph.Edge) (graph.EdgeID, error) { return 0, nil }
func (f *fakeBackend) GetEdge(context.Context, graph.EdgeID) (*graph.Edge, error)    { return nil, nil }
func (f *fakeBackend) NodeDegree(context.Context, graph.NodeID) (int, int, error)    { return 0, 0, nil }
func (f *fakeBackend) BFS(context.Context, graph.NodeID, int) ([]graph.NodeID, error) {
	return nil, nil
}
func (f *fakeBackend) ShortestPath(context.Context, graph.NodeID, graph.NodeID) ([]graph.NodeID, bool, error) {
	return nil, false, nil
}
func (f *fakeBackend) KHop(context.Context, graph.NodeID, int, graph.Direction) ([]graph.NodeID, error) {
	return nil, nil
}
func (f *fakeBackend) KHopFiltered(context.Context, graph.NodeID, int, graph.Direction, []string) ([]graph.NodeID, error) {
	return nil, nil
}
func (f *fakeBackend) ChainQuery(context.Context, graph.NodeID, []graph.Step) ([]graph.NodeID, error) {
	return nil, nil
}
func (f *fakeBackend) PatternSearch(context.Context, graph.Pattern) ([]graph.Triple, error) {
	return nil, nil
}

// chain: 1 -> 2 -> 3 -> 4, plus a branch 1 -> 5
func buildChain() *fakeBackend {
	b := newFakeBackend()
	b.addEdge(1, 1, 2, "calls")
	b.addEdge(2, 2, 3, "calls")
	b.addEdge(3, 3, 4, "calls")
	b.addEdge(4, 1, 5, "imports")
	return b
}

func TestBFSDepthZeroReturnsStartOnly(t *testing.T) {
	b := buildChain()
	got, err := BFS(context.Background(), b, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{1}, got)
}

func TestBFSDiscoveryOrder(t *testing.T) {
	b := buildChain()
	got, err := BFS(context.Background(), b, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{1, 2, 5, 3}, got)
}

func TestBFSNegativeDepthIsInvalid(t *testing.T) {
	b := buildChain()
	_, err := BFS(context.Background(), b, 1, -1)
	require.Error(t, err)
	assert.True(t, graph.Is(err, graph.KindInvalidInput))
}

func TestShortestPath(t *testing.T) {
	b := buildChain()
	path, ok, err := ShortestPath(context.Background(), b, 1, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []graph.NodeID{1, 2, 3, 4}, path)
}

func TestShortestPathSameNode(t *testing.T) {
	b := buildChain()
	path, ok, err := ShortestPath(context.Background(), b, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []graph.NodeID{1}, path)
}

func TestShortestPathUnreachable(t *testing.T) {
	b := newFakeBackend()
	b.addEdge(1, 1, 2, "calls")
	_, ok, err := ShortestPath(context.Background(), b, 1, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKHopFilteredRestrictsEdgeType(t *testing.T) {
	b := buildChain()
	got, err := KHopFiltered(context.Background(), b, 1, 1, graph.Outgoing, []string{"calls"})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{2}, got)
}

func TestKHopFilteredEmptyAllowedTypesMatchesNothing(t *testing.T) {
	b := buildChain()
	got, err := KHopFiltered(context.Background(), b, 1, 2, graph.Outgoing, []string{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChainQuery(t *testing.T) {
	b := buildChain()
	got, err := ChainQuery(context.Background(), b, 1, []graph.Step{
		{Direction: graph.Outgoing, EdgeType: "calls"},
		{Direction: graph.Outgoing, EdgeType: "calls"},
	})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{3}, got)
}

func TestChainQueryDeadEndReturnsEmpty(t *testing.T) {
	b := buildChain()
	got, err := ChainQuery(context.Background(), b, 4, []graph.Step{{Direction: graph.Outgoing}})
	require.NoError(t, err)
	assert.Nil(t, got)
}
