package native

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.ndb")
	e, err := Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestInsertAndGetNode(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "main"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := e.GetNode(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "function", got.Kind)
	assert.Equal(t, "main", got.Name)
}

func TestGetMissingNode(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.GetNode(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, graph.Is(err, graph.KindNotFound))
}

func TestInsertEdgeAndNeighbors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	require.NoError(t, err)
	b, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	require.NoError(t, err)

	_, err = e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	out, err := e.Neighbors(ctx, a, graph.NeighborQuery{Direction: graph.Outgoing})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{b}, out)

	in, err := e.Neighbors(ctx, b, graph.NeighborQuery{Direction: graph.Incoming})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{a}, in)
}

func TestInsertEdgeMissingEndpoint(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	require.NoError(t, err)

	_, err = e.InsertEdge(ctx, &graph.Edge{From: a, To: 12345, EdgeType: "calls"})
	require.Error(t, err)
}

func TestNodeCountEdgeCount(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	b, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	_, err := e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	assert.Equal(t, 2, e.NodeCount())
	assert.Equal(t, 1, e.EdgeCount())
}

func TestMetricsTracksInserts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	b, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	_, err := e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	m := e.Metrics(time.Now)
	assert.Equal(t, uint64(2), m.NodesInserted)
	assert.Equal(t, uint64(1), m.EdgesInserted)
}

func TestResetMetrics(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, _ = e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	e.ResetMetrics()
	m := e.Metrics(time.Now)
	assert.Equal(t, uint64(0), m.NodesInserted)
}

func TestCreateWithHintsOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.ndb")
	e, err := CreateWithHints(path, 16, 32)
	require.NoError(t, err)
	ctx := context.Background()
	id, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	reopened, err := OpenWithHints(path, 16, 32)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetNode(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}
