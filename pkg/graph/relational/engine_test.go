package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := Open(ctx, Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestInsertAndGetNode(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "main", Data: []byte(`{"lang":"go"}`)})
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
}

func TestInsertEdgeMissingEndpointFails(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	require.NoError(t, err)

	_, err = e.InsertEdge(ctx, &graph.Edge{From: a, To: 9999, EdgeType: "calls"})
	require.Error(t, err)
}

func TestNodeCountEdgeCount(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	b, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	_, err := e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	nc, err := e.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, nc)

	ec, err := e.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ec)
}

func TestFindByProperty(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a", Data: []byte(`{"visibility":"public"}`)})
	require.NoError(t, err)
	_, err = e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b", Data: []byte(`{"visibility":"private"}`)})
	require.NoError(t, err)

	ids, err := e.FindByProperty(ctx, "visibility", "public")
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestRunSafetyChecksOnCleanGraph(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	b, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	_, err := e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	report, err := e.RunSafetyChecks(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.NodeCount)
	assert.Equal(t, 1, report.EdgeCount)
}

func TestSkipMigrationsFailsWithoutSchema(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, Config{Path: ":memory:", SkipMigrations: true})
	// Without migrations the schema never exists, and Open itself fails:
	// it builds the initial snapshot by reading the edges table.
	require.Error(t, err)
}

func TestPragmasApplyBeforeMigrations(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx, Config{Path: ":memory:", Pragmas: map[string]string{"cache_size": "-2000"}})
	require.NoError(t, err)
	defer e.Close()

	nc, err := e.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, nc)
}
