package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

func TestRunSafetyChecksDetectsOrphanEdge(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	require.NoError(t, err)
	b, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	require.NoError(t, err)
	_, err = e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	// The connection enforces foreign keys, so turn them off to be able to
	// leave an edge pointing at a deleted node.
	_, err = e.conn.exec(ctx, `PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = e.conn.exec(ctx, `DELETE FROM nodes WHERE id = ?`, int64(b))
	require.NoError(t, err)

	report, err := e.RunSafetyChecks(ctx)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.OrphanEdges)
}

func TestRunDeepSafetyChecksOnCleanGraph(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	require.NoError(t, err)

	report, err := e.RunDeepSafetyChecks(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.DeepMessages)
}

func TestRunIntegritySweepOnCleanGraph(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a", Data: []byte(`{}`)})
	b, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b", Data: []byte(`{}`)})
	_, err := e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls", Data: []byte(`{}`)})
	require.NoError(t, err)

	report, err := e.RunIntegritySweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.IntegritySweepIssues)
}
