package relational

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
	"github.com/sqlitegraph/graphdb/pkg/graph/dump"
)

func TestDumpRestoreRoundTripsThroughEngine(t *testing.T) {
	ctx := context.Background()
	src := newTestEngine(t)
	a, err := src.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a", Data: []byte(`{"visibility":"public"}`)})
	require.NoError(t, err)
	b, err := src.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	require.NoError(t, err)
	_, err = src.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dump.Dump(&buf, src))

	dst := newTestEngine(t)
	require.NoError(t, dump.Restore(&buf, dst))
	require.NoError(t, dst.RestoreFinish(ctx))

	nc, err := dst.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, nc)

	ec, err := dst.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ec)

	ids, err := dst.FindByProperty(ctx, "visibility", "public")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestRestoreClearReplacesExistingGraph(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	_, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "stale"})
	require.NoError(t, err)

	require.NoError(t, e.RestoreClear())

	nc, err := e.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, nc)
}
