package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

func TestReindexRunsFullStagePipelineEvenWhenDisabled(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	report, err := e.Reindex(ctx, ReindexConfig{})
	require.NoError(t, err)

	for _, stage := range reindexStageOrder {
		_, ok := report.ProcessedCounts[stage]
		assert.True(t, ok, "stage %s missing from report", stage)
	}
	assert.Equal(t, 1, report.ProcessedCounts[StageAnalyze])
	assert.Equal(t, 0, report.ProcessedCounts[StageEntityIndexes])
	assert.Empty(t, report.IndexesRebuilt)
}

func TestReindexRebuildsCoreIndexes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	require.NoError(t, err)

	report, err := e.Reindex(ctx, ReindexConfig{RebuildCoreIndexes: true, Validate: true})
	require.NoError(t, err)

	assert.Contains(t, report.IndexesRebuilt, "idx_nodes_kind_id")
	assert.Contains(t, report.IndexesRebuilt, "idx_edges_type")
	assert.Contains(t, report.IndexesRebuilt, "idx_labels_label_entity")
	assert.Contains(t, report.IndexesRebuilt, "idx_properties_key_value_entity")
	assert.Empty(t, report.ValidationErrors)
}

func TestReindexRebuildsAdjacencyCacheAndReportsProgress(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "a"})
	b, _ := e.InsertNode(ctx, &graph.Node{Kind: "function", Name: "b"})
	_, err := e.InsertEdge(ctx, &graph.Edge{From: a, To: b, EdgeType: "calls"})
	require.NoError(t, err)

	var stagesSeen []ReindexStage
	report, err := e.Reindex(ctx, ReindexConfig{
		RebuildAdjacencyCache: true,
		BatchSize:             1,
		Progress: func(stage ReindexStage, processed, total int) {
			stagesSeen = append(stagesSeen, stage)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ProcessedCounts[StageAdjacencyCaches])
	assert.Contains(t, stagesSeen, StageComplete)
}
