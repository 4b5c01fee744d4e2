package main

import (
	"context"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sqlitegraph/graphdb/pkg/config"
	"github.com/sqlitegraph/graphdb/pkg/graph"
	"github.com/sqlitegraph/graphdb/pkg/graph/relational"
)

// newReindexCmds builds the three reindex subcommands spec §6 lists:
// reindex-all rebuilds every index category plus the adjacency cache;
// reindex-syncore rebuilds only the core SQL indexes (entity/edge/label/
// property); reindex-sync-graph rebuilds only the adjacency cache that
// backs graph traversal and the pattern matcher's fast path. All three
// share one implementation parameterized by which ReindexConfig booleans
// they set.
func newReindexCmds() []*cobra.Command {
	return []*cobra.Command{
		newReindexCmd("reindex-all", "rebuild core indexes and the adjacency cache", true, true),
		newReindexCmd("reindex-syncore", "rebuild only the core SQL indexes", true, false),
		newReindexCmd("reindex-sync-graph", "rebuild only the adjacency cache", false, true),
	}
}

func newReindexCmd(use, short string, coreIndexes, adjacencyCache bool) *cobra.Command {
	var batchSize int
	var noValidate bool
	var showProgress bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				failJSON(exitArgError, err)
			}
			if cfg.Engine != config.EngineRelational {
				failJSON(exitArgError, graph.InvalidInputf("%s requires the relational engine", use))
			}
			ob, err := openBackend(ctx, cfg)
			if err != nil {
				failJSON(exitFailure, err)
			}
			defer ob.close()

			var bar *progressbar.ProgressBar
			if showProgress {
				// stdout carries the final JSON report; the bar renders on
				// stderr so it never interleaves with that output.
				bar = progressbar.NewOptions(-1,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription(use))
			}

			rcfg := relational.ReindexConfig{
				RebuildCoreIndexes:    coreIndexes,
				RebuildAdjacencyCache: adjacencyCache,
				Validate:              !noValidate,
				BatchSize:             batchSize,
				Progress: func(stage relational.ReindexStage, processed, total int) {
					if bar != nil {
						_ = bar.Add(1)
					}
				},
			}
			report, err := ob.relational.Reindex(ctx, rcfg)
			if err != nil {
				failJSON(exitFailure, err)
			}
			if bar != nil {
				_ = bar.Finish()
			}
			total := 0
			for _, n := range report.ProcessedCounts {
				total += n
			}
			outputJSON(map[string]any{
				"report":                report,
				"duration_human":        report.Duration.String(),
				"total_processed_human": humanize.Comma(int64(total)),
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", relational.DefaultBatchSize, "rows processed per adjacency-cache rebuild batch")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip the post-rebuild index validation stage")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "render a progress bar on stderr")
	return cmd
}
