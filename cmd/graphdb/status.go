package main

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sqlitegraph/graphdb/pkg/graph/relational"
)

type statusReport struct {
	Engine         string                     `json:"engine"`
	DataPath       string                     `json:"data_path"`
	NodeCount      int                        `json:"node_count"`
	NodeCountHuman string                     `json:"node_count_human"`
	EdgeCount      int                        `json:"edge_count"`
	EdgeCountHuman string                     `json:"edge_count_human"`
	Statements     uint64                     `json:"statements,omitempty"`
	StatementStats *relational.StatementStats `json:"statement_stats,omitempty"`
	CacheHits      uint64                     `json:"cache_hits"`
	CacheMisses    uint64                     `json:"cache_misses"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report engine, path, and current node/edge counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				failJSON(exitArgError, err)
			}
			ob, err := openBackend(ctx, cfg)
			if err != nil {
				failJSON(exitFailure, err)
			}
			defer ob.close()

			report := statusReport{Engine: string(cfg.Engine), DataPath: cfg.DataPath}
			switch {
			case ob.relational != nil:
				nc, err := ob.relational.NodeCount(ctx)
				if err != nil {
					failJSON(exitFailure, err)
				}
				ec, err := ob.relational.EdgeCount(ctx)
				if err != nil {
					failJSON(exitFailure, err)
				}
				report.NodeCount, report.EdgeCount = nc, ec
				report.Statements = ob.relational.StatementCount()
				stats := ob.relational.StatementStats()
				report.StatementStats = &stats
				report.CacheHits, report.CacheMisses = ob.relational.CacheStats()
			case ob.native != nil:
				report.NodeCount = ob.native.NodeCount()
				report.EdgeCount = ob.native.EdgeCount()
				m := ob.native.Metrics(time.Now)
				report.CacheHits, report.CacheMisses = m.CacheHits, m.CacheMisses
			}
			report.NodeCountHuman = humanize.Comma(int64(report.NodeCount))
			report.EdgeCountHuman = humanize.Comma(int64(report.EdgeCount))
			outputJSON(report)
			return nil
		},
	}
}
