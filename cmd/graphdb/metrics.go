package main

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// graphdbMetrics registers the counters pkg/graph.Metrics exposes as
// Prometheus gauges, grounded on vjache-cie and cuemby-warren's use of
// client_golang for connection/operation counters. The CLI is a one-shot
// process, so these gauges exist only to be set and rendered once per
// invocation rather than scraped continuously.
var graphdbMetrics = struct {
	nodesInserted     prometheus.Gauge
	edgesInserted     prometheus.Gauge
	traversalsRun     prometheus.Gauge
	patternQueriesRun prometheus.Gauge
	cacheHits         prometheus.Gauge
	cacheMisses       prometheus.Gauge
}{
	nodesInserted:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "graphdb", Name: "nodes_inserted_total"}),
	edgesInserted:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "graphdb", Name: "edges_inserted_total"}),
	traversalsRun:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "graphdb", Name: "traversals_run_total"}),
	patternQueriesRun: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "graphdb", Name: "pattern_queries_run_total"}),
	cacheHits:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "graphdb", Name: "cache_hits_total"}),
	cacheMisses:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "graphdb", Name: "cache_misses_total"}),
}

func init() {
	prometheus.MustRegister(
		graphdbMetrics.nodesInserted,
		graphdbMetrics.edgesInserted,
		graphdbMetrics.traversalsRun,
		graphdbMetrics.patternQueriesRun,
		graphdbMetrics.cacheHits,
		graphdbMetrics.cacheMisses,
	)
}

func setGraphdbMetrics(m graph.Metrics) {
	graphdbMetrics.nodesInserted.Set(float64(m.NodesInserted))
	graphdbMetrics.edgesInserted.Set(float64(m.EdgesInserted))
	graphdbMetrics.traversalsRun.Set(float64(m.TraversalsRun))
	graphdbMetrics.patternQueriesRun.Set(float64(m.PatternQueriesRun))
	graphdbMetrics.cacheHits.Set(float64(m.CacheHits))
	graphdbMetrics.cacheMisses.Set(float64(m.CacheMisses))
}

// newMetricsCmd implements spec §6's `metrics [--reset-metrics]`: sample
// the engine's Counters, mirror them into Prometheus gauges, and print the
// sampled snapshot as JSON.
func newMetricsCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "sample and print the engine's operation counters",
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

			var m graph.Metrics
			switch {
			case ob.relational != nil:
				m = ob.relational.Metrics(time.Now)
				if reset {
					ob.relational.ResetMetrics()
				}
			case ob.native != nil:
				m = ob.native.Metrics(time.Now)
				if reset {
					ob.native.ResetMetrics()
				}
			}
			setGraphdbMetrics(m)
			outputJSON(map[string]any{
				"nodes_inserted":      m.NodesInserted,
				"edges_inserted":      m.EdgesInserted,
				"traversals_run":      m.TraversalsRun,
				"pattern_queries_run": m.PatternQueriesRun,
				"cache_hits":          m.CacheHits,
				"cache_misses":        m.CacheMisses,
				"cache_hit_ratio":     m.CacheHitRatio(),
				"sampled_at":          m.SampledAt,
				"sampled_at_human":    humanize.Time(m.SampledAt),
				"reset":               reset,
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset-metrics", false, "zero the counters after sampling")
	return cmd
}
