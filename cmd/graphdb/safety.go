package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlitegraph/graphdb/pkg/config"
	"github.com/sqlitegraph/graphdb/pkg/graph"
	"github.com/sqlitegraph/graphdb/pkg/graph/relational"
)

// newSafetyCheckCmd implements spec §6/§4.15's `safety-check [--deep]
// [--sweep] [--strict]`. Safety checking is relational-only: the native
// engine has no callable integrity report. --deep and --sweep each add a
// more expensive check on top of the basic counts, and both run when both
// are given; --strict turns a non-OK report into exit code 2
// instead of 0, so a CI pipeline can gate on this command's exit status
// alone.
func newSafetyCheckCmd() *cobra.Command {
	var deep, sweep, strict bool
	cmd := &cobra.Command{
		Use:   "safety-check",
		Short: "run structural integrity checks against the relational store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				failJSON(exitArgError, err)
			}
			if cfg.Engine != config.EngineRelational {
				failJSON(exitArgError, graph.InvalidInputf("safety-check requires the relational engine"))
			}
			ob, err := openBackend(ctx, cfg)
			if err != nil {
				failJSON(exitFailure, err)
			}
			defer ob.close()

			var report relational.SafetyReport
			switch {
			case sweep:
				report, err = ob.relational.RunIntegritySweep(ctx)
				if err == nil && deep {
					var deepReport relational.SafetyReport
					deepReport, err = ob.relational.RunDeepSafetyChecks(ctx)
					report.DeepMessages = deepReport.DeepMessages
				}
			case deep:
				report, err = ob.relational.RunDeepSafetyChecks(ctx)
			default:
				report, err = ob.relational.RunSafetyChecks(ctx)
			}
			if err != nil {
				failJSON(exitFailure, err)
			}

			if !report.OK() {
				warn("safety-check: %d orphan edges, %d duplicate triples, %d dangling labels, %d dangling properties, %d deep messages, %d sweep issues",
					report.OrphanEdges, report.DuplicateTriples, report.LabelsOnMissingEntity,
					report.PropsOnMissingEntity, len(report.DeepMessages), len(report.IntegritySweepIssues))
			}

			outputJSON(report)
			if strict && !report.OK() {
				os.Exit(exitSafetyStrict)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "also run SQLite's own PRAGMA integrity_check")
	cmd.Flags().BoolVar(&sweep, "sweep", false, "also sweep nodes/edges in id order for monotonicity and JSON decode failures")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit 2 instead of 0 when the report is not OK")
	return cmd
}
