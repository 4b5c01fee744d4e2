// Package main provides the graphdb CLI entry point (spec §6): a
// collaborator that exercises the core Backend API and produces
// deterministic JSON on stdout. It is not part of the core — every
// operation it performs is available directly through pkg/graph.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sqlitegraph/graphdb/pkg/config"
	"github.com/sqlitegraph/graphdb/pkg/graph"
	"github.com/sqlitegraph/graphdb/pkg/graph/native"
	"github.com/sqlitegraph/graphdb/pkg/graph/relational"
)

// Exit codes (spec §6): 0 success, 1 command failure, 2 argument error or
// strict-mode safety violation.
const (
	exitOK          = 0
	exitFailure     = 1
	exitArgError    = 2
	exitSafetyStrict = 2
)

var (
	version = "0.1.0"

	flagEngine   string
	flagDataPath string
	flagConfig   string
)

func main() {
	root := &cobra.Command{
		Use:   "graphdb",
		Short: "graphdb - embedded labeled property graph store",
		Long: `graphdb is a CLI collaborator over an embedded graph database with two
pluggable storage engines (relational over SQLite, native binary format).
Every subcommand exercises the Backend API directly and prints
deterministic JSON to stdout.`,
	}
	root.PersistentFlags().StringVar(&flagEngine, "engine", "", "storage engine: relational|native (overrides GRAPHDB_ENGINE)")
	root.PersistentFlags().StringVar(&flagDataPath, "data", "", "path to the graph data file (overrides GRAPHDB_DATA_PATH)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file; its keys override environment values, and --engine/--data override both")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			outputJSON(map[string]string{"version": version})
		},
	})

	root.AddCommand(newStatusCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newReindexCmds()...)
	root.AddCommand(newDumpGraphCmd())
	root.AddCommand(newLoadGraphCmd())
	root.AddCommand(newSubgraphCmd())
	root.AddCommand(newPipelineCmd())
	root.AddCommand(newExplainPipelineCmd())
	root.AddCommand(newSafetyCheckCmd())
	root.AddCommand(newMetricsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(exitFailure)
	}
}

// loadConfig builds the effective configuration from the environment (with
// the --config YAML file layered on top when given), then applies
// --engine/--data flag overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if flagConfig != "" {
		var err error
		cfg, err = config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.LoadFromEnv()
	}
	if flagEngine != "" {
		cfg.Engine = config.Engine(flagEngine)
	}
	if flagDataPath != "" {
		cfg.DataPath = flagDataPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openedBackend bundles the generic graph.Backend view of an engine with
// the concrete engine, since several CLI commands (reindex, safety-check,
// dump/restore, metrics, status) need engine-specific methods the Backend
// interface deliberately omits.
type openedBackend struct {
	backend    graph.Backend
	relational *relational.Engine // non-nil iff cfg.Engine == config.EngineRelational
	native     *native.Engine     // non-nil iff cfg.Engine == config.EngineNative
	close      func() error
}

func openBackend(ctx context.Context, cfg *config.Config) (*openedBackend, error) {
	switch cfg.Engine {
	case config.EngineRelational:
		e, err := relational.Open(ctx, relational.Config{
			Path:           cfg.DataPath,
			CacheCapacity:  cfg.Relational.AdjacencyCacheCapacity,
			SkipMigrations: cfg.Relational.SkipMigrations,
			Pragmas:        cfg.Relational.Pragmas,
		})
		if err != nil {
			return nil, err
		}
		return &openedBackend{backend: e, relational: e, close: e.Close}, nil
	case config.EngineNative:
		var e *native.Engine
		var err error
		if _, statErr := os.Stat(cfg.DataPath); statErr != nil {
			if !cfg.Native.CreateIfMissing {
				return nil, graph.Connectionf("native data file %s does not exist and create_if_missing is false", cfg.DataPath)
			}
			e, err = native.CreateWithHints(cfg.DataPath, cfg.Native.NodeCapacityHint, cfg.Native.EdgeCapacityHint)
		} else {
			e, err = native.OpenWithHints(cfg.DataPath, cfg.Native.NodeCapacityHint, cfg.Native.EdgeCapacityHint)
		}
		if err != nil {
			return nil, err
		}
		return &openedBackend{backend: e, native: e, close: e.Close}, nil
	default:
		return nil, graph.InvalidInputf("unknown engine %q", cfg.Engine)
	}
}

// outputJSON writes v to stdout as indented JSON, following
// steveyegge-beads's outputJSON convention for deterministic CLI output.
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding JSON: %v\n", err)
		os.Exit(exitFailure)
	}
}

// failJSON prints an error as JSON to stderr and exits with code.
func failJSON(code int, err error) {
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	payload := map[string]string{"error": err.Error()}
	if kind, ok := graph.KindOf(err); ok {
		payload["kind"] = kind.String()
	}
	_ = enc.Encode(payload)
	os.Exit(code)
}

// warn prints a colorized diagnostic to stderr without affecting exit
// status; used by human-readable (non-JSON) renderings.
func warn(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.YellowString(format, args...))
}
