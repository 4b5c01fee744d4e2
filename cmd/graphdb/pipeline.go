package main

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// pipelineStep is one already-structured operation parsed out of a
// pipeline expression. The "DSL" (spec §6, SPEC_FULL §12) is deliberately
// not a grammar: a pipeline expression is a semicolon-separated list of
// colon-delimited operation tokens, e.g.
//
//	bfs:1:2; shortest_path:1:9; khop:1:3:out; neighbors:1:out:authored
//
// Supported operations: bfs:START:DEPTH, shortest_path:START:END,
// khop:START:DEPTH:DIR, neighbors:NODE:DIR[:EDGE_TYPE].
type pipelineStep struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

func parsePipeline(expr string) ([]pipelineStep, error) {
	var steps []pipelineStep
	for _, raw := range strings.Split(expr, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ":")
		if len(parts) == 0 || parts[0] == "" {
			return nil, graph.InvalidInputf("pipeline: empty operation in %q", raw)
		}
		steps = append(steps, pipelineStep{Op: parts[0], Args: parts[1:]})
	}
	if len(steps) == 0 {
		return nil, graph.InvalidInputf("pipeline: no operations found")
	}
	return steps, nil
}

func readPipelineExpr(dsl, file string) (string, error) {
	if dsl != "" {
		return dsl, nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", graph.InvalidInputf("one of --dsl or --file is required")
}

func runPipelineStep(ctx context.Context, ob *openedBackend, step pipelineStep) (any, error) {
	switch step.Op {
	case "bfs":
		if len(step.Args) != 2 {
			return nil, graph.InvalidInputf("bfs requires START:DEPTH")
		}
		start, err := parseNodeArg(step.Args[0])
		if err != nil {
			return nil, err
		}
		depth, err := strconv.Atoi(step.Args[1])
		if err != nil {
			return nil, graph.InvalidInputf("bfs: invalid depth %q", step.Args[1])
		}
		return ob.backend.BFS(ctx, start, depth)
	case "shortest_path":
		if len(step.Args) != 2 {
			return nil, graph.InvalidInputf("shortest_path requires START:END")
		}
		start, err := parseNodeArg(step.Args[0])
		if err != nil {
			return nil, err
		}
		end, err := parseNodeArg(step.Args[1])
		if err != nil {
			return nil, err
		}
		path, ok, err := ob.backend.ShortestPath(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return map[string]any{"path": path, "found": ok}, nil
	case "khop":
		if len(step.Args) != 3 {
			return nil, graph.InvalidInputf("khop requires START:DEPTH:DIR")
		}
		start, err := parseNodeArg(step.Args[0])
		if err != nil {
			return nil, err
		}
		depth, err := strconv.Atoi(step.Args[1])
		if err != nil {
			return nil, graph.InvalidInputf("khop: invalid depth %q", step.Args[1])
		}
		dir, err := parseDirectionArg(step.Args[2])
		if err != nil {
			return nil, err
		}
		return ob.backend.KHop(ctx, start, depth, dir)
	case "neighbors":
		if len(step.Args) < 2 || len(step.Args) > 3 {
			return nil, graph.InvalidInputf("neighbors requires NODE:DIR[:EDGE_TYPE]")
		}
		node, err := parseNodeArg(step.Args[0])
		if err != nil {
			return nil, err
		}
		dir, err := parseDirectionArg(step.Args[1])
		if err != nil {
			return nil, err
		}
		edgeType := ""
		if len(step.Args) == 3 {
			edgeType = step.Args[2]
		}
		return ob.backend.Neighbors(ctx, node, graph.NeighborQuery{Direction: dir, EdgeType: edgeType})
	default:
		return nil, graph.InvalidInputf("unknown pipeline operation %q", step.Op)
	}
}

func parseNodeArg(s string) (graph.NodeID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, graph.InvalidInputf("invalid node id %q", s)
	}
	return graph.NodeID(v), nil
}

func parseDirectionArg(s string) (graph.Direction, error) {
	switch s {
	case "out", "outgoing":
		return graph.Outgoing, nil
	case "in", "incoming":
		return graph.Incoming, nil
	default:
		return 0, graph.InvalidInputf("direction must be out or in, got %q", s)
	}
}

func newPipelineCmd() *cobra.Command {
	var dsl, file string
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "run a semicolon-separated list of traversal operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := readPipelineExpr(dsl, file)
			if err != nil {
				failJSON(exitArgError, err)
			}
			steps, err := parsePipeline(expr)
			if err != nil {
				failJSON(exitArgError, err)
			}

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

			results := make([]map[string]any, 0, len(steps))
			for _, step := range steps {
				res, err := runPipelineStep(ctx, ob, step)
				if err != nil {
					failJSON(exitFailure, err)
				}
				results = append(results, map[string]any{"op": step.Op, "args": step.Args, "result": res})
			}
			outputJSON(map[string]any{"steps": results})
			return nil
		},
	}
	cmd.Flags().StringVar(&dsl, "dsl", "", "inline pipeline expression")
	cmd.Flags().StringVar(&file, "file", "", "path to a file containing a pipeline expression")
	return cmd
}

func newExplainPipelineCmd() *cobra.Command {
	var dsl, file string
	cmd := &cobra.Command{
		Use:   "explain-pipeline",
		Short: "parse a pipeline expression into its operations without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := readPipelineExpr(dsl, file)
			if err != nil {
				failJSON(exitArgError, err)
			}
			steps, err := parsePipeline(expr)
			if err != nil {
				failJSON(exitArgError, err)
			}
			outputJSON(map[string]any{"steps": steps})
			return nil
		},
	}
	cmd.Flags().StringVar(&dsl, "dsl", "", "inline pipeline expression")
	cmd.Flags().StringVar(&file, "file", "", "path to a file containing a pipeline expression")
	return cmd
}
