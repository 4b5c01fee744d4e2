package main

import (
	"context"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

type nodeSummary struct {
	ID   graph.NodeID `json:"id"`
	Kind string       `json:"kind"`
	Name string       `json:"name"`
}

func newListCmd() *cobra.Command {
	var property string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list nodes, optionally filtered to an exact property value",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				failJSON(exitArgError, err)
			}

			var ids []graph.NodeID
			ob, err := openBackend(ctx, cfg)
			if err != nil {
				failJSON(exitFailure, err)
			}
			defer ob.close()

			if property != "" {
				if ob.relational == nil {
					failJSON(exitArgError, graph.InvalidInputf("--property requires the relational engine"))
				}
				key, value, ok := strings.Cut(property, "=")
				if !ok {
					failJSON(exitArgError, graph.InvalidInputf("--property must be key=value"))
				}
				ids, err = ob.relational.FindByProperty(ctx, key, value)
			} else {
				ids, err = allNodeIDs(ctx, ob)
			}
			if err != nil {
				failJSON(exitFailure, err)
			}

			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			if limit > 0 && len(ids) > limit {
				ids = ids[:limit]
			}

			summaries := make([]nodeSummary, 0, len(ids))
			for _, id := range ids {
				n, err := ob.backend.GetNode(ctx, id)
				if err != nil {
					failJSON(exitFailure, err)
				}
				summaries = append(summaries, nodeSummary{ID: n.ID, Kind: n.Kind, Name: n.Name})
			}
			outputJSON(map[string]any{"nodes": summaries, "count": len(summaries)})
			return nil
		},
	}
	cmd.Flags().StringVar(&property, "property", "", "filter to nodes with this exact key=value property (relational only)")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap the number of nodes listed (0 = unlimited)")
	return cmd
}

// allNodeIDsSource is implemented by both engines via pkg/graph/pattern's
// Store contract; it is re-declared locally so the CLI doesn't need to
// import the pattern package just for this one method.
type allNodeIDsSource interface {
	AllNodeIDs(ctx context.Context) ([]graph.NodeID, error)
}

func allNodeIDs(ctx context.Context, ob *openedBackend) ([]graph.NodeID, error) {
	var src allNodeIDsSource
	if ob.relational != nil {
		src = ob.relational
	} else {
		src = ob.native
	}
	return src.AllNodeIDs(ctx)
}
