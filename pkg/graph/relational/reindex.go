package relational

import (
	"context"
	"fmt"
	"time"
)

// ReindexStage names one step of the reindex pipeline, run in this fixed
// order regardless of which are enabled (spec §4.16).
type ReindexStage string

const (
	StageAnalyze         ReindexStage = "analyze"
	StageEntityIndexes    ReindexStage = "entity_indexes"
	StageEdgeIndexes      ReindexStage = "edge_indexes"
	StageLabelIndexes     ReindexStage = "label_indexes"
	StagePropertyIndexes  ReindexStage = "property_indexes"
	StageAdjacencyCaches  ReindexStage = "adjacency_caches"
	StageValidation       ReindexStage = "validation"
	StageComplete         ReindexStage = "complete"
)

var reindexStageOrder = []ReindexStage{
	StageAnalyze, StageEntityIndexes, StageEdgeIndexes, StageLabelIndexes,
	StagePropertyIndexes, StageAdjacencyCaches, StageValidation, StageComplete,
}

// ReindexConfig configures one reindex run (spec §4.16).
type ReindexConfig struct {
	RebuildCoreIndexes    bool
	RebuildAdjacencyCache bool
	Validate              bool
	BatchSize             int
	// Progress, if set, is invoked once per stage and, for the
	// AdjacencyCaches stage, once per batch processed within it.
	Progress func(stage ReindexStage, processed, total int)
}

// ReindexReport is the final output of Reindex (spec §4.16).
type ReindexReport struct {
	Duration         time.Duration
	ProcessedCounts  map[ReindexStage]int
	IndexesRebuilt   []string
	ValidationErrors []string
}

// coreIndexDDL enumerates exactly the eight indexes spec §4.6 names: edges
// by from, to, and edge_type separately; labels by label and by
// (label, entity_id); properties by (key, value) and
// (key, value, entity_id); entities by (kind, id).
var coreIndexDDL = map[string]string{
	"idx_nodes_kind_id":                `CREATE INDEX idx_nodes_kind_id ON nodes(kind, id)`,
	"idx_edges_from":                   `CREATE INDEX idx_edges_from ON edges(from_id)`,
	"idx_edges_to":                     `CREATE INDEX idx_edges_to ON edges(to_id)`,
	"idx_edges_type":                   `CREATE INDEX idx_edges_type ON edges(edge_type)`,
	"idx_labels_label":                 `CREATE INDEX idx_labels_label ON labels(label)`,
	"idx_labels_label_entity":          `CREATE INDEX idx_labels_label_entity ON labels(label, node_id)`,
	"idx_properties_key_value":         `CREATE INDEX idx_properties_key_value ON properties(key, value)`,
	"idx_properties_key_value_entity":  `CREATE INDEX idx_properties_key_value_entity ON properties(key, value, node_id)`,
}

var indexTable = map[string]string{
	"idx_nodes_kind_id":               "nodes",
	"idx_edges_from":                  "edges",
	"idx_edges_to":                    "edges",
	"idx_edges_type":                  "edges",
	"idx_labels_label":                "labels",
	"idx_labels_label_entity":         "labels",
	"idx_properties_key_value":        "properties",
	"idx_properties_key_value_entity": "properties",
}

var stageIndexes = map[ReindexStage][]string{
	StageEntityIndexes:   {"idx_nodes_kind_id"},
	StageEdgeIndexes:     {"idx_edges_from", "idx_edges_to", "idx_edges_type"},
	StageLabelIndexes:    {"idx_labels_label", "idx_labels_label_entity"},
	StagePropertyIndexes: {"idx_properties_key_value", "idx_properties_key_value_entity"},
}

// Reindex drops and rebuilds the requested index categories, then
// optionally clears the adjacency cache, streams edges in id order to
// count them and rebuilds the snapshot from the edges table (the cache
// itself is refilled on demand by later reads, not by this stage), then
// optionally validates every rebuilt index with a trivial query.
// Every stage runs in the fixed order of spec §4.16 regardless of which
// booleans are set; a disabled stage still reports, with a zero processed
// count, so callers see the full pipeline shape.
func (e *Engine) Reindex(ctx context.Context, cfg ReindexConfig) (ReindexReport, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	start := time.Now()
	report := ReindexReport{ProcessedCounts: make(map[ReindexStage]int)}

	for _, stage := range reindexStageOrder {
		report.ProcessedCounts[stage] = 0
		switch stage {
		case StageAnalyze:
			if _, err := e.conn.exec(ctx, `ANALYZE`); err != nil {
				return report, fmt.Errorf("analyze: %w", err)
			}
			report.ProcessedCounts[stage] = 1
		case StageEntityIndexes, StageEdgeIndexes, StageLabelIndexes, StagePropertyIndexes:
			if cfg.RebuildCoreIndexes {
				n, err := e.rebuildIndexes(ctx, stageIndexes[stage], &report)
				if err != nil {
					return report, err
				}
				report.ProcessedCounts[stage] = n
			}
		case StageAdjacencyCaches:
			if cfg.RebuildAdjacencyCache {
				n, err := e.rebuildAdjacencyCache(ctx, cfg, &report)
				if err != nil {
					return report, err
				}
				report.ProcessedCounts[stage] = n
			}
		case StageValidation:
			if cfg.Validate {
				e.validateIndexes(ctx, &report)
				report.ProcessedCounts[stage] = len(report.IndexesRebuilt)
			}
		case StageComplete:
			report.ProcessedCounts[stage] = 1
		}
		if cfg.Progress != nil {
			cfg.Progress(stage, report.ProcessedCounts[stage], len(reindexStageOrder))
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (e *Engine) rebuildIndexes(ctx context.Context, names []string, report *ReindexReport) (int, error) {
	count := 0
	for _, name := range names {
		if _, err := e.conn.exec(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s`, name)); err != nil {
			return count, fmt.Errorf("drop index %s: %w", name, err)
		}
		if _, err := e.conn.exec(ctx, coreIndexDDL[name]); err != nil {
			return count, fmt.Errorf("create index %s: %w", name, err)
		}
		report.IndexesRebuilt = append(report.IndexesRebuilt, name)
		count++
	}
	return count, nil
}

func (e *Engine) rebuildAdjacencyCache(ctx context.Context, cfg ReindexConfig, report *ReindexReport) (int, error) {
	e.cache.invalidate()

	processed := 0
	rows, err := e.conn.query(ctx, `SELECT id, from_id, to_id, edge_type FROM edges ORDER BY id`)
	if err != nil {
		return processed, fmt.Errorf("stream edges: %w", err)
	}
	defer rows.Close()

	batch := 0
	for rows.Next() {
		var id, from, to int64
		var edgeType string
		if err := rows.Scan(&id, &from, &to, &edgeType); err != nil {
			return processed, fmt.Errorf("stream edges: scan: %w", err)
		}
		processed++
		batch++
		if batch >= cfg.BatchSize {
			if cfg.Progress != nil {
				cfg.Progress(StageAdjacencyCaches, processed, -1)
			}
			batch = 0
		}
	}
	if err := rows.Err(); err != nil {
		return processed, err
	}
	return processed, e.refreshSnapshot(ctx)
}

func (e *Engine) validateIndexes(ctx context.Context, report *ReindexReport) {
	for _, name := range report.IndexesRebuilt {
		table := indexTable[name]
		rows, err := e.conn.query(ctx, fmt.Sprintf(`SELECT 1 FROM %s LIMIT 1`, table))
		if err != nil {
			report.ValidationErrors = append(report.ValidationErrors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		rows.Close()
	}
}
