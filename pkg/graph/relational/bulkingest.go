package relational

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// DefaultBatchSize is the chunk size bulk ingest splits input records into
// (spec §4.14).
const DefaultBatchSize = 1000

// NodeRecord and EdgeRecord are the two record shapes BulkIngest accepts.
type NodeRecord struct {
	Node *graph.Node
}

type EdgeRecord struct {
	Edge *graph.Edge
}

// BulkResult reports how many of each record type were committed.
type BulkResult struct {
	NodesInserted int
	EdgesInserted int
	Skipped       int // duplicate edge triples deduplicated within a chunk
}

// FaultInjector is consulted immediately before each chunk's commit,
// letting tests exercise the rollback path without corrupting real state
// (spec §4.14: "a fault-injection point may be consulted immediately
// before commit").
type FaultInjector func(chunkIndex int) error

// BulkIngest chunks nodes and edges into batches of batchSize (0 uses
// DefaultBatchSize), running each chunk inside one withTx transaction with
// a single cached prepared statement per record type. Edge endpoints are
// checked with one count query per pair; duplicate (from, to, edge_type)
// triples within a chunk are silently skipped. Caches are invalidated
// after every committed chunk.
func (e *Engine) BulkIngest(ctx context.Context, nodes []NodeRecord, edges []EdgeRecord, batchSize int, fault FaultInjector) (BulkResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var result BulkResult

	for i := 0; i < len(nodes); i += batchSize {
		end := min(i+batchSize, len(nodes))
		chunk := nodes[i:end]
		if err := e.ingestNodeChunk(ctx, chunk, i/batchSize, fault, &result); err != nil {
			return result, err
		}
	}
	for i := 0; i < len(edges); i += batchSize {
		end := min(i+batchSize, len(edges))
		chunk := edges[i:end]
		if err := e.ingestEdgeChunk(ctx, chunk, i/batchSize, fault, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Engine) ingestNodeChunk(ctx context.Context, chunk []NodeRecord, chunkIndex int, fault FaultInjector, result *BulkResult) error {
	err := withTx(ctx, e.conn, func(tx execer) error {
		stmt := `INSERT INTO nodes(kind, name, file_path, data) VALUES (?, ?, ?, ?)`
		for _, rec := range chunk {
			if err := rec.Node.Validate(); err != nil {
				return err
			}
			data := rec.Node.Data
			if len(data) == 0 {
				data = json.RawMessage("{}")
			}
			res, err := tx.ExecContext(ctx, stmt, rec.Node.Kind, rec.Node.Name, rec.Node.FilePath, string(data))
			if err != nil {
				return graph.Wrap(graph.KindQuery, "bulk_ingest: node", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return graph.Wrap(graph.KindQuery, "bulk_ingest: node id", err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO labels(node_id, label) VALUES (?, ?)`, id, rec.Node.Kind); err != nil {
				return graph.Wrap(graph.KindQuery, "bulk_ingest: label", err)
			}
			result.NodesInserted++
		}
		if fault != nil {
			if err := fault(chunkIndex); err != nil {
				return fmt.Errorf("fault injection: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.cache.invalidate()
	return e.refreshSnapshot(ctx)
}

func (e *Engine) ingestEdgeChunk(ctx context.Context, chunk []EdgeRecord, chunkIndex int, fault FaultInjector, result *BulkResult) error {
	type triple struct {
		from, to int64
		edgeType string
	}
	seen := make(map[triple]bool, len(chunk))

	err := withTx(ctx, e.conn, func(tx execer) error {
		for _, rec := range chunk {
			if err := rec.Edge.Validate(); err != nil {
				return err
			}
			t := triple{int64(rec.Edge.From), int64(rec.Edge.To), rec.Edge.EdgeType}
			if seen[t] {
				result.Skipped++
				continue
			}
			seen[t] = true

			var count int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE id IN (?, ?)`, t.from, t.to).Scan(&count); err != nil {
				return graph.Wrap(graph.KindQuery, "bulk_ingest: endpoint check", err)
			}
			if count != 2 {
				return graph.NotFoundf("bulk_ingest: edge endpoint not found (from=%d to=%d)", t.from, t.to)
			}

			data := rec.Edge.Data
			if len(data) == 0 {
				data = json.RawMessage("{}")
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO edges(from_id, to_id, edge_type, data) VALUES (?, ?, ?, ?)`,
				t.from, t.to, t.edgeType, string(data)); err != nil {
				return graph.Wrap(graph.KindQuery, "bulk_ingest: edge", err)
			}
			result.EdgesInserted++
		}
		if fault != nil {
			if err := fault(chunkIndex); err != nil {
				return fmt.Errorf("fault injection: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.cache.invalidate()
	return e.refreshSnapshot(ctx)
}
