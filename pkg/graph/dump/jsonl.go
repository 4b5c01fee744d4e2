// Package dump implements the JSON-lines dump/restore format (spec §4.17):
// entities, then edges, then labels, then properties, each ordered by id
// (and labels/properties additionally by key).
package dump

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// recordKind tags each JSON line so Restore can dispatch without a
// multi-pass parse.
type recordKind string

const (
	kindNode     recordKind = "entity"
	kindEdge     recordKind = "edge"
	kindLabel    recordKind = "label"
	kindProperty recordKind = "property"
)

type line struct {
	Kind recordKind      `json:"type"`
	Data json.RawMessage `json:"data"`
}

type NodeLine struct {
	ID       graph.NodeID    `json:"id"`
	Kind     string          `json:"kind_label"`
	Name     string          `json:"name"`
	FilePath string          `json:"file_path"`
	Data     json.RawMessage `json:"data"`
}

type EdgeLine struct {
	ID       graph.EdgeID    `json:"id"`
	From     graph.NodeID    `json:"from"`
	To       graph.NodeID    `json:"to"`
	EdgeType string          `json:"edge_type"`
	Data     json.RawMessage `json:"data"`
}

type LabelLine struct {
	NodeID graph.NodeID `json:"node_id"`
	Label  string       `json:"label"`
}

type PropertyLine struct {
	NodeID graph.NodeID `json:"node_id"`
	Key    string       `json:"key"`
	Value  string       `json:"value"`
}

// Source is implemented by a relational-engine adapter: the native engine
// has no separate labels/properties tables, so dump/restore is a
// relational-only surface (the CLI rejects it for a native-backed graph —
// see DESIGN.md).
type Source interface {
	DumpNodes() ([]NodeLine, error)
	DumpEdges() ([]EdgeLine, error)
	DumpLabels() ([]LabelLine, error)
	DumpProperties() ([]PropertyLine, error)
}

// Sink receives a parsed dump during Restore, applied inside one caller-
// managed transaction so any failure rolls back the entire restore.
type Sink interface {
	RestoreClear() error
	RestoreNode(NodeLine) error
	RestoreEdge(EdgeLine) error
	RestoreLabel(LabelLine) error
	RestoreProperty(PropertyLine) error
}

// Dump writes src's full contents to w as newline-delimited JSON, in the
// fixed order entities, edges, labels, properties, each ordered by id
// (spec §4.17).
func Dump(w io.Writer, src Source) error {
	enc := json.NewEncoder(w)

	nodes, err := src.DumpNodes()
	if err != nil {
		return fmt.Errorf("dump nodes: %w", err)
	}
	for _, n := range nodes {
		if err := writeLine(enc, kindNode, n); err != nil {
			return err
		}
	}

	edges, err := src.DumpEdges()
	if err != nil {
		return fmt.Errorf("dump edges: %w", err)
	}
	for _, e := range edges {
		if err := writeLine(enc, kindEdge, e); err != nil {
			return err
		}
	}

	labels, err := src.DumpLabels()
	if err != nil {
		return fmt.Errorf("dump labels: %w", err)
	}
	for _, l := range labels {
		if err := writeLine(enc, kindLabel, l); err != nil {
			return err
		}
	}

	props, err := src.DumpProperties()
	if err != nil {
		return fmt.Errorf("dump properties: %w", err)
	}
	for _, p := range props {
		if err := writeLine(enc, kindProperty, p); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(enc *json.Encoder, kind recordKind, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	return enc.Encode(line{Kind: kind, Data: raw})
}

// Restore reads a newline-delimited JSON stream produced by Dump, clears
// sink's existing state, and re-inserts every record with its stored id.
// On any failure the caller is expected to have wrapped sink's four
// Restore* methods in a single rollback-on-error transaction; Restore
// itself just surfaces the first error (spec §4.17).
func Restore(r io.Reader, sink Sink) error {
	if err := sink.RestoreClear(); err != nil {
		return fmt.Errorf("restore: clear: %w", err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var l line
		if err := json.Unmarshal(scanner.Bytes(), &l); err != nil {
			return fmt.Errorf("restore: parse line: %w", err)
		}
		switch l.Kind {
		case kindNode:
			var n NodeLine
			if err := json.Unmarshal(l.Data, &n); err != nil {
				return fmt.Errorf("restore: parse node: %w", err)
			}
			if err := sink.RestoreNode(n); err != nil {
				return fmt.Errorf("restore: node %d: %w", n.ID, err)
			}
		case kindEdge:
			var e EdgeLine
			if err := json.Unmarshal(l.Data, &e); err != nil {
				return fmt.Errorf("restore: parse edge: %w", err)
			}
			if err := sink.RestoreEdge(e); err != nil {
				return fmt.Errorf("restore: edge %d: %w", e.ID, err)
			}
		case kindLabel:
			var lbl LabelLine
			if err := json.Unmarshal(l.Data, &lbl); err != nil {
				return fmt.Errorf("restore: parse label: %w", err)
			}
			if err := sink.RestoreLabel(lbl); err != nil {
				return fmt.Errorf("restore: label on node %d: %w", lbl.NodeID, err)
			}
		case kindProperty:
			var p PropertyLine
			if err := json.Unmarshal(l.Data, &p); err != nil {
				return fmt.Errorf("restore: parse property: %w", err)
			}
			if err := sink.RestoreProperty(p); err != nil {
				return fmt.Errorf("restore: property on node %d: %w", p.NodeID, err)
			}
		default:
			return fmt.Errorf("restore: unknown record kind %q", l.Kind)
		}
	}
	return scanner.Err()
}
