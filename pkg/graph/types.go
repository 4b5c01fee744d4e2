// Package graph defines the storage-engine-agnostic data model, error
// taxonomy, and backend contract shared by the relational and native
// storage engines.
//
// Example Usage:
//
//	node := &graph.Node{Kind: "function", Name: "main"}
//	id, err := backend.InsertNode(ctx, node)
//	neighbors, err := backend.Neighbors(ctx, id, graph.NeighborQuery{Direction: graph.Outgoing})
package graph

import (
	"encoding/json"
	"strings"
	"time"
)

// NodeID and EdgeID are 64-bit positive integers assigned monotonically by
// the owning engine. An id of 0 passed to an insert operation means "assign
// a fresh id"; ids are never reused.
type NodeID int64

// EdgeID identifies an edge the same way NodeID identifies a node.
type EdgeID int64

// Direction selects which side of an edge to follow during traversal.
type Direction int

const (
	// Outgoing follows edges where the node is the source.
	Outgoing Direction = iota
	// Incoming follows edges where the node is the target.
	Incoming
)

// String renders the direction for logs and error messages.
func (d Direction) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// Node is an entity in the labeled, directed, typed multigraph.
//
// Kind and Name must be non-empty after trimming whitespace; Data, when
// non-nil, must serialize to valid JSON. FilePath is optional. The
// adjacency counters are engine-managed and ignored by callers
// constructing a Node for insertion.
type Node struct {
	ID       NodeID
	Kind     string
	Name     string
	FilePath string
	Data     json.RawMessage

	// OutgoingCount/IncomingCount are populated by GetNode on both engines
	// (native from its stored counters, relational from NodeDegree);
	// callers inserting a node should leave them zero.
	OutgoingCount uint32
	IncomingCount uint32
}

// Validate checks the node invariants that must hold before an insert is
// attempted (spec §3: "kind and name non-empty after trimming").
func (n *Node) Validate() error {
	if strings.TrimSpace(n.Kind) == "" {
		return newError(KindInvalidInput, "node kind must not be empty")
	}
	if strings.TrimSpace(n.Name) == "" {
		return newError(KindInvalidInput, "node name must not be empty")
	}
	if len(n.Data) > 0 && !json.Valid(n.Data) {
		return newError(KindInvalidInput, "node data must be valid JSON")
	}
	return nil
}

// Edge connects two existing nodes with a typed, directed relationship.
// Self-loops (From == To) are permitted by the native engine and rejected
// by the relational engine (spec §9, Open Question — self-loop policy is
// pinned per engine).
type Edge struct {
	ID       EdgeID
	From     NodeID
	To       NodeID
	EdgeType string
	Data     json.RawMessage
}

// Validate checks the edge invariants independent of endpoint existence,
// which can only be checked against a specific engine.
func (e *Edge) Validate() error {
	if strings.TrimSpace(e.EdgeType) == "" {
		return newError(KindInvalidInput, "edge_type must not be empty")
	}
	if e.From <= 0 || e.To <= 0 {
		return newError(KindInvalidInput, "edge endpoints must be positive node ids")
	}
	if len(e.Data) > 0 && !json.Valid(e.Data) {
		return newError(KindInvalidInput, "edge data must be valid JSON")
	}
	return nil
}

// NeighborQuery narrows a neighbor/pattern lookup to a direction and,
// optionally, a single edge type.
type NeighborQuery struct {
	Direction Direction
	EdgeType  string // empty means "any type"
}

// Step is one hop of a chain_query: a direction plus an optional edge type
// restriction, applied to the current traversal frontier.
type Step struct {
	Direction Direction
	EdgeType  string // empty means "any type"
}

// Triple is an edge viewed as (start, edge_id, end) after direction
// normalization — with Direction Incoming the matcher swaps raw from/to so
// Start is always the iterator's logical origin (spec §4.11).
type Triple struct {
	Start  NodeID
	EdgeID EdgeID
	End    NodeID
}

// Pattern is a single-hop triple pattern with optional label and property
// predicates on both endpoints (spec §4.11-§4.12).
type Pattern struct {
	StartLabel string // empty means "no label filter"
	EdgeType   string // required
	EndLabel   string // empty means "no label filter"

	StartProps map[string]string
	EndProps   map[string]string

	Direction Direction
}

// Validate mirrors original_source/sqlitegraph's PatternTriple::validate:
// the edge type is the only mandatory field.
func (p *Pattern) Validate() error {
	if strings.TrimSpace(p.EdgeType) == "" {
		return newError(KindInvalidInput, "pattern edge_type is required")
	}
	return nil
}

// HasLabelPredicate reports whether either endpoint carries a label filter.
func (p *Pattern) HasLabelPredicate() bool {
	return p.StartLabel != "" || p.EndLabel != ""
}

// HasPropertyPredicate reports whether either endpoint carries property
// filters.
func (p *Pattern) HasPropertyPredicate() bool {
	return len(p.StartProps) > 0 || len(p.EndProps) > 0
}

// Eligible reports whether the pattern qualifies for the cache-assisted
// fast path: an edge type with no label or property predicates at all
// (spec §4.12).
func (p *Pattern) Eligible() bool {
	return !p.HasLabelPredicate() && !p.HasPropertyPredicate()
}

// Metrics is a point-in-time snapshot of engine activity counters,
// restored from original_source/sqlitegraph's graph/metrics.rs and exposed
// by the CLI `metrics` command and the Prometheus registry.
type Metrics struct {
	NodesInserted     uint64
	EdgesInserted     uint64
	TraversalsRun     uint64
	PatternQueriesRun uint64
	CacheHits         uint64
	CacheMisses       uint64
	SampledAt         time.Time
}

// CacheHitRatio returns the fraction of cache lookups that hit, or 0 when
// no lookups have been recorded.
func (m Metrics) CacheHitRatio() float64 {
	total := m.CacheHits + m.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(m.CacheHits) / float64(total)
}
