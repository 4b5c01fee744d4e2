// Package snapshot implements the MVCC-lite point-in-time isolation layer
// (spec §4.13): an atomic pointer over immutable, fully-cloned adjacency
// maps, restored from original_source/sqlitegraph/src/mvcc.rs's
// SnapshotState/SnapshotManager (ArcSwap<SnapshotState> in the original;
// Go's closest equivalent with the same lock-free swap semantics is
// atomic.Pointer[T]).
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// State is a fully cloned, immutable view of the graph's adjacency shape
// at one instant. Every read method is safe to call concurrently with
// writes to the owning Manager; they can only ever observe this frozen
// copy.
type State struct {
	outgoing  map[graph.NodeID][]graph.NodeID
	incoming  map[graph.NodeID][]graph.NodeID
	createdAt time.Time
}

// NewState deep-clones outgoing and incoming into a new immutable State.
func NewState(outgoing, incoming map[graph.NodeID][]graph.NodeID, now time.Time) *State {
	s := &State{
		outgoing:  make(map[graph.NodeID][]graph.NodeID, len(outgoing)),
		incoming:  make(map[graph.NodeID][]graph.NodeID, len(incoming)),
		createdAt: now,
	}
	for k, v := range outgoing {
		cp := make([]graph.NodeID, len(v))
		copy(cp, v)
		s.outgoing[k] = cp
	}
	for k, v := range incoming {
		cp := make([]graph.NodeID, len(v))
		copy(cp, v)
		s.incoming[k] = cp
	}
	return s
}

func (s *State) NodeCount() int { return len(s.outgoing) }

func (s *State) EdgeCount() int {
	total := 0
	for _, v := range s.outgoing {
		total += len(v)
	}
	return total
}

func (s *State) ContainsNode(id graph.NodeID) bool {
	_, ok := s.outgoing[id]
	return ok
}

func (s *State) OutgoingNeighbors(id graph.NodeID) []graph.NodeID { return s.outgoing[id] }
func (s *State) IncomingNeighbors(id graph.NodeID) []graph.NodeID { return s.incoming[id] }
func (s *State) CreatedAt() time.Time                             { return s.createdAt }

// Manager holds a single atomic pointer to the current State, swapped
// after every write (single or bulk) per spec §4.13. Readers call
// Acquire, which returns whatever State is currently published; they never
// block a concurrent Swap and never observe a state mutating under them.
type Manager struct {
	current atomic.Pointer[State]
}

// NewManager creates a Manager with no published state; Acquire returns nil
// until the first Swap.
func NewManager() *Manager { return &Manager{} }

// Acquire publishes the current snapshot pointer for the caller to read
// from.
func (m *Manager) Acquire() *State { return m.current.Load() }

// Swap atomically replaces the published snapshot with next.
func (m *Manager) Swap(next *State) { m.current.Store(next) }
