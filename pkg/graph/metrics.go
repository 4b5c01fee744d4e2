package graph

import (
	"sync/atomic"
	"time"
)

// Counters is a concurrency-safe accumulator for the fields of Metrics.
// Engines hold one Counters and produce a Metrics snapshot on demand
// (spec §4.13 companion: "metrics" is sampled, not pushed).
type Counters struct {
	nodesInserted     atomic.Uint64
	edgesInserted     atomic.Uint64
	traversalsRun     atomic.Uint64
	patternQueriesRun atomic.Uint64
	cacheHits         atomic.Uint64
	cacheMisses       atomic.Uint64
}

func (c *Counters) IncNodesInserted()     { c.nodesInserted.Add(1) }
func (c *Counters) IncEdgesInserted()     { c.edgesInserted.Add(1) }
func (c *Counters) IncTraversalsRun()     { c.traversalsRun.Add(1) }
func (c *Counters) IncPatternQueriesRun() { c.patternQueriesRun.Add(1) }
func (c *Counters) IncCacheHit()          { c.cacheHits.Add(1) }
func (c *Counters) IncCacheMiss()         { c.cacheMisses.Add(1) }

// Reset zeroes every counter, backing the CLI's `metrics --reset-metrics`.
func (c *Counters) Reset() {
	c.nodesInserted.Store(0)
	c.edgesInserted.Store(0)
	c.traversalsRun.Store(0)
	c.patternQueriesRun.Store(0)
	c.cacheHits.Store(0)
	c.cacheMisses.Store(0)
}

// Snapshot renders the current counter values as an immutable Metrics value
// stamped with now.
func (c *Counters) Snapshot(now func() time.Time) Metrics {
	return Metrics{
		NodesInserted:     c.nodesInserted.Load(),
		EdgesInserted:     c.edgesInserted.Load(),
		TraversalsRun:     c.traversalsRun.Load(),
		PatternQueriesRun: c.patternQueriesRun.Load(),
		CacheHits:         c.cacheHits.Load(),
		CacheMisses:       c.cacheMisses.Load(),
		SampledAt:         now(),
	}
}
