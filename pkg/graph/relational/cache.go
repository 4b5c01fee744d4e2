package relational

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// adjacencyCache is an LRU cache of per-(node, direction, edge_type)
// neighbor lists, grounded on straga-Mimir_lite/nornicdb's
// pkg/cache/query_cache.go container/list LRU — replacing its hash/fnv key
// hashing with xxhash, the hasher the rest of this corpus (and go.mod)
// actually standardizes on.
type adjacencyCache struct {
	mu       sync.Mutex
	capacity int
	items    map[uint64]*list.Element
	order    *list.List

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key       uint64
	neighbors []graph.NodeID
}

func newAdjacencyCache(capacity int) *adjacencyCache {
	return &adjacencyCache{
		capacity: capacity,
		items:    make(map[uint64]*list.Element, capacity),
		order:    list.New(),
	}
}

func cacheKey(node graph.NodeID, dir graph.Direction, edgeType string) uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%d|%d|%s", node, dir, edgeType)
	return h.Sum64()
}

func (c *adjacencyCache) get(node graph.NodeID, dir graph.Direction, edgeType string) ([]graph.NodeID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(node, dir, edgeType)
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*cacheEntry).neighbors, true
}

func (c *adjacencyCache) put(node graph.NodeID, dir graph.Direction, edgeType string, neighbors []graph.NodeID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(node, dir, edgeType)
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).neighbors = neighbors
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: key, neighbors: neighbors})
	c.items[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// invalidate drops every cached entry. Bulk writes and single writes both
// call this rather than attempting surgical invalidation, since adjacency
// changes can affect both endpoints' direction-specific lists (spec §4.13:
// "after any write... the engine rebuilds the maps").
func (c *adjacencyCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[uint64]*list.Element, c.capacity)
	c.order.Init()
}

func (c *adjacencyCache) stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
