package traversal

import (
	"sync"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

// frontierPool reuses the NodeID slices BFS/KHop allocate one per level,
// adapted from straga-Mimir_lite/nornicdb's pkg/pool sync.Pool idiom
// (GetNodeSlice/PutNodeSlice) but narrowed to the one shape this package
// actually needs: a []graph.NodeID scratch buffer, not a generic object
// pool for query rows, maps, or string builders.
var frontierPool = sync.Pool{
	New: func() any {
		s := make([]graph.NodeID, 0, 64)
		return &s
	},
}

func getFrontier() []graph.NodeID {
	p := frontierPool.Get().(*[]graph.NodeID)
	return (*p)[:0]
}

func putFrontier(s []graph.NodeID) {
	if cap(s) > 4096 {
		return
	}
	frontierPool.Put(&s)
}
