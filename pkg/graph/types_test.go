package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr bool
	}{
		{"valid", Node{Kind: "function", Name: "main"}, false},
		{"empty kind", Node{Kind: "  ", Name: "main"}, true},
		{"empty name", Node{Kind: "function", Name: ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, Is(err, KindInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEdgeValidate(t *testing.T) {
	tests := []struct {
		name    string
		edge    Edge
		wantErr bool
	}{
		{"valid", Edge{From: 1, To: 2, EdgeType: "calls"}, false},
		{"empty type", Edge{From: 1, To: 2, EdgeType: ""}, true},
		{"zero from", Edge{From: 0, To: 2, EdgeType: "calls"}, true},
		{"zero to", Edge{From: 1, To: 0, EdgeType: "calls"}, true},
		{"invalid data", Edge{From: 1, To: 2, EdgeType: "calls", Data: []byte("{not json")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edge.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPatternValidate(t *testing.T) {
	assert.Error(t, (&Pattern{}).Validate())
	assert.NoError(t, (&Pattern{EdgeType: "calls"}).Validate())
}

func TestMetricsCacheHitRatio(t *testing.T) {
	m := Metrics{CacheHits: 3, CacheMisses: 1}
	assert.Equal(t, 0.75, m.CacheHitRatio())

	empty := Metrics{}
	assert.Equal(t, float64(0), empty.CacheHitRatio())
}

func TestCountersSnapshotAndReset(t *testing.T) {
	var c Counters
	c.IncNodesInserted()
	c.IncNodesInserted()
	c.IncCacheHit()

	now := func() time.Time { return time.Unix(0, 0) }
	snap := c.Snapshot(now)
	assert.Equal(t, uint64(2), snap.NodesInserted)
	assert.Equal(t, uint64(1), snap.CacheHits)

	c.Reset()
	snap = c.Snapshot(now)
	assert.Equal(t, uint64(0), snap.NodesInserted)
	assert.Equal(t, uint64(0), snap.CacheHits)
}
