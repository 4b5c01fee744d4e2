package dump

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlitegraph/graphdb/pkg/graph"
)

type fakeStore struct {
	nodes []NodeLine
	edges []EdgeLine
	labels []LabelLine
	props []PropertyLine

	cleared bool
}

func (f *fakeStore) DumpNodes() ([]NodeLine, error)         { return f.nodes, nil }
func (f *fakeStore) DumpEdges() ([]EdgeLine, error)         { return f.edges, nil }
func (f *fakeStore) DumpLabels() ([]LabelLine, error)       { return f.labels, nil }
func (f *fakeStore) DumpProperties() ([]PropertyLine, error) { return f.props, nil }

func (f *fakeStore) RestoreClear() error {
	f.cleared = true
	f.nodes, f.edges, f.labels, f.props = nil, nil, nil, nil
	return nil
}
func (f *fakeStore) RestoreNode(n NodeLine) error     { f.nodes = append(f.nodes, n); return nil }
func (f *fakeStore) RestoreEdge(e EdgeLine) error     { f.edges = append(f.edges, e); return nil }
func (f *fakeStore) RestoreLabel(l LabelLine) error   { f.labels = append(f.labels, l); return nil }
func (f *fakeStore) RestoreProperty(p PropertyLine) error { f.props = append(f.props, p); return nil }

func TestDumpRestoreRoundTrip(t *testing.T) {
	src := &fakeStore{
		nodes: []NodeLine{{ID: 1, Kind: "function", Name: "main", Data: json.RawMessage(`{}`)}},
		edges: []EdgeLine{{ID: 1, From: 1, To: 2, EdgeType: "calls", Data: json.RawMessage(`{}`)}},
		labels: []LabelLine{{NodeID: 1, Label: "entrypoint"}},
		props: []PropertyLine{{NodeID: 1, Key: "visibility", Value: "public"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, src))

	dst := &fakeStore{}
	require.NoError(t, Restore(&buf, dst))

	assert.True(t, dst.cleared)
	require.Len(t, dst.nodes, 1)
	assert.Equal(t, graph.NodeID(1), dst.nodes[0].ID)
	require.Len(t, dst.edges, 1)
	assert.Equal(t, "calls", dst.edges[0].EdgeType)
	require.Len(t, dst.labels, 1)
	assert.Equal(t, "entrypoint", dst.labels[0].Label)
	require.Len(t, dst.props, 1)
	assert.Equal(t, "public", dst.props[0].Value)
}

func TestDumpOrdersEntityKindsBeforeEdgesBeforeLabelsBeforeProperties(t *testing.T) {
	src := &fakeStore{
		nodes:  []NodeLine{{ID: 1}},
		edges:  []EdgeLine{{ID: 1}},
		labels: []LabelLine{{NodeID: 1, Label: "x"}},
		props:  []PropertyLine{{NodeID: 1, Key: "k", Value: "v"}},
	}
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, src))

	decoder := json.NewDecoder(&buf)
	var kinds []string
	for {
		var l line
		if err := decoder.Decode(&l); err != nil {
			break
		}
		kinds = append(kinds, string(l.Kind))
	}
	assert.Equal(t, []string{"entity", "edge", "label", "property"}, kinds)
}

func TestRestoreUnknownKindErrors(t *testing.T) {
	r := bytes.NewBufferString(`{"type":"bogus","data":{}}` + "\n")
	dst := &fakeStore{}
	err := Restore(r, dst)
	assert.Error(t, err)
	assert.True(t, dst.cleared)
}

func TestRestoreMalformedLineErrors(t *testing.T) {
	r := bytes.NewBufferString("not json\n")
	dst := &fakeStore{}
	err := Restore(r, dst)
	assert.Error(t, err)
}
