package routegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRouteDirectEdge(t *testing.T) {
	g := NewGraph(2)
	g.AddEdge(0, 1, 5)
	r := NewRouter(g)

	weight, edges, ok := r.BuildRoute(0, 1)
	require.True(t, ok)
	assert.Equal(t, 5.0, weight)
	assert.Equal(t, []EdgeID{0}, edges)
}

func TestBuildRouteThroughIntermediate(t *testing.T) {
	g := NewGraph(3)
	g.AddEdge(0, 1, 2) // edge 0
	g.AddEdge(1, 2, 3) // edge 1
	g.AddEdge(0, 2, 10) // edge 2, worse than going through 1
	r := NewRouter(g)

	weight, edges, ok := r.BuildRoute(0, 2)
	require.True(t, ok)
	assert.Equal(t, 5.0, weight)
	assert.Equal(t, []EdgeID{0, 1}, edges)
}

func TestBuildRouteNoPath(t *testing.T) {
	g := NewGraph(2)
	r := NewRouter(g)
	_, _, ok := r.BuildRoute(0, 1)
	assert.False(t, ok)
}

func TestBuildRouteSameVertexIsZeroWeightEmptyPath(t *testing.T) {
	g := NewGraph(2)
	g.AddEdge(0, 1, 7)
	r := NewRouter(g)
	weight, edges, ok := r.BuildRoute(0, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, weight)
	assert.Empty(t, edges)
}

func TestBuildRoutePrefersCheaperParallelEdge(t *testing.T) {
	g := NewGraph(2)
	g.AddEdge(0, 1, 10) // edge 0
	g.AddEdge(0, 1, 4)  // edge 1, cheaper
	r := NewRouter(g)

	weight, edges, ok := r.BuildRoute(0, 1)
	require.True(t, ok)
	assert.Equal(t, 4.0, weight)
	assert.Equal(t, []EdgeID{1}, edges)
}

func TestDeterministicTieBreakKeepsFirstFoundPath(t *testing.T) {
	g := NewGraph(3)
	g.AddEdge(0, 1, 3) // edge 0
	g.AddEdge(1, 2, 3) // edge 1, 0->1->2 costs 6
	g.AddEdge(0, 2, 6) // edge 2, same cost direct
	r := NewRouter(g)

	weight, edges, ok := r.BuildRoute(0, 2)
	require.True(t, ok)
	assert.Equal(t, 6.0, weight)
	// The direct edge is considered before the Floyd-Warshall sweep runs,
	// so it wins the tie deterministically.
	assert.Equal(t, []EdgeID{2}, edges)
}

func TestOutgoingEdgesPreservesAddOrder(t *testing.T) {
	g := NewGraph(2)
	a := g.AddEdge(0, 1, 1)
	b := g.AddEdge(0, 1, 2)
	assert.Equal(t, []EdgeID{a, b}, g.OutgoingEdges(0))
}
