// Package routegraph is a directed weighted graph with dense integer
// vertex and edge ids, plus a precomputed all-pairs shortest-path table.
// The router compiler (internal/transitrouter) assigns its own vertex
// numbering up front and never needs to look a vertex up by name, so
// vertices are plain indices, not keyed entities.
package routegraph

// VertexID is a dense vertex index in [0, V).
type VertexID int

// EdgeID is a dense edge index, the order edges were added in.
type EdgeID int

// Edge is one directed, weighted connection between two vertices.
type Edge struct {
	From, To VertexID
	Weight   float64
}

// Graph is a directed weighted graph over a fixed vertex count, built by
// repeated AddEdge calls.
type Graph struct {
	vertexCount int
	edges       []Edge
	incidence   [][]EdgeID // incidence[v] = outgoing edge ids from v
}

// NewGraph returns an empty graph over vertexCount vertices (ids 0..vertexCount-1).
func NewGraph(vertexCount int) *Graph {
	return &Graph{
		vertexCount: vertexCount,
		incidence:   make([][]EdgeID, vertexCount),
	}
}

// VertexCount reports how many vertices the graph was built over.
func (g *Graph) VertexCount() int { return g.vertexCount }

// AddEdge appends a new directed edge and returns its dense id.
func (g *Graph) AddEdge(from, to VertexID, weight float64) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{From: from, To: to, Weight: weight})
	g.incidence[from] = append(g.incidence[from], id)
	return id
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id EdgeID) Edge { return g.edges[id] }

// EdgeCount reports how many edges have been added.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutgoingEdges returns the ids of every edge leaving v, in the order
// they were added.
func (g *Graph) OutgoingEdges(v VertexID) []EdgeID { return g.incidence[v] }

// Edges returns every edge in insertion (dense-id) order, for a snapshot
// writer to persist.
func (g *Graph) Edges() []Edge { return g.edges }

// NewGraphFromEdges rebuilds a graph by replaying edges through AddEdge
// in order, so the resulting dense edge ids and incidence lists are
// identical to the graph that produced the slice. Used by a snapshot
// reader: per the snapshot format, a persisted graph is rebuilt from its
// recorded edges, never reconstructed by re-running the compiler.
func NewGraphFromEdges(vertexCount int, edges []Edge) *Graph {
	g := NewGraph(vertexCount)
	for _, e := range edges {
		g.AddEdge(e.From, e.To, e.Weight)
	}
	return g
}
