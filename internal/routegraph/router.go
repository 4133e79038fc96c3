package routegraph

import "math"

const noEdge = EdgeID(-1)

// NoEdge is the predecessor-edge sentinel for a same-vertex cell (zero
// weight, no edge traversed). Exposed for a snapshot writer, which must
// distinguish "no predecessor edge" from a real edge id 0.
const NoEdge = noEdge

// Router precomputes all-pairs shortest paths over a Graph at
// construction time, so that BuildRoute afterward costs only the length
// of the returned path. Weights are assumed non-negative.
//
// The table is filled with a Floyd-Warshall-style dynamic-programming
// sweep over an intermediate vertex k, producing the full all-pairs
// table in one O(V^3) pass. Each cell
// records the best known total weight and the id of the last edge on
// that best path, which doubles as the path's predecessor pointer: ties
// are broken deterministically by visiting intermediate vertices and
// direct edges in ascending id order and only ever replacing a cell on a
// strict improvement, so the first minimal-weight path found is the one
// kept.
type Router struct {
	g        *Graph
	dist     [][]float64
	predEdge [][]EdgeID
	reach    [][]bool
}

// NewRouter builds the all-pairs table for g.
func NewRouter(g *Graph) *Router {
	n := g.VertexCount()
	r := &Router{
		g:        g,
		dist:     make([][]float64, n),
		predEdge: make([][]EdgeID, n),
		reach:    make([][]bool, n),
	}
	for i := 0; i < n; i++ {
		r.dist[i] = make([]float64, n)
		r.predEdge[i] = make([]EdgeID, n)
		r.reach[i] = make([]bool, n)
		for j := 0; j < n; j++ {
			r.predEdge[i][j] = noEdge
			if i == j {
				r.reach[i][j] = true
			} else {
				r.dist[i][j] = math.Inf(1)
			}
		}
	}

	for id, e := range g.edges {
		if e.From == e.To {
			continue // a self-edge can never beat the built-in zero-weight identity path
		}
		if !r.reach[e.From][e.To] || e.Weight < r.dist[e.From][e.To] {
			r.dist[e.From][e.To] = e.Weight
			r.predEdge[e.From][e.To] = EdgeID(id)
			r.reach[e.From][e.To] = true
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !r.reach[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if !r.reach[k][j] {
					continue
				}
				candidate := r.dist[i][k] + r.dist[k][j]
				if !r.reach[i][j] || candidate < r.dist[i][j] {
					r.dist[i][j] = candidate
					r.predEdge[i][j] = r.predEdge[k][j]
					r.reach[i][j] = true
				}
			}
		}
	}

	return r
}

// VertexCount reports how many vertices the underlying graph has.
func (r *Router) VertexCount() int { return len(r.dist) }

// Cell returns the shortest-path table entry for (i, j): whether j is
// reachable from i, the best total weight if so, and the id of the last
// edge on that path (NoEdge for the trivial i == j case). A snapshot
// writer persists exactly these three values per cell.
func (r *Router) Cell(i, j VertexID) (reachable bool, weight float64, predEdge EdgeID) {
	return r.reach[i][j], r.dist[i][j], r.predEdge[i][j]
}

// NewRouterFromTable rebuilds a Router from a previously computed
// all-pairs table, without re-running the Floyd-Warshall sweep. Used by
// a snapshot reader: per the snapshot format, a persisted shortest-path
// table is loaded verbatim, not recomputed.
func NewRouterFromTable(g *Graph, dist [][]float64, predEdge [][]EdgeID, reach [][]bool) *Router {
	return &Router{g: g, dist: dist, predEdge: predEdge, reach: reach}
}

// BuildRoute returns the total weight and the ordered edge sequence of
// the best precomputed path from src to dst. ok is false if no path
// exists.
func (r *Router) BuildRoute(src, dst VertexID) (totalWeight float64, edges []EdgeID, ok bool) {
	if !r.reach[src][dst] {
		return 0, nil, false
	}
	if src == dst {
		return 0, nil, true
	}

	var rev []EdgeID
	cur := dst
	for cur != src {
		e := r.predEdge[src][cur]
		rev = append(rev, e)
		cur = r.g.edges[e].From
	}

	edges = make([]EdgeID, len(rev))
	for i, e := range rev {
		edges[len(rev)-1-i] = e
	}
	return r.dist[src][dst], edges, true
}
