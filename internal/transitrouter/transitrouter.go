// Package transitrouter compiles a catalogue into a routegraph.Graph and
// answers itinerary queries over it: enter/exit vertex pairs per stop, a
// mandatory wait edge between them, and ride edges along each bus's stop
// sequence.
package transitrouter

import (
	"fmt"

	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/routegraph"
)

// Context carries the two tunables the graph compiler needs: how long a
// rider waits to board at any stop, and how fast a bus travels.
type Context struct {
	BusWaitTimeMinutes float64
	BusVelocityKmh     float64
}

// EdgeKind distinguishes a mandatory wait-to-board edge from a bus-ride
// edge. Exported so internal/snapshot can describe edges it persists
// and reloads without reaching into this package's internals.
type EdgeKind int

const (
	EdgeTransfer EdgeKind = iota
	EdgeStage
)

// EdgeDescriptor recovers the semantic meaning of one graph edge: which
// stop a Transfer edge waits at, or which bus/span/stop-pair a Stage
// edge rides.
type EdgeDescriptor struct {
	Kind      EdgeKind
	Stop      string // Transfer
	FromStop  string // Stage
	ToStop    string
	Bus       string
	SpanCount int
}

// Router answers from/to itinerary queries over a compiled catalogue.
type Router struct {
	ctx         Context
	graph       *routegraph.Graph
	routerTable *routegraph.Router
	stopToEnter map[string]routegraph.VertexID
	stopToExit  map[string]routegraph.VertexID
	edgeDescs   map[routegraph.EdgeID]EdgeDescriptor
}

// FromComponents assembles a Router directly from its parts, bypassing
// Build's graph-compilation step. internal/snapshot uses this to
// reconstruct a Router from a loaded snapshot: per the snapshot format,
// a persisted graph is rebuilt from its recorded edges and shortest-path
// table, never recompiled from the catalogue.
func FromComponents(
	ctx Context,
	g *routegraph.Graph,
	table *routegraph.Router,
	stopToEnter, stopToExit map[string]routegraph.VertexID,
	edgeDescs map[routegraph.EdgeID]EdgeDescriptor,
) *Router {
	return &Router{
		ctx:         ctx,
		graph:       g,
		routerTable: table,
		stopToEnter: stopToEnter,
		stopToExit:  stopToExit,
		edgeDescs:   edgeDescs,
	}
}

// Context reports the routing tunables the Router was built or loaded with.
func (r *Router) Context() Context { return r.ctx }

// Graph exposes the compiled graph, for a snapshot writer to persist.
func (r *Router) Graph() *routegraph.Graph { return r.graph }

// Table exposes the precomputed all-pairs shortest-path table, for a
// snapshot writer to persist.
func (r *Router) Table() *routegraph.Router { return r.routerTable }

// StopToEnter returns the stop-name-to-enter-vertex assignment.
func (r *Router) StopToEnter() map[string]routegraph.VertexID { return r.stopToEnter }

// StopToExit returns the stop-name-to-exit-vertex assignment.
func (r *Router) StopToExit() map[string]routegraph.VertexID { return r.stopToExit }

// EdgeDescriptors returns the edge-id-keyed descriptor table.
func (r *Router) EdgeDescriptors() map[routegraph.EdgeID]EdgeDescriptor { return r.edgeDescs }

// Build compiles cat into a Router under ctx. Stops are assigned vertex
// pairs in the catalogue's deterministic name order.
func Build(cat *catalogue.Catalogue, ctx Context) *Router {
	stopNames := cat.StopNames()

	stopToEnter := make(map[string]routegraph.VertexID, len(stopNames))
	stopToExit := make(map[string]routegraph.VertexID, len(stopNames))
	nextVertex := 0
	for _, name := range stopNames {
		stopToEnter[name] = routegraph.VertexID(nextVertex)
		stopToExit[name] = routegraph.VertexID(nextVertex + 1)
		nextVertex += 2
	}

	g := routegraph.NewGraph(nextVertex)
	edgeDescs := make(map[routegraph.EdgeID]EdgeDescriptor)

	for _, name := range stopNames {
		id := g.AddEdge(stopToEnter[name], stopToExit[name], ctx.BusWaitTimeMinutes)
		edgeDescs[id] = EdgeDescriptor{Kind: EdgeTransfer, Stop: name, SpanCount: 1}
	}

	metersPerMinute := ctx.BusVelocityKmh * 1000 / 60

	for _, busName := range cat.BusNames() {
		bus := cat.GetBus(busName)
		n := len(bus.Stops)
		if n < 2 {
			continue
		}

		fwdPrefix := make([]float64, n)
		for k := 0; k+1 < n; k++ {
			road, _ := cat.NeighborDistance(bus.Stops[k], bus.Stops[k+1])
			fwdPrefix[k+1] = fwdPrefix[k] + road
		}

		var revPrefix []float64
		if bus.Type == catalogue.BusLinear {
			revPrefix = make([]float64, n)
			for k := n - 1; k > 0; k-- {
				road, _ := cat.NeighborDistance(bus.Stops[k], bus.Stops[k-1])
				revPrefix[k-1] = revPrefix[k] + road
			}
		}

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				fwd := fwdPrefix[j] - fwdPrefix[i]
				id := g.AddEdge(stopToExit[bus.Stops[i]], stopToEnter[bus.Stops[j]], fwd/metersPerMinute)
				edgeDescs[id] = EdgeDescriptor{
					Kind: EdgeStage, FromStop: bus.Stops[i], ToStop: bus.Stops[j],
					Bus: busName, SpanCount: j - i,
				}

				if bus.Type == catalogue.BusLinear {
					rev := revPrefix[i] - revPrefix[j]
					revID := g.AddEdge(stopToExit[bus.Stops[j]], stopToEnter[bus.Stops[i]], rev/metersPerMinute)
					edgeDescs[revID] = EdgeDescriptor{
						Kind: EdgeStage, FromStop: bus.Stops[j], ToStop: bus.Stops[i],
						Bus: busName, SpanCount: j - i,
					}
				}
			}
		}
	}

	return &Router{
		ctx:         ctx,
		graph:       g,
		routerTable: routegraph.NewRouter(g),
		stopToEnter: stopToEnter,
		stopToExit:  stopToExit,
		edgeDescs:   edgeDescs,
	}
}

// EventKind distinguishes a wait-to-board event from a ride-on-a-bus event.
type EventKind int

const (
	EventWait EventKind = iota
	EventRide
)

// Event is one leg of an itinerary.
type Event struct {
	Kind      EventKind
	Stop      string // Wait
	Bus       string // Ride
	SpanCount int    // Ride: number of stops traveled
	Time      float64
}

// Result is a complete itinerary.
type Result struct {
	TotalTime float64
	Events    []Event
}

// Route answers a from/to itinerary query. It returns false if either
// stop is unknown to the compiled graph or no path connects them.
func (r *Router) Route(from, to string) (Result, bool) {
	src, ok := r.stopToEnter[from]
	if !ok {
		return Result{}, false
	}
	dst, ok := r.stopToEnter[to]
	if !ok {
		return Result{}, false
	}

	total, edgeIDs, ok := r.routerTable.BuildRoute(src, dst)
	if !ok {
		return Result{}, false
	}

	events := make([]Event, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		desc, ok := r.edgeDescs[id]
		if !ok {
			panic(fmt.Sprintf("transitrouter: edge %d has no descriptor", id))
		}
		weight := r.graph.Edge(id).Weight
		switch desc.Kind {
		case EdgeTransfer:
			events = append(events, Event{Kind: EventWait, Stop: desc.Stop, Time: weight})
		case EdgeStage:
			events = append(events, Event{Kind: EventRide, Bus: desc.Bus, SpanCount: desc.SpanCount, Time: weight})
		}
	}

	return Result{TotalTime: total, Events: events}, true
}
