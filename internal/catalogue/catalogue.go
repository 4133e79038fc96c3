// Package catalogue holds the in-memory registry of stops and buses that
// every downstream query (route building, map rendering, stat requests)
// is served from.
package catalogue

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourorg/transitcat/internal/geo"
	"github.com/yourorg/transitcat/internal/validation"
)

// StopType distinguishes a fully described stop from an auto-created
// placeholder.
type StopType int

const (
	StopUndefined StopType = iota
	StopOrdinary
)

// BusType distinguishes a linear (there-and-back) route from a circular
// (closed-loop) one.
type BusType int

const (
	BusUndefined BusType = iota
	BusLinear
	BusCircular
)

// undefinedCoord is the sentinel returned for an unknown stop's
// coordinates: the smallest positive representable value, which no real
// coordinate can hold.
const undefinedCoord = math.SmallestNonzeroFloat64

// StopDescriptor is the external, name-keyed view of a stop: what callers
// outside this package see and what AddStop accepts.
type StopDescriptor struct {
	Type           StopType
	Name           string
	Coords         geo.Point
	BusesAtStop    []string // sorted by name
	DistanceToStop map[string]float64
}

// BusDescriptor is the external view of a bus route.
type BusDescriptor struct {
	Type  BusType
	Name  string
	Stops []string
}

// CommonMetric is a coarse size summary of the catalogue.
type CommonMetric struct {
	StopCount int
	BusCount  int
}

type stopEntry struct {
	typ        StopType
	name       string
	coords     geo.Point
	busesAt    map[string]struct{}
	distanceTo map[string]float64
}

type busEntry struct {
	typ   BusType
	name  string
	stops []string
}

// Catalogue is the registry of stops and buses. The zero value is not
// usable; construct one with New.
type Catalogue struct {
	stops map[string]*stopEntry
	buses map[string]*busEntry
}

// New returns an empty Catalogue.
func New() *Catalogue {
	return &Catalogue{
		stops: make(map[string]*stopEntry),
		buses: make(map[string]*busEntry),
	}
}

func (c *Catalogue) makePlaceholderStop(name string) *stopEntry {
	s := &stopEntry{
		typ:        StopUndefined,
		name:       name,
		coords:     geo.Point{Lat: undefinedCoord, Lng: undefinedCoord},
		busesAt:    make(map[string]struct{}),
		distanceTo: make(map[string]float64),
	}
	c.stops[name] = s
	return s
}

// AddStop registers a stop. If a placeholder with this name already
// exists (auto-created earlier as someone else's neighbor or bus stop),
// it is upgraded in place: coordinates are set and distances are merged
// in, without disturbing the buses already recorded against it. If a
// fully defined stop with this name already exists, the call is a silent
// no-op — re-adding the same stop is idempotent, not an overwrite.
// Neighbors named in DistanceToStop that do not exist yet are themselves
// auto-created as placeholders.
func (c *Catalogue) AddStop(desc StopDescriptor) error {
	if desc.Type == StopOrdinary {
		if err := validation.ValidateCoordinatePair(desc.Coords.Lat, desc.Coords.Lng, desc.Name); err != nil {
			return fmt.Errorf("catalogue: add stop %q: %w", desc.Name, err)
		}
	}

	for neighbor := range desc.DistanceToStop {
		if _, ok := c.stops[neighbor]; !ok {
			c.makePlaceholderStop(neighbor)
		}
	}

	existing, ok := c.stops[desc.Name]
	if !ok {
		s := &stopEntry{
			typ:        desc.Type,
			name:       desc.Name,
			coords:     desc.Coords,
			busesAt:    make(map[string]struct{}),
			distanceTo: make(map[string]float64),
		}
		for neighbor, dist := range desc.DistanceToStop {
			s.distanceTo[neighbor] = dist
		}
		c.stops[desc.Name] = s
		return nil
	}

	if existing.typ != StopUndefined {
		return nil // already fully defined: idempotent re-add, do not overwrite
	}

	existing.typ = desc.Type
	existing.coords = desc.Coords
	for neighbor, dist := range desc.DistanceToStop {
		if _, already := existing.distanceTo[neighbor]; !already {
			existing.distanceTo[neighbor] = dist
		}
	}
	return nil
}

// AddBus registers a bus. If a bus with this name already exists, the
// call is a no-op. Otherwise each stop name is resolved (auto-creating a
// placeholder for any stop not yet seen), and the bus is recorded against
// every stop it visits.
func (c *Catalogue) AddBus(desc BusDescriptor) {
	if _, exists := c.buses[desc.Name]; exists {
		return
	}

	stops := make([]string, len(desc.Stops))
	copy(stops, desc.Stops)
	for _, name := range stops {
		if _, ok := c.stops[name]; !ok {
			c.makePlaceholderStop(name)
		}
	}

	c.buses[desc.Name] = &busEntry{typ: desc.Type, name: desc.Name, stops: stops}

	seen := make(map[string]bool, len(stops))
	for _, name := range stops {
		if seen[name] {
			continue
		}
		seen[name] = true
		c.stops[name].busesAt[desc.Name] = struct{}{}
	}
}

// GetBus returns the bus descriptor for name, or a descriptor with
// Type == BusUndefined if no such bus was ever added.
func (c *Catalogue) GetBus(name string) BusDescriptor {
	b, ok := c.buses[name]
	if !ok {
		return BusDescriptor{Type: BusUndefined, Name: name}
	}
	return c.busExternal(b)
}

// GetStop returns the stop descriptor for name, or a descriptor with
// Type == StopUndefined and sentinel coordinates if no such stop exists.
func (c *Catalogue) GetStop(name string) StopDescriptor {
	s, ok := c.stops[name]
	if !ok {
		return StopDescriptor{
			Type:   StopUndefined,
			Name:   name,
			Coords: geo.Point{Lat: undefinedCoord, Lng: undefinedCoord},
		}
	}
	return c.stopExternal(s)
}

// NeighborDistance returns (road, geodesic) between two stops. Geodesic
// is 0 when from == to. Road is the declared from->to distance if any,
// else the declared to->from distance, else it falls back to geodesic
// (so an undeclared pair has road == geodesic). Unknown stop names yield
// (0, 0).
func (c *Catalogue) NeighborDistance(from, to string) (road, geodesicDist float64) {
	fromStop, ok := c.stops[from]
	if !ok {
		return 0, 0
	}
	toStop, ok := c.stops[to]
	if !ok {
		return 0, 0
	}

	if from != to {
		geodesicDist = geo.Distance(fromStop.coords, toStop.coords)
	}

	if d, ok := fromStop.distanceTo[to]; ok {
		road = d
	} else if d, ok := toStop.distanceTo[from]; ok {
		road = d
	} else {
		road = geodesicDist
	}
	return road, geodesicDist
}

// CommonMetric reports how many stops and buses are registered.
func (c *Catalogue) CommonMetric() CommonMetric {
	return CommonMetric{StopCount: len(c.stops), BusCount: len(c.buses)}
}

// StopNames returns every registered stop name, sorted. Downstream
// components (the router compiler, the snapshot codec) rely on this
// order being stable to assign dense IDs deterministically.
func (c *Catalogue) StopNames() []string {
	names := make([]string, 0, len(c.stops))
	for name := range c.stops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BusNames returns every registered bus name, sorted.
func (c *Catalogue) BusNames() []string {
	names := make([]string, 0, len(c.buses))
	for name := range c.buses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllStops returns every stop descriptor in StopNames order.
func (c *Catalogue) AllStops() []StopDescriptor {
	names := c.StopNames()
	out := make([]StopDescriptor, len(names))
	for i, name := range names {
		out[i] = c.stopExternal(c.stops[name])
	}
	return out
}

// AllBuses returns every bus descriptor in BusNames order.
func (c *Catalogue) AllBuses() []BusDescriptor {
	names := c.BusNames()
	out := make([]BusDescriptor, len(names))
	for i, name := range names {
		out[i] = c.busExternal(c.buses[name])
	}
	return out
}

// RestoreStop creates a stop with only its scalar fields (type, name,
// coordinates) and empty bus/distance sets, bypassing AddStop's
// placeholder-upgrade and validation rules. Used by internal/snapshot to
// reconstruct a catalogue in two passes: every stop's scalar fields
// first (this call), then its cross-references (RestoreStopBuses/
// RestoreStopDistances) once every stop and bus by that name already
// exists.
func (c *Catalogue) RestoreStop(typ StopType, name string, coords geo.Point) {
	c.stops[name] = &stopEntry{
		typ:        typ,
		name:       name,
		coords:     coords,
		busesAt:    make(map[string]struct{}),
		distanceTo: make(map[string]float64),
	}
}

// RestoreStopDistances sets name's road-distance map verbatim, as
// recorded in a snapshot. Must run after every stop RestoreStop created.
func (c *Catalogue) RestoreStopDistances(name string, distanceTo map[string]float64) {
	c.stops[name].distanceTo = distanceTo
}

// RestoreStopBuses sets name's buses-at-stop set verbatim, as recorded in
// a snapshot (snapshots persist this set directly rather than recomputing
// it from every bus's stop list). Must run after every bus RestoreBus
// created.
func (c *Catalogue) RestoreStopBuses(name string, buses []string) {
	set := make(map[string]struct{}, len(buses))
	for _, b := range buses {
		set[b] = struct{}{}
	}
	c.stops[name].busesAt = set
}

// RestoreBus creates a bus with only its scalar fields and stop sequence,
// bypassing AddBus's existing-name no-op check and stop auto-creation.
// Used by internal/snapshot alongside RestoreStop for two-pass
// reconstruction.
func (c *Catalogue) RestoreBus(typ BusType, name string, stops []string) {
	c.buses[name] = &busEntry{typ: typ, name: name, stops: stops}
}

func (c *Catalogue) stopExternal(s *stopEntry) StopDescriptor {
	buses := make([]string, 0, len(s.busesAt))
	for name := range s.busesAt {
		buses = append(buses, name)
	}
	sort.Strings(buses)

	dist := make(map[string]float64, len(s.distanceTo))
	for k, v := range s.distanceTo {
		dist[k] = v
	}

	return StopDescriptor{
		Type:           s.typ,
		Name:           s.name,
		Coords:         s.coords,
		BusesAtStop:    buses,
		DistanceToStop: dist,
	}
}

func (c *Catalogue) busExternal(b *busEntry) BusDescriptor {
	stops := make([]string, len(b.stops))
	copy(stops, b.stops)
	return BusDescriptor{Type: b.typ, Name: b.name, Stops: stops}
}
