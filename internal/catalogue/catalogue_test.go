package catalogue

import (
	"math"
	"testing"

	"github.com/yourorg/transitcat/internal/geo"
)

func TestAddStopCreatesThenGetStopFindsIt(t *testing.T) {
	c := New()
	err := c.AddStop(StopDescriptor{
		Type:   StopOrdinary,
		Name:   "Tolstopaltsevo",
		Coords: geo.Point{Lat: 55.611087, Lng: 37.20829},
	})
	if err != nil {
		t.Fatalf("AddStop: %v", err)
	}
	got := c.GetStop("Tolstopaltsevo")
	if got.Type != StopOrdinary || got.Coords.Lat != 55.611087 {
		t.Fatalf("GetStop = %+v", got)
	}
}

func TestGetStopUnknownReturnsUndefinedSentinel(t *testing.T) {
	c := New()
	got := c.GetStop("Nowhere")
	if got.Type != StopUndefined {
		t.Fatalf("expected StopUndefined, got %v", got.Type)
	}
	if got.Coords.Lat != undefinedCoord || got.Coords.Lng != undefinedCoord {
		t.Fatalf("expected sentinel coordinates, got %+v", got.Coords)
	}
}

func TestAddBusAutoCreatesPlaceholderStops(t *testing.T) {
	c := New()
	c.AddBus(BusDescriptor{Type: BusLinear, Name: "256", Stops: []string{"A", "B"}})

	a := c.GetStop("A")
	if a.Type != StopUndefined {
		t.Fatalf("expected placeholder stop A, got %v", a.Type)
	}
	if len(a.BusesAtStop) != 1 || a.BusesAtStop[0] != "256" {
		t.Fatalf("expected stop A to list bus 256, got %v", a.BusesAtStop)
	}
}

func TestAddStopUpgradesPlaceholderInPlace(t *testing.T) {
	c := New()
	c.AddBus(BusDescriptor{Type: BusLinear, Name: "256", Stops: []string{"A", "B"}})

	if err := c.AddStop(StopDescriptor{
		Type:   StopOrdinary,
		Name:   "A",
		Coords: geo.Point{Lat: 55.611087, Lng: 37.20829},
	}); err != nil {
		t.Fatalf("AddStop: %v", err)
	}

	a := c.GetStop("A")
	if a.Type != StopOrdinary {
		t.Fatalf("expected upgraded stop, got %v", a.Type)
	}
	if len(a.BusesAtStop) != 1 || a.BusesAtStop[0] != "256" {
		t.Fatalf("upgrade should preserve registered buses, got %v", a.BusesAtStop)
	}
}

func TestAddStopReAddDoesNotOverwrite(t *testing.T) {
	c := New()
	first := StopDescriptor{Type: StopOrdinary, Name: "A", Coords: geo.Point{Lat: 1, Lng: 1}}
	second := StopDescriptor{Type: StopOrdinary, Name: "A", Coords: geo.Point{Lat: 2, Lng: 2}}
	if err := c.AddStop(first); err != nil {
		t.Fatalf("AddStop first: %v", err)
	}
	if err := c.AddStop(second); err != nil {
		t.Fatalf("AddStop second: %v", err)
	}
	got := c.GetStop("A")
	if got.Coords.Lat != 1 {
		t.Fatalf("re-add overwrote existing stop: %+v", got.Coords)
	}
}

func TestAddStopRejectsInvalidCoordinates(t *testing.T) {
	c := New()
	err := c.AddStop(StopDescriptor{Type: StopOrdinary, Name: "Bad", Coords: geo.Point{Lat: 999, Lng: 0}})
	if err == nil {
		t.Fatalf("expected an error for an out-of-range latitude")
	}
}

func TestAddBusNoOpOnExisting(t *testing.T) {
	c := New()
	c.AddBus(BusDescriptor{Type: BusLinear, Name: "256", Stops: []string{"A", "B"}})
	c.AddBus(BusDescriptor{Type: BusCircular, Name: "256", Stops: []string{"X", "Y", "Z", "X"}})

	got := c.GetBus("256")
	if got.Type != BusLinear || len(got.Stops) != 2 {
		t.Fatalf("second AddBus should have been a no-op, got %+v", got)
	}
}

func TestNeighborDistanceFallsBackToReverseThenGeodesic(t *testing.T) {
	c := New()
	a := StopDescriptor{Type: StopOrdinary, Name: "A", Coords: geo.Point{Lat: 55.611087, Lng: 37.20829}}
	b := StopDescriptor{Type: StopOrdinary, Name: "B", Coords: geo.Point{Lat: 55.595884, Lng: 37.209755}}
	a.DistanceToStop = map[string]float64{"B": 3900}
	if err := c.AddStop(a); err != nil {
		t.Fatalf("AddStop a: %v", err)
	}
	if err := c.AddStop(b); err != nil {
		t.Fatalf("AddStop b: %v", err)
	}

	road, _ := c.NeighborDistance("A", "B")
	if road != 3900 {
		t.Fatalf("forward declared distance = %v, want 3900", road)
	}

	road, geodesicDist := c.NeighborDistance("B", "A")
	if road != 3900 {
		t.Fatalf("reverse fallback distance = %v, want 3900", road)
	}
	if geodesicDist <= 0 {
		t.Fatalf("geodesic distance should be positive for distinct stops")
	}

	// An undeclared pair falls back to the geodesic distance on both legs.
	c2 := New()
	if err := c2.AddStop(StopDescriptor{Type: StopOrdinary, Name: "C", Coords: geo.Point{Lat: 0, Lng: 0}}); err != nil {
		t.Fatalf("AddStop: %v", err)
	}
	if err := c2.AddStop(StopDescriptor{Type: StopOrdinary, Name: "D", Coords: geo.Point{Lat: 1, Lng: 1}}); err != nil {
		t.Fatalf("AddStop: %v", err)
	}
	road, geodesicDist = c2.NeighborDistance("C", "D")
	if road != geodesicDist {
		t.Fatalf("undeclared pair should have road == geodesic, got road=%v geodesic=%v", road, geodesicDist)
	}
}

func TestNeighborDistanceSameStopIsZeroGeodesic(t *testing.T) {
	c := New()
	if err := c.AddStop(StopDescriptor{Type: StopOrdinary, Name: "A", Coords: geo.Point{Lat: 1, Lng: 1}}); err != nil {
		t.Fatalf("AddStop: %v", err)
	}
	_, geodesicDist := c.NeighborDistance("A", "A")
	if geodesicDist != 0 {
		t.Fatalf("geodesic(A, A) = %v, want 0", geodesicDist)
	}
}

// TestBusMetricsLinearBus: two-stop linear bus, 3900m declared one way,
// counted in both directions.
func TestBusMetricsLinearBus(t *testing.T) {
	c := New()
	a := StopDescriptor{
		Type: StopOrdinary, Name: "A", Coords: geo.Point{Lat: 55.611087, Lng: 37.20829},
		DistanceToStop: map[string]float64{"B": 3900},
	}
	b := StopDescriptor{Type: StopOrdinary, Name: "B", Coords: geo.Point{Lat: 55.595884, Lng: 37.209755}}
	if err := c.AddStop(a); err != nil {
		t.Fatalf("AddStop: %v", err)
	}
	if err := c.AddStop(b); err != nil {
		t.Fatalf("AddStop: %v", err)
	}
	c.AddBus(BusDescriptor{Type: BusLinear, Name: "256", Stops: []string{"A", "B"}})

	m, ok := c.BusMetrics("256")
	if !ok {
		t.Fatalf("expected bus 256 to be found")
	}
	if m.StopCount != 3 {
		t.Fatalf("stop_count = %d, want 3", m.StopCount)
	}
	if m.UniqueStopCount != 2 {
		t.Fatalf("unique_stop_count = %d, want 2", m.UniqueStopCount)
	}
	if m.RouteLength != 7800 {
		t.Fatalf("route_length = %v, want 7800", m.RouteLength)
	}
	if m.Curvature < 1-1e-9 {
		t.Fatalf("curvature should be >= 1 within tolerance, got %v", m.Curvature)
	}
}

// TestBusMetricsCircularBus: A,B,C,A with symmetric 600m hops.
func TestBusMetricsCircularBus(t *testing.T) {
	c := New()
	pts := map[string]geo.Point{
		"A": {Lat: 0, Lng: 0},
		"B": {Lat: 0, Lng: 0.01},
		"C": {Lat: 0.01, Lng: 0.01},
	}
	add := func(name string, to string, d float64) {
		desc := StopDescriptor{Type: StopOrdinary, Name: name, Coords: pts[name]}
		if to != "" {
			desc.DistanceToStop = map[string]float64{to: d}
		}
		if err := c.AddStop(desc); err != nil {
			t.Fatalf("AddStop %s: %v", name, err)
		}
	}
	add("A", "B", 600)
	add("B", "C", 600)
	add("C", "A", 600)

	c.AddBus(BusDescriptor{Type: BusCircular, Name: "297", Stops: []string{"A", "B", "C", "A"}})

	m, ok := c.BusMetrics("297")
	if !ok {
		t.Fatalf("expected bus 297 to be found")
	}
	if m.StopCount != 4 {
		t.Fatalf("stop_count = %d, want 4", m.StopCount)
	}
	if m.UniqueStopCount != 3 {
		t.Fatalf("unique_stop_count = %d, want 3", m.UniqueStopCount)
	}
	if m.RouteLength != 1800 {
		t.Fatalf("route_length = %v, want 1800", m.RouteLength)
	}
}

func TestCommonMetric(t *testing.T) {
	c := New()
	c.AddBus(BusDescriptor{Type: BusLinear, Name: "256", Stops: []string{"A", "B"}})
	m := c.CommonMetric()
	if m.StopCount != 2 || m.BusCount != 1 {
		t.Fatalf("CommonMetric = %+v", m)
	}
}

func TestAllStopsAndBusesAreSorted(t *testing.T) {
	c := New()
	c.AddBus(BusDescriptor{Type: BusLinear, Name: "zzz", Stops: []string{"Zebra", "Apple"}})
	c.AddBus(BusDescriptor{Type: BusLinear, Name: "aaa", Stops: []string{"Apple"}})

	stops := c.AllStops()
	if stops[0].Name != "Apple" || stops[1].Name != "Zebra" {
		t.Fatalf("AllStops not sorted: %+v", stops)
	}
	buses := c.AllBuses()
	if buses[0].Name != "aaa" || buses[1].Name != "zzz" {
		t.Fatalf("AllBuses not sorted: %+v", buses)
	}
}

func TestUndefinedCoordIsSmallestPositiveFloat(t *testing.T) {
	if undefinedCoord != math.SmallestNonzeroFloat64 {
		t.Fatalf("undefinedCoord sentinel changed unexpectedly")
	}
}
