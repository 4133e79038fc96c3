// Package gtfsimport maps a GTFS static feed (stops.txt, routes.txt,
// trips.txt, stop_times.txt) into the base_requests shape the request
// driver consumes, so a real-world feed can be converted into the
// catalogue's native JSON input before make_base runs. The JSON
// ingestion path is unchanged; this just gives it another upstream
// producer.
//
// Feed scanning is best-effort: a malformed CSV row or an unparseable
// coordinate skips that row rather than failing the whole feed.
package gtfsimport

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/geo"
	"github.com/yourorg/transitcat/internal/jsontree"
	"github.com/yourorg/transitcat/internal/progresslog"
)

// Result is the catalogue-shaped output of a GTFS import.
type Result struct {
	Stops []catalogue.StopDescriptor
	Buses []catalogue.BusDescriptor
}

type gtfsStop struct {
	name     string
	lat, lon float64
}

type gtfsTrip struct {
	routeID string
	stops   []string // stop ids, in stop_sequence order
}

// Import reads a GTFS static feed zip (feed sized size) and maps it to
// a Result. Road distances are left undeclared: GTFS carries no direct
// inter-stop road-distance field, and the catalogue already falls back
// to the geodesic distance for any undeclared neighbor pair once both
// stops exist.
func Import(feed io.ReaderAt, size int64) (*Result, error) {
	zr, err := zip.NewReader(feed, size)
	if err != nil {
		return nil, fmt.Errorf("gtfsimport: open zip: %w", err)
	}

	stops, err := readStops(zr)
	if err != nil {
		return nil, err
	}
	routeNames, err := readRoutes(zr)
	if err != nil {
		return nil, err
	}
	trips, err := readTrips(zr, routeNames)
	if err != nil {
		return nil, err
	}
	if err := readStopTimes(zr, trips); err != nil {
		return nil, err
	}

	progresslog.IngestionProgress("gtfs parsed", len(stops), len(routeNames))

	result := buildResult(stops, routeNames, trips)
	progresslog.IngestionProgress("gtfs mapped", len(result.Stops), len(result.Buses))
	return result, nil
}

// buildResult picks, for every route, the longest trip pattern (most
// stop_times rows) as that route's bus stop sequence. GTFS routes
// often carry many trip patterns (branches, short-turns); the
// catalogue's Bus model wants exactly one. A trip whose first and last
// stop coincide maps to a circular bus, otherwise linear.
func buildResult(stops map[string]gtfsStop, routeNames map[string]string, trips map[string]*gtfsTrip) *Result {
	longestByRoute := make(map[string]*gtfsTrip)
	for _, t := range trips {
		if len(t.stops) < 2 {
			continue
		}
		cur, ok := longestByRoute[t.routeID]
		if !ok || len(t.stops) > len(cur.stops) {
			longestByRoute[t.routeID] = t
		}
	}

	routeIDs := make([]string, 0, len(longestByRoute))
	for id := range longestByRoute {
		routeIDs = append(routeIDs, id)
	}
	sort.Strings(routeIDs)

	usedStops := make(map[string]bool)
	buses := make([]catalogue.BusDescriptor, 0, len(routeIDs))
	for _, routeID := range routeIDs {
		t := longestByRoute[routeID]
		busType := catalogue.BusLinear
		if t.stops[0] == t.stops[len(t.stops)-1] {
			busType = catalogue.BusCircular
		}

		names := make([]string, len(t.stops))
		for i, stopID := range t.stops {
			names[i] = stopName(stops, stopID)
			usedStops[stopID] = true
		}

		name := routeNames[routeID]
		if name == "" {
			name = routeID
		}
		buses = append(buses, catalogue.BusDescriptor{Type: busType, Name: name, Stops: names})
	}

	stopIDs := make([]string, 0, len(usedStops))
	for id := range usedStops {
		stopIDs = append(stopIDs, id)
	}
	sort.Strings(stopIDs)

	descs := make([]catalogue.StopDescriptor, 0, len(stopIDs))
	for _, id := range stopIDs {
		s := stops[id]
		descs = append(descs, catalogue.StopDescriptor{
			Type:           catalogue.StopOrdinary,
			Name:           s.name,
			Coords:         geo.Point{Lat: s.lat, Lng: s.lon},
			DistanceToStop: map[string]float64{},
		})
	}

	return &Result{Stops: descs, Buses: buses}
}

func stopName(stops map[string]gtfsStop, id string) string {
	if s, ok := stops[id]; ok {
		return s.name
	}
	return id
}

// ToBaseRequests renders r as a base_requests jsontree array, ready to
// embed under a root {"base_requests": [...]} document, the shape
// requestdriver.ApplyBaseRequests reads; the bare array is not such a
// document.
func (r *Result) ToBaseRequests() (jsontree.Value, error) {
	b := jsontree.NewBuilder()
	b.StartArray()
	for _, s := range r.Stops {
		b.StartDict().
			Key("type").Value(jsontree.String("Stop")).
			Key("name").Value(jsontree.String(s.Name)).
			Key("latitude").Value(jsontree.Double(s.Coords.Lat)).
			Key("longitude").Value(jsontree.Double(s.Coords.Lng)).
			Key("road_distances").StartDict().EndDict().
			EndDict()
	}
	for _, bus := range r.Buses {
		b.StartDict().
			Key("type").Value(jsontree.String("Bus")).
			Key("name").Value(jsontree.String(bus.Name)).
			Key("is_roundtrip").Value(jsontree.Bool(bus.Type == catalogue.BusCircular)).
			Key("stops").StartArray()
		for _, stop := range bus.Stops {
			b.Value(jsontree.String(stop))
		}
		b.EndArray().EndDict()
	}
	b.EndArray()
	return b.Build()
}

func readStops(zr *zip.Reader) (map[string]gtfsStop, error) {
	file, err := findFile(zr, "stops.txt")
	if err != nil {
		return nil, err
	}
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("gtfsimport: open stops.txt: %w", err)
	}
	defer rc.Close()

	reader := newCSVReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("gtfsimport: read stops.txt header: %w", err)
	}
	idx := headerIndex(header)
	for _, field := range []string{"stop_id", "stop_name", "stop_lat", "stop_lon"} {
		if _, ok := idx[field]; !ok {
			return nil, fmt.Errorf("gtfsimport: stops.txt: missing column %s", field)
		}
	}

	stops := make(map[string]gtfsStop)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue // malformed line: skip, best-effort scan
		}
		id := safeField(record, idx, "stop_id")
		if id == "" {
			continue
		}
		lat, err1 := strconv.ParseFloat(safeField(record, idx, "stop_lat"), 64)
		lon, err2 := strconv.ParseFloat(safeField(record, idx, "stop_lon"), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		stops[id] = gtfsStop{name: safeField(record, idx, "stop_name"), lat: lat, lon: lon}
	}
	return stops, nil
}

func readRoutes(zr *zip.Reader) (map[string]string, error) {
	file, err := findFile(zr, "routes.txt")
	if err != nil {
		return nil, err
	}
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("gtfsimport: open routes.txt: %w", err)
	}
	defer rc.Close()

	reader := newCSVReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("gtfsimport: read routes.txt header: %w", err)
	}
	idx := headerIndex(header)
	if _, ok := idx["route_id"]; !ok {
		return nil, fmt.Errorf("gtfsimport: routes.txt: missing column route_id")
	}

	names := make(map[string]string)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		id := safeField(record, idx, "route_id")
		if id == "" {
			continue
		}
		name := safeField(record, idx, "route_short_name")
		if name == "" {
			name = safeField(record, idx, "route_long_name")
		}
		names[id] = name
	}
	return names, nil
}

func readTrips(zr *zip.Reader, routeNames map[string]string) (map[string]*gtfsTrip, error) {
	file, err := findFile(zr, "trips.txt")
	if err != nil {
		return nil, err
	}
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("gtfsimport: open trips.txt: %w", err)
	}
	defer rc.Close()

	reader := newCSVReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("gtfsimport: read trips.txt header: %w", err)
	}
	idx := headerIndex(header)
	for _, field := range []string{"trip_id", "route_id"} {
		if _, ok := idx[field]; !ok {
			return nil, fmt.Errorf("gtfsimport: trips.txt: missing column %s", field)
		}
	}

	trips := make(map[string]*gtfsTrip)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		tripID := safeField(record, idx, "trip_id")
		routeID := safeField(record, idx, "route_id")
		if tripID == "" || routeID == "" {
			continue
		}
		if _, ok := routeNames[routeID]; !ok {
			continue // trip references a route we never saw in routes.txt
		}
		trips[tripID] = &gtfsTrip{routeID: routeID}
	}
	return trips, nil
}

func readStopTimes(zr *zip.Reader, trips map[string]*gtfsTrip) error {
	file, err := findFile(zr, "stop_times.txt")
	if err != nil {
		return err
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("gtfsimport: open stop_times.txt: %w", err)
	}
	defer rc.Close()

	reader := newCSVReader(rc)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("gtfsimport: read stop_times.txt header: %w", err)
	}
	idx := headerIndex(header)
	for _, field := range []string{"trip_id", "stop_id", "stop_sequence"} {
		if _, ok := idx[field]; !ok {
			return fmt.Errorf("gtfsimport: stop_times.txt: missing column %s", field)
		}
	}

	type pending struct {
		seq  int
		stop string
	}
	byTrip := make(map[string][]pending)

	lines := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		tripID := safeField(record, idx, "trip_id")
		if _, ok := trips[tripID]; !ok {
			continue
		}
		seq, err := strconv.Atoi(safeField(record, idx, "stop_sequence"))
		if err != nil {
			continue
		}
		stopID := safeField(record, idx, "stop_id")
		if stopID == "" {
			continue
		}
		byTrip[tripID] = append(byTrip[tripID], pending{seq: seq, stop: stopID})

		lines++
		if lines%50000 == 0 {
			progresslog.IngestionProgress("gtfs stop_times", lines, 0)
		}
	}

	for tripID, entries := range byTrip {
		sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
		stops := make([]string, len(entries))
		for i, e := range entries {
			stops[i] = e.stop
		}
		trips[tripID].stops = stops
	}
	return nil
}

func newCSVReader(rc io.Reader) *csv.Reader {
	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader
}

func findFile(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("gtfsimport: %s not found in archive", name)
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, field := range header {
		idx[strings.TrimSpace(strings.ToLower(field))] = i
	}
	return idx
}

func safeField(record []string, idx map[string]int, key string) string {
	if pos, ok := idx[key]; ok && pos < len(record) {
		return record[pos]
	}
	return ""
}
