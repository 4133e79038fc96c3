package snapshot

import (
	"bytes"
	"math"
	"testing"

	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/geo"
	"github.com/yourorg/transitcat/internal/maprender"
	"github.com/yourorg/transitcat/internal/svg"
	"github.com/yourorg/transitcat/internal/transitrouter"
)

func buildSampleCatalogue() *catalogue.Catalogue {
	c := catalogue.New()
	_ = c.AddStop(catalogue.StopDescriptor{
		Type:           catalogue.StopOrdinary,
		Name:           "Tolstopaltsevo",
		Coords:         geo.Point{Lat: 55.611087, Lng: 37.20829},
		DistanceToStop: map[string]float64{"Marushkino": 3900},
	})
	_ = c.AddStop(catalogue.StopDescriptor{
		Type:   catalogue.StopOrdinary,
		Name:   "Marushkino",
		Coords: geo.Point{Lat: 55.595884, Lng: 37.209755},
	})
	c.AddBus(catalogue.BusDescriptor{
		Type:  catalogue.BusLinear,
		Name:  "256",
		Stops: []string{"Tolstopaltsevo", "Marushkino"},
	})
	return c
}

func sampleRenderSettings() maprender.Settings {
	return maprender.Settings{
		Width: 1200, Height: 1200, Padding: 50,
		LineWidth: 14, StopRadius: 5,
		BusLabelFontSize: 20, BusLabelOffsetX: 7, BusLabelOffsetY: 15,
		StopLabelFontSize: 18, StopLabelOffsetX: 7, StopLabelOffsetY: -3,
		UnderlayerColor: svg.Rgba(255, 255, 255, 0.85),
		UnderlayerWidth: 3,
		ColorPalette: []svg.Color{
			svg.NamedColor("green"),
			svg.Rgb(255, 160, 0),
			svg.Rgba(0, 0, 255, 0.5),
		},
	}
}

func TestWriteReadRoundTripWithoutGraph(t *testing.T) {
	cat := buildSampleCatalogue()
	st := State{
		Catalogue: cat,
		Routing:   transitrouter.Context{BusWaitTimeMinutes: 6, BusVelocityKmh: 40},
		Render:    sampleRenderSettings(),
	}

	var buf bytes.Buffer
	if err := Write(&buf, st); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Router != nil {
		t.Fatalf("expected nil Router, got %+v", got.Router)
	}
	assertCatalogueEqual(t, cat, got.Catalogue)
	if got.Routing != st.Routing {
		t.Fatalf("Routing = %+v, want %+v", got.Routing, st.Routing)
	}
	if got.Render.Width != st.Render.Width || len(got.Render.ColorPalette) != len(st.Render.ColorPalette) {
		t.Fatalf("Render mismatch: %+v", got.Render)
	}
}

func TestWriteReadRoundTripWithGraph(t *testing.T) {
	cat := buildSampleCatalogue()
	ctx := transitrouter.Context{BusWaitTimeMinutes: 6, BusVelocityKmh: 40}
	router := transitrouter.Build(cat, ctx)

	st := State{Catalogue: cat, Routing: ctx, Render: sampleRenderSettings(), Router: router}

	var buf bytes.Buffer
	if err := Write(&buf, st); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Router == nil {
		t.Fatal("expected a non-nil Router")
	}
	assertCatalogueEqual(t, cat, got.Catalogue)

	wantResult, wantOK := router.Route("Tolstopaltsevo", "Marushkino")
	gotResult, gotOK := got.Router.Route("Tolstopaltsevo", "Marushkino")
	if wantOK != gotOK {
		t.Fatalf("Route ok = %v, want %v", gotOK, wantOK)
	}
	if math.Abs(wantResult.TotalTime-gotResult.TotalTime) > 1e-9 {
		t.Fatalf("TotalTime = %v, want %v", gotResult.TotalTime, wantResult.TotalTime)
	}
	if len(wantResult.Events) != len(gotResult.Events) {
		t.Fatalf("Events = %+v, want %+v", gotResult.Events, wantResult.Events)
	}
	for i := range wantResult.Events {
		if wantResult.Events[i] != gotResult.Events[i] {
			t.Fatalf("Events[%d] = %+v, want %+v", i, gotResult.Events[i], wantResult.Events[i])
		}
	}
}

func TestWriteReadPreservesUnreachablePairs(t *testing.T) {
	cat := catalogue.New()
	cat.AddBus(catalogue.BusDescriptor{Type: catalogue.BusLinear, Name: "1", Stops: []string{"A", "B"}})
	cat.AddBus(catalogue.BusDescriptor{Type: catalogue.BusLinear, Name: "2", Stops: []string{"C", "D"}})
	ctx := transitrouter.Context{BusWaitTimeMinutes: 5, BusVelocityKmh: 30}
	router := transitrouter.Build(cat, ctx)

	st := State{Catalogue: cat, Routing: ctx, Render: sampleRenderSettings(), Router: router}
	var buf bytes.Buffer
	if err := Write(&buf, st); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	_, ok := got.Router.Route("A", "C")
	if ok {
		t.Fatal("expected A->C to remain unroutable across disconnected buses")
	}
}

func assertCatalogueEqual(t *testing.T, want, got *catalogue.Catalogue) {
	t.Helper()
	if want.CommonMetric() != got.CommonMetric() {
		t.Fatalf("CommonMetric = %+v, want %+v", got.CommonMetric(), want.CommonMetric())
	}
	for _, name := range want.StopNames() {
		ws, gs := want.GetStop(name), got.GetStop(name)
		if ws.Type != gs.Type || ws.Coords != gs.Coords {
			t.Fatalf("stop %q = %+v, want %+v", name, gs, ws)
		}
		if len(ws.BusesAtStop) != len(gs.BusesAtStop) {
			t.Fatalf("stop %q buses = %v, want %v", name, gs.BusesAtStop, ws.BusesAtStop)
		}
	}
	for _, name := range want.BusNames() {
		wb, gb := want.GetBus(name), got.GetBus(name)
		if wb.Type != gb.Type || len(wb.Stops) != len(gb.Stops) {
			t.Fatalf("bus %q = %+v, want %+v", name, gb, wb)
		}
	}
}
