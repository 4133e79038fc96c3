// Package maprender projects a catalogue's stops onto an SVG canvas and
// draws bus route polylines, route labels, stop markers, and stop labels
// over them, bottom layer first.
package maprender

import (
	"math"
	"sort"

	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/geo"
	"github.com/yourorg/transitcat/internal/svg"
)

const zeroTolerance = 1e-6

// Settings is the render_settings section of a request batch.
type Settings struct {
	Width, Height float64
	Padding       float64

	LineWidth  float64
	StopRadius float64

	BusLabelFontSize int
	BusLabelOffsetX  float64
	BusLabelOffsetY  float64

	StopLabelFontSize int
	StopLabelOffsetX  float64
	StopLabelOffsetY  float64

	UnderlayerColor svg.Color
	UnderlayerWidth float64

	ColorPalette []svg.Color
}

type projector struct {
	minLng, maxLng, minLat, maxLat float64
	zoom                           float64
	padding                        float64
}

func newProjector(points []geo.Point, s Settings) projector {
	p := projector{padding: s.Padding}
	if len(points) == 0 {
		return p
	}

	p.minLng, p.maxLng = points[0].Lng, points[0].Lng
	p.minLat, p.maxLat = points[0].Lat, points[0].Lat
	for _, pt := range points[1:] {
		p.minLng = math.Min(p.minLng, pt.Lng)
		p.maxLng = math.Max(p.maxLng, pt.Lng)
		p.minLat = math.Min(p.minLat, pt.Lat)
		p.maxLat = math.Max(p.maxLat, pt.Lat)
	}

	var zx, zy float64
	if dLng := p.maxLng - p.minLng; dLng > zeroTolerance {
		zx = (s.Width - 2*s.Padding) / dLng
	}
	if dLat := p.maxLat - p.minLat; dLat > zeroTolerance {
		zy = (s.Height - 2*s.Padding) / dLat
	}
	p.zoom = math.Min(zx, zy)
	return p
}

func (p projector) project(pt geo.Point) svg.Point {
	return svg.Point{
		X: (pt.Lng-p.minLng)*p.zoom + p.padding,
		Y: (p.maxLat-pt.Lat)*p.zoom + p.padding,
	}
}

// Render draws every bus and every visited stop in cat, returning the
// completed SVG document.
func Render(cat *catalogue.Catalogue, s Settings) *svg.Document {
	buses := visitedBuses(cat)
	stops := visitedStops(cat, buses)

	points := make([]geo.Point, len(stops))
	for i, name := range stops {
		points[i] = cat.GetStop(name).Coords
	}
	proj := newProjector(points, s)

	stopPoint := make(map[string]svg.Point, len(stops))
	for _, name := range stops {
		stopPoint[name] = proj.project(cat.GetStop(name).Coords)
	}

	doc := svg.NewDocument()
	drawBusLines(doc, buses, stopPoint, s)
	drawBusLabels(doc, buses, stopPoint, s)
	drawStopCircles(doc, stops, stopPoint, s)
	drawStopLabels(doc, stops, stopPoint, s)
	return doc
}

// visitedBuses returns every bus with at least one stop, sorted by name.
func visitedBuses(cat *catalogue.Catalogue) []catalogue.BusDescriptor {
	var out []catalogue.BusDescriptor
	for _, name := range cat.BusNames() {
		b := cat.GetBus(name)
		if len(b.Stops) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// visitedStops returns every stop that appears in a non-empty bus,
// sorted by name.
func visitedStops(cat *catalogue.Catalogue, buses []catalogue.BusDescriptor) []string {
	seen := make(map[string]struct{})
	for _, b := range buses {
		for _, s := range b.Stops {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func paletteColor(s Settings, i int) svg.Color {
	if len(s.ColorPalette) == 0 {
		return svg.Color{}
	}
	return s.ColorPalette[i%len(s.ColorPalette)]
}

// busTraversal returns the ordered stop sequence a bus's polyline and
// labels follow: as-listed for a circular bus, forward-then-reversed for
// a linear one.
func busTraversal(b catalogue.BusDescriptor) []string {
	if b.Type == catalogue.BusCircular {
		return b.Stops
	}
	out := make([]string, 0, 2*len(b.Stops)-1)
	out = append(out, b.Stops...)
	for i := len(b.Stops) - 2; i >= 0; i-- {
		out = append(out, b.Stops[i])
	}
	return out
}

func drawBusLines(doc *svg.Document, buses []catalogue.BusDescriptor, pt map[string]svg.Point, s Settings) {
	for i, b := range buses {
		line := svg.NewPolyline().
			SetStrokeColor(paletteColor(s, i)).
			SetStrokeWidth(s.LineWidth).
			SetStrokeLineCap(svg.LineCapRound).
			SetStrokeLineJoin(svg.LineJoinRound)
		for _, stop := range busTraversal(b) {
			line.AddPoint(pt[stop])
		}
		doc.Add(line)
	}
}

func drawBusLabels(doc *svg.Document, buses []catalogue.BusDescriptor, pt map[string]svg.Point, s Settings) {
	for i, b := range buses {
		color := paletteColor(s, i)
		positions := []string{b.Stops[0]}
		last := b.Stops[len(b.Stops)-1]
		if b.Type == catalogue.BusLinear && last != b.Stops[0] {
			positions = append(positions, last)
		}
		for _, stop := range positions {
			doc.Add(busCaption(pt[stop], s, true, s.UnderlayerColor, b.Name))
			doc.Add(busCaption(pt[stop], s, false, color, b.Name))
		}
	}
}

func busCaption(p svg.Point, s Settings, underlay bool, fill svg.Color, data string) *svg.Text {
	t := svg.NewText().
		SetPosition(p).
		SetOffset(svg.Point{X: s.BusLabelOffsetX, Y: s.BusLabelOffsetY}).
		SetFontSize(uint32(s.BusLabelFontSize)).
		SetFontFamily("Verdana").
		SetFontWeight("bold").
		SetData(data).
		SetFillColor(fill)
	if underlay {
		t.SetStrokeColor(s.UnderlayerColor).
			SetStrokeWidth(s.UnderlayerWidth).
			SetStrokeLineCap(svg.LineCapRound).
			SetStrokeLineJoin(svg.LineJoinRound)
	}
	return t
}

func drawStopCircles(doc *svg.Document, stops []string, pt map[string]svg.Point, s Settings) {
	for _, name := range stops {
		doc.Add(svg.NewCircle().SetCenter(pt[name]).SetRadius(s.StopRadius).SetFillColor(svg.NamedColor("white")))
	}
}

func drawStopLabels(doc *svg.Document, stops []string, pt map[string]svg.Point, s Settings) {
	for _, name := range stops {
		doc.Add(stopCaption(pt[name], s, true, s.UnderlayerColor, name))
		doc.Add(stopCaption(pt[name], s, false, svg.NamedColor("black"), name))
	}
}

func stopCaption(p svg.Point, s Settings, underlay bool, fill svg.Color, data string) *svg.Text {
	t := svg.NewText().
		SetPosition(p).
		SetOffset(svg.Point{X: s.StopLabelOffsetX, Y: s.StopLabelOffsetY}).
		SetFontSize(uint32(s.StopLabelFontSize)).
		SetFontFamily("Verdana").
		SetData(data).
		SetFillColor(fill)
	if underlay {
		t.SetStrokeColor(s.UnderlayerColor).
			SetStrokeWidth(s.UnderlayerWidth).
			SetStrokeLineCap(svg.LineCapRound).
			SetStrokeLineJoin(svg.LineJoinRound)
	}
	return t
}
