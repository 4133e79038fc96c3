// Package svg renders a small set of SVG primitives (circles, polylines,
// and text) into XML: plain Go values collected into a Document and
// written out in insertion order.
package svg

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Point is a coordinate pair in the SVG user-space.
type Point struct {
	X, Y float64
}

// StrokeLineCap is the stroke-linecap attribute value.
type StrokeLineCap int

const (
	LineCapUnset StrokeLineCap = iota
	LineCapButt
	LineCapRound
	LineCapSquare
)

func (c StrokeLineCap) attr() string {
	switch c {
	case LineCapButt:
		return "butt"
	case LineCapRound:
		return "round"
	case LineCapSquare:
		return "square"
	default:
		return ""
	}
}

// StrokeLineJoin is the stroke-linejoin attribute value.
type StrokeLineJoin int

const (
	LineJoinUnset StrokeLineJoin = iota
	LineJoinArcs
	LineJoinBevel
	LineJoinMiter
	LineJoinMiterClip
	LineJoinRound
)

func (j StrokeLineJoin) attr() string {
	switch j {
	case LineJoinArcs:
		return "arcs"
	case LineJoinBevel:
		return "bevel"
	case LineJoinMiter:
		return "miter"
	case LineJoinMiterClip:
		return "miter-clip"
	case LineJoinRound:
		return "round"
	default:
		return ""
	}
}

// Color is one of: unset, a named color string, Rgb, or Rgba. The zero
// value is unset and renders as no attribute at all.
type Color struct {
	kind    ColorKind
	name    string
	r, g, b uint8
	a       float64
}

// ColorKind identifies which alternative a Color holds. Exported so code
// outside this package (internal/snapshot's color codec) can encode a
// Color without reaching into its private representation.
type ColorKind int

const (
	ColorUnset ColorKind = iota
	ColorNamed
	ColorRGB
	ColorRGBA
)

// NamedColor wraps a CSS color name or keyword ("red", "none", ...).
func NamedColor(name string) Color { return Color{kind: ColorNamed, name: name} }

// Rgb builds an opaque RGB color from 0-255 channels.
func Rgb(r, g, b uint8) Color { return Color{kind: ColorRGB, r: r, g: g, b: b} }

// Rgba builds a translucent RGB color; opacity is in [0, 1].
func Rgba(r, g, b uint8, opacity float64) Color {
	return Color{kind: ColorRGBA, r: r, g: g, b: b, a: opacity}
}

// Kind reports which alternative c holds.
func (c Color) Kind() ColorKind { return c.kind }

// Name returns the named-color string; meaningful only when Kind() == ColorNamed.
func (c Color) Name() string { return c.name }

// Channels returns the RGB channels; meaningful only when Kind() is ColorRGB or ColorRGBA.
func (c Color) Channels() (r, g, b uint8) { return c.r, c.g, c.b }

// Opacity returns the alpha channel; meaningful only when Kind() == ColorRGBA.
func (c Color) Opacity() float64 { return c.a }

func (c Color) attr() string {
	switch c.kind {
	case ColorNamed:
		return c.name
	case ColorRGB:
		return fmt.Sprintf("rgb(%d,%d,%d)", c.r, c.g, c.b)
	case ColorRGBA:
		return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.r, c.g, c.b, formatOpacity(c.a))
	default:
		return ""
	}
}

func formatOpacity(a float64) string {
	return strconv.FormatFloat(a, 'g', -1, 64)
}

// pathProps holds the attributes shared by every primitive. Each
// primitive embeds it and re-exposes the fluent setters itself,
// returning its own type, so chained calls keep the concrete primitive
// in hand.
type pathProps struct {
	fill        Color
	stroke      Color
	strokeWidth float64 // <= 0 means unset
	lineCap     StrokeLineCap
	lineJoin    StrokeLineJoin
}

func (p *pathProps) render(w io.Writer) {
	if s := p.fill.attr(); s != "" {
		fmt.Fprintf(w, ` fill="%s"`, s)
	}
	if s := p.stroke.attr(); s != "" {
		fmt.Fprintf(w, ` stroke="%s"`, s)
	}
	if p.strokeWidth > 0 {
		fmt.Fprintf(w, ` stroke-width="%s"`, strconv.FormatFloat(p.strokeWidth, 'g', -1, 64))
	}
	if s := p.lineCap.attr(); s != "" {
		fmt.Fprintf(w, ` stroke-linecap="%s"`, s)
	}
	if s := p.lineJoin.attr(); s != "" {
		fmt.Fprintf(w, ` stroke-linejoin="%s"`, s)
	}
}

// Object is anything that can render itself as one SVG element.
type Object interface {
	render(w io.Writer)
}

// Circle models <circle>.
type Circle struct {
	pathProps
	Center Point
	Radius float64
}

// NewCircle returns a Circle with a default radius of 1.
func NewCircle() *Circle { return &Circle{Radius: 1} }

func (c *Circle) SetCenter(p Point) *Circle                  { c.Center = p; return c }
func (c *Circle) SetRadius(r float64) *Circle                { c.Radius = r; return c }
func (c *Circle) SetFillColor(col Color) *Circle             { c.fill = col; return c }
func (c *Circle) SetStrokeColor(col Color) *Circle           { c.stroke = col; return c }
func (c *Circle) SetStrokeWidth(w float64) *Circle           { c.strokeWidth = w; return c }
func (c *Circle) SetStrokeLineCap(v StrokeLineCap) *Circle   { c.lineCap = v; return c }
func (c *Circle) SetStrokeLineJoin(v StrokeLineJoin) *Circle { c.lineJoin = v; return c }

func (c *Circle) render(w io.Writer) {
	fmt.Fprintf(w, `<circle cx="%s" cy="%s" r="%s"`,
		formatCoord(c.Center.X), formatCoord(c.Center.Y), formatCoord(c.Radius))
	c.pathProps.render(w)
	fmt.Fprint(w, "/>")
}

// Polyline models <polyline>.
type Polyline struct {
	pathProps
	Points []Point
}

func NewPolyline() *Polyline { return &Polyline{} }

func (p *Polyline) AddPoint(pt Point) *Polyline {
	p.Points = append(p.Points, pt)
	return p
}

func (p *Polyline) SetFillColor(col Color) *Polyline             { p.fill = col; return p }
func (p *Polyline) SetStrokeColor(col Color) *Polyline           { p.stroke = col; return p }
func (p *Polyline) SetStrokeWidth(w float64) *Polyline           { p.strokeWidth = w; return p }
func (p *Polyline) SetStrokeLineCap(v StrokeLineCap) *Polyline   { p.lineCap = v; return p }
func (p *Polyline) SetStrokeLineJoin(v StrokeLineJoin) *Polyline { p.lineJoin = v; return p }

func (p *Polyline) render(w io.Writer) {
	fmt.Fprint(w, `<polyline points="`)
	for i, pt := range p.Points {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprintf(w, "%s,%s", formatCoord(pt.X), formatCoord(pt.Y))
	}
	fmt.Fprint(w, `"`)
	p.pathProps.render(w)
	fmt.Fprint(w, "/>")
}

// Text models <text>.
type Text struct {
	pathProps
	Pos        Point
	Offset     Point
	FontSize   uint32
	FontFamily string
	FontWeight string
	Data       string
}

func NewText() *Text { return &Text{FontSize: 1} }

func (t *Text) SetPosition(p Point) *Text                { t.Pos = p; return t }
func (t *Text) SetOffset(p Point) *Text                  { t.Offset = p; return t }
func (t *Text) SetFontSize(s uint32) *Text               { t.FontSize = s; return t }
func (t *Text) SetFontFamily(f string) *Text             { t.FontFamily = f; return t }
func (t *Text) SetFontWeight(f string) *Text             { t.FontWeight = f; return t }
func (t *Text) SetData(d string) *Text                   { t.Data = d; return t }
func (t *Text) SetFillColor(col Color) *Text             { t.fill = col; return t }
func (t *Text) SetStrokeColor(col Color) *Text           { t.stroke = col; return t }
func (t *Text) SetStrokeWidth(w float64) *Text           { t.strokeWidth = w; return t }
func (t *Text) SetStrokeLineCap(v StrokeLineCap) *Text   { t.lineCap = v; return t }
func (t *Text) SetStrokeLineJoin(v StrokeLineJoin) *Text { t.lineJoin = v; return t }

func (t *Text) render(w io.Writer) {
	fmt.Fprintf(w, `<text x="%s" y="%s" dx="%s" dy="%s" font-size="%d"`,
		formatCoord(t.Pos.X), formatCoord(t.Pos.Y),
		formatCoord(t.Offset.X), formatCoord(t.Offset.Y), t.FontSize)
	if t.FontFamily != "" {
		fmt.Fprintf(w, ` font-family="%s"`, EscapeXML(t.FontFamily))
	}
	if t.FontWeight != "" {
		fmt.Fprintf(w, ` font-weight="%s"`, EscapeXML(t.FontWeight))
	}
	t.pathProps.render(w)
	fmt.Fprintf(w, ">%s</text>", EscapeXML(t.Data))
}

// Document is an ordered collection of Objects, rendered in insertion
// order inside a fixed <svg> header/footer.
type Document struct {
	objects []Object
}

// NewDocument returns an empty document.
func NewDocument() *Document { return &Document{} }

// Add appends o to the document. Objects render in the order they were
// added.
func (d *Document) Add(o Object) {
	d.objects = append(d.objects, o)
}

// Render writes the complete XML document to w.
func (d *Document) Render(w io.Writer) error {
	if _, err := io.WriteString(w, xmlHeader); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1">`); err != nil {
		return err
	}
	for _, o := range d.objects {
		o.render(w)
	}
	_, err := io.WriteString(w, "</svg>")
	return err
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" ?>` + "\n"

// EscapeXML escapes the five XML-reserved characters: " ' < > &.
func EscapeXML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
