package svg

import (
	"strings"
	"testing"
)

func TestDocumentRendersInInsertionOrder(t *testing.T) {
	doc := NewDocument()
	doc.Add(NewCircle().SetCenter(Point{X: 1, Y: 2}).SetRadius(3).SetFillColor(NamedColor("red")))
	doc.Add(NewPolyline().AddPoint(Point{X: 0, Y: 0}).AddPoint(Point{X: 10, Y: 10}).
		SetStrokeColor(Rgb(255, 0, 0)).SetStrokeWidth(2))
	doc.Add(NewText().SetPosition(Point{X: 5, Y: 5}).SetData("Rasskazovka"))

	var buf strings.Builder
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	circleIdx := strings.Index(out, "<circle")
	polylineIdx := strings.Index(out, "<polyline")
	textIdx := strings.Index(out, "<text")
	if circleIdx < 0 || polylineIdx < 0 || textIdx < 0 {
		t.Fatalf("missing an element in output: %s", out)
	}
	if !(circleIdx < polylineIdx && polylineIdx < textIdx) {
		t.Fatalf("elements did not render in insertion order: %s", out)
	}
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8" ?>`) {
		t.Fatalf("missing fixed XML header: %s", out)
	}
}

func TestColorVariants(t *testing.T) {
	cases := []struct {
		color Color
		want  string
	}{
		{Color{}, ""},
		{NamedColor("none"), "none"},
		{Rgb(255, 16, 0), "rgb(255,16,0)"},
		{Rgba(255, 16, 0, 0.5), "rgba(255,16,0,0.5)"},
	}
	for _, c := range cases {
		if got := c.color.attr(); got != c.want {
			t.Fatalf("color.attr() = %q, want %q", got, c.want)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	in := `Tom & Jerry's "show" <live>`
	want := "Tom &amp; Jerry&apos;s &quot;show&quot; &lt;live&gt;"
	if got := EscapeXML(in); got != want {
		t.Fatalf("EscapeXML(%q) = %q, want %q", in, got, want)
	}
}

func TestStrokeLineCapAndJoinAttrs(t *testing.T) {
	c := NewCircle().SetStrokeLineCap(LineCapRound).SetStrokeLineJoin(LineJoinMiterClip).SetStrokeWidth(1)
	var buf strings.Builder
	c.render(&buf)
	out := buf.String()
	if !strings.Contains(out, `stroke-linecap="round"`) {
		t.Fatalf("missing stroke-linecap: %s", out)
	}
	if !strings.Contains(out, `stroke-linejoin="miter-clip"`) {
		t.Fatalf("missing stroke-linejoin: %s", out)
	}
}

func TestUnsetStrokeWidthOmitted(t *testing.T) {
	c := NewCircle()
	var buf strings.Builder
	c.render(&buf)
	if strings.Contains(buf.String(), "stroke-width") {
		t.Fatalf("unset stroke width should be omitted: %s", buf.String())
	}
}
