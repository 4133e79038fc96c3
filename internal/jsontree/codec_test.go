package jsontree

import "testing"

func TestParseAndMarshalRoundTrip(t *testing.T) {
	const input = `{"base_requests":[{"type":"Stop","name":"Tolstopaltsevo","latitude":55.611087,"longitude":37.20829,"road_distances":{"Rasskazovka":3700}}],"render_settings":{"width":1200.0,"stop_radius":5}}`

	v, err := ParseBytes([]byte(input))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	base, err := mustField(t, v, "base_requests").AsArray()
	if err != nil || len(base) != 1 {
		t.Fatalf("base_requests: %v, %v", base, err)
	}
	lat, err := mustField(t, base[0], "latitude").AsDouble()
	if err != nil || lat != 55.611087 {
		t.Fatalf("latitude = %v, %v", lat, err)
	}

	width, err := mustField(t, mustField(t, v, "render_settings"), "width").AsDouble()
	if err != nil || width != 1200.0 {
		t.Fatalf("width = %v, %v", width, err)
	}
	radius, err := mustField(t, mustField(t, v, "render_settings"), "stop_radius").AsInt()
	if err != nil || radius != 5 {
		t.Fatalf("stop_radius = %v, %v (expected an int, not a double)", radius, err)
	}

	out, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	v2, err := ParseBytes(out)
	if err != nil {
		t.Fatalf("re-parsing marshaled output: %v", err)
	}
	lat2, _ := mustField(t, mustField(t, v2, "base_requests").arr[0], "latitude").AsDouble()
	if lat2 != lat {
		t.Fatalf("round trip changed latitude: %v != %v", lat2, lat)
	}
}

func TestMarshalEscapesStrings(t *testing.T) {
	v := String("line1\nline2 \"quoted\"")
	out, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := ParseBytes(out)
	if err != nil {
		t.Fatalf("ParseBytes of marshaled string: %v", err)
	}
	s, err := back.AsString()
	if err != nil || s != "line1\nline2 \"quoted\"" {
		t.Fatalf("round trip = %q, %v", s, err)
	}
}

func TestParseNullAndBool(t *testing.T) {
	v, err := ParseBytes([]byte(`[null, true, false]`))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	arr, _ := v.AsArray()
	if !arr[0].IsNull() {
		t.Fatalf("arr[0] should be null")
	}
	if b, _ := arr[1].AsBool(); !b {
		t.Fatalf("arr[1] should be true")
	}
	if b, _ := arr[2].AsBool(); b {
		t.Fatalf("arr[2] should be false")
	}
}
