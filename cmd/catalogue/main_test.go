package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRunNoArgsIsBadArgs(t *testing.T) {
	if code := run(nil); code != exitBadArgs {
		t.Fatalf("run(nil) = %d, want %d", code, exitBadArgs)
	}
}

func TestRunUnknownModeIsBadArgs(t *testing.T) {
	if code := run([]string{"bogus", "x"}); code != exitBadArgs {
		t.Fatalf("run(bogus) = %d, want %d", code, exitBadArgs)
	}
}

func TestRunWrongArgCountIsBadArgs(t *testing.T) {
	if code := run([]string{"make_base"}); code != exitBadArgs {
		t.Fatalf("make_base with no input = %d, want %d", code, exitBadArgs)
	}
	if code := run([]string{"process_requests", "a", "b"}); code != exitBadArgs {
		t.Fatalf("process_requests with 2 inputs = %d, want %d", code, exitBadArgs)
	}
}

func TestRunMakeBaseMissingInputFile(t *testing.T) {
	dir := t.TempDir()
	code := run([]string{"make_base", filepath.Join(dir, "missing.json")})
	if code != exitInputMissing {
		t.Fatalf("code = %d, want %d", code, exitInputMissing)
	}
}

func TestRunMakeBaseMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(input, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	code := run([]string{"make_base", input})
	if code != exitRequestProcessing {
		t.Fatalf("code = %d, want %d", code, exitRequestProcessing)
	}
}

func TestRunMakeBaseMissingSerializationSettings(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.json")
	writeJSON(t, input, map[string]any{
		"base_requests": []any{},
	})
	code := run([]string{"make_base", input})
	if code != exitRequestProcessing {
		t.Fatalf("code = %d, want %d", code, exitRequestProcessing)
	}
}

func TestMakeBaseThenProcessRequestsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "catalogue.snap")

	baseInput := filepath.Join(dir, "base.json")
	writeJSON(t, baseInput, map[string]any{
		"base_requests": []any{
			map[string]any{
				"type":      "Stop",
				"name":      "Tolstopaltsevo",
				"latitude":  55.611087,
				"longitude": 37.20829,
				"road_distances": map[string]any{
					"Marushkino": 3900,
				},
			},
			map[string]any{
				"type":      "Stop",
				"name":      "Marushkino",
				"latitude":  55.595884,
				"longitude": 37.209755,
			},
			map[string]any{
				"type":         "Bus",
				"name":         "256",
				"is_roundtrip": false,
				"stops":        []any{"Tolstopaltsevo", "Marushkino"},
			},
		},
		"routing_settings": map[string]any{
			"bus_wait_time": 6,
			"bus_velocity":  40,
		},
		"render_settings": map[string]any{
			"width": 600, "height": 600, "padding": 50,
			"line_width": 14, "stop_radius": 5,
			"bus_label_font_size":  20,
			"bus_label_offset":     []any{7, 15},
			"stop_label_font_size": 20,
			"stop_label_offset":    []any{7, -3},
			"underlayer_color":     []any{255, 255, 255, 0.85},
			"underlayer_width":     3,
			"color_palette":        []any{"green"},
		},
		"serialization_settings": map[string]any{
			"file": snapshotPath,
		},
	})

	if code := run([]string{"make_base", baseInput}); code != exitOK {
		t.Fatalf("make_base exit = %d, want %d", code, exitOK)
	}
	if _, err := os.Stat(snapshotPath); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	requestsInput := filepath.Join(dir, "requests.json")
	writeJSON(t, requestsInput, map[string]any{
		"serialization_settings": map[string]any{
			"file": snapshotPath,
		},
		"stat_requests": []any{
			map[string]any{"id": 1, "type": "Stop", "name": "Tolstopaltsevo"},
			map[string]any{"id": 2, "type": "Bus", "name": "256"},
			map[string]any{"id": 3, "type": "Route", "from": "Tolstopaltsevo", "to": "Marushkino"},
		},
	})

	if code := run([]string{"process_requests", requestsInput}); code != exitOK {
		t.Fatalf("process_requests exit = %d, want %d", code, exitOK)
	}

	outPath := filepath.Join(dir, "requests.out")
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var responses []map[string]any
	if err := json.Unmarshal(data, &responses); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("len(responses) = %d, want 3", len(responses))
	}
	if responses[1]["stop_count"].(float64) != 3 {
		t.Fatalf("bus response stop_count = %v, want 3", responses[1]["stop_count"])
	}
}

func TestOutputPathFor(t *testing.T) {
	cases := map[string]string{
		"requests.json":          "requests.out",
		"/a/b/requests.json":     "/a/b/requests.out",
		"/a/b/requests":          "/a/b/requests.out",
		"/a/b/requests.tar.json": "/a/b/requests.tar.out",
	}
	for in, want := range cases {
		if got := outputPathFor(in); got != want {
			t.Errorf("outputPathFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
