package requestdriver

import (
	"github.com/yourorg/transitcat/internal/jsontree"
	"github.com/yourorg/transitcat/internal/maprender"
	"github.com/yourorg/transitcat/internal/svg"
	"github.com/yourorg/transitcat/internal/transitrouter"
)

// ParseRenderSettings reads root's "render_settings" section, if present,
// into a maprender.Settings. Its absence yields the zero value.
func ParseRenderSettings(root jsontree.Value) (maprender.Settings, error) {
	const ctx = "render_settings"
	field, ok := root.Field("render_settings")
	if !ok {
		return maprender.Settings{}, nil
	}

	var s maprender.Settings
	var err error
	if s.Width, err = requireDouble(field, "width", ctx); err != nil {
		return s, err
	}
	if s.Height, err = requireDouble(field, "height", ctx); err != nil {
		return s, err
	}
	if s.Padding, err = requireDouble(field, "padding", ctx); err != nil {
		return s, err
	}
	if s.LineWidth, err = requireDouble(field, "line_width", ctx); err != nil {
		return s, err
	}
	if s.StopRadius, err = requireDouble(field, "stop_radius", ctx); err != nil {
		return s, err
	}

	busFontSize, err := requireDouble(field, "bus_label_font_size", ctx)
	if err != nil {
		return s, err
	}
	s.BusLabelFontSize = int(busFontSize)

	busOffset, err := requirePoint(field, "bus_label_offset", ctx)
	if err != nil {
		return s, err
	}
	s.BusLabelOffsetX, s.BusLabelOffsetY = busOffset[0], busOffset[1]

	stopFontSize, err := requireDouble(field, "stop_label_font_size", ctx)
	if err != nil {
		return s, err
	}
	s.StopLabelFontSize = int(stopFontSize)

	stopOffset, err := requirePoint(field, "stop_label_offset", ctx)
	if err != nil {
		return s, err
	}
	s.StopLabelOffsetX, s.StopLabelOffsetY = stopOffset[0], stopOffset[1]

	underlayerField, ok := field.Field("underlayer_color")
	if !ok {
		return s, shapeErr(ctx, "missing %q", "underlayer_color")
	}
	if s.UnderlayerColor, err = parseColor(underlayerField, ctx); err != nil {
		return s, err
	}

	if s.UnderlayerWidth, err = requireDouble(field, "underlayer_width", ctx); err != nil {
		return s, err
	}

	paletteField, ok := field.Field("color_palette")
	if !ok {
		return s, shapeErr(ctx, "missing %q", "color_palette")
	}
	paletteArr, err := paletteField.AsArray()
	if err != nil {
		return s, shapeErr(ctx, "color_palette: %w", err)
	}
	s.ColorPalette = make([]svg.Color, len(paletteArr))
	for i, c := range paletteArr {
		if s.ColorPalette[i], err = parseColor(c, ctx); err != nil {
			return s, err
		}
	}

	return s, nil
}

func requirePoint(v jsontree.Value, field, context string) ([2]float64, error) {
	f, ok := v.Field(field)
	if !ok {
		return [2]float64{}, shapeErr(context, "missing %q", field)
	}
	arr, err := f.AsArray()
	if err != nil || len(arr) != 2 {
		return [2]float64{}, shapeErr(context, "%q: expected a 2-element array", field)
	}
	x, err := arr[0].AsDouble()
	if err != nil {
		return [2]float64{}, shapeErr(context, "%q[0]: %w", field, err)
	}
	y, err := arr[1].AsDouble()
	if err != nil {
		return [2]float64{}, shapeErr(context, "%q[1]: %w", field, err)
	}
	return [2]float64{x, y}, nil
}

// parseColor accepts a color in any of the three wire shapes: a plain
// string (named color), a 3-element [r,g,b] int array, or a 4-element
// [r,g,b,a] array with a floating opacity.
func parseColor(v jsontree.Value, context string) (svg.Color, error) {
	if s, err := v.AsString(); err == nil {
		return svg.NamedColor(s), nil
	}
	arr, err := v.AsArray()
	if err != nil {
		return svg.Color{}, shapeErr(context, "color: expected a string or array: %w", err)
	}
	switch len(arr) {
	case 3:
		r, g, b, err := parseRGBInts(arr)
		if err != nil {
			return svg.Color{}, shapeErr(context, "color: %w", err)
		}
		return svg.Rgb(r, g, b), nil
	case 4:
		r, g, b, err := parseRGBInts(arr[:3])
		if err != nil {
			return svg.Color{}, shapeErr(context, "color: %w", err)
		}
		a, err := arr[3].AsDouble()
		if err != nil {
			return svg.Color{}, shapeErr(context, "color: opacity: %w", err)
		}
		return svg.Rgba(r, g, b, a), nil
	default:
		return svg.Color{}, shapeErr(context, "color: array must have 3 or 4 elements, got %d", len(arr))
	}
}

func parseRGBInts(arr []jsontree.Value) (r, g, b uint8, err error) {
	channels := make([]uint8, 3)
	for i, v := range arr {
		n, err := v.AsInt()
		if err != nil {
			return 0, 0, 0, err
		}
		channels[i] = uint8(n)
	}
	return channels[0], channels[1], channels[2], nil
}

// ParseRoutingSettings reads root's "routing_settings" section into a
// transitrouter.Context. Its absence yields the zero value.
func ParseRoutingSettings(root jsontree.Value) (transitrouter.Context, error) {
	const ctx = "routing_settings"
	field, ok := root.Field("routing_settings")
	if !ok {
		return transitrouter.Context{}, nil
	}
	wait, err := requireDouble(field, "bus_wait_time", ctx)
	if err != nil {
		return transitrouter.Context{}, err
	}
	velocity, err := requireDouble(field, "bus_velocity", ctx)
	if err != nil {
		return transitrouter.Context{}, err
	}
	return transitrouter.Context{BusWaitTimeMinutes: wait, BusVelocityKmh: velocity}, nil
}

// ParseSerializationSettings returns the snapshot file path from root's
// "serialization_settings" section, or "" if absent.
func ParseSerializationSettings(root jsontree.Value) (string, error) {
	const ctx = "serialization_settings"
	field, ok := root.Field("serialization_settings")
	if !ok {
		return "", nil
	}
	return requireString(field, "file", ctx)
}
