package requestdriver

import (
	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/geo"
	"github.com/yourorg/transitcat/internal/jsontree"
)

// ApplyBaseRequests walks root's "base_requests" array (if present) and
// applies each Stop/Bus entry to cat. An entry whose "type" is anything
// other than "Stop"/"Bus" is silently skipped, per the forward-
// compatibility rule in the error taxonomy. A missing required field on a
// recognized type is an InputShapeError.
func ApplyBaseRequests(cat *catalogue.Catalogue, root jsontree.Value) error {
	field, ok := root.Field("base_requests")
	if !ok {
		return nil
	}
	items, err := field.AsArray()
	if err != nil {
		return shapeErr("base_requests", "expected an array: %w", err)
	}

	for i, item := range items {
		typeField, ok := item.Field("type")
		if !ok {
			return shapeErr("base_requests", "entry %d: missing \"type\"", i)
		}
		typeName, err := typeField.AsString()
		if err != nil {
			return shapeErr("base_requests", "entry %d: %w", i, err)
		}

		switch typeName {
		case "Stop":
			if err := applyStopRequest(cat, item); err != nil {
				return err
			}
		case "Bus":
			if err := applyBusRequest(cat, item); err != nil {
				return err
			}
		default:
			// unrecognized request type: skip, forward compatible
		}
	}
	return nil
}

func applyStopRequest(cat *catalogue.Catalogue, item jsontree.Value) error {
	name, err := requireString(item, "name", "base_requests Stop")
	if err != nil {
		return err
	}
	lat, err := requireDouble(item, "latitude", "base_requests Stop")
	if err != nil {
		return err
	}
	lng, err := requireDouble(item, "longitude", "base_requests Stop")
	if err != nil {
		return err
	}

	distances := map[string]float64{}
	if distField, ok := item.Field("road_distances"); ok {
		obj, err := distField.AsObject()
		if err != nil {
			return shapeErr("base_requests Stop", "road_distances: %w", err)
		}
		for _, neighbor := range distField.Keys() {
			d, err := obj[neighbor].AsDouble()
			if err != nil {
				return shapeErr("base_requests Stop", "road_distances[%q]: %w", neighbor, err)
			}
			distances[neighbor] = d
		}
	}

	return cat.AddStop(catalogue.StopDescriptor{
		Type:           catalogue.StopOrdinary,
		Name:           name,
		Coords:         geo.Point{Lat: lat, Lng: lng},
		DistanceToStop: distances,
	})
}

func applyBusRequest(cat *catalogue.Catalogue, item jsontree.Value) error {
	name, err := requireString(item, "name", "base_requests Bus")
	if err != nil {
		return err
	}
	stopsField, ok := item.Field("stops")
	if !ok {
		return shapeErr("base_requests Bus", "%q: missing \"stops\"", name)
	}
	stopsArr, err := stopsField.AsArray()
	if err != nil {
		return shapeErr("base_requests Bus", "%q: stops: %w", name, err)
	}
	stops := make([]string, len(stopsArr))
	for i, s := range stopsArr {
		stops[i], err = s.AsString()
		if err != nil {
			return shapeErr("base_requests Bus", "%q: stops[%d]: %w", name, i, err)
		}
	}

	roundTrip, err := requireBool(item, "is_roundtrip", "base_requests Bus")
	if err != nil {
		return err
	}

	busType := catalogue.BusLinear
	if roundTrip {
		busType = catalogue.BusCircular
	}

	cat.AddBus(catalogue.BusDescriptor{Type: busType, Name: name, Stops: stops})
	return nil
}

func requireString(v jsontree.Value, field, context string) (string, error) {
	f, ok := v.Field(field)
	if !ok {
		return "", shapeErr(context, "missing %q", field)
	}
	s, err := f.AsString()
	if err != nil {
		return "", shapeErr(context, "%q: %w", field, err)
	}
	return s, nil
}

func requireDouble(v jsontree.Value, field, context string) (float64, error) {
	f, ok := v.Field(field)
	if !ok {
		return 0, shapeErr(context, "missing %q", field)
	}
	d, err := f.AsDouble()
	if err != nil {
		return 0, shapeErr(context, "%q: %w", field, err)
	}
	return d, nil
}

func requireBool(v jsontree.Value, field, context string) (bool, error) {
	f, ok := v.Field(field)
	if !ok {
		return false, shapeErr(context, "missing %q", field)
	}
	b, err := f.AsBool()
	if err != nil {
		return false, shapeErr(context, "%q: %w", field, err)
	}
	return b, nil
}
