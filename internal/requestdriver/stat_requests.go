// Package requestdriver parses an input batch's base_requests, applies
// them to a catalogue, parses the remaining settings sections, and
// answers stat_requests against the built catalogue, router, and map
// renderer, accumulating one response object per request.
package requestdriver

import (
	"strings"

	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/jsontree"
	"github.com/yourorg/transitcat/internal/maprender"
	"github.com/yourorg/transitcat/internal/transitrouter"
)

// Environment bundles everything a stat request might need to answer.
// Router and Render may be absent (nil Router, zero Settings) if
// the batch never asked for routing or mapping.
type Environment struct {
	Catalogue *catalogue.Catalogue
	Router    *transitrouter.Router
	Render    maprender.Settings
}

// ProcessStatRequests answers every entry in root's "stat_requests"
// array (if present), returning the responses as a jsontree array in
// request order. An entry with an unrecognized "type" is silently
// skipped, per the forward-compatibility rule.
func ProcessStatRequests(env Environment, root jsontree.Value) (jsontree.Value, error) {
	b := jsontree.NewBuilder()
	b.StartArray()

	field, ok := root.Field("stat_requests")
	if !ok {
		return b.EndArray().Build()
	}
	items, err := field.AsArray()
	if err != nil {
		return jsontree.Value{}, shapeErr("stat_requests", "expected an array: %w", err)
	}

	for i, item := range items {
		typeField, ok := item.Field("type")
		if !ok {
			return jsontree.Value{}, shapeErr("stat_requests", "entry %d: missing \"type\"", i)
		}
		typeName, err := typeField.AsString()
		if err != nil {
			return jsontree.Value{}, shapeErr("stat_requests", "entry %d: %w", i, err)
		}

		idField, ok := item.Field("id")
		if !ok {
			return jsontree.Value{}, shapeErr("stat_requests", "entry %d: missing \"id\"", i)
		}
		id, err := idField.AsInt()
		if err != nil {
			return jsontree.Value{}, shapeErr("stat_requests", "entry %d: id: %w", i, err)
		}

		switch typeName {
		case "Bus":
			if err := answerBus(b, env.Catalogue, id, item); err != nil {
				return jsontree.Value{}, err
			}
		case "Stop":
			if err := answerStop(b, env.Catalogue, id, item); err != nil {
				return jsontree.Value{}, err
			}
		case "Map":
			answerMap(b, env.Catalogue, env.Render, id)
		case "Route":
			if err := answerRoute(b, env.Router, id, item); err != nil {
				return jsontree.Value{}, err
			}
		default:
			// unrecognized stat request type: skip, forward compatible
		}
	}

	return b.EndArray().Build()
}

func notFound(b *jsontree.Builder, id int64) {
	b.StartDict().
		Key("request_id").Value(jsontree.Int(id)).
		Key("error_message").Value(jsontree.String("not found")).
		EndDict()
}

func answerBus(b *jsontree.Builder, cat *catalogue.Catalogue, id int64, item jsontree.Value) error {
	name, err := requireString(item, "name", "stat_requests Bus")
	if err != nil {
		return err
	}
	m, ok := cat.BusMetrics(name)
	if !ok {
		notFound(b, id)
		return nil
	}
	b.StartDict().
		Key("request_id").Value(jsontree.Int(id)).
		Key("stop_count").Value(jsontree.Int(int64(m.StopCount))).
		Key("unique_stop_count").Value(jsontree.Int(int64(m.UniqueStopCount))).
		Key("route_length").Value(jsontree.Double(m.RouteLength)).
		Key("curvature").Value(jsontree.Double(m.Curvature)).
		EndDict()
	return nil
}

func answerStop(b *jsontree.Builder, cat *catalogue.Catalogue, id int64, item jsontree.Value) error {
	name, err := requireString(item, "name", "stat_requests Stop")
	if err != nil {
		return err
	}
	stop := cat.GetStop(name)
	if stop.Type == catalogue.StopUndefined {
		notFound(b, id)
		return nil
	}

	b.StartDict().
		Key("request_id").Value(jsontree.Int(id)).
		Key("buses").StartArray()
	for _, name := range stop.BusesAtStop {
		b.Value(jsontree.String(name))
	}
	b.EndArray().EndDict()
	return nil
}

func answerMap(b *jsontree.Builder, cat *catalogue.Catalogue, render maprender.Settings, id int64) {
	doc := maprender.Render(cat, render)
	var out strings.Builder
	_ = doc.Render(&out) // svg.Document.Render over a strings.Builder never fails

	b.StartDict().
		Key("request_id").Value(jsontree.Int(id)).
		Key("map").Value(jsontree.String(out.String())).
		EndDict()
}

func answerRoute(b *jsontree.Builder, router *transitrouter.Router, id int64, item jsontree.Value) error {
	from, err := requireString(item, "from", "stat_requests Route")
	if err != nil {
		return err
	}
	to, err := requireString(item, "to", "stat_requests Route")
	if err != nil {
		return err
	}

	if router == nil {
		notFound(b, id)
		return nil
	}
	result, ok := router.Route(from, to)
	if !ok {
		notFound(b, id)
		return nil
	}

	b.StartDict().
		Key("request_id").Value(jsontree.Int(id)).
		Key("total_time").Value(jsontree.Double(result.TotalTime)).
		Key("items").StartArray()
	for _, ev := range result.Events {
		b.StartDict()
		switch ev.Kind {
		case transitrouter.EventWait:
			b.Key("type").Value(jsontree.String("Wait")).
				Key("stop_name").Value(jsontree.String(ev.Stop)).
				Key("time").Value(jsontree.Double(ev.Time))
		case transitrouter.EventRide:
			b.Key("type").Value(jsontree.String("Bus")).
				Key("bus").Value(jsontree.String(ev.Bus)).
				Key("span_count").Value(jsontree.Int(int64(ev.SpanCount))).
				Key("time").Value(jsontree.Double(ev.Time))
		}
		b.EndDict()
	}
	b.EndArray().EndDict()
	return nil
}
