// Package httpapi wires the loaded catalogue/router/render state into
// Fiber HTTP handlers for catalogueserver, the optional read-only front
// end over a single snapshot: one Handler struct bundling the
// dependencies every endpoint needs, a plain func(*fiber.Ctx) error per
// route, JSON error bodies on failure.
package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/transitcat/internal/cache"
	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/maprender"
	"github.com/yourorg/transitcat/internal/progresslog"
	"github.com/yourorg/transitcat/internal/requestdriver"
	"github.com/yourorg/transitcat/internal/transitrouter"
)

// requestID reads the correlation id middleware.RequestID stamped on
// c, or "" if that middleware isn't mounted (e.g. in tests).
func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}

// ErrorResponse is the JSON body returned for every handler failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StateProvider returns the currently loaded environment. Implemented
// by cmd/catalogueserver with a sync.RWMutex-guarded pointer, so a
// snapshot reload never races an in-flight request.
type StateProvider func() (requestdriver.Environment, bool)

// Handler bundles the dependencies every route needs: the current
// snapshot state, read through the response caches.
type Handler struct {
	state StateProvider
}

// NewHandler returns a Handler reading snapshot state from state.
func NewHandler(state StateProvider) *Handler {
	return &Handler{state: state}
}

// RateLimiters bundles the middleware applied to the query and map
// routes — a separate type so Register doesn't depend on
// internal/middleware directly; cmd/catalogueserver wires the concrete
// limiters in.
type RateLimiters struct {
	Query fiber.Handler
	Map   fiber.Handler
}

// Register mounts every catalogueserver route on app.
func Register(app *fiber.App, h *Handler, rl RateLimiters) {
	app.Get("/health", h.Health)
	app.Get("/stops/:name", rl.Query, h.GetStop)
	app.Get("/buses/:name", rl.Query, h.GetBus)
	app.Get("/route", rl.Query, h.GetRoute)
	app.Get("/map", rl.Map, h.GetMap)
}

func noSnapshot(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no snapshot loaded"})
}

// Health reports whether a snapshot is currently loaded.
func (h *Handler) Health(c *fiber.Ctx) error {
	_, ok := h.state()
	return c.JSON(fiber.Map{"snapshot_loaded": ok})
}

// GetStop answers GET /stops/:name with the stop's bus list, matching
// requestdriver's stat_requests Stop response shape.
func (h *Handler) GetStop(c *fiber.Ctx) error {
	env, ok := h.state()
	if !ok {
		return noSnapshot(c)
	}
	name := c.Params("name")
	if progresslog.IsEnabled() {
		progresslog.Info("query", map[string]any{"request_id": requestID(c), "endpoint": "stop", "name": name})
	}

	cacheKey := "stop:" + name
	if cached, found := cache.StatAnswerCache.Get(cacheKey); found {
		return c.JSON(cached)
	}

	stop := env.Catalogue.GetStop(name)
	if stop.Type == catalogue.StopUndefined {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "stop not found"})
	}

	resp := fiber.Map{"name": stop.Name, "buses": stop.BusesAtStop}
	cache.StatAnswerCache.Set(cacheKey, resp)
	return c.JSON(resp)
}

// GetBus answers GET /buses/:name with the bus's route-length/curvature
// metrics, matching requestdriver's stat_requests Bus response shape.
func (h *Handler) GetBus(c *fiber.Ctx) error {
	env, ok := h.state()
	if !ok {
		return noSnapshot(c)
	}
	name := c.Params("name")
	if progresslog.IsEnabled() {
		progresslog.Info("query", map[string]any{"request_id": requestID(c), "endpoint": "bus", "name": name})
	}

	cacheKey := "bus:" + name
	if cached, found := cache.StatAnswerCache.Get(cacheKey); found {
		return c.JSON(cached)
	}

	m, ok := env.Catalogue.BusMetrics(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "bus not found"})
	}

	resp := fiber.Map{
		"name":              name,
		"stop_count":        m.StopCount,
		"unique_stop_count": m.UniqueStopCount,
		"route_length":      m.RouteLength,
		"curvature":         m.Curvature,
	}
	cache.StatAnswerCache.Set(cacheKey, resp)
	return c.JSON(resp)
}

// GetRoute answers GET /route?from=X&to=Y with the best itinerary
// between two stops, matching requestdriver's stat_requests Route
// response shape.
func (h *Handler) GetRoute(c *fiber.Ctx) error {
	env, ok := h.state()
	if !ok {
		return noSnapshot(c)
	}
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "from and to query parameters are required"})
	}
	if progresslog.IsEnabled() {
		progresslog.Info("query", map[string]any{"request_id": requestID(c), "endpoint": "route", "from": from, "to": to})
	}

	cacheKey := "route:" + from + ">" + to
	if cached, found := cache.RouteAnswerCache.Get(cacheKey); found {
		return c.JSON(cached)
	}

	if env.Router == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no route found"})
	}
	result, ok := env.Router.Route(from, to)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no route found"})
	}

	items := make([]fiber.Map, 0, len(result.Events))
	for _, ev := range result.Events {
		switch ev.Kind {
		case transitrouter.EventWait:
			items = append(items, fiber.Map{"type": "Wait", "stop_name": ev.Stop, "time": ev.Time})
		case transitrouter.EventRide:
			items = append(items, fiber.Map{"type": "Bus", "bus": ev.Bus, "span_count": ev.SpanCount, "time": ev.Time})
		}
	}
	resp := fiber.Map{"total_time": result.TotalTime, "items": items}
	cache.RouteAnswerCache.Set(cacheKey, resp)
	return c.JSON(resp)
}

// GetMap answers GET /map with the rendered SVG document as
// image/svg+xml.
func (h *Handler) GetMap(c *fiber.Ctx) error {
	env, ok := h.state()
	if !ok {
		return noSnapshot(c)
	}
	if progresslog.IsEnabled() {
		progresslog.Info("query", map[string]any{"request_id": requestID(c), "endpoint": "map"})
	}

	const cacheKey = "map:svg"
	if cached, found := cache.MapCache.Get(cacheKey); found {
		c.Set(fiber.HeaderContentType, "image/svg+xml")
		return c.SendString(cached.(string))
	}

	doc := maprender.Render(env.Catalogue, env.Render)
	var out strings.Builder
	_ = doc.Render(&out) // svg.Document.Render over a strings.Builder never fails

	svgText := out.String()
	cache.MapCache.Set(cacheKey, svgText)
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(svgText)
}
