// Command catalogueserver is an optional read-only HTTP front end over
// a single loaded snapshot: GET /stops/:name, /buses/:name, /route,
// /map, and /health, plus a /ws/progress feed of ingestion/query
// events when TRANSITCAT_VERBOSE is enabled. It never runs make_base
// or process_requests itself; point it at a snapshot already produced
// by the catalogue command.
package main

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/yourorg/transitcat/internal/cache"
	"github.com/yourorg/transitcat/internal/httpapi"
	"github.com/yourorg/transitcat/internal/middleware"
	"github.com/yourorg/transitcat/internal/progresslog"
	"github.com/yourorg/transitcat/internal/requestdriver"
	"github.com/yourorg/transitcat/internal/snapshot"
)

// snapshotState guards the currently loaded environment behind a
// sync.RWMutex, so a future reload never races an in-flight request.
// It implements httpapi.StateProvider through its get method.
type snapshotState struct {
	mu     sync.RWMutex
	env    requestdriver.Environment
	loaded bool
}

func (s *snapshotState) get() (requestdriver.Environment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env, s.loaded
}

func (s *snapshotState) set(env requestdriver.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
	s.loaded = true
}

func (s *snapshotState) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := snapshot.Read(f)
	if err != nil {
		return err
	}
	s.set(requestdriver.Environment{Catalogue: st.Catalogue, Router: st.Router, Render: st.Render})
	return nil
}

func main() {
	_ = godotenv.Load()

	state := &snapshotState{}
	if path := os.Getenv("TRANSITCAT_SNAPSHOT"); path != "" {
		if err := state.load(path); err != nil {
			log.Printf("catalogueserver: load snapshot %s: %v (starting unloaded)", path, err)
		} else {
			log.Printf("catalogueserver: loaded snapshot %s", path)
		}
	} else {
		log.Println("catalogueserver: TRANSITCAT_SNAPSHOT not set, starting unloaded")
	}

	cache.InitCaches()

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	app.Use(logger.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.GlobalRateLimiter())

	h := httpapi.NewHandler(state.get)
	httpapi.Register(app, h, httpapi.RateLimiters{
		Query: middleware.QueryRateLimiter(),
		Map:   middleware.MapRenderLimiter(),
	})

	app.Use("/ws/progress", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/progress", websocket.New(func(c *websocket.Conn) {
		progresslog.HandleWebSocket(c)
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("catalogueserver: listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
