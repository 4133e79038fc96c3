// Package progresslog is a small leveled logger for long-running
// ingestion and query-batch work (GTFS imports, make_base catalogue
// builds, process_requests batches), gated by the TRANSITCAT_VERBOSE
// environment variable so a normal batch run stays silent. When enabled
// it also fans every event out over a websocket hub to any connected
// dashboard clients (stops added, buses added, batch position).
package progresslog

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/gofiber/websocket/v2"
)

var enabled = os.Getenv("TRANSITCAT_VERBOSE") == "true"

func init() {
	if enabled {
		log.Println("progresslog: verbose mode enabled")
	}
}

// IsEnabled reports whether verbose logging/broadcasting is turned on.
func IsEnabled() bool { return enabled }

// Level distinguishes the severity of a logged event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func emit(level Level, message string, fields map[string]any) {
	if !enabled {
		return
	}
	log.Printf("[%s] %s %v", level, message, fields)
	sendLog(level, message, fields)
}

// Debug logs and broadcasts a debug-level event. No-op unless
// TRANSITCAT_VERBOSE=true.
func Debug(message string, fields map[string]any) { emit(LevelDebug, message, fields) }

// Info logs and broadcasts an info-level event.
func Info(message string, fields map[string]any) { emit(LevelInfo, message, fields) }

// Warn logs and broadcasts a warn-level event.
func Warn(message string, fields map[string]any) { emit(LevelWarn, message, fields) }

// Error logs and broadcasts an error-level event.
func Error(message string, fields map[string]any) { emit(LevelError, message, fields) }

// IngestionProgress reports how far a make_base build or a GTFS import
// has gotten, broadcast to any connected dashboard clients.
func IngestionProgress(phase string, stopsAdded, busesAdded int) {
	if !enabled {
		return
	}
	log.Printf("ingestion: %s stops=%d buses=%d", phase, stopsAdded, busesAdded)
	broadcast(progressMessage{
		Type:       "ingestion_progress",
		Phase:      phase,
		StopsAdded: stopsAdded,
		BusesAdded: busesAdded,
	})
}

// QueryBatchProgress reports how many stat_requests entries have been
// answered out of the batch total.
func QueryBatchProgress(completed, total int) {
	if !enabled {
		return
	}
	log.Printf("query batch: %d/%d", completed, total)
	broadcast(progressMessage{Type: "query_batch_progress", Completed: completed, Total: total})
}

type progressMessage struct {
	Type       string `json:"type"`
	Phase      string `json:"phase,omitempty"`
	StopsAdded int    `json:"stops_added,omitempty"`
	BusesAdded int    `json:"buses_added,omitempty"`
	Completed  int    `json:"completed,omitempty"`
	Total      int    `json:"total,omitempty"`
}

type logMessage struct {
	Type    string         `json:"type"`
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func sendLog(level Level, message string, fields map[string]any) {
	broadcast(logMessage{Type: "log", Level: level, Message: message, Fields: fields})
}

// Hub fans log and progress events out to every connected websocket
// client: a registration channel, an unregistration channel, and a
// buffered broadcast channel drained by a single goroutine, so
// concurrent log/progress calls never race on the client set.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

var defaultHub = newHub()

func newHub() *Hub {
	h := &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					c.Close()
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func broadcast(v any) {
	if defaultHub.clientCount() == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("progresslog: marshal event: %v", err)
		return
	}
	select {
	case defaultHub.broadcast <- data:
	default:
		// channel full: drop rather than block the caller
	}
}

// HandleWebSocket serves one /ws/progress connection: registers it with
// the hub, blocks reading (discarding) client frames until the socket
// closes, then unregisters. Wired into cmd/catalogueserver's Fiber app.
func HandleWebSocket(conn *websocket.Conn) {
	defaultHub.register <- conn
	defer func() { defaultHub.unregister <- conn }()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
