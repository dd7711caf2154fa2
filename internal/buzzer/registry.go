// Package buzzer implements the buzzer device websocket protocol: the
// identification handshake, a process-wide registry keyed by buzzer id,
// and per-phase buzz dispatch delegated to a Dispatcher.
package buzzer

import (
	"sync"

	"github.com/gorilla/websocket"

	"neon-beat-back/internal/storage/metrics"
)

// Connection is one connected buzzer device. Writes go straight to the
// socket, serialized with a mutex rather than routed through a
// queue-plus-writer-goroutine: the reader loop (ready and buzz feedback)
// and service goroutines (light patterns, turn-end feedback) may write
// concurrently, and each write blocks its caller until it completes.
type Connection struct {
	ID   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newConnection(id string, conn *websocket.Conn) *Connection {
	return &Connection{ID: id, conn: conn}
}

func (c *Connection) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Connection) SendReady() {
	_ = c.writeJSON(readyFrame{ID: c.ID, Status: "ready"})
}

// SendCanAnswer reports whether this buzzer's buzz caused it to hold the
// answering slot.
func (c *Connection) SendCanAnswer(canAnswer bool) {
	_ = c.writeJSON(feedbackFrame{ID: c.ID, CanAnswer: canAnswer})
}

func (c *Connection) Close() {
	_ = c.conn.Close()
}

// Registry is the process-wide table of connected buzzer devices, keyed by
// buzzer id. Registering an id already in use evicts and closes the prior
// connection, matching "last writer wins" device-reconnect semantics.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

func (r *Registry) Register(c *Connection) {
	r.mu.Lock()
	if old, ok := r.conns[c.ID]; ok {
		old.Close()
	}
	r.conns[c.ID] = c
	count := len(r.conns)
	r.mu.Unlock()
	metrics.ConnectedBuzzers.Set(float64(count))
}

// Unregister removes id only if it still maps to c (a later reconnect may
// have already replaced it, in which case this is a no-op).
func (r *Registry) Unregister(id string, c *Connection) {
	r.mu.Lock()
	if existing, ok := r.conns[id]; ok && existing == c {
		delete(r.conns, id)
	}
	count := len(r.conns)
	r.mu.Unlock()
	metrics.ConnectedBuzzers.Set(float64(count))
}

func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// SendCanAnswer pushes feedback to id if it is currently connected,
// silently dropping it otherwise (the device disconnected mid-transition).
func (r *Registry) SendCanAnswer(id string, canAnswer bool) {
	if c, ok := r.Get(id); ok {
		c.SendCanAnswer(canAnswer)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
