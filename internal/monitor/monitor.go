// Package monitor exposes a running sweep over HTTP: a JSON snapshot of the
// points finished so far and a WebSocket stream that pushes each point as it
// completes.
package monitor

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/jeongseonghan/baseband/internal/sim"
)

// Monitor collects sweep points and serves them.
type Monitor struct {
	log *log.Logger
	mux *http.ServeMux
	hub *Hub

	mu     sync.RWMutex
	points []sim.Point
	done   bool
}

// New creates a monitor. A nil logger silences it.
func New(logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := &Monitor{
		log: logger,
		mux: http.NewServeMux(),
		hub: NewHub(logger),
	}
	m.setupRoutes()
	return m
}

func (m *Monitor) setupRoutes() {
	// API routes
	m.mux.HandleFunc("/api/results", m.handleResults)
	m.mux.HandleFunc("/api/status", m.handleStatus)

	// WebSocket
	m.mux.HandleFunc("/ws", m.handleWebSocket)
}

// Handler returns the HTTP handler serving the monitor routes.
func (m *Monitor) Handler() http.Handler { return m.mux }

// Serve blocks on ListenAndServe at addr.
func (m *Monitor) Serve(addr string) error {
	m.log.Info("monitor listening", "addr", addr)
	return http.ListenAndServe(addr, m.mux)
}

// Publish records a completed point and streams it to connected clients.
func (m *Monitor) Publish(p sim.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, p)
	m.hub.Broadcast(Message{Type: "point", Payload: p})
}

// Done marks the sweep as finished and notifies clients.
func (m *Monitor) Done() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = true
	m.hub.Broadcast(Message{Type: "done", Payload: len(m.points)})
}

func (m *Monitor) handleResults(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	resp := struct {
		Done   bool        `json:"done"`
		Points []sim.Point `json:"points"`
	}{
		Done:   m.done,
		Points: append([]sim.Point{}, m.points...),
	}
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	status := "running"
	if m.done {
		status = "done"
	}
	n := len(m.points)
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"points":  n,
		"clients": m.hub.Count(),
	})
}

// handleWebSocket upgrades the connection, replays the points finished so
// far, and registers the client for live updates.
func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Error("websocket upgrade", "err", err)
		return
	}

	m.mu.RLock()
	replay := make([]Message, 0, len(m.points)+1)
	for _, p := range m.points {
		replay = append(replay, Message{Type: "point", Payload: p})
	}
	if m.done {
		replay = append(replay, Message{Type: "done", Payload: len(m.points)})
	}
	for _, msg := range replay {
		data, err := json.Marshal(msg)
		if err != nil {
			break
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	m.hub.Add(conn)
	m.mu.RUnlock()

	// Drain client messages to detect disconnects.
	go func() {
		defer m.hub.Remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
