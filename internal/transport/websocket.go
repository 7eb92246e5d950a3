// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "chromascope/internal/log"
)

// DefaultMinSendInterval caps broadcast frequency at roughly 30Hz.
const DefaultMinSendInterval = 33 * time.Millisecond

// WebSocketTransport broadcasts analysis events as JSON to all
// connected clients with rate limiting to prevent overwhelming clients
// or the network.
//
// Thread Safety:
// - Uses mutex for client map access and the rate limiter
// - Handles concurrent connections safely
// - Dead clients are dropped on write failure
type WebSocketTransport struct {
	clients         map[*websocket.Conn]bool
	clientsMutex    sync.Mutex
	upgrader        websocket.Upgrader
	server          *http.Server
	sendRateLimiter time.Time
	minSendInterval time.Duration
}

// NewWebSocketTransport creates a WebSocket transport and starts its
// HTTP server on the given port. Clients connect to /events. A
// minInterval of 0 applies DefaultMinSendInterval.
func NewWebSocketTransport(port string, minInterval time.Duration) *WebSocketTransport {
	if minInterval <= 0 {
		minInterval = DefaultMinSendInterval
	}

	t := &WebSocketTransport{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Visualizers connect from arbitrary origins
			},
		},
		minSendInterval: minInterval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", t.handleWebSocket)
	t.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		applog.Infof("WebSocket server listening on port %s", port)
		if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
			applog.Errorf("WebSocket server error: %v", err)
		}
	}()

	return t
}

// handleWebSocket upgrades HTTP connections to the WebSocket protocol,
// registers the client, and watches the connection for closure.
func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	t.clientsMutex.Lock()
	t.clients[conn] = true
	total := len(t.clients)
	t.clientsMutex.Unlock()
	applog.Debugf("WebSocket client connected, total: %d", total)

	// Listen for close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.clientsMutex.Lock()
				delete(t.clients, conn)
				t.clientsMutex.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Send broadcasts one event to all connected clients. Events arriving
// faster than the minimum send interval are dropped; the next event
// carries the current state, so no client falls behind.
func (t *WebSocketTransport) Send(data any) error {
	t.clientsMutex.Lock()
	defer t.clientsMutex.Unlock()

	now := time.Now()
	if now.Sub(t.sendRateLimiter) < t.minSendInterval {
		return nil // Skip this update
	}
	t.sendRateLimiter = now

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	for client := range t.clients {
		if err := client.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			client.Close()
			delete(t.clients, client)
		}
	}

	return nil
}

// Close disconnects all clients and shuts down the HTTP server.
func (t *WebSocketTransport) Close() error {
	t.clientsMutex.Lock()
	for client := range t.clients {
		client.Close()
		delete(t.clients, client)
	}
	t.clientsMutex.Unlock()

	return t.server.Close()
}

var _ Transport = (*WebSocketTransport)(nil)
