package main

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client represents a websocket connection bound to a seated player.
// viewerID is empty for spectators who have not joined a seat yet. It is
// written by the connection's reader goroutine on a seat claim and read by
// the hub goroutine on every broadcast, so both sides go through seatMu.
type Client struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex // Serialize writes to WebSocket (required by gorilla/websocket)
	seatMu   sync.Mutex
	viewerID string
}

func (c *Client) write(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// claimSeat binds the connection to a player id.
func (c *Client) claimSeat(id string) {
	c.seatMu.Lock()
	c.viewerID = id
	c.seatMu.Unlock()
}

// viewer returns the player id the connection is bound to, or "".
func (c *Client) viewer() string {
	c.seatMu.Lock()
	defer c.seatMu.Unlock()
	return c.viewerID
}

// Hub tracks connected clients and fans state updates out to them. Because
// each viewer sees a different slice of the game (their own role, their
// channels), broadcasts carry a render function instead of fixed bytes.
type Hub struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan func(viewerID string) []byte
	register   chan *Client
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	done       chan struct{}
	wg         sync.WaitGroup
	log        *zap.SugaredLogger
}

func newHub(log *zap.SugaredLogger) *Hub {
	h := &Hub{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan func(viewerID string) []byte),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn, 64),
		done:       make(chan struct{}),
		log:        log,
	}
	// Registered here, not inside run, so a stop racing a freshly
	// launched run still waits for it.
	h.wg.Add(1)
	return h
}

// stop signals the hub goroutine to exit and waits for it to finish.
func (h *Hub) stop() {
	close(h.done)
	h.wg.Wait()
}

// sendToPlayer delivers a message to every connection the player holds.
func (h *Hub) sendToPlayer(viewerID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.viewer() != viewerID {
			continue
		}
		if err := client.write(message); err != nil {
			h.log.Warnw("websocket write failed", "viewer", viewerID, "err", err)
		}
	}
}

// broadcastView renders and sends a per-viewer payload to every client.
// render is called once per connection with that connection's viewer id.
func (h *Hub) broadcastView(render func(viewerID string) []byte) {
	select {
	case h.broadcast <- render:
	case <-h.done:
	}
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Infow("websocket client connected", "viewer", client.viewer(), "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				h.log.Infow("websocket client disconnected",
					"viewer", client.viewer(), "total", len(h.clients))
			}
			h.mu.Unlock()

		case render := <-h.broadcast:
			h.mu.RLock()
			stale := make([]*websocket.Conn, 0)
			for conn, client := range h.clients {
				viewerID := client.viewer()
				if err := client.write(render(viewerID)); err != nil {
					h.log.Warnw("websocket write failed", "viewer", viewerID, "err", err)
					stale = append(stale, conn)
				}
			}
			h.mu.RUnlock()
			h.mu.Lock()
			for _, conn := range stale {
				if _, ok := h.clients[conn]; ok {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}
