package realtime

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/peochain/peochain-api/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	clientSendBuf  = 16
	broadcastBuf   = 64
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The marketing site is served from a different origin than the API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected WebSocket subscriber with a buffered outgoing
// channel. The broadcast loop never blocks on a slow client; frames that
// do not fit in the buffer are dropped and counted.
type Client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub is the in-process broadcaster. All events pass through a single
// broadcast loop, so every client observes them in publish order.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	droppedFrames int64
	published     int64
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Event, broadcastBuf),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set; register, unregister and broadcast are all
// serialized here so no lock is needed.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			utils.LogDebug("Realtime client connected, %d active", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				utils.LogDebug("Realtime client disconnected, %d active", len(h.clients))
			}
		case event := <-h.broadcast:
			atomic.AddInt64(&h.published, 1)
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					atomic.AddInt64(&h.droppedFrames, 1)
					utils.LogError("Realtime client too slow, dropping %s frame", event.Type)
				}
			}
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Stop shuts the hub down and closes all client send channels.
func (h *Hub) Stop() {
	close(h.done)
}

// Publish queues an event for broadcast. Non-blocking: if the broadcast
// buffer is full the event is dropped, matching the best-effort contract.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		atomic.AddInt64(&h.droppedFrames, 1)
		utils.LogError("Realtime broadcast buffer full, dropping %s event", event.Type)
	}
}

// DroppedFrames reports how many frames were discarded for slow clients.
func (h *Hub) DroppedFrames() int64 {
	return atomic.LoadInt64(&h.droppedFrames)
}

// Published reports how many events the broadcast loop has fanned out.
func (h *Hub) Published() int64 {
	return atomic.LoadInt64(&h.published)
}

// ServeWS upgrades the HTTP request and subscribes the client to the
// analytics broadcast group until it disconnects.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogError("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan Event, clientSendBuf),
	}
	select {
	case h.register <- client:
	case <-h.done:
		// Hub already stopped; nobody will ever receive the registration
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only listen; reads exist to drive pong handling and
		// notice disconnects
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
