package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/banshee-data/ringroad/internal/httputil"
	"github.com/banshee-data/ringroad/internal/monitoring"
)

const (
	clientBuffer   = 16
	broadcastQueue = 64
	writeWait      = 5 * time.Second
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frames out to connected WebSocket clients. Slow clients whose
// send buffer fills are dropped rather than stalling the simulation.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader

	connected atomic.Int64

	mu     sync.RWMutex
	latest []byte
	info   interface{}
}

// NewHub returns a hub. info is served as-is from /api/config.
func NewHub(info interface{}) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		info:       info,
	}
}

// Run services registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.connected.Store(0)
			return
		case c := <-h.register:
			h.clients[c] = true
			h.connected.Store(int64(len(h.clients)))
			monitoring.Logf("[viewer] client %s connected (%d total)", c.id, len(h.clients))
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.connected.Store(int64(len(h.clients)))
				monitoring.Logf("[viewer] client %s disconnected", c.id)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
					monitoring.Logf("[viewer] dropping slow client %s", c.id)
				}
			}
			h.connected.Store(int64(len(h.clients)))
		}
	}
}

// Publish encodes f, keeps it as the latest frame and queues it for
// broadcast. When the queue is full the frame is only kept as latest.
func (h *Hub) Publish(f Frame) error {
	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.latest = msg
	h.mu.Unlock()

	select {
	case h.broadcast <- msg:
	default:
	}
	return nil
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	return int(h.connected.Load())
}

func (h *Hub) latestFrame() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Handler serves the frame stream on /ws, the latest frame on /api/frame
// and the run configuration on /api/config.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/api/frame", h.showFrame)
	mux.HandleFunc("/api/config", h.showConfig)
	return mux
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("[viewer] upgrade failed: %v", err)
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientBuffer)}
	if msg := h.latestFrame(); msg != nil {
		c.send <- msg
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writer()
	go c.reader(h)
}

func (h *Hub) showFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	msg := h.latestFrame()
	if msg == nil {
		httputil.NotFound(w, "no frame yet")
		return
	}
	httputil.WriteJSONOK(w, json.RawMessage(msg))
}

func (h *Hub) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, h.info)
}

// reader drains incoming messages so close frames are seen.
func (c *client) reader(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
