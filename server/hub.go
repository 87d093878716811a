package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"Atlas/core/events"
	"Atlas/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client 一个事件流订阅连接
type Client struct {
	hub   *EventHub
	conn  *websocket.Conn
	send  chan []byte
	kinds []events.Kind // empty: every kind
}

func (c *Client) wants(k events.Kind) bool {
	return len(c.kinds) == 0 || slices.Contains(c.kinds, k)
}

// EventHub fans bus events out to websocket clients.
type EventHub struct {
	bus *events.Bus

	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewEventHub(bus *events.Bus) *EventHub {
	return &EventHub{
		bus:        bus,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环，ctx 结束时关闭所有连接
func (h *EventHub) Run(ctx context.Context) {
	ch, cancel := h.bus.Subscribe()
	defer cancel()
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			logger.Debug("event client registered", logger.String("remote", c.conn.RemoteAddr().String()))

		case c := <-h.unregister:
			h.remove(c)

		case ev, ok := <-ch:
			if !ok {
				h.cleanup()
				return
			}
			h.broadcast(ev)

		case <-ctx.Done():
			h.cleanup()
			return
		}
	}
}

func (h *EventHub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *EventHub) broadcast(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("marshal event", logger.ErrorField(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.clients {
		if !c.wants(ev.Kind) {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// 发送缓冲区满，移除客户端
	for _, c := range slow {
		h.remove(c)
	}
}

func (h *EventHub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ClientCount 当前连接数
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams events as JSON text frames.
// ?kinds=track_added,track_removed restricts the stream.
func (h *EventHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	if raw := r.URL.Query().Get("kinds"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.kinds = append(c.kinds, events.Kind(k))
			}
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump only consumes control frames; clients never send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err))
			}
			return
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
