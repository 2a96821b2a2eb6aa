// Package realtime fans tenant events out to WebSocket subscribers.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventHealthScore = "health_score"
	EventHealthAlert = "health_alert"

	sendBuffer = 32
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client is one subscriber. Admin clients receive every tenant's events.
type Client struct {
	TenantID string
	Admin    bool
	send     chan []byte
	once     sync.Once
}

// Messages exposes the outbound queue; it is closed when the client is dropped.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{clients: map[*Client]struct{}{}, log: log}
}

func (h *Hub) Subscribe(tenantID string, admin bool) *Client {
	c := &Client{TenantID: tenantID, Admin: admin, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers to the tenant's clients and to admins. Clients whose buffer
// is full are dropped rather than blocking the publisher.
func (h *Hub) Publish(tenantID, eventType string, data any) {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		h.log.Error("realtime payload not encodable", zap.String("type", eventType), zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		if !c.Admin && c.TenantID != tenantID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow realtime client", zap.String("tenant_id", c.TenantID))
		h.Unsubscribe(c)
	}
}

// Close drops every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = map[*Client]struct{}{}
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve upgrades the request and pumps events until either side closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, tenantID string, admin bool) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := h.Subscribe(tenantID, admin)
	h.log.Info("realtime client connected", zap.String("tenant_id", tenantID), zap.Bool("admin", admin))

	go h.writePump(conn, c)
	h.readPump(conn, c)
	return nil
}

// readPump only handles control frames; inbound data is ignored.
func (h *Hub) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		h.Unsubscribe(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
