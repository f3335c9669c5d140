package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message es el sobre que viaja por el WebSocket hacia las UIs
// conectadas. Payload depende del tipo de evento.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	writeWait      = 10 * time.Second
	clientBacklog  = 16
	handshakeGrace = 10 * time.Second
)

// Hub reparte eventos de la plataforma (órdenes, tickets, cambios de
// sesión) a los clientes WebSocket conectados. La entrega es
// best-effort: un cliente lento pierde mensajes en vez de frenar al
// resto.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeGrace,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Serve promociona la petición HTTP a WebSocket y atiende al cliente
// hasta que cierre o falle la conexión.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", zap.Int("clients", n))

	go h.writeLoop(c)
	h.readLoop(c)
}

// Broadcast serializa el mensaje y lo encola para todos los clientes.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	body, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Warn("failed to marshal broadcast message", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- body:
		default:
			// Cliente saturado: se descarta el mensaje.
		}
	}
}

// Close desconecta a todos los clientes.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		c.conn.Close()
	}
}

func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		// No se esperan mensajes entrantes; el loop solo detecta el
		// cierre de la conexión.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for body := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
}
