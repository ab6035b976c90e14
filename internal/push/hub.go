package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gw2tools/tpwatch/internal/model"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 512

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 64
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Overlay clients connect from local tooling; allow all origins.
		return true
	},
}

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// orderPayload is the wire form of a single order in an update message.
type orderPayload struct {
	ID          int64  `json:"id"`
	ItemID      int    `json:"item_id"`
	ItemName    string `json:"item_name,omitempty"`
	Kind        string `json:"kind"`
	Price       int    `json:"price"`
	Quantity    int    `json:"quantity"`
	IsBestPrice bool   `json:"is_best_price"`
	CreatedAt   string `json:"created_at"`
}

// updatePayload is the wire form of a published aggregation result.
type updatePayload struct {
	FetchedAt  string         `json:"fetched_at"`
	OrderCount int            `json:"order_count"`
	BuyCount   int            `json:"buy_count"`
	SellCount  int            `json:"sell_count"`
	Orders     []orderPayload `json:"orders"`
}

// envelope wraps every outgoing message with a type discriminator.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub manages a set of connected WebSocket clients and broadcasts published
// aggregation results to all of them.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
	logger     *slog.Logger
	startedAt  time.Time
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
		startedAt:  time.Now().UTC(),
	}
}

// Run starts the hub's main event loop. It should be called in a goroutine.
// It handles client registration, unregistration, and message broadcasting.
// The loop exits when the provided context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("push: client connected",
				slog.Int("total_clients", h.ClientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("push: client disconnected",
				slog.Int("total_clients", h.ClientCount()),
			)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Client's send buffer is full; drop the message.
					h.logger.Warn("push: dropping message for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastUpdate publishes an aggregation result to all connected clients.
// It is safe to call from an aggregator update callback.
func (h *Hub) BroadcastUpdate(res *model.AggregationResult) {
	if res == nil {
		return
	}
	msg, err := json.Marshal(envelope{
		Type:    "orders_updated",
		Payload: buildUpdate(res),
	})
	if err != nil {
		h.logger.Error("push: failed to marshal update", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("push: broadcast queue full, dropping update")
	}
}

// ServeHTTP upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("push: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.register <- c
	c.sendInitialStatus()

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// buildUpdate converts an aggregation result to its wire form.
func buildUpdate(res *model.AggregationResult) updatePayload {
	orders := make([]orderPayload, 0, len(res.Orders))
	buys := 0
	for _, o := range res.Orders {
		name := ""
		if o.Item != nil {
			name = o.Item.Name
		}
		if o.Kind == model.KindBuy {
			buys++
		}
		orders = append(orders, orderPayload{
			ID:          o.ID,
			ItemID:      o.ItemID,
			ItemName:    name,
			Kind:        o.Kind.String(),
			Price:       o.Price,
			Quantity:    o.Quantity,
			IsBestPrice: o.IsBestPrice,
			CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return updatePayload{
		FetchedAt:  res.FetchedAt.UTC().Format(time.RFC3339),
		OrderCount: len(res.Orders),
		BuyCount:   buys,
		SellCount:  len(res.Orders) - buys,
		Orders:     orders,
	}
}

// readPump reads messages from the WebSocket connection. Clients do not send
// data frames; the pump exists to process control frames and detect closes.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("push: unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// sendInitialStatus pushes a small JSON envelope so clients can immediately
// mark the connection as healthy before the first poll cycle publishes.
func (c *client) sendInitialStatus() {
	uptime := int64(time.Since(c.hub.startedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}

	msg, err := json.Marshal(envelope{
		Type: "status",
		Payload: map[string]any{
			"connected":      true,
			"uptime_seconds": uptime,
		},
	})
	if err != nil {
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}

// writePump pumps messages from the hub to the WebSocket connection and sends
// periodic ping frames for keepalive.
func (c *client) writePump() {
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
				// The hub closed the channel.
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
