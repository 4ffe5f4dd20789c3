package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// sendBuffer is how many events a terminal may lag behind before the hub
	// drops it. A dropped terminal reconnects and refetches the snapshot.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Terminals authenticate with a token; the origin is not checked.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one terminal subscribed to one order.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	orderID uuid.UUID
	userID  uuid.UUID
	send    chan []byte
}

// subscribedFrame is the first frame a terminal receives. Events queued
// after it are guaranteed to reach the terminal, so a snapshot fetched once
// this frame arrives plus every later event with a higher revision yields
// the current order.
func subscribedFrame(orderID uuid.UUID) []byte {
	b, _ := json.Marshal(Event{Type: EventSubscribed, OrderID: orderID})
	return b
}

// readLoop only watches for disconnects and pongs; terminals never send
// order changes over the socket.
func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithFields(log.Fields{
					"order_id": c.orderID,
					"user_id":  c.userID,
				}).Debug("terminal disconnected")
			}
			return
		}
	}
}

// writeLoop sends one event per text frame so terminals can decode each
// frame as a single JSON document.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dropped by the hub (slow terminal or shutdown).
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resubscribe"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS subscribes a terminal to one order's events.
// Endpoint: GET /ws/orders/{id}?token=JWT
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ValidateToken(jwtSecret, auth.TokenFromRequest(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).WithField("order_id", orderID).Warn("websocket upgrade")
		return
	}

	c := &Client{
		hub:     hub,
		conn:    conn,
		orderID: orderID,
		userID:  claims.UserID,
		send:    make(chan []byte, sendBuffer),
	}
	// Queued before registration so it is always the first frame.
	c.send <- subscribedFrame(orderID)
	if !hub.join(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go c.writeLoop()
	go c.readLoop()
}
