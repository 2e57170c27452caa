package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Send buffer size per client.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents a WebSocket client connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	connID string
	topics map[string]bool
	logger *zap.Logger
}

// HandleWS upgrades the request and registers the connection. Clients pass
// ?topics=scans,market_context to subscribe on connect, or send subscribe
// messages later.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		connID: uuid.NewString(),
		topics: make(map[string]bool),
		logger: h.logger,
	}

	if !h.add(client) {
		conn.Close()
		return
	}

	client.trySend(buildConnectedMessage(client.connID))
	for _, topic := range splitTopics(r.URL.Query().Get("topics")) {
		if ValidTopics[topic] {
			h.Subscribe(client, topic)
		}
	}

	// Start read/write pumps
	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
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
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
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

// handleMessage processes an incoming upstream message.
func (c *Client) handleMessage(data []byte) {
	msg, err := parseUpstreamMessage(data)
	if err != nil {
		c.logger.Debug("failed to parse upstream message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		return
	}

	switch msg.Type {
	case typeSubscribe:
		ok := ValidTopics[msg.Topic]
		if ok {
			ok = c.hub.Subscribe(c, msg.Topic)
		} else {
			c.logger.Debug("invalid topic",
				zap.String("connID", c.connID),
				zap.String("topic", msg.Topic),
			)
		}
		c.ack(msg.AckID, ok)

	case typeUnsubscribe:
		c.hub.Unsubscribe(c, msg.Topic)
		c.ack(msg.AckID, true)

	case typePing:
		c.trySend(buildPongMessage())
	}
}

func (c *Client) ack(ackID *uint64, success bool) {
	if ackID != nil {
		c.trySend(buildAckMessage(*ackID, success))
	}
}

// trySend queues a reply without blocking the read loop.
func (c *Client) trySend(msg []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
