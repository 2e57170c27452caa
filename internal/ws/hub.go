package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub manages WebSocket connections and topic subscriptions.
type Hub struct {
	clients    map[*Client]bool
	topics     map[string]map[*Client]bool // topic -> clients
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			h.shutdown()
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for topic := range client.topics {
					if clients, ok := h.topics[topic]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.topics, topic)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", client.connID))
		}
	}
}

// add registers a client. It reports false once the hub has shut down.
func (h *Hub) add(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[client] = true
	h.logger.Debug("client registered", zap.String("connID", client.connID))
	return true
}

// shutdown gracefully closes all client connections.
func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.topics = make(map[string]map[*Client]bool)
}

// Subscribe adds a client to a topic. It reports false when the client is
// no longer registered, e.g. after being dropped as a slow consumer, since
// its send channel may already be closed.
func (h *Hub) Subscribe(client *Client, topic string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}
	if !h.clients[client] {
		return false
	}

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][client] = true
	client.topics[topic] = true

	h.logger.Debug("client subscribed",
		zap.String("connID", client.connID),
		zap.String("topic", topic),
	)
	return true
}

// Unsubscribe removes a client from a topic.
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.topics[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)

	h.logger.Debug("client unsubscribed",
		zap.String("connID", client.connID),
		zap.String("topic", topic),
	)
}

// Subscribers returns the number of clients subscribed to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish sends payload, JSON encoded, to every subscriber of topic. Clients
// whose send buffer is full are disconnected.
func (h *Hub) Publish(topic string, payload any) error {
	if h.Subscribers(topic) == 0 {
		return nil
	}

	msg, err := buildEventMessage(topic, payload)
	if err != nil {
		return err
	}

	// Sends never block, so holding the read lock keeps unregister from
	// closing a channel mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.topics[topic] {
		select {
		case client.send <- msg:
		default:
			go h.remove(client)
		}
	}
	return nil
}

// remove schedules a client for unregistration.
func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
