package ws

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Topics clients can subscribe to.
const (
	TopicScans         = "scans"
	TopicMarketContext = "market_context"
)

// ValidTopics lists the accepted subscription topics.
var ValidTopics = map[string]bool{
	TopicScans:         true,
	TopicMarketContext: true,
}

// Upstream message types
const (
	typeSubscribe   = "subscribe"
	typeUnsubscribe = "unsubscribe"
	typePing        = "ping"
)

// Downstream message types
const (
	typeConnected = "connected"
	typeAck       = "ack"
	typePong      = "pong"
	typeEvent     = "event"
)

// upstreamMessage is sent by clients.
type upstreamMessage struct {
	Type  string  `json:"type"`
	Topic string  `json:"topic,omitempty"`
	AckID *uint64 `json:"ackId,omitempty"`
}

// downstreamMessage is sent to clients.
type downstreamMessage struct {
	Type         string          `json:"type"`
	ConnectionID string          `json:"connectionId,omitempty"`
	AckID        *uint64         `json:"ackId,omitempty"`
	Success      *bool           `json:"success,omitempty"`
	Topic        string          `json:"topic,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

func parseUpstreamMessage(data []byte) (*upstreamMessage, error) {
	var msg upstreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal upstream message: %w", err)
	}
	switch msg.Type {
	case typeSubscribe, typeUnsubscribe, typePing:
		return &msg, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", msg.Type)
	}
}

func buildConnectedMessage(connectionID string) []byte {
	data, _ := json.Marshal(downstreamMessage{Type: typeConnected, ConnectionID: connectionID})
	return data
}

func buildAckMessage(ackID uint64, success bool) []byte {
	data, _ := json.Marshal(downstreamMessage{Type: typeAck, AckID: &ackID, Success: &success})
	return data
}

func buildPongMessage() []byte {
	data, _ := json.Marshal(downstreamMessage{Type: typePong})
	return data
}

func buildEventMessage(topic string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", topic, err)
	}
	return json.Marshal(downstreamMessage{Type: typeEvent, Topic: topic, Data: raw})
}

func splitTopics(raw string) []string {
	if raw == "" {
		return nil
	}
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
