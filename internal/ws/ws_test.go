package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/selector"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) downstreamMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg downstreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid message %s: %v", data, err)
	}
	return msg
}

func waitForSubscribers(t *testing.T, hub *Hub, topic string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(topic) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers on %s, got %d", n, topic, hub.Subscribers(topic))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnectAndReceiveScan(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "?topics=scans,bogus")

	if msg := readMessage(t, conn); msg.Type != typeConnected || msg.ConnectionID == "" {
		t.Fatalf("expected connected message, got %+v", msg)
	}
	waitForSubscribers(t, hub, TopicScans, 1)

	PublishScan(hub, &selector.ScanResult{ScanID: "scan-1", State: selector.Done}, zap.NewNop())

	msg := readMessage(t, conn)
	if msg.Type != typeEvent || msg.Topic != TopicScans {
		t.Fatalf("expected scans event, got %+v", msg)
	}
	var result selector.ScanResult
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.ScanID != "scan-1" {
		t.Errorf("unexpected payload %+v", result)
	}
}

func TestSubscribeMessagesAndPing(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	readMessage(t, conn) // connected

	send := func(v any) {
		if err := conn.WriteJSON(v); err != nil {
			t.Fatal(err)
		}
	}

	send(map[string]any{"type": "subscribe", "topic": TopicMarketContext, "ackId": 1})
	if msg := readMessage(t, conn); msg.Type != typeAck || *msg.AckID != 1 || !*msg.Success {
		t.Fatalf("expected successful ack, got %+v", msg)
	}
	waitForSubscribers(t, hub, TopicMarketContext, 1)

	send(map[string]any{"type": "subscribe", "topic": "quotes", "ackId": 2})
	if msg := readMessage(t, conn); msg.Type != typeAck || *msg.AckID != 2 || *msg.Success {
		t.Fatalf("expected failed ack for unknown topic, got %+v", msg)
	}

	send(map[string]any{"type": "ping"})
	if msg := readMessage(t, conn); msg.Type != typePong {
		t.Fatalf("expected pong, got %+v", msg)
	}

	send(map[string]any{"type": "unsubscribe", "topic": TopicMarketContext})
	waitForSubscribers(t, hub, TopicMarketContext, 0)
}

func TestDisconnectRemovesSubscriptions(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "?topics=scans")
	readMessage(t, conn)
	waitForSubscribers(t, hub, TopicScans, 1)

	conn.Close()
	waitForSubscribers(t, hub, TopicScans, 0)
}

func TestParseUpstreamMessage(t *testing.T) {
	if _, err := parseUpstreamMessage([]byte(`{"type":"subscribe","topic":"scans"}`)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := parseUpstreamMessage([]byte(`{"type":"joinGroup"}`)); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := parseUpstreamMessage([]byte(`nope`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

type countingScanner struct{ calls int }

func (c *countingScanner) Scan(_ context.Context, req selector.ScanRequest) (*selector.ScanResult, error) {
	c.calls++
	return &selector.ScanResult{ScanID: "s", State: selector.Done, MarketContext: selector.MarketContext{Spot: 580}}, nil
}

func TestStreamer_Tick(t *testing.T) {
	hub := NewHub(zap.NewNop())
	scanner := &countingScanner{}
	open := true
	streamer := NewStreamer(hub, scanner, time.Minute, 10000, func(time.Time) bool { return open }, zap.NewNop())

	streamer.tick(context.Background(), time.Now())
	if scanner.calls != 0 {
		t.Error("expected no scan without subscribers")
	}

	client := &Client{hub: hub, send: make(chan []byte, 4), connID: "test", topics: map[string]bool{}}
	hub.add(client)
	hub.Subscribe(client, TopicMarketContext)

	open = false
	streamer.tick(context.Background(), time.Now())
	if scanner.calls != 0 {
		t.Error("expected no scan while the market is closed")
	}

	open = true
	streamer.tick(context.Background(), time.Now())
	if scanner.calls != 1 {
		t.Fatalf("expected one scan, got %d", scanner.calls)
	}

	select {
	case data := <-client.send:
		var msg downstreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Topic != TopicMarketContext || !strings.Contains(string(msg.Data), `"spot":580`) {
			t.Errorf("unexpected event %s", data)
		}
	default:
		t.Fatal("expected a market context event")
	}
	if len(client.send) != 0 {
		t.Error("client subscribed only to market_context should not get scan events")
	}
}

func TestSubscribeAfterSlowClientDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan []byte, 1), connID: "slow", topics: map[string]bool{}}
	if !hub.add(client) || !hub.Subscribe(client, TopicScans) {
		t.Fatal("expected registered client to subscribe")
	}

	// The second publish overflows the one-slot buffer and drops the client.
	for i := 0; i < 2; i++ {
		if err := hub.Publish(TopicScans, map[string]int{"n": i}); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	waitForSubscribers(t, hub, TopicScans, 0)

	if hub.Subscribe(client, TopicScans) {
		t.Error("dropped client must not be able to resubscribe")
	}
	if n := hub.Subscribers(TopicScans); n != 0 {
		t.Errorf("expected no subscribers, got %d", n)
	}
	if err := hub.Publish(TopicScans, map[string]int{"n": 2}); err != nil {
		t.Errorf("publish after drop failed: %v", err)
	}
}

func TestSubscribeAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1), connID: "late", topics: map[string]bool{}}
	hub.add(client)
	cancel()
	<-done

	if hub.Subscribe(client, TopicScans) {
		t.Error("expected subscribe to fail after shutdown")
	}
}
