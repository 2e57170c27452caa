package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/selector"
)

// Notifier sends scan outcomes somewhere a human will see them.
type Notifier interface {
	SendScan(ctx context.Context, symbol string, result *selector.ScanResult) error
	SendFailure(ctx context.Context, symbol string, err error) error
}

var (
	_ Notifier = (*Client)(nil)
	_ Notifier = (*NoopNotifier)(nil)
)

// publishRequest is the body of an ntfy JSON publish.
type publishRequest struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority"`
	Tags     []string `json:"tags,omitempty"`
}

// Client publishes to an ntfy server.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger,
	}
}

// SendScan publishes the scan summary. Scans without recommendations go out
// at low priority.
func (c *Client) SendScan(ctx context.Context, symbol string, result *selector.ScanResult) error {
	priority, tag := c.config.Priority, "white_check_mark"
	switch {
	case result.State == selector.Error:
		tag = "warning"
	case len(result.Recommendations) == 0:
		priority, tag = PriorityLow, "zzz"
	}

	return c.publish(ctx, publishRequest{
		Title:    FormatScanTitle(symbol, result),
		Message:  FormatScanMessage(result),
		Priority: levels[priority],
		Tags:     c.tags(tag),
	})
}

// SendFailure publishes a scan error at high priority.
func (c *Client) SendFailure(ctx context.Context, symbol string, err error) error {
	return c.publish(ctx, publishRequest{
		Title:    fmt.Sprintf("Scan Failed: %s", symbol),
		Message:  fmt.Sprintf("Error: %v", err),
		Priority: levels[PriorityHigh],
		Tags:     c.tags("x"),
	})
}

func (c *Client) tags(extra string) []string {
	return append(append([]string(nil), c.config.Tags...), extra)
}

func (c *Client) publish(ctx context.Context, msg publishRequest) error {
	msg.Topic = c.config.Topic
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	url := strings.TrimSuffix(c.config.Server, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("topic", c.config.Topic),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", msg.Title), zap.Int("priority", msg.Priority))
	return nil
}

// NoopNotifier drops everything.
type NoopNotifier struct{}

func (NoopNotifier) SendScan(context.Context, string, *selector.ScanResult) error { return nil }

func (NoopNotifier) SendFailure(context.Context, string, error) error { return nil }

// New returns a Client when notifications are enabled and a NoopNotifier
// otherwise.
func New(cfg Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
