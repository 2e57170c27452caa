package ws

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/selector"
)

// Scanner runs a scan.
type Scanner interface {
	Scan(ctx context.Context, req selector.ScanRequest) (*selector.ScanResult, error)
}

// Streamer runs scans on an interval and publishes each result to the hub.
// Ticks are skipped while nobody is subscribed or the market is closed.
type Streamer struct {
	hub         *Hub
	scanner     Scanner
	interval    time.Duration
	accountSize float64
	marketOpen  func(time.Time) bool
	logger      *zap.Logger
}

// NewStreamer creates a Streamer. marketOpen may be nil to scan on every tick.
func NewStreamer(hub *Hub, scanner Scanner, interval time.Duration, accountSize float64, marketOpen func(time.Time) bool, logger *zap.Logger) *Streamer {
	if marketOpen == nil {
		marketOpen = func(time.Time) bool { return true }
	}
	return &Streamer{
		hub:         hub,
		scanner:     scanner,
		interval:    interval,
		accountSize: accountSize,
		marketOpen:  marketOpen,
		logger:      logger,
	}
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("streamer started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("streamer stopping")
			return

		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Streamer) tick(ctx context.Context, now time.Time) {
	if s.hub.Subscribers(TopicScans)+s.hub.Subscribers(TopicMarketContext) == 0 {
		return
	}
	if !s.marketOpen(now) {
		s.logger.Debug("market closed, skipping streamed scan")
		return
	}

	result, err := s.scanner.Scan(ctx, selector.ScanRequest{AccountSize: s.accountSize})
	if err != nil {
		s.logger.Warn("streamed scan failed", zap.Error(err))
		return
	}
	PublishScan(s.hub, result, s.logger)
}

// PublishScan pushes a scan result and its market context to hub subscribers.
func PublishScan(hub *Hub, result *selector.ScanResult, logger *zap.Logger) {
	if err := hub.Publish(TopicScans, result); err != nil {
		logger.Warn("failed to publish scan", zap.Error(err))
	}
	if err := hub.Publish(TopicMarketContext, result.MarketContext); err != nil {
		logger.Warn("failed to publish market context", zap.Error(err))
	}
}
