package sentiment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/marketdata"
)

// NewsSignal is the bounded qualitative score fed into ScoreNews.
type NewsSignal struct {
	Score     int
	Label     string
	Available bool

	Headlines int
	Bullish   int
	Bearish   int
}

// NewsSource produces the news component. A failing source degrades the
// news component only.
type NewsSource interface {
	Signal(ctx context.Context) (NewsSignal, error)
}

var (
	bullishKeywords = []string{
		"rally", "rallies", "surge", "surges", "gain", "gains", "record high", "beat", "beats",
		"upgrade", "bullish", "rebound", "soar", "soars", "rate cut", "strong",
	}
	bearishKeywords = []string{
		"selloff", "sell-off", "plunge", "plunges", "drop", "drops", "fall", "falls", "miss", "misses",
		"downgrade", "bearish", "recession", "crash", "slump", "rate hike", "weak", "fears",
	}
)

// HeadlineNews scores recent headlines for a symbol by counting bullish
// and bearish keywords.
type HeadlineNews struct {
	source marketdata.Source
	symbol string
	limit  int
	logger *zap.Logger
}

func NewHeadlineNews(source marketdata.Source, symbol string, limit int, logger *zap.Logger) *HeadlineNews {
	if limit <= 0 {
		limit = 10
	}
	return &HeadlineNews{source: source, symbol: symbol, limit: limit, logger: logger}
}

func (h *HeadlineNews) Signal(ctx context.Context) (NewsSignal, error) {
	headlines, err := h.source.GetNews(ctx, h.symbol, h.limit)
	if err != nil {
		return NewsSignal{}, fmt.Errorf("fetching headlines for %s: %w", h.symbol, err)
	}

	signal := ClassifyHeadlines(headlines)
	h.logger.Debug("scored headlines",
		zap.String("symbol", h.symbol),
		zap.Int("headlines", signal.Headlines),
		zap.Int("bullish", signal.Bullish),
		zap.Int("bearish", signal.Bearish),
		zap.String("label", signal.Label),
	)
	return signal, nil
}

// ClassifyHeadlines turns keyword counts into a signal: 20 when bullish
// headlines outnumber bearish ones, 0 for the reverse, 10 otherwise.
func ClassifyHeadlines(headlines []marketdata.Headline) NewsSignal {
	signal := NewsSignal{Available: true, Headlines: len(headlines)}
	if len(headlines) == 0 {
		signal.Score, signal.Label = MaxNewsScore/2, "no headlines"
		return signal
	}

	for _, h := range headlines {
		title := strings.ToLower(h.Title)
		if containsAny(title, bullishKeywords) {
			signal.Bullish++
		}
		if containsAny(title, bearishKeywords) {
			signal.Bearish++
		}
	}

	switch {
	case signal.Bullish > signal.Bearish:
		signal.Score, signal.Label = MaxNewsScore, "bullish"
	case signal.Bearish > signal.Bullish:
		signal.Score, signal.Label = 0, "bearish"
	default:
		signal.Score, signal.Label = MaxNewsScore/2, "neutral"
	}
	return signal
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Compile-time interface verification
var _ NewsSource = (*HeadlineNews)(nil)
