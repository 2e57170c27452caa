package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/cache"
	"github.com/carmandale/spy-fly/internal/marketdata"
)

// ErrNoUnderlyingData is returned when neither a quote nor daily bars could
// be fetched for the underlying.
var ErrNoUnderlyingData = errors.New("no price data for underlying")

type Decision string

const (
	Proceed Decision = "PROCEED"
	Skip    Decision = "SKIP"
)

// TechnicalStatus summarizes the indicator values behind the breakdown.
type TechnicalStatus struct {
	Price              float64  `json:"price"`
	RSI                *float64 `json:"rsi,omitempty"`
	MA50               *float64 `json:"ma50,omitempty"`
	BollingerPosition  *float64 `json:"bollinger_position,omitempty"`
	RealizedVolatility *float64 `json:"realized_volatility,omitempty"`

	AboveMA50      bool   `json:"above_ma50"`
	RSINeutral     bool   `json:"rsi_neutral"`
	BollingerInner bool   `json:"bollinger_inner"`
	Trend          string `json:"trend"`
}

type Result struct {
	Symbol       string           `json:"symbol"`
	Score        int              `json:"score"`
	Decision     Decision         `json:"decision"`
	Breakdown    []ComponentScore `json:"breakdown"`
	Technical    TechnicalStatus  `json:"technical"`
	Cached       bool             `json:"cached"`
	CalculatedAt time.Time        `json:"calculated_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
}

// Normalized maps the 0..100 score onto [-1, 1] with 50 as neutral.
func (r *Result) Normalized() float64 {
	return (float64(r.Score) - 50) / 50
}

// Component returns the named breakdown entry.
func (r *Result) Component(name string) (ComponentScore, bool) {
	for _, c := range r.Breakdown {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentScore{}, false
}

// Calculator fetches market data, scores the six components and caches the
// composite result.
type Calculator struct {
	cfg    Config
	source marketdata.Source
	news   NewsSource
	cache  cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewCalculator(cfg Config, source marketdata.Source, news NewsSource, c cache.Cache, logger *zap.Logger) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sentiment config: %w", err)
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Calculator{
		cfg:    cfg,
		source: source,
		news:   news,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (c *Calculator) Config() Config {
	return c.cfg
}

func (c *Calculator) cacheKey() string {
	return "sentiment:" + c.cfg.Symbol
}

// Calculate returns the current sentiment, served from cache unless
// forceRefresh is set or the cached entry has expired.
func (c *Calculator) Calculate(ctx context.Context, forceRefresh bool) (*Result, error) {
	if !forceRefresh {
		if cached, ok := c.fromCache(ctx); ok {
			return cached, nil
		}
	}

	now := c.now()

	price, closes, err := c.underlying(ctx, now)
	if err != nil {
		return nil, err
	}

	vix := c.vix(ctx)
	futures, prevClose := c.futures(ctx, now)
	news := c.newsSignal(ctx)

	rsi := CalculateRSI(closes, c.cfg.RSIPeriod)
	ma := CalculateMovingAverage(closes, c.cfg.MAPeriod)
	bollinger := CalculateBollingerPosition(closes, c.cfg.BollingerPeriod, c.cfg.BollingerK)

	breakdown := []ComponentScore{
		c.cfg.ScoreVIX(vix),
		c.cfg.ScoreFutures(futures, prevClose),
		c.cfg.ScoreRSI(rsi),
		c.cfg.ScoreMovingAverage(price, closes),
		c.cfg.ScoreBollinger(bollinger),
		c.cfg.ScoreNews(news),
	}

	total := 0
	for _, s := range breakdown {
		total += s.Score
	}
	total = min(max(total, 0), MaxCompositeScore)

	decision := Skip
	if total >= c.cfg.MinScore {
		decision = Proceed
	}

	result := &Result{
		Symbol:       c.cfg.Symbol,
		Score:        total,
		Decision:     decision,
		Breakdown:    breakdown,
		Technical:    c.technical(price, closes, rsi, ma, bollinger),
		CalculatedAt: now,
		ExpiresAt:    now.Add(c.cfg.CacheTTL),
	}

	c.logger.Info("calculated sentiment",
		zap.String("symbol", c.cfg.Symbol),
		zap.Int("score", total),
		zap.String("decision", string(decision)),
	)

	c.store(ctx, result)
	return result, nil
}

func (c *Calculator) fromCache(ctx context.Context) (*Result, bool) {
	raw, ok := c.cache.Get(ctx, c.cacheKey())
	if !ok {
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("discarding unreadable cached sentiment", zap.Error(err))
		return nil, false
	}
	if !result.ExpiresAt.IsZero() && !c.now().Before(result.ExpiresAt) {
		return nil, false
	}

	result.Cached = true
	c.logger.Debug("sentiment served from cache", zap.Int("score", result.Score))
	return &result, true
}

func (c *Calculator) store(ctx context.Context, result *Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("failed to encode sentiment for cache", zap.Error(err))
		return
	}
	c.cache.Set(ctx, c.cacheKey(), raw, c.cfg.CacheTTL)
}

// underlying returns the current price and daily closes. The last close
// stands in for the price when the quote is unavailable.
func (c *Calculator) underlying(ctx context.Context, now time.Time) (float64, []float64, error) {
	from := now.AddDate(0, 0, -c.cfg.HistoryDays)
	bars, barsErr := c.source.GetHistoricalBars(ctx, c.cfg.Symbol, from, now, marketdata.Day)
	if barsErr != nil {
		c.logger.Warn("daily bars unavailable", zap.String("symbol", c.cfg.Symbol), zap.Error(barsErr))
	}
	closes := marketdata.Closes(bars)

	quote, quoteErr := c.source.GetQuote(ctx, c.cfg.Symbol)
	if quoteErr == nil && quote.Price > 0 {
		return quote.Price, closes, nil
	}
	if quoteErr != nil {
		c.logger.Warn("underlying quote unavailable", zap.String("symbol", c.cfg.Symbol), zap.Error(quoteErr))
	}

	if len(closes) == 0 {
		return 0, nil, fmt.Errorf("%s: %w", c.cfg.Symbol, errors.Join(ErrNoUnderlyingData, quoteErr, barsErr))
	}
	return closes[len(closes)-1], closes, nil
}

func (c *Calculator) vix(ctx context.Context) *float64 {
	if c.cfg.VIXSymbol == "" {
		return nil
	}
	q, err := c.source.GetQuote(ctx, c.cfg.VIXSymbol)
	if err != nil || q.Price <= 0 {
		c.logger.Warn("vix unavailable", zap.String("symbol", c.cfg.VIXSymbol), zap.Error(err))
		return nil
	}
	return ptr(q.Price)
}

// futures returns the current futures price and the close of the most
// recent daily bar before today.
func (c *Calculator) futures(ctx context.Context, now time.Time) (*float64, *float64) {
	if c.cfg.FuturesSymbol == "" {
		return nil, nil
	}

	q, err := c.source.GetQuote(ctx, c.cfg.FuturesSymbol)
	if err != nil || q.Price <= 0 {
		c.logger.Warn("futures quote unavailable", zap.String("symbol", c.cfg.FuturesSymbol), zap.Error(err))
		return nil, nil
	}

	bars, err := c.source.GetHistoricalBars(ctx, c.cfg.FuturesSymbol, now.AddDate(0, 0, -7), now, marketdata.Day)
	if err != nil {
		c.logger.Warn("futures history unavailable", zap.String("symbol", c.cfg.FuturesSymbol), zap.Error(err))
		return ptr(q.Price), nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Time.Before(today) && bars[i].Close > 0 {
			return ptr(q.Price), ptr(bars[i].Close)
		}
	}
	return ptr(q.Price), nil
}

func (c *Calculator) newsSignal(ctx context.Context) NewsSignal {
	if c.news == nil {
		return NewsSignal{}
	}
	signal, err := c.news.Signal(ctx)
	if err != nil {
		c.logger.Warn("news signal unavailable", zap.Error(err))
		return NewsSignal{}
	}
	return signal
}

func (c *Calculator) technical(price float64, closes []float64, rsi, ma, bollinger *float64) TechnicalStatus {
	t := TechnicalStatus{
		Price:              price,
		RSI:                rsi,
		MA50:               ma,
		BollingerPosition:  bollinger,
		RealizedVolatility: RealizedVolatility(closes),
	}
	if ma != nil {
		t.AboveMA50 = price > *ma
	}
	if rsi != nil {
		t.RSINeutral = *rsi >= c.cfg.RSIOversold && *rsi <= c.cfg.RSIOverbought
	}
	if bollinger != nil {
		t.BollingerInner = *bollinger >= c.cfg.BollingerInnerLow && *bollinger <= c.cfg.BollingerInnerHigh
	}

	switch {
	case ma == nil:
		t.Trend = "unknown"
	case t.AboveMA50:
		t.Trend = "uptrend"
	default:
		t.Trend = "downtrend"
	}
	return t
}
