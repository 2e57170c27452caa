package sentiment

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the scoring thresholds and data-fetch settings for the
// sentiment calculator.
type Config struct {
	Symbol        string
	VIXSymbol     string
	FuturesSymbol string

	VIXLow  float64
	VIXHigh float64

	// FuturesBullishPct is a percent, so 0.1 means +0.1%.
	FuturesBullishPct float64

	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64

	MAPeriod int

	BollingerPeriod    int
	BollingerK         float64
	BollingerInnerLow  float64
	BollingerInnerHigh float64

	MinScore int
	CacheTTL time.Duration

	// HistoryDays is the calendar-day lookback for daily bars.
	HistoryDays int
	NewsLimit   int
}

func DefaultConfig() Config {
	return Config{
		Symbol:             "SPY",
		VIXSymbol:          "VIX",
		FuturesSymbol:      "ES",
		VIXLow:             16,
		VIXHigh:            20,
		FuturesBullishPct:  0.1,
		RSIPeriod:          14,
		RSIOversold:        30,
		RSIOverbought:      70,
		MAPeriod:           50,
		BollingerPeriod:    20,
		BollingerK:         2,
		BollingerInnerLow:  0.2,
		BollingerInnerHigh: 0.8,
		MinScore:           60,
		CacheTTL:           300 * time.Second,
		HistoryDays:        120,
		NewsLimit:          10,
	}
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if c.VIXLow <= 0 || c.VIXHigh <= c.VIXLow {
		errs = append(errs, fmt.Errorf("vix thresholds must satisfy 0 < low < high, got low=%v high=%v", c.VIXLow, c.VIXHigh))
	}
	if c.FuturesBullishPct <= 0 {
		errs = append(errs, fmt.Errorf("futures_bullish_pct must be positive, got %v", c.FuturesBullishPct))
	}
	if c.RSIPeriod < 2 {
		errs = append(errs, fmt.Errorf("rsi_period must be >= 2, got %d", c.RSIPeriod))
	}
	if c.RSIOversold < 0 || c.RSIOverbought > 100 || c.RSIOversold >= c.RSIOverbought {
		errs = append(errs, fmt.Errorf("rsi bounds must satisfy 0 <= oversold < overbought <= 100, got %v/%v", c.RSIOversold, c.RSIOverbought))
	}
	if c.MAPeriod < 1 {
		errs = append(errs, fmt.Errorf("ma_period must be positive, got %d", c.MAPeriod))
	}
	if c.BollingerPeriod < 2 || c.BollingerK <= 0 {
		errs = append(errs, fmt.Errorf("bollinger period must be >= 2 and k positive, got %d/%v", c.BollingerPeriod, c.BollingerK))
	}
	if c.BollingerInnerLow < 0 || c.BollingerInnerHigh > 1 || c.BollingerInnerLow > c.BollingerInnerHigh {
		errs = append(errs, fmt.Errorf("bollinger inner range must lie within [0,1], got [%v,%v]", c.BollingerInnerLow, c.BollingerInnerHigh))
	}
	if c.MinScore < 0 || c.MinScore > MaxCompositeScore {
		errs = append(errs, fmt.Errorf("min_score must be in [0,%d], got %d", MaxCompositeScore, c.MinScore))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL))
	}
	if c.HistoryDays <= 0 {
		errs = append(errs, fmt.Errorf("history_days must be positive, got %d", c.HistoryDays))
	}
	return errors.Join(errs...)
}
