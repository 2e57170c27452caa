package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/carmandale/spy-fly/internal/chain"
	"github.com/carmandale/spy-fly/internal/marketdata"
	"github.com/carmandale/spy-fly/internal/notify"
	"github.com/carmandale/spy-fly/internal/ranking"
	"github.com/carmandale/spy-fly/internal/risk"
	"github.com/carmandale/spy-fly/internal/selector"
	"github.com/carmandale/spy-fly/internal/sentiment"
)

// Market data sources
const (
	SourceHTTP = "http"
	SourceFile = "file"
)

// ValidSources lists the accepted market_data.source values.
var ValidSources = map[string]bool{
	SourceHTTP: true,
	SourceFile: true,
}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (c *Config) MarketDataClient() marketdata.ClientConfig {
	return marketdata.ClientConfig{
		BaseURL:         c.MarketData.BaseURL,
		APIKey:          c.MarketData.APIKey,
		Timeout:         time.Duration(c.MarketData.TimeoutSec) * time.Second,
		RatePerSecond:   c.MarketData.RatePerSecond,
		RetryCount:      c.MarketData.RetryCount,
		RetryDelay:      time.Duration(c.MarketData.RetryDelaySec) * time.Second,
		BreakerFailures: c.MarketData.BreakerFailures,
		BreakerTimeout:  time.Duration(c.MarketData.BreakerTimeoutSec) * time.Second,
	}
}

func (c *Config) ChainFilter() chain.FilterConfig {
	return chain.FilterConfig{
		ZeroDTEOnly:  c.Chain.ZeroDTEOnly,
		ValidOnly:    c.Chain.ValidOnly,
		MinOTMPoints: c.Chain.MinOTMPoints,
		MaxOTMPoints: c.Chain.MaxOTMPoints,
		Liquidity: chain.LiquidityFilter{
			MinVolume:       c.Chain.MinVolume,
			MinOpenInterest: c.Chain.MinOpenInterest,
			RequireBoth:     c.Chain.RequireBoth,
			MinSpreadPct:    c.Chain.MinSpreadPct,
			MaxSpreadPct:    c.Chain.MaxSpreadPct,
		},
	}
}

func (c *Config) SentimentConfig() sentiment.Config {
	s := c.Sentiment
	return sentiment.Config{
		Symbol:             c.Symbols.Underlying,
		VIXSymbol:          c.Symbols.VIX,
		FuturesSymbol:      c.Symbols.Futures,
		VIXLow:             s.VIXLow,
		VIXHigh:            s.VIXHigh,
		FuturesBullishPct:  s.FuturesBullishPct,
		RSIPeriod:          s.RSIPeriod,
		RSIOversold:        s.RSIOversold,
		RSIOverbought:      s.RSIOverbought,
		MAPeriod:           s.MAPeriod,
		BollingerPeriod:    s.BollingerPeriod,
		BollingerK:         s.BollingerK,
		BollingerInnerLow:  s.BollingerInnerLow,
		BollingerInnerHigh: s.BollingerInnerHigh,
		MinScore:           s.MinScore,
		CacheTTL:           time.Duration(c.Cache.SentimentTTLSec) * time.Second,
		HistoryDays:        s.HistoryDays,
		NewsLimit:          s.NewsLimit,
	}
}

func (c *Config) RiskConfig() risk.Config {
	return risk.Config{
		MaxBuyingPowerPct: c.Risk.MaxBuyingPowerPct,
		MinRiskReward:     c.Risk.MinRiskReward,
	}
}

func (c *Config) RankingConfig() ranking.Config {
	return ranking.Config{
		ProbabilityWeight: c.Ranking.ProbabilityWeight,
		RiskRewardWeight:  c.Ranking.RiskRewardWeight,
		SentimentWeight:   c.Ranking.SentimentWeight,
		MaxRiskReward:     c.Ranking.MaxRiskReward,
	}
}

func (c *Config) SelectorConfig() selector.Config {
	return selector.Config{
		Symbol:             c.Symbols.Underlying,
		VIXSymbol:          c.Symbols.VIX,
		DefaultVIX:         c.Scan.DefaultVIX,
		MaxVIX:             c.Scan.MaxVIX,
		MaxRecommendations: c.Scan.MaxRecommendations,
		Workers:            c.Scan.Workers,
	}
}

func (c *Config) NotifyConfig() notify.Config {
	var tags []string
	for _, tag := range strings.Split(c.Notify.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return notify.Config{
		Enabled:  c.Notify.Enabled,
		Server:   c.Notify.Server,
		Topic:    c.Notify.Topic,
		Priority: notify.Priority(c.Notify.Priority),
		Tags:     tags,
		Token:    c.Notify.Token,
		Timeout:  time.Duration(c.Notify.TimeoutSec) * time.Second,
	}
}

// ScheduleClock parses daemon.schedule into an hour and minute.
func (c *Config) ScheduleClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.Daemon.Schedule)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule %q is not HH:MM", c.Daemon.Schedule)
	}
	return t.Hour(), t.Minute(), nil
}
