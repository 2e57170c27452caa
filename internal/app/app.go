// Package app builds the scan pipeline from a loaded configuration.
package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/carmandale/spy-fly/internal/cache"
	"github.com/carmandale/spy-fly/internal/chain"
	"github.com/carmandale/spy-fly/internal/config"
	"github.com/carmandale/spy-fly/internal/marketdata"
	"github.com/carmandale/spy-fly/internal/metrics"
	"github.com/carmandale/spy-fly/internal/ranking"
	"github.com/carmandale/spy-fly/internal/risk"
	"github.com/carmandale/spy-fly/internal/selector"
	"github.com/carmandale/spy-fly/internal/sentiment"
	"github.com/carmandale/spy-fly/internal/server"
	"github.com/carmandale/spy-fly/internal/ws"
)

// NewLogger builds a zap logger from the logging section. name prefixes the
// log file when file output is enabled.
func NewLogger(name string, verbose bool, logCfg *config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}

	if logCfg != nil && logCfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logCfg.Level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(level)
		}
	}

	if logCfg != nil && logCfg.Enabled {
		if err := os.MkdirAll(logCfg.Directory, 0755); err != nil {
			return nil, fmt.Errorf("creating logs directory: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFile := filepath.Join(logCfg.Directory, fmt.Sprintf("%s_%s.log", name, timestamp))
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, logFile)
	}

	return zapConfig.Build()
}

// App holds the wired pipeline.
type App struct {
	Config    *config.Config
	Source    marketdata.Source
	Cache     cache.Cache
	Metrics   *metrics.Recorder
	Sentiment *sentiment.Calculator
	Selector  *selector.Selector
	// Reload is set only for the file source.
	Reload *server.ReloadManager
	// Hub is set when streaming is enabled; Run it before serving.
	Hub *ws.Hub

	logger *zap.Logger
}

// Build wires every component described by cfg.
func Build(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(), logger: logger}
	a.Cache = cache.New(cfg.Cache.RedisAddr, logger)

	switch cfg.MarketData.Source {
	case config.SourceFile:
		file, err := marketdata.NewFileSource(cfg.MarketData.FixturePath, logger)
		if err != nil {
			return nil, err
		}
		reloadable := marketdata.NewReloadableSource(file)
		var purger server.Purger
		if p, ok := a.Cache.(server.Purger); ok {
			purger = p
		}
		a.Source = reloadable
		a.Reload = server.NewReloadManager(reloadable, cfg.MarketData.FixturePath, purger, logger)
	case config.SourceHTTP:
		a.Source = marketdata.NewClient(cfg.MarketDataClient(), logger)
	default:
		return nil, fmt.Errorf("unknown market data source: %s", cfg.MarketData.Source)
	}

	processor, err := chain.NewProcessor(cfg.ChainFilter(), chain.ExchangeLocation(), logger)
	if err != nil {
		return nil, err
	}

	sentCfg := cfg.SentimentConfig()
	news := sentiment.NewHeadlineNews(a.Source, sentCfg.Symbol, sentCfg.NewsLimit, logger)
	a.Sentiment, err = sentiment.NewCalculator(sentCfg, a.Source, news, a.Cache, logger)
	if err != nil {
		return nil, err
	}

	validator, err := risk.NewValidator(cfg.RiskConfig(), logger)
	if err != nil {
		return nil, err
	}

	engine, err := ranking.NewEngine(cfg.RankingConfig(), logger)
	if err != nil {
		return nil, err
	}

	if cfg.Server.StreamEnabled {
		a.Hub = ws.NewHub(logger)
	}

	a.Selector, err = selector.New(cfg.SelectorConfig(), selector.Deps{
		Source:    a.Source,
		Processor: processor,
		Sentiment: a.Sentiment,
		Validator: validator,
		Engine:    engine,
		Metrics:   a.Metrics,
	}, logger)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Router returns the HTTP handler serving the app.
func (a *App) Router() http.Handler {
	srv := server.NewServer(a.Selector, a.Config.Scan.AccountSize, a.Reload, a.Hub, a.logger)
	return server.NewRouter(srv, a.Metrics, a.logger)
}

// Streamer returns the periodic scan streamer, or nil when streaming is
// disabled.
func (a *App) Streamer() *ws.Streamer {
	if a.Hub == nil {
		return nil
	}
	loc := chain.ExchangeLocation()
	return ws.NewStreamer(a.Hub, a.Selector, a.Config.Server.StreamInterval(), a.Config.Scan.AccountSize,
		func(t time.Time) bool { return chain.IsMarketOpen(t, loc) }, a.logger)
}

// Close releases the cache connection, if any.
func (a *App) Close() error {
	if c, ok := a.Cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
