package config

import (
	"fmt"
	"strings"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Symbols    SymbolsConfig    `mapstructure:"symbols"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Sentiment  SentimentConfig  `mapstructure:"sentiment"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Daemon     DaemonConfig     `mapstructure:"daemon"`
}

type MarketDataConfig struct {
	Source            string  `mapstructure:"source"` // "http" or "file"
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	FixturePath       string  `mapstructure:"fixture_path"`
	TimeoutSec        int     `mapstructure:"timeout_sec"`
	RatePerSecond     float64 `mapstructure:"rate_per_second"`
	RetryCount        int     `mapstructure:"retry_count"`
	RetryDelaySec     int     `mapstructure:"retry_delay_sec"`
	BreakerFailures   uint32  `mapstructure:"breaker_failures"`
	BreakerTimeoutSec int     `mapstructure:"breaker_timeout_sec"`
}

type SymbolsConfig struct {
	Underlying string `mapstructure:"underlying"`
	VIX        string `mapstructure:"vix"`
	Futures    string `mapstructure:"futures"`
}

type CacheConfig struct {
	RedisAddr       string `mapstructure:"redis_addr"` // empty selects the in-memory cache
	SentimentTTLSec int    `mapstructure:"sentiment_ttl_sec"`
}

type ChainConfig struct {
	ZeroDTEOnly     bool    `mapstructure:"zero_dte_only"`
	ValidOnly       bool    `mapstructure:"valid_only"`
	MinOTMPoints    float64 `mapstructure:"min_otm_points"`
	MaxOTMPoints    float64 `mapstructure:"max_otm_points"`
	MinVolume       int64   `mapstructure:"min_volume"`
	MinOpenInterest int64   `mapstructure:"min_open_interest"`
	RequireBoth     bool    `mapstructure:"require_both"`
	MinSpreadPct    float64 `mapstructure:"min_spread_pct"`
	MaxSpreadPct    float64 `mapstructure:"max_spread_pct"`
}

type SentimentConfig struct {
	VIXLow             float64 `mapstructure:"vix_low"`
	VIXHigh            float64 `mapstructure:"vix_high"`
	FuturesBullishPct  float64 `mapstructure:"futures_bullish_pct"`
	RSIPeriod          int     `mapstructure:"rsi_period"`
	RSIOversold        float64 `mapstructure:"rsi_oversold"`
	RSIOverbought      float64 `mapstructure:"rsi_overbought"`
	MAPeriod           int     `mapstructure:"ma_period"`
	BollingerPeriod    int     `mapstructure:"bollinger_period"`
	BollingerK         float64 `mapstructure:"bollinger_k"`
	BollingerInnerLow  float64 `mapstructure:"bollinger_inner_low"`
	BollingerInnerHigh float64 `mapstructure:"bollinger_inner_high"`
	MinScore           int     `mapstructure:"min_score"`
	HistoryDays        int     `mapstructure:"history_days"`
	NewsLimit          int     `mapstructure:"news_limit"`
}

type RiskConfig struct {
	MaxBuyingPowerPct float64 `mapstructure:"max_buying_power_pct"`
	MinRiskReward     float64 `mapstructure:"min_risk_reward"`
}

type RankingConfig struct {
	ProbabilityWeight float64 `mapstructure:"probability_weight"`
	RiskRewardWeight  float64 `mapstructure:"risk_reward_weight"`
	SentimentWeight   float64 `mapstructure:"sentiment_weight"`
	MaxRiskReward     float64 `mapstructure:"max_risk_reward"`
}

type ScanConfig struct {
	AccountSize        float64 `mapstructure:"account_size"` // used by the daemon
	MaxRecommendations int     `mapstructure:"max_recommendations"`
	Workers            int     `mapstructure:"workers"`
	DefaultVIX         float64 `mapstructure:"default_vix"`
	MaxVIX             float64 `mapstructure:"max_vix"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

type NotifyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Server     string `mapstructure:"server"`
	Topic      string `mapstructure:"topic"`
	Priority   string `mapstructure:"priority"` // min, low, default, high, urgent
	Tags       string `mapstructure:"tags"`     // comma-separated ntfy tags
	Token      string `mapstructure:"token"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

type DaemonConfig struct {
	Schedule     string `mapstructure:"schedule"` // HH:MM in timezone
	Timezone     string `mapstructure:"timezone"`
	StateFile    string `mapstructure:"state_file"`
	RunOnStartup bool   `mapstructure:"run_on_startup"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("market_data.source", SourceHTTP)
	v.SetDefault("market_data.base_url", "https://api.marketdata.example.com")
	v.SetDefault("market_data.api_key", "")
	v.SetDefault("market_data.fixture_path", "")
	v.SetDefault("market_data.timeout_sec", 10)
	v.SetDefault("market_data.rate_per_second", 5)
	v.SetDefault("market_data.retry_count", 3)
	v.SetDefault("market_data.retry_delay_sec", 1)
	v.SetDefault("market_data.breaker_failures", 5)
	v.SetDefault("market_data.breaker_timeout_sec", 30)

	v.SetDefault("symbols.underlying", "SPY")
	v.SetDefault("symbols.vix", "VIX")
	v.SetDefault("symbols.futures", "ES")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.sentiment_ttl_sec", 300)

	v.SetDefault("chain.zero_dte_only", true)
	v.SetDefault("chain.valid_only", true)
	v.SetDefault("chain.min_otm_points", -2)
	v.SetDefault("chain.max_otm_points", 10)
	v.SetDefault("chain.min_volume", 10)
	v.SetDefault("chain.min_open_interest", 50)
	v.SetDefault("chain.require_both", false)
	v.SetDefault("chain.min_spread_pct", 0)
	v.SetDefault("chain.max_spread_pct", 20)

	v.SetDefault("sentiment.vix_low", 16)
	v.SetDefault("sentiment.vix_high", 20)
	v.SetDefault("sentiment.futures_bullish_pct", 0.1)
	v.SetDefault("sentiment.rsi_period", 14)
	v.SetDefault("sentiment.rsi_oversold", 30)
	v.SetDefault("sentiment.rsi_overbought", 70)
	v.SetDefault("sentiment.ma_period", 50)
	v.SetDefault("sentiment.bollinger_period", 20)
	v.SetDefault("sentiment.bollinger_k", 2)
	v.SetDefault("sentiment.bollinger_inner_low", 0.2)
	v.SetDefault("sentiment.bollinger_inner_high", 0.8)
	v.SetDefault("sentiment.min_score", 60)
	v.SetDefault("sentiment.history_days", 120)
	v.SetDefault("sentiment.news_limit", 10)

	v.SetDefault("risk.max_buying_power_pct", 0.05)
	v.SetDefault("risk.min_risk_reward", 1.0)

	v.SetDefault("ranking.probability_weight", 0.4)
	v.SetDefault("ranking.risk_reward_weight", 0.3)
	v.SetDefault("ranking.sentiment_weight", 0.3)
	v.SetDefault("ranking.max_risk_reward", 5.0)

	v.SetDefault("scan.account_size", 10000)
	v.SetDefault("scan.max_recommendations", 5)
	v.SetDefault("scan.workers", 4)
	v.SetDefault("scan.default_vix", 20.0)
	v.SetDefault("scan.max_vix", 75.0)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_sec", 15)
	v.SetDefault("server.write_timeout_sec", 30)
	v.SetDefault("server.shutdown_timeout_sec", 10)
	v.SetDefault("server.stream_enabled", false)
	v.SetDefault("server.stream_interval_sec", 60)

	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.topic", "")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "chart_with_upwards_trend")
	v.SetDefault("notify.token", "")
	v.SetDefault("notify.timeout_sec", 30)

	v.SetDefault("daemon.schedule", "09:45")
	v.SetDefault("daemon.timezone", "America/New_York")
	v.SetDefault("daemon.state_file", "data/.daemon-state")
	v.SetDefault("daemon.run_on_startup", true)

	// Environment variable support
	v.SetEnvPrefix("SPYFLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("market_data.api_key", "SPYFLY_API_KEY", "SPYFLY_MARKET_DATA_API_KEY")
	_ = v.BindEnv("cache.redis_addr", "SPYFLY_REDIS_ADDR", "SPYFLY_CACHE_REDIS_ADDR")
	_ = v.BindEnv("notify.topic", "SPYFLY_NOTIFY_TOPIC", "NTFY_TOPIC")
	_ = v.BindEnv("notify.token", "SPYFLY_NOTIFY_TOKEN", "NTFY_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
