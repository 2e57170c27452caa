package selector

import (
	"errors"
	"fmt"
	"time"

	"github.com/carmandale/spy-fly/internal/ranking"
	"github.com/carmandale/spy-fly/internal/sentiment"
)

type State string

const (
	Idle                  State = "IDLE"
	FetchingMarketContext State = "FETCHING_MARKET_CONTEXT"
	BuildingCandidates    State = "BUILDING_CANDIDATES"
	Scoring               State = "SCORING"
	Ranking               State = "RANKING"
	Done                  State = "DONE"
	Error                 State = "ERROR"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == Done || s == Error
}

var ErrInvalidAccountSize = errors.New("account size must be positive")

const (
	DefaultVIX                = 20.0
	DefaultMaxVIX             = 75.0
	DefaultMaxRecommendations = 5
)

type Config struct {
	Symbol    string
	VIXSymbol string

	// DefaultVIX is used when the VIX quote is unavailable.
	DefaultVIX float64
	// MaxVIX is the ceiling above which no spreads are recommended.
	MaxVIX float64

	MaxRecommendations int
	Workers            int
}

func DefaultConfig() Config {
	return Config{
		Symbol:             "SPY",
		VIXSymbol:          "VIX",
		DefaultVIX:         DefaultVIX,
		MaxVIX:             DefaultMaxVIX,
		MaxRecommendations: DefaultMaxRecommendations,
		Workers:            4,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if c.DefaultVIX <= 0 {
		errs = append(errs, fmt.Errorf("default_vix must be positive, got %v", c.DefaultVIX))
	}
	if c.MaxVIX <= 0 {
		errs = append(errs, fmt.Errorf("max_vix must be positive, got %v", c.MaxVIX))
	}
	if c.MaxRecommendations < 1 {
		errs = append(errs, fmt.Errorf("max_recommendations must be >= 1, got %d", c.MaxRecommendations))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// MarketContext is the per-scan snapshot of market inputs.
type MarketContext struct {
	Spot        float64 `json:"spot"`
	VIX         float64 `json:"vix"`
	VIXFallback bool    `json:"vix_fallback"`

	SentimentKnown bool `json:"sentiment_known"`
	// SentimentScore is on [-1, 1]; 0 when sentiment is unknown.
	SentimentScore float64 `json:"sentiment_score"`

	Expiration string    `json:"expiration,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

type ScanResult struct {
	ScanID          string                   `json:"scan_id"`
	State           State                    `json:"state"`
	Reason          string                   `json:"reason,omitempty"`
	MarketContext   MarketContext            `json:"market_context"`
	Sentiment       *sentiment.Result        `json:"sentiment,omitempty"`
	SentimentKnown  bool                     `json:"sentiment_known"`
	Recommendations []ranking.Recommendation `json:"recommendations"`
	CandidateCount  int                      `json:"candidate_count"`
	RejectedCount   int                      `json:"rejected_count"`
	StartedAt       time.Time                `json:"started_at"`
	Duration        time.Duration            `json:"duration"`
}

// ScanRequest are the per-call inputs of a scan.
type ScanRequest struct {
	AccountSize        float64
	MaxRecommendations int
	// ForceRefresh bypasses the sentiment cache.
	ForceRefresh bool
}
