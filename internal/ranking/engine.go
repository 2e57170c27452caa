package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/spread"
)

// WeightTolerance is how far the weight sum may drift from 1.0.
const WeightTolerance = 0.001

var ErrInvalidInput = errors.New("invalid ranking input")

type Config struct {
	ProbabilityWeight float64
	RiskRewardWeight  float64
	SentimentWeight   float64
	// MaxRiskReward caps the ratio before normalizing it to [0,1].
	MaxRiskReward float64
}

func DefaultConfig() Config {
	return Config{
		ProbabilityWeight: 0.4,
		RiskRewardWeight:  0.3,
		SentimentWeight:   0.3,
		MaxRiskReward:     5.0,
	}
}

// NewConfig builds a validated Config.
func NewConfig(probability, riskReward, sentiment, maxRiskReward float64) (Config, error) {
	cfg := Config{
		ProbabilityWeight: probability,
		RiskRewardWeight:  riskReward,
		SentimentWeight:   sentiment,
		MaxRiskReward:     maxRiskReward,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	weights := map[string]float64{
		"probability_weight": c.ProbabilityWeight,
		"risk_reward_weight": c.RiskRewardWeight,
		"sentiment_weight":   c.SentimentWeight,
	}
	for _, name := range []string{"probability_weight", "risk_reward_weight", "sentiment_weight"} {
		if w := weights[name]; w < 0 || math.IsNaN(w) {
			errs = append(errs, fmt.Errorf("%s must be non-negative, got %v", name, w))
		}
	}
	sum := c.ProbabilityWeight + c.RiskRewardWeight + c.SentimentWeight
	if math.Abs(sum-1.0) > WeightTolerance {
		errs = append(errs, fmt.Errorf("ranking weights must sum to 1.0 (±%v), got %.4f (probability=%v risk_reward=%v sentiment=%v)",
			WeightTolerance, sum, c.ProbabilityWeight, c.RiskRewardWeight, c.SentimentWeight))
	}
	if c.MaxRiskReward <= 0 {
		errs = append(errs, fmt.Errorf("max_risk_reward must be positive, got %v", c.MaxRiskReward))
	}
	return errors.Join(errs...)
}

// Recommendation is a sized candidate with its scores.
type Recommendation struct {
	spread.Candidate

	ProbabilityOfProfit float64 `json:"probability_of_profit"`
	ExpectedValue       float64 `json:"expected_value"`
	// SentimentScore is on [-1, 1].
	SentimentScore float64 `json:"sentiment_score"`
	RankingScore   float64 `json:"ranking_score"`
}

type Engine struct {
	cfg    Config
	logger *zap.Logger
}

func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ranking config: %w", err)
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// CalculateExpectedValue returns p·maxProfit − (1−p)·maxRisk.
func CalculateExpectedValue(p, maxProfit, maxRisk float64) (float64, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("%w: probability %v outside [0,1]", ErrInvalidInput, p)
	}
	if maxProfit < 0 {
		return 0, fmt.Errorf("%w: max profit %v is negative", ErrInvalidInput, maxProfit)
	}
	if maxRisk < 0 {
		return 0, fmt.Errorf("%w: max risk %v is negative", ErrInvalidInput, maxRisk)
	}
	return p*maxProfit - (1-p)*maxRisk, nil
}

// CalculateRankingScore combines probability, the capped risk/reward ratio
// and sentiment rescaled from [-1,1] into a score on [0,1].
func (e *Engine) CalculateRankingScore(p, riskReward, sentiment float64) float64 {
	rr := math.Max(0, math.Min(riskReward, e.cfg.MaxRiskReward)) / e.cfg.MaxRiskReward
	s := (math.Max(-1, math.Min(1, sentiment)) + 1) / 2
	p = math.Max(0, math.Min(1, p))

	return e.cfg.ProbabilityWeight*p + e.cfg.RiskRewardWeight*rr + e.cfg.SentimentWeight*s
}

// Rank recomputes ExpectedValue and RankingScore on a copy of recs and
// sorts it descending by RankingScore. Equal scores keep their input order.
func (e *Engine) Rank(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	copy(out, recs)

	for i := range out {
		r := &out[i]
		ev, err := CalculateExpectedValue(r.ProbabilityOfProfit, r.MaxProfit, r.MaxRisk)
		if err != nil {
			e.logger.Debug("expected value unavailable", zap.Stringer("spread", r.Candidate), zap.Error(err))
			ev = 0
		}
		r.ExpectedValue = ev
		r.RankingScore = e.CalculateRankingScore(r.ProbabilityOfProfit, r.RiskRewardRatio, r.SentimentScore)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RankingScore > out[j].RankingScore
	})
	return out
}
