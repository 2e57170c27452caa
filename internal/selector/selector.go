package selector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/chain"
	"github.com/carmandale/spy-fly/internal/marketdata"
	"github.com/carmandale/spy-fly/internal/metrics"
	"github.com/carmandale/spy-fly/internal/pricing"
	"github.com/carmandale/spy-fly/internal/ranking"
	"github.com/carmandale/spy-fly/internal/risk"
	"github.com/carmandale/spy-fly/internal/sentiment"
	"github.com/carmandale/spy-fly/internal/spread"
)

// SentimentProvider supplies the market sentiment for a scan.
type SentimentProvider interface {
	Calculate(ctx context.Context, forceRefresh bool) (*sentiment.Result, error)
}

// Deps are the collaborators a Selector is built from. Sentiment and
// Metrics may be nil.
type Deps struct {
	Source    marketdata.Source
	Processor *chain.Processor
	Sentiment SentimentProvider
	Validator *risk.Validator
	Engine    *ranking.Engine
	Metrics   *metrics.Recorder
}

// Selector runs the scan pipeline: market context, candidate spreads,
// scoring and ranking.
type Selector struct {
	cfg       Config
	source    marketdata.Source
	processor *chain.Processor
	sentiment SentimentProvider
	validator *risk.Validator
	engine    *ranking.Engine
	metrics   *metrics.Recorder
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.RWMutex
	state       State
	lastContext *MarketContext
}

func New(cfg Config, deps Deps, logger *zap.Logger) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("selector config: %w", err)
	}
	if deps.Source == nil || deps.Processor == nil || deps.Validator == nil || deps.Engine == nil {
		return nil, errors.New("selector requires a source, processor, validator and engine")
	}
	return &Selector{
		cfg:       cfg,
		source:    deps.Source,
		processor: deps.Processor,
		sentiment: deps.Sentiment,
		validator: deps.Validator,
		engine:    deps.Engine,
		metrics:   deps.Metrics,
		logger:    logger,
		now:       time.Now,
		state:     Idle,
	}, nil
}

// State is the state most recently entered by any scan.
func (s *Selector) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastMarketContext returns the snapshot taken by the most recent scan.
func (s *Selector) LastMarketContext() (MarketContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastContext == nil {
		return MarketContext{}, false
	}
	return *s.lastContext, true
}

// GetRecommendations returns the top ranked, sized spreads. Data problems
// yield an empty list rather than an error.
func (s *Selector) GetRecommendations(ctx context.Context, accountSize float64, maxRecommendations int) ([]ranking.Recommendation, error) {
	result, err := s.Scan(ctx, ScanRequest{AccountSize: accountSize, MaxRecommendations: maxRecommendations})
	if err != nil {
		return nil, err
	}
	return result.Recommendations, nil
}

// Scan runs the full pipeline and reports how it ended. Only invalid input
// returns an error.
func (s *Selector) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if !risk.ValidAccountSize(req.AccountSize) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAccountSize, req.AccountSize)
	}
	limit := req.MaxRecommendations
	if limit <= 0 {
		limit = s.cfg.MaxRecommendations
	}

	now := s.now()
	result := &ScanResult{
		ScanID:          uuid.NewString(),
		State:           Idle,
		Recommendations: []ranking.Recommendation{},
		StartedAt:       now,
	}
	logger := s.logger.With(zap.String("scanID", result.ScanID))

	finish := s.metrics.ScanStarted()
	defer func() {
		result.Duration = time.Since(now)
		finish(string(result.State), len(result.Recommendations))
		logger.Info("scan finished",
			zap.String("state", string(result.State)),
			zap.String("reason", result.Reason),
			zap.Int("candidates", result.CandidateCount),
			zap.Int("rejected", result.RejectedCount),
			zap.Int("recommendations", len(result.Recommendations)),
			zap.Duration("duration", result.Duration),
		)
	}()

	s.transition(result, FetchingMarketContext, logger)
	mc, sent := s.fetchMarketContext(ctx, req.ForceRefresh, now, logger)
	result.MarketContext = mc
	result.Sentiment = sent
	result.SentimentKnown = mc.SentimentKnown

	if reason := s.unsuitable(mc); reason != "" {
		result.Reason = reason
		s.transition(result, Done, logger)
		return result, nil
	}

	// Outside the session the next expiration is a later day, which a
	// same-day filter would discard entirely.
	today := now.In(s.processor.Location()).Format(marketdata.ExpirationLayout)
	if s.processor.ZeroDTEOnly() && mc.Expiration != today {
		result.Reason = fmt.Sprintf("no same-day expiration: next expiration is %s", mc.Expiration)
		s.transition(result, Done, logger)
		return result, nil
	}

	s.transition(result, BuildingCandidates, logger)
	candidates, err := s.buildCandidates(ctx, mc, now)
	if err != nil {
		logger.Warn("option chain unavailable", zap.Error(err))
		result.Reason = fmt.Sprintf("option chain unavailable: %v", err)
		s.transition(result, Error, logger)
		return result, nil
	}
	result.CandidateCount = len(candidates)
	s.metrics.CandidatesGenerated(len(candidates))

	if len(candidates) == 0 {
		result.Reason = "no eligible spreads in option chain"
		s.transition(result, Done, logger)
		return result, nil
	}

	s.transition(result, Scoring, logger)
	scoredAll := scoreAll(ctx, candidates, s.cfg.Workers, s.scorer(mc, req.AccountSize, logger), logger)
	if err := ctx.Err(); err != nil {
		result.Reason = fmt.Sprintf("scan cancelled: %v", err)
		s.transition(result, Error, logger)
		return result, nil
	}

	valid := make([]ranking.Recommendation, 0, len(scoredAll))
	for _, sc := range scoredAll {
		if !sc.ok {
			result.RejectedCount++
			s.metrics.CandidateRejected(sc.reason)
			continue
		}
		valid = append(valid, sc.rec)
	}

	s.transition(result, Ranking, logger)
	ranked := s.engine.Rank(valid)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result.Recommendations = ranked
	if len(ranked) == 0 {
		result.Reason = "no spreads passed risk validation"
	}

	s.transition(result, Done, logger)
	return result, nil
}

func (s *Selector) transition(result *ScanResult, to State, logger *zap.Logger) {
	logger.Debug("scan state", zap.String("from", string(result.State)), zap.String("to", string(to)))
	result.State = to

	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
}

// fetchMarketContext never fails; missing inputs are recorded on the
// returned context.
func (s *Selector) fetchMarketContext(ctx context.Context, forceRefresh bool, now time.Time, logger *zap.Logger) (MarketContext, *sentiment.Result) {
	mc := MarketContext{FetchedAt: now}

	quote, err := s.source.GetQuote(ctx, s.cfg.Symbol)
	if err != nil {
		logger.Warn("spot quote unavailable", zap.String("symbol", s.cfg.Symbol), zap.Error(err))
	} else {
		mc.Spot = quote.Price
	}

	vix, err := s.source.GetQuote(ctx, s.cfg.VIXSymbol)
	if err != nil || vix.Price <= 0 {
		logger.Warn("vix unavailable, using default",
			zap.Float64("default", s.cfg.DefaultVIX),
			zap.Error(err),
		)
		mc.VIX = s.cfg.DefaultVIX
		mc.VIXFallback = true
		s.metrics.VIXFallbackUsed()
	} else {
		mc.VIX = vix.Price
	}

	var sent *sentiment.Result
	if s.sentiment != nil {
		sent, err = s.sentiment.Calculate(ctx, forceRefresh)
		if err != nil {
			logger.Warn("sentiment unavailable, treating as neutral", zap.Error(err))
			sent = nil
		}
	}
	if sent != nil {
		mc.SentimentKnown = true
		mc.SentimentScore = sent.Normalized()
		s.metrics.SentimentLookup(sent.Cached, sent.Score)
	}

	mc.Expiration = chain.NextExpiration(now, s.processor.Location())

	snapshot := mc
	s.mu.Lock()
	s.lastContext = &snapshot
	s.mu.Unlock()

	return mc, sent
}

func (s *Selector) unsuitable(mc MarketContext) string {
	if mc.Spot <= 0 {
		return "market context unavailable: no spot price for " + s.cfg.Symbol
	}
	if mc.VIX > s.cfg.MaxVIX {
		return fmt.Sprintf("VIX %.2f above ceiling %.2f", mc.VIX, s.cfg.MaxVIX)
	}
	return ""
}

func (s *Selector) buildCandidates(ctx context.Context, mc MarketContext, now time.Time) ([]spread.Candidate, error) {
	oc, err := s.source.GetOptionChain(ctx, s.cfg.Symbol, mc.Expiration)
	if err != nil {
		return nil, err
	}
	table := s.processor.Process(oc.Options, mc.Spot, now)
	return spread.Build(table), nil
}

// scorer prices, sizes and validates one candidate.
func (s *Selector) scorer(mc MarketContext, accountSize float64, logger *zap.Logger) scoreFunc {
	return func(c spread.Candidate) scored {
		years := c.YearsToExpiry()
		if years <= 0 {
			return scored{reason: "expired"}
		}

		sigma := c.LongIV
		if sigma <= 0 {
			sigma = mc.VIX / 100
		}

		p, err := pricing.ProbabilityOfProfit(pricing.NewParams(mc.Spot, c.Breakeven, years, sigma))
		if err != nil {
			logger.Debug("pricing failed", zap.Stringer("spread", c), zap.Error(err))
			return scored{reason: "pricing"}
		}

		sized, err := s.validator.Size(c, accountSize)
		if err != nil {
			logger.Debug("sizing failed", zap.Stringer("spread", c), zap.Error(err))
			return scored{reason: "sizing"}
		}

		validation, err := s.validator.ValidateSpread(sized, accountSize)
		if err != nil || !validation.Valid {
			logger.Debug("spread rejected", zap.Stringer("spread", c), zap.Strings("errors", validation.Errors))
			return scored{reason: "risk"}
		}

		ev, err := ranking.CalculateExpectedValue(p, sized.MaxProfit, sized.MaxRisk)
		if err != nil {
			logger.Debug("expected value failed", zap.Stringer("spread", c), zap.Error(err))
			return scored{reason: "expected_value"}
		}

		return scored{
			ok: true,
			rec: ranking.Recommendation{
				Candidate:           sized,
				ProbabilityOfProfit: p,
				ExpectedValue:       ev,
				SentimentScore:      mc.SentimentScore,
			},
		}
	}
}
