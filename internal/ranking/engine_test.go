package ranking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/spread"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	return e
}

func rec(long, p, rr float64) Recommendation {
	return Recommendation{
		Candidate: spread.Candidate{
			LongStrike:      long,
			ShortStrike:     long + 5,
			MaxProfit:       rr * 100,
			MaxRisk:         100,
			RiskRewardRatio: rr,
		},
		ProbabilityOfProfit: p,
	}
}

func TestCalculateExpectedValue(t *testing.T) {
	ev, err := CalculateExpectedValue(0.6, 400, 100)
	require.NoError(t, err)
	assert.InDelta(t, 200, ev, 1e-9)

	ev, err = CalculateExpectedValue(0.1, 100, 400)
	require.NoError(t, err)
	assert.InDelta(t, -350, ev, 1e-9)
}

func TestCalculateExpectedValue_InvalidInput(t *testing.T) {
	tests := []struct {
		name                 string
		p, maxProfit, maxRisk float64
	}{
		{"probability above one", 1.1, 400, 100},
		{"negative probability", -0.1, 400, 100},
		{"negative profit", 0.5, -1, 100},
		{"negative risk", 0.5, 400, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateExpectedValue(tt.p, tt.maxProfit, tt.maxRisk)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestCalculateRankingScore(t *testing.T) {
	e := newEngine(t)

	// 0.4*0.5 + 0.3*(2.5/5) + 0.3*((0+1)/2)
	assert.InDelta(t, 0.5, e.CalculateRankingScore(0.5, 2.5, 0), 1e-12)

	// Risk/reward above the cap counts as the cap.
	assert.InDelta(t,
		e.CalculateRankingScore(0.5, 5, 1),
		e.CalculateRankingScore(0.5, 50, 1), 1e-12)

	assert.InDelta(t, 1.0, e.CalculateRankingScore(1, 5, 1), 1e-12)
	assert.InDelta(t, 0.0, e.CalculateRankingScore(0, 0, -1), 1e-12)
}

func TestConfig_WeightsMustSumToOne(t *testing.T) {
	_, err := NewConfig(0.45, 0.3, 0.3, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must sum to 1.0")
	assert.Contains(t, err.Error(), "1.0500")

	_, err = NewConfig(0.4005, 0.3, 0.3, 5)
	assert.NoError(t, err, "within tolerance")

	_, err = NewConfig(1.2, -0.2, 0, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk_reward_weight must be non-negative")

	_, err = NewEngine(Config{ProbabilityWeight: 1, MaxRiskReward: 0}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_risk_reward")
}

func TestRank_SortsDescendingAndRecomputes(t *testing.T) {
	e := newEngine(t)

	in := []Recommendation{rec(580, 0.3, 1.0), rec(581, 0.6, 3.0), rec(582, 0.5, 2.0)}
	in[0].RankingScore = 99
	in[0].ExpectedValue = 99

	ranked := e.Rank(in)
	require.Len(t, ranked, 3)
	assert.Equal(t, []float64{581, 582, 580},
		[]float64{ranked[0].LongStrike, ranked[1].LongStrike, ranked[2].LongStrike})

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].RankingScore, ranked[i].RankingScore)
	}
	assert.InDelta(t, 0.3*100-0.7*100, ranked[2].ExpectedValue, 1e-9, "stale values are overwritten")
	assert.Equal(t, 99.0, in[0].RankingScore, "input is not modified")
}

func TestRank_StableForTiesAndIdempotent(t *testing.T) {
	e := newEngine(t)

	in := []Recommendation{rec(580, 0.5, 2.0), rec(581, 0.7, 2.0), rec(582, 0.5, 2.0), rec(583, 0.5, 2.0)}

	once := e.Rank(in)
	assert.Equal(t, 581.0, once[0].LongStrike)
	assert.Equal(t, []float64{580, 582, 583},
		[]float64{once[1].LongStrike, once[2].LongStrike, once[3].LongStrike}, "ties keep input order")

	twice := e.Rank(once)
	assert.Equal(t, once, twice)
}

func TestRank_Empty(t *testing.T) {
	e := newEngine(t)
	assert.Empty(t, e.Rank(nil))
}
