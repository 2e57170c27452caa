package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_TextbookValues(t *testing.T) {
	// S=K=100, T=1y, σ=20%, r=5% gives d1=0.35, d2=0.15.
	g, err := Calculate(NewParams(100, 100, 1, 0.20))
	require.NoError(t, err)

	assert.InDelta(t, 10.4506, g.Price, 1e-4)
	assert.InDelta(t, 0.636831, g.Delta, 1e-6)
	assert.InDelta(t, 0.018762, g.Gamma, 1e-6)
	assert.InDelta(t, -6.41404/DaysPerYear, g.Theta, 1e-5)

	pop, err := ProbabilityOfProfit(NewParams(100, 100, 1, 0.20))
	require.NoError(t, err)
	assert.InDelta(t, 0.559618, pop, 1e-6)
}

func TestSingleFunctionsMatchCalculate(t *testing.T) {
	p := NewParams(450, 455, 6.0/24/365, 0.18)
	g, err := Calculate(p)
	require.NoError(t, err)

	price, err := OptionPrice(p)
	require.NoError(t, err)
	delta, err := Delta(p)
	require.NoError(t, err)
	gm, err := Gamma(p)
	require.NoError(t, err)
	th, err := Theta(p)
	require.NoError(t, err)

	assert.Equal(t, g.Price, price)
	assert.Equal(t, g.Delta, delta)
	assert.Equal(t, g.Gamma, gm)
	assert.Equal(t, g.Theta, th)
}

func TestProbabilityOfProfit_Bounds(t *testing.T) {
	for _, spot := range []float64{1, 50, 100, 200, 10000} {
		for _, strike := range []float64{1, 50, 100, 200, 10000} {
			for _, tte := range []float64{1.0 / 365 / 24, 1.0 / 365, 0.5, 3} {
				for _, vol := range []float64{0.01, 0.2, 1.5} {
					pop, err := ProbabilityOfProfit(NewParams(spot, strike, tte, vol))
					require.NoError(t, err)
					assert.GreaterOrEqual(t, pop, 0.0)
					assert.LessOrEqual(t, pop, 1.0)
				}
			}
		}
	}
}

func TestProbabilityOfProfit_Monotonic(t *testing.T) {
	prev := -1.0
	for spot := 90.0; spot <= 110; spot += 0.5 {
		pop, err := ProbabilityOfProfit(NewParams(spot, 100, 7.0/365, 0.2))
		require.NoError(t, err)
		assert.Greater(t, pop, prev, "probability should increase with spot (spot=%v)", spot)
		prev = pop
	}

	prev = 2.0
	for strike := 90.0; strike <= 110; strike += 0.5 {
		pop, err := ProbabilityOfProfit(NewParams(100, strike, 7.0/365, 0.2))
		require.NoError(t, err)
		assert.Less(t, pop, prev, "probability should decrease with strike (strike=%v)", strike)
		prev = pop
	}
}

func TestProbabilityOfProfit_Deterministic(t *testing.T) {
	p := Params{Spot: 100, Strike: 100, TimeToExpiry: 1.0 / 365, Volatility: 0.20, RiskFreeRate: 0.05}
	first, err := ProbabilityOfProfit(p)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, err := ProbabilityOfProfit(p)
		require.NoError(t, err)
		assert.InDelta(t, first, got, 1e-10)
	}
}

func TestOptionPrice_FlooredAtZero(t *testing.T) {
	price, err := OptionPrice(NewParams(10, 1000, 1.0/365, 0.1))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, price, 0.0)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"zero spot", NewParams(0, 100, 1, 0.2)},
		{"negative spot", NewParams(-1, 100, 1, 0.2)},
		{"zero strike", NewParams(100, 0, 1, 0.2)},
		{"zero time", NewParams(100, 100, 0, 0.2)},
		{"negative time", NewParams(100, 100, -0.1, 0.2)},
		{"zero volatility", NewParams(100, 100, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProbabilityOfProfit(tt.params)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if _, err := Calculate(tt.params); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Calculate: expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
