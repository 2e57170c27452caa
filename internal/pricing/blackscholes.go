package pricing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultRiskFreeRate is the annualized rate used when callers don't supply one.
const DefaultRiskFreeRate = 0.05

// DaysPerYear converts annualized theta into a per-calendar-day value.
const DaysPerYear = 365.0

// ErrInvalidInput is returned when a Black-Scholes parameter is out of range.
var ErrInvalidInput = errors.New("invalid black-scholes input")

// Params are the inputs to every pricing function for a European call.
type Params struct {
	Spot         float64
	Strike       float64
	TimeToExpiry float64 // years
	Volatility   float64 // annualized, 0.20 = 20%
	RiskFreeRate float64
}

// NewParams returns Params using DefaultRiskFreeRate.
func NewParams(spot, strike, timeToExpiry, volatility float64) Params {
	return Params{
		Spot:         spot,
		Strike:       strike,
		TimeToExpiry: timeToExpiry,
		Volatility:   volatility,
		RiskFreeRate: DefaultRiskFreeRate,
	}
}

// Greeks bundles the call price and its sensitivities.
type Greeks struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"` // per calendar day
}

// Validate checks the inputs before any computation happens.
func (p Params) Validate() error {
	if !(p.Spot > 0) || math.IsInf(p.Spot, 0) {
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidInput, p.Spot)
	}
	if !(p.Strike > 0) || math.IsInf(p.Strike, 0) {
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidInput, p.Strike)
	}
	if !(p.TimeToExpiry > 0) || math.IsInf(p.TimeToExpiry, 0) {
		return fmt.Errorf("%w: time to expiry must be positive, got %v", ErrInvalidInput, p.TimeToExpiry)
	}
	if !(p.Volatility > 0) || math.IsInf(p.Volatility, 0) {
		return fmt.Errorf("%w: volatility must be positive, got %v", ErrInvalidInput, p.Volatility)
	}
	if math.IsNaN(p.RiskFreeRate) || math.IsInf(p.RiskFreeRate, 0) {
		return fmt.Errorf("%w: risk-free rate must be finite, got %v", ErrInvalidInput, p.RiskFreeRate)
	}
	return nil
}

// d1d2 computes the standard Black-Scholes d1 and d2 terms.
//
//	d1 = [ln(S/K) + (r + σ²/2)·T] / (σ√T)
//	d2 = d1 − σ√T
func d1d2(p Params) (float64, float64) {
	volSqrtT := p.Volatility * math.Sqrt(p.TimeToExpiry)
	d1 := (math.Log(p.Spot/p.Strike) + (p.RiskFreeRate+p.Volatility*p.Volatility/2)*p.TimeToExpiry) / volSqrtT
	return d1, d1 - volSqrtT
}

// ProbabilityOfProfit returns Φ(d2), the risk-neutral probability that spot
// finishes above strike at expiry.
func ProbabilityOfProfit(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	_, d2 := d1d2(p)
	return distuv.UnitNormal.CDF(d2), nil
}

// OptionPrice returns the Black-Scholes call value, floored at zero.
func OptionPrice(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return callPrice(p), nil
}

// Delta returns Φ(d1).
func Delta(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	d1, _ := d1d2(p)
	return distuv.UnitNormal.CDF(d1), nil
}

// Gamma returns φ(d1) / (S·σ·√T).
func Gamma(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return gamma(p), nil
}

// Theta returns the call's time decay per calendar day.
func Theta(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return theta(p), nil
}

// Calculate returns price, delta, gamma and theta in a single pass.
func Calculate(p Params) (Greeks, error) {
	if err := p.Validate(); err != nil {
		return Greeks{}, err
	}
	d1, _ := d1d2(p)
	return Greeks{
		Price: callPrice(p),
		Delta: distuv.UnitNormal.CDF(d1),
		Gamma: gamma(p),
		Theta: theta(p),
	}, nil
}

func callPrice(p Params) float64 {
	d1, d2 := d1d2(p)
	discount := math.Exp(-p.RiskFreeRate * p.TimeToExpiry)
	price := p.Spot*distuv.UnitNormal.CDF(d1) - p.Strike*discount*distuv.UnitNormal.CDF(d2)
	return math.Max(price, 0)
}

func gamma(p Params) float64 {
	d1, _ := d1d2(p)
	return distuv.UnitNormal.Prob(d1) / (p.Spot * p.Volatility * math.Sqrt(p.TimeToExpiry))
}

func theta(p Params) float64 {
	d1, d2 := d1d2(p)
	sqrtT := math.Sqrt(p.TimeToExpiry)
	decay := -(p.Spot * distuv.UnitNormal.Prob(d1) * p.Volatility) / (2 * sqrtT)
	carry := p.RiskFreeRate * p.Strike * math.Exp(-p.RiskFreeRate*p.TimeToExpiry) * distuv.UnitNormal.CDF(d2)
	return (decay - carry) / DaysPerYear
}
