package spread

import (
	"fmt"

	"github.com/carmandale/spy-fly/internal/chain"
)

// Candidate is a bull call spread: long the lower strike, short the higher,
// same expiration. Premiums and dollar amounts are per share.
type Candidate struct {
	Symbol       string  `json:"symbol"`
	Expiration   string  `json:"expiration"`
	LongStrike   float64 `json:"long_strike"`
	ShortStrike  float64 `json:"short_strike"`
	LongPremium  float64 `json:"long_premium"`
	ShortPremium float64 `json:"short_premium"`

	NetDebit        float64 `json:"net_debit"`
	MaxProfit       float64 `json:"max_profit"`
	MaxRisk         float64 `json:"max_risk"`
	Breakeven       float64 `json:"breakeven"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`

	HoursToExpiry float64 `json:"hours_to_expiry"`
	// LongIV is the long leg's implied volatility, zero when not quoted.
	LongIV float64 `json:"long_iv,omitempty"`

	// Filled in by position sizing.
	Contracts          int     `json:"contracts"`
	TotalCost          float64 `json:"total_cost"`
	BuyingPowerUsedPct float64 `json:"buying_power_used_pct"`
	SizingWarning      string  `json:"sizing_warning,omitempty"`
}

// New derives the spread economics from two legs. It fails unless
// long.Strike < short.Strike and the net debit is positive.
func New(long, short chain.Row) (Candidate, error) {
	if long.Strike >= short.Strike {
		return Candidate{}, fmt.Errorf("long strike %v must be below short strike %v", long.Strike, short.Strike)
	}
	if long.Expiration != short.Expiration {
		return Candidate{}, fmt.Errorf("legs expire on different dates: %s vs %s", long.Expiration, short.Expiration)
	}

	netDebit := long.Mid - short.Mid
	if netDebit <= 0 {
		return Candidate{}, fmt.Errorf("net debit must be positive, got %.4f", netDebit)
	}

	width := short.Strike - long.Strike
	maxProfit := width - netDebit

	c := Candidate{
		Symbol:          long.Symbol,
		Expiration:      long.Expiration,
		LongStrike:      long.Strike,
		ShortStrike:     short.Strike,
		LongPremium:     long.Mid,
		ShortPremium:    short.Mid,
		NetDebit:        netDebit,
		MaxProfit:       maxProfit,
		MaxRisk:         netDebit,
		Breakeven:       long.Strike + netDebit,
		RiskRewardRatio: maxProfit / netDebit,
		HoursToExpiry:   long.HoursToExpiry,
	}
	if long.ImpliedVolatility != nil {
		c.LongIV = *long.ImpliedVolatility
	}
	return c, nil
}

// Build generates every (long, short) pair with long.Strike < short.Strike
// from a strike-sorted table. Pairs with a non-positive debit are dropped.
// Output order is by long strike, then short strike.
func Build(table chain.Table) []Candidate {
	candidates := make([]Candidate, 0, len(table)*(len(table)-1)/2+1)
	for i := 0; i < len(table); i++ {
		for j := i + 1; j < len(table); j++ {
			if table[i].Strike >= table[j].Strike {
				continue
			}
			c, err := New(table[i], table[j])
			if err != nil {
				continue
			}
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// YearsToExpiry converts HoursToExpiry into the fraction of a year used by
// the pricing engine.
func (c Candidate) YearsToExpiry() float64 {
	return c.HoursToExpiry / 24 / 365
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s %s %.0f/%.0f", c.Symbol, c.Expiration, c.LongStrike, c.ShortStrike)
}
