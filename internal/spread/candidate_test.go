package spread

import (
	"math"
	"testing"

	"github.com/carmandale/spy-fly/internal/chain"
	"github.com/carmandale/spy-fly/internal/marketdata"
)

func row(strike, mid float64) chain.Row {
	return chain.Row{
		OptionQuote: marketdata.OptionQuote{
			Symbol:     "SPY",
			Strike:     strike,
			Type:       marketdata.Call,
			Expiration: "2026-10-15",
			Mid:        mid,
		},
		HoursToExpiry: 6,
	}
}

func TestNew_Economics(t *testing.T) {
	c, err := New(row(580, 2.50), row(585, 1.00))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.NetDebit != 1.5 {
		t.Errorf("expected net debit 1.5, got %v", c.NetDebit)
	}
	if c.MaxProfit != 3.5 {
		t.Errorf("expected max profit 3.5, got %v", c.MaxProfit)
	}
	if c.MaxRisk != c.NetDebit {
		t.Errorf("max risk should equal net debit, got %v", c.MaxRisk)
	}
	if c.Breakeven != 581.5 {
		t.Errorf("expected breakeven 581.5, got %v", c.Breakeven)
	}
	if math.Abs(c.RiskRewardRatio-3.5/1.5) > 1e-12 {
		t.Errorf("unexpected risk/reward %v", c.RiskRewardRatio)
	}
	if math.Abs(c.YearsToExpiry()-6.0/24/365) > 1e-15 {
		t.Errorf("unexpected years to expiry %v", c.YearsToExpiry())
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(row(585, 1.0), row(580, 2.5)); err == nil {
		t.Error("expected error when long strike is above short strike")
	}
	if _, err := New(row(580, 1.0), row(585, 1.0)); err == nil {
		t.Error("expected error for zero debit")
	}
	other := row(585, 0.5)
	other.Expiration = "2026-10-16"
	if _, err := New(row(580, 1.0), other); err == nil {
		t.Error("expected error for mismatched expirations")
	}
}

func TestBuild_AllPairs(t *testing.T) {
	table := chain.Table{row(578, 4.0), row(580, 2.5), row(582, 1.4), row(584, 0.6)}

	candidates := Build(table)
	if len(candidates) != 6 {
		t.Fatalf("expected n(n-1)/2 = 6 candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.LongStrike >= c.ShortStrike {
			t.Errorf("invalid pair %s", c)
		}
		if c.NetDebit <= 0 {
			t.Errorf("non-positive debit in %s", c)
		}
	}
	if candidates[0].LongStrike != 578 || candidates[0].ShortStrike != 580 {
		t.Errorf("unexpected first pair %s", candidates[0])
	}
}

func TestBuild_DropsNonPositiveDebitAndEmpty(t *testing.T) {
	// Inverted premiums produce credits, not debits.
	table := chain.Table{row(580, 1.0), row(582, 1.2)}
	if got := Build(table); len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
	if got := Build(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
