package chain

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/marketdata"
)

var ny = ExchangeLocation()

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 15, hour, minute, 0, 0, ny)
}

func call(strike, bid, ask float64, vol, oi int64) marketdata.OptionQuote {
	return marketdata.OptionQuote{
		Symbol:       "SPY",
		Strike:       strike,
		Type:         marketdata.Call,
		Expiration:   "2026-10-15",
		Bid:          bid,
		Ask:          ask,
		Volume:       vol,
		OpenInterest: oi,
	}
}

func TestParse_CallsOnlySortedWithMid(t *testing.T) {
	put := call(575, 1, 1.1, 100, 100)
	put.Type = marketdata.Put

	table := Parse([]marketdata.OptionQuote{
		call(585, 0.5, 0.6, 100, 100),
		put,
		call(580, 2.0, 2.2, 100, 100),
	}, ParseOptions{Now: at(10, 0), Location: ny})

	if len(table) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(table))
	}
	if table[0].Strike != 580 || table[1].Strike != 585 {
		t.Errorf("expected ascending strikes, got %v", table.Strikes())
	}
	if math.Abs(table[0].Mid-2.1) > 1e-9 {
		t.Errorf("expected mid 2.1, got %v", table[0].Mid)
	}
}

func TestParse_ZeroDTEAndValidity(t *testing.T) {
	tomorrow := call(581, 1, 1.1, 100, 100)
	tomorrow.Expiration = "2026-10-16"

	options := []marketdata.OptionQuote{
		call(580, 2.0, 2.2, 100, 100),
		tomorrow,
		call(582, 0, 1.0, 100, 100),   // no bid
		call(583, 1.2, 1.1, 100, 100), // crossed
		call(584, 1.0, 1.0, 100, 100), // locked
	}

	all := Parse(options, ParseOptions{Now: at(10, 0), Location: ny})
	if len(all) != 5 {
		t.Errorf("expected no filtering by default, got %d", len(all))
	}

	zeroDTE := Parse(options, ParseOptions{ZeroDTEOnly: true, Now: at(10, 0), Location: ny})
	if len(zeroDTE) != 4 {
		t.Errorf("expected 4 same-day contracts, got %d", len(zeroDTE))
	}

	valid := Parse(options, ParseOptions{ValidOnly: true, Now: at(10, 0), Location: ny})
	if len(valid) != 2 {
		t.Errorf("expected 2 valid quotes, got %d: %v", len(valid), valid.Strikes())
	}
}

func TestAnnotateLiquidity(t *testing.T) {
	in := Parse([]marketdata.OptionQuote{
		call(580, 1.9, 2.1, 500, 250),     // spread 0.2 on mid 2.0 = 10%
		call(585, 0.99, 1.01, 5000, 5000), // spread 2%
	}, ParseOptions{Now: at(10, 0), Location: ny})

	out := AnnotateLiquidity(in)

	if in[0].LiquidityScore != 0 {
		t.Error("input table must not be modified")
	}

	if math.Abs(out[0].BidAskSpreadPct-10) > 1e-9 {
		t.Errorf("expected 10%% spread, got %v", out[0].BidAskSpreadPct)
	}
	// 0.4*0.5 + 0.3*0.5 + 0.3*0 = 0.35
	if math.Abs(out[0].LiquidityScore-35) > 1e-9 {
		t.Errorf("expected liquidity 35, got %v", out[0].LiquidityScore)
	}
	// 0.4*1 + 0.3*1 + 0.3*0.8 = 0.94
	if math.Abs(out[1].LiquidityScore-94) > 1e-9 {
		t.Errorf("expected liquidity 94, got %v", out[1].LiquidityScore)
	}
}

func TestAnnotateExpiry(t *testing.T) {
	in := Table{{OptionQuote: call(580, 1, 1.1, 1, 1)}}

	out := AnnotateExpiry(in, at(10, 30), ny)
	if math.Abs(out[0].HoursToExpiry-5.5) > 1e-9 {
		t.Errorf("expected 5.5 hours, got %v", out[0].HoursToExpiry)
	}

	after := AnnotateExpiry(in, at(16, 30), ny)
	if after[0].HoursToExpiry != 0 {
		t.Errorf("expected floor at zero after close, got %v", after[0].HoursToExpiry)
	}
}

func TestFilterMoneyness(t *testing.T) {
	table := Table{}
	for strike := 570.0; strike <= 600; strike++ {
		table = append(table, Row{OptionQuote: call(strike, 1, 1.1, 1, 1)})
	}

	out := FilterMoneyness(table, 580.4, -2, 10)
	strikes := out.Strikes()
	if strikes[0] != 579 || strikes[len(strikes)-1] != 590 {
		t.Errorf("expected strikes 579..590, got %v", strikes)
	}
}

func TestFilterLiquidity_OrVersusAnd(t *testing.T) {
	table := AnnotateLiquidity(Table{
		{OptionQuote: call(580, 1.0, 1.1, 500, 0)},   // volume only
		{OptionQuote: call(581, 1.0, 1.1, 0, 500)},   // open interest only
		{OptionQuote: call(582, 1.0, 1.1, 500, 500)}, // both
		{OptionQuote: call(583, 1.0, 2.0, 500, 500)}, // spread too wide
	})

	or := FilterLiquidity(table, LiquidityFilter{MinVolume: 10, MinOpenInterest: 50, MaxSpreadPct: 20})
	if len(or) != 3 {
		t.Errorf("OR filter: expected 3 rows, got %v", or.Strikes())
	}

	and := FilterLiquidity(table, LiquidityFilter{MinVolume: 10, MinOpenInterest: 50, RequireBoth: true, MaxSpreadPct: 20})
	if len(and) != 1 || and[0].Strike != 582 {
		t.Errorf("AND filter: expected only 582, got %v", and.Strikes())
	}
}

func TestStagesOnEmptyInput(t *testing.T) {
	empty := Parse(nil, ParseOptions{Now: at(10, 0)})
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil table, got %#v", empty)
	}

	stages := map[string]Table{
		"liquidity":   AnnotateLiquidity(empty),
		"expiry":      AnnotateExpiry(empty, at(10, 0), ny),
		"moneyness":   FilterMoneyness(empty, 580, -2, 10),
		"filter":      FilterLiquidity(empty, DefaultFilterConfig().Liquidity),
		"annotateNil": AnnotateLiquidity(nil),
	}
	for name, out := range stages {
		if out == nil || len(out) != 0 {
			t.Errorf("%s: expected empty non-nil table, got %#v", name, out)
		}
	}
}

func TestProcessor_EndToEnd(t *testing.T) {
	p, err := NewProcessor(DefaultFilterConfig(), ny, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	options := []marketdata.OptionQuote{
		call(570, 10.0, 10.2, 100, 100), // too deep ITM
		call(579, 2.00, 2.10, 100, 100),
		call(581, 1.00, 1.05, 100, 100),
		call(583, 0.40, 0.45, 0, 0), // no activity
		call(585, 0.20, 0.22, 100, 100),
		call(600, 0.01, 0.02, 100, 100), // too far OTM
	}

	table := p.Process(options, 580, at(12, 0))
	strikes := table.Strikes()
	want := []float64{579, 581, 585}
	if len(strikes) != len(want) {
		t.Fatalf("expected %v, got %v", want, strikes)
	}
	for i := range want {
		if strikes[i] != want[i] {
			t.Errorf("expected %v, got %v", want, strikes)
		}
	}
	for _, r := range table {
		if r.HoursToExpiry != 4 {
			t.Errorf("expected 4 hours to expiry, got %v", r.HoursToExpiry)
		}
		if r.LiquidityScore <= 0 {
			t.Errorf("expected liquidity score to be annotated for %v", r.Strike)
		}
	}
}

func TestFilterConfig_Validate(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MinOTMPoints = 20
	cfg.Liquidity.MinVolume = -1

	if _, err := NewProcessor(cfg, ny, zap.NewNop()); err == nil {
		t.Fatal("expected invalid config to fail construction")
	}
}

func TestNextExpiration(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"trading day morning", at(9, 0), "2026-10-15"},
		{"after close rolls to next day", at(16, 5), "2026-10-16"},
		{"saturday rolls to monday", time.Date(2026, 10, 17, 10, 0, 0, 0, ny), "2026-10-19"},
		{"christmas rolls past holiday", time.Date(2026, 12, 25, 10, 0, 0, 0, ny), "2026-12-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextExpiration(tt.now, ny); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestIsMarketOpen(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before open", at(9, 29), false},
		{"at open", at(9, 30), true},
		{"midday", at(12, 0), true},
		{"at close", at(16, 0), false},
		{"saturday", time.Date(2026, 10, 17, 12, 0, 0, 0, ny), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarketOpen(tt.now, ny); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
