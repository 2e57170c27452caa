package chain

import "github.com/carmandale/spy-fly/internal/marketdata"

// Row is one call contract plus the columns derived by the processor.
type Row struct {
	marketdata.OptionQuote

	BidAskSpread    float64 `json:"bid_ask_spread"`
	BidAskSpreadPct float64 `json:"bid_ask_spread_pct"`
	LiquidityScore  float64 `json:"liquidity_score"`
	HoursToExpiry   float64 `json:"hours_to_expiry"`
}

// Table is an ordered set of rows, ascending by strike. Stages never modify
// their input; each returns a new Table.
type Table []Row

// Strikes returns the strike ladder in table order.
func (t Table) Strikes() []float64 {
	strikes := make([]float64, len(t))
	for i, r := range t {
		strikes[i] = r.Strike
	}
	return strikes
}

func (t Table) filter(keep func(Row) bool) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (t Table) clone() Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}
