package chain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/marketdata"
)

// ParseOptions controls the first pipeline stage.
type ParseOptions struct {
	ZeroDTEOnly bool
	ValidOnly   bool
	Now         time.Time
	Location    *time.Location
}

// LiquidityFilter holds the volume/open-interest minimums and spread bounds.
type LiquidityFilter struct {
	MinVolume       int64
	MinOpenInterest int64
	// RequireBoth combines the volume and open-interest minimums with AND
	// instead of OR.
	RequireBoth  bool
	MinSpreadPct float64
	MaxSpreadPct float64
}

// FilterConfig configures a Processor.
type FilterConfig struct {
	ZeroDTEOnly  bool
	ValidOnly    bool
	MinOTMPoints float64 // negative allows in-the-money strikes
	MaxOTMPoints float64
	Liquidity    LiquidityFilter
}

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		ZeroDTEOnly:  true,
		ValidOnly:    true,
		MinOTMPoints: -2,
		MaxOTMPoints: 10,
		Liquidity: LiquidityFilter{
			MinVolume:       10,
			MinOpenInterest: 50,
			RequireBoth:     false,
			MinSpreadPct:    0,
			MaxSpreadPct:    20,
		},
	}
}

// Validate reports every problem with the configuration.
func (c FilterConfig) Validate() error {
	var errs []error
	if c.MinOTMPoints > c.MaxOTMPoints {
		errs = append(errs, fmt.Errorf("min_otm_points (%v) must not exceed max_otm_points (%v)", c.MinOTMPoints, c.MaxOTMPoints))
	}
	if c.Liquidity.MinVolume < 0 {
		errs = append(errs, fmt.Errorf("min_volume must be >= 0, got %d", c.Liquidity.MinVolume))
	}
	if c.Liquidity.MinOpenInterest < 0 {
		errs = append(errs, fmt.Errorf("min_open_interest must be >= 0, got %d", c.Liquidity.MinOpenInterest))
	}
	if c.Liquidity.MinSpreadPct < 0 {
		errs = append(errs, fmt.Errorf("min_spread_pct must be >= 0, got %v", c.Liquidity.MinSpreadPct))
	}
	if c.Liquidity.MaxSpreadPct <= 0 || c.Liquidity.MinSpreadPct > c.Liquidity.MaxSpreadPct {
		errs = append(errs, fmt.Errorf("max_spread_pct must be positive and >= min_spread_pct, got [%v, %v]",
			c.Liquidity.MinSpreadPct, c.Liquidity.MaxSpreadPct))
	}
	return errors.Join(errs...)
}

// Parse keeps call contracts, applies the optional 0-DTE and validity
// filters, fills in missing mids and sorts ascending by strike.
func Parse(options []marketdata.OptionQuote, opts ParseOptions) Table {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	today := opts.Now.In(loc).Format(marketdata.ExpirationLayout)

	table := make(Table, 0, len(options))
	for _, o := range options {
		if o.Type != marketdata.Call {
			continue
		}
		if opts.ZeroDTEOnly && o.Expiration != today {
			continue
		}
		if opts.ValidOnly && !IsValidQuote(o) {
			continue
		}
		if o.Mid == 0 && o.Bid > 0 && o.Ask > 0 {
			o.Mid = (o.Bid + o.Ask) / 2
		}
		table = append(table, Row{OptionQuote: o})
	}

	sort.SliceStable(table, func(i, j int) bool { return table[i].Strike < table[j].Strike })
	return table
}

// IsValidQuote is the validity check used by Parse.
func IsValidQuote(o marketdata.OptionQuote) bool {
	return o.Bid > 0 && o.Ask > 0 && o.Bid < o.Ask && o.Volume >= 0 && o.OpenInterest >= 0
}

// AnnotateLiquidity fills the spread and liquidity score columns.
//
//	score = 100 × (0.4·clamp(volume/1000) + 0.3·clamp(oi/500) + 0.3·clamp(1 − spread%/10))
func AnnotateLiquidity(t Table) Table {
	out := t.clone()
	for i := range out {
		r := &out[i]
		r.BidAskSpread = r.Ask - r.Bid

		mid := r.Mid
		if mid == 0 {
			mid = (r.Bid + r.Ask) / 2
		}
		if mid > 0 {
			r.BidAskSpreadPct = r.BidAskSpread / mid * 100
		} else {
			// No usable mid; treat as maximally illiquid.
			r.BidAskSpreadPct = 100
		}

		volumeScore := clamp01(float64(r.Volume) / 1000)
		oiScore := clamp01(float64(r.OpenInterest) / 500)
		spreadScore := clamp01(1 - r.BidAskSpreadPct/10)
		r.LiquidityScore = (0.4*volumeScore + 0.3*oiScore + 0.3*spreadScore) * 100
	}
	return out
}

// AnnotateExpiry fills HoursToExpiry relative to now.
func AnnotateExpiry(t Table, now time.Time, loc *time.Location) Table {
	out := t.clone()
	for i := range out {
		out[i].HoursToExpiry = HoursToExpiry(out[i].Expiration, now, loc)
	}
	return out
}

// FilterMoneyness keeps strikes within [spot+minOTM, spot+maxOTM].
func FilterMoneyness(t Table, spot, minOTMPoints, maxOTMPoints float64) Table {
	lo, hi := spot+minOTMPoints, spot+maxOTMPoints
	return t.filter(func(r Row) bool {
		return r.Strike >= lo && r.Strike <= hi
	})
}

// FilterLiquidity applies volume/open-interest minimums and spread bounds.
// Run AnnotateLiquidity first; the spread bound reads BidAskSpreadPct.
func FilterLiquidity(t Table, f LiquidityFilter) Table {
	return t.filter(func(r Row) bool {
		volOK := r.Volume >= f.MinVolume
		oiOK := r.OpenInterest >= f.MinOpenInterest

		activity := volOK || oiOK
		if f.RequireBoth {
			activity = volOK && oiOK
		}
		if !activity {
			return false
		}
		return r.BidAskSpreadPct >= f.MinSpreadPct && r.BidAskSpreadPct <= f.MaxSpreadPct
	})
}

// Processor runs every stage with a fixed configuration.
type Processor struct {
	cfg    FilterConfig
	loc    *time.Location
	logger *zap.Logger
}

func NewProcessor(cfg FilterConfig, loc *time.Location, logger *zap.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chain filter config: %w", err)
	}
	if loc == nil {
		loc = ExchangeLocation()
	}
	return &Processor{cfg: cfg, loc: loc, logger: logger}, nil
}

// Location is the exchange time zone the processor works in.
func (p *Processor) Location() *time.Location {
	return p.loc
}

// ZeroDTEOnly reports whether Process keeps only same-day expirations.
func (p *Processor) ZeroDTEOnly() bool {
	return p.cfg.ZeroDTEOnly
}

// Process turns a raw chain into the table of calls eligible for spreads.
func (p *Processor) Process(options []marketdata.OptionQuote, spot float64, now time.Time) Table {
	parsed := Parse(options, ParseOptions{
		ZeroDTEOnly: p.cfg.ZeroDTEOnly,
		ValidOnly:   p.cfg.ValidOnly,
		Now:         now,
		Location:    p.loc,
	})
	annotated := AnnotateExpiry(AnnotateLiquidity(parsed), now, p.loc)
	inRange := FilterMoneyness(annotated, spot, p.cfg.MinOTMPoints, p.cfg.MaxOTMPoints)
	liquid := FilterLiquidity(inRange, p.cfg.Liquidity)

	p.logger.Debug("processed option chain",
		zap.Int("raw", len(options)),
		zap.Int("parsed", len(parsed)),
		zap.Int("inRange", len(inRange)),
		zap.Int("liquid", len(liquid)),
	)
	return liquid
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
