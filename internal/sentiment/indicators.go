package sentiment

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily realized volatility.
const TradingDaysPerYear = 252

// CalculateRSI returns Wilder's RSI of the last close, or nil when there are
// fewer than period+1 closes. A series that never moves has no gains or
// losses and reads as neutral 50.
func CalculateRSI(closes []float64, period int) *float64 {
	if period < 2 || len(closes) < period+1 {
		return nil
	}
	if unchanged(closes) {
		neutral := 50.0
		return &neutral
	}

	rsi := talib.Rsi(closes, period)
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return nil
	}
	last = math.Max(0, math.Min(100, last))
	return &last
}

func unchanged(closes []float64) bool {
	for _, c := range closes[1:] {
		if c != closes[0] {
			return false
		}
	}
	return true
}

// CalculateMovingAverage returns the simple moving average of the last
// period closes, or nil when history is short.
func CalculateMovingAverage(closes []float64, period int) *float64 {
	if period < 1 || len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)
	last := sma[len(sma)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}

// CalculateBollingerPosition locates the last close within its Bollinger
// bands: 0 at the lower band, 1 at the upper. The result is clamped to
// [0,1] and is 0.5 when the bands collapse.
func CalculateBollingerPosition(closes []float64, period int, k float64) *float64 {
	if period < 2 || len(closes) < period {
		return nil
	}

	upper, _, lower := talib.BBands(closes, period, k, k, talib.SMA)
	hi, lo := upper[len(upper)-1], lower[len(lower)-1]
	if math.IsNaN(hi) || math.IsNaN(lo) {
		return nil
	}

	width := hi - lo
	if width <= 1e-12 {
		mid := 0.5
		return &mid
	}

	pos := (closes[len(closes)-1] - lo) / width
	pos = math.Max(0, math.Min(1, pos))
	return &pos
}

// RealizedVolatility is the annualized sample standard deviation of daily
// log returns. It needs at least three positive closes.
func RealizedVolatility(closes []float64) *float64 {
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) < 2 {
		return nil
	}

	vol := stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
	return &vol
}
