package sentiment

import "fmt"

// Component names, in breakdown order.
const (
	ComponentVIX       = "vix"
	ComponentFutures   = "futures"
	ComponentRSI       = "rsi"
	ComponentMA        = "ma50"
	ComponentBollinger = "bollinger"
	ComponentNews      = "news"
)

// Per-component maximum scores.
const (
	MaxVIXScore       = 20
	MaxFuturesScore   = 20
	MaxRSIScore       = 10
	MaxMAScore        = 10
	MaxBollingerScore = 10
	MaxNewsScore      = 20

	MaxCompositeScore = 100
)

const (
	LabelUnavailable      = "unavailable"
	LabelInsufficientData = "insufficient data"
)

// ComponentScore is one line of the sentiment breakdown.
type ComponentScore struct {
	Name     string             `json:"name"`
	Score    int                `json:"score"`
	MaxScore int                `json:"max_score"`
	Value    *float64           `json:"value,omitempty"`
	Label    string             `json:"label"`
	Context  map[string]float64 `json:"context,omitempty"`
}

// Available reports whether the component had data to score.
func (c ComponentScore) Available() bool {
	return c.Label != LabelUnavailable && c.Label != LabelInsufficientData
}

func (c ComponentScore) String() string {
	return fmt.Sprintf("%s=%d/%d (%s)", c.Name, c.Score, c.MaxScore, c.Label)
}

// ScoreVIX: 20 below VIXLow, 10 up to VIXHigh, 0 at or above it.
func (c Config) ScoreVIX(vix *float64) ComponentScore {
	s := ComponentScore{
		Name:     ComponentVIX,
		MaxScore: MaxVIXScore,
		Context:  map[string]float64{"low_threshold": c.VIXLow, "high_threshold": c.VIXHigh},
	}
	if vix == nil {
		s.Label = LabelUnavailable
		return s
	}

	s.Value = ptr(*vix)
	switch {
	case *vix < c.VIXLow:
		s.Score, s.Label = MaxVIXScore, "low volatility"
	case *vix < c.VIXHigh:
		s.Score, s.Label = MaxVIXScore/2, "moderate volatility"
	default:
		s.Score, s.Label = 0, "high volatility"
	}
	return s
}

// ScoreFutures scores the percent change of futures from the previous close.
func (c Config) ScoreFutures(current, prevClose *float64) ComponentScore {
	s := ComponentScore{
		Name:     ComponentFutures,
		MaxScore: MaxFuturesScore,
		Context:  map[string]float64{"bullish_threshold_pct": c.FuturesBullishPct},
	}
	if current == nil || prevClose == nil || *prevClose <= 0 {
		s.Label = LabelUnavailable
		return s
	}

	pct := (*current - *prevClose) / *prevClose * 100
	s.Value = ptr(pct)
	s.Context["current"] = *current
	s.Context["previous_close"] = *prevClose

	switch {
	case pct >= c.FuturesBullishPct:
		s.Score, s.Label = MaxFuturesScore, "bullish"
	case pct >= 0:
		s.Score, s.Label = MaxFuturesScore/2, "flat"
	default:
		s.Score, s.Label = 0, "bearish"
	}
	return s
}

// ScoreRSI gives full marks when RSI is within [oversold, overbought].
func (c Config) ScoreRSI(rsi *float64) ComponentScore {
	s := ComponentScore{
		Name:     ComponentRSI,
		MaxScore: MaxRSIScore,
		Context:  map[string]float64{"oversold": c.RSIOversold, "overbought": c.RSIOverbought},
	}
	if rsi == nil {
		s.Label = LabelUnavailable
		return s
	}

	s.Value = ptr(*rsi)
	switch {
	case *rsi < c.RSIOversold:
		s.Label = "oversold"
	case *rsi > c.RSIOverbought:
		s.Label = "overbought"
	default:
		s.Score, s.Label = MaxRSIScore, "neutral"
	}
	return s
}

// ScoreMovingAverage compares price with the MAPeriod simple moving average
// of closes.
func (c Config) ScoreMovingAverage(price float64, closes []float64) ComponentScore {
	s := ComponentScore{
		Name:     ComponentMA,
		MaxScore: MaxMAScore,
		Context:  map[string]float64{"period": float64(c.MAPeriod), "history": float64(len(closes))},
	}
	if price <= 0 {
		s.Label = LabelUnavailable
		return s
	}

	ma := CalculateMovingAverage(closes, c.MAPeriod)
	if ma == nil {
		s.Label = LabelInsufficientData
		return s
	}

	s.Value = ptr(*ma)
	s.Context["price"] = price
	if price > *ma {
		s.Score, s.Label = MaxMAScore, "above"
	} else {
		s.Label = "below"
	}
	return s
}

// ScoreBollinger gives full marks inside the inner band range (inclusive).
func (c Config) ScoreBollinger(position *float64) ComponentScore {
	s := ComponentScore{
		Name:     ComponentBollinger,
		MaxScore: MaxBollingerScore,
		Context:  map[string]float64{"inner_low": c.BollingerInnerLow, "inner_high": c.BollingerInnerHigh},
	}
	if position == nil {
		s.Label = LabelInsufficientData
		return s
	}

	s.Value = ptr(*position)
	switch {
	case *position < c.BollingerInnerLow:
		s.Label = "near lower band"
	case *position > c.BollingerInnerHigh:
		s.Label = "near upper band"
	default:
		s.Score, s.Label = MaxBollingerScore, "inside bands"
	}
	return s
}

// ScoreNews clamps an external news signal into [0, MaxNewsScore].
func (c Config) ScoreNews(signal NewsSignal) ComponentScore {
	s := ComponentScore{Name: ComponentNews, MaxScore: MaxNewsScore}
	if !signal.Available {
		s.Label = LabelUnavailable
		return s
	}

	score := min(max(signal.Score, 0), MaxNewsScore)
	s.Score = score
	s.Value = ptr(float64(signal.Score))
	s.Label = signal.Label
	if signal.Headlines > 0 {
		s.Context = map[string]float64{
			"headlines": float64(signal.Headlines),
			"bullish":   float64(signal.Bullish),
			"bearish":   float64(signal.Bearish),
		}
	}
	return s
}

func ptr(v float64) *float64 {
	return &v
}
