package marketdata

import "time"

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ContractMultiplier is the number of shares one equity option controls.
const ContractMultiplier = 100

// ExpirationLayout is the date format used for option expirations.
const ExpirationLayout = "2006-01-02"

type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Greeks as reported by the data vendor, when available.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

type OptionQuote struct {
	Symbol            string     `json:"symbol"`
	Strike            float64    `json:"strike"`
	Type              OptionType `json:"type"`
	Expiration        string     `json:"expiration"`
	Bid               float64    `json:"bid"`
	Ask               float64    `json:"ask"`
	Mid               float64    `json:"mid"`
	Last              float64    `json:"last"`
	Volume            int64      `json:"volume"`
	OpenInterest      int64      `json:"open_interest"`
	ImpliedVolatility *float64   `json:"implied_volatility,omitempty"`
	Greeks            *Greeks    `json:"greeks,omitempty"`
}

type OptionChain struct {
	Symbol          string        `json:"symbol"`
	Expiration      string        `json:"expiration"`
	UnderlyingPrice float64       `json:"underlying_price"`
	Options         []OptionQuote `json:"options"`
}

// Bar is one OHLCV candle. Bars are returned oldest first.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// Timeframe of historical bars.
type Timeframe string

const (
	Minute Timeframe = "minute"
	Hour   Timeframe = "hour"
	Day    Timeframe = "day"
)

type Headline struct {
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// Closes extracts closing prices, preserving order.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
