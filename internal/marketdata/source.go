package marketdata

import (
	"context"
	"time"
)

// Source is the contract every market data provider implements.
type Source interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetOptionChain(ctx context.Context, symbol, expiration string) (*OptionChain, error)
	GetHistoricalBars(ctx context.Context, symbol string, from, to time.Time, timeframe Timeframe) ([]Bar, error)
	GetNews(ctx context.Context, symbol string, limit int) ([]Headline, error)
}
