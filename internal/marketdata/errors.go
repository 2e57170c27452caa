package marketdata

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMarketData = errors.New("market data unavailable")
	ErrNotFound   = errors.New("market data not found")
	ErrAuthFailed = errors.New("authentication failed")
)

// RateLimitError is returned when the provider throttles us. RetryAfter is
// zero when the provider gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by market data provider (retry after %s)", e.RetryAfter)
	}
	return "rate limited by market data provider"
}

// IsRateLimited reports whether err carries a RateLimitError.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
