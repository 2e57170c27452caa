package chain

import (
	"math"
	"time"

	"github.com/scmhub/calendar"

	"github.com/carmandale/spy-fly/internal/marketdata"
)

// MarketCloseHour is the regular-session close in exchange-local time.
const MarketCloseHour = 16

// ExchangeLocation returns America/New_York, or UTC if the tz database is
// unavailable.
func ExchangeLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ExpiryClose returns the market-close instant on the given expiration date.
func ExpiryClose(expiration string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(marketdata.ExpirationLayout, expiration, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), MarketCloseHour, 0, 0, 0, loc), nil
}

// HoursToExpiry is the number of hours from now until the close on
// expiration, floored at zero. Unparseable expirations yield zero.
func HoursToExpiry(expiration string, now time.Time, loc *time.Location) float64 {
	closeAt, err := ExpiryClose(expiration, loc)
	if err != nil {
		return 0
	}
	return math.Max(closeAt.Sub(now).Hours(), 0)
}

// NextExpiration returns the date of the nearest daily expiration: today if
// it is an NYSE business day and the session has not closed, otherwise the
// next business day.
func NextExpiration(now time.Time, loc *time.Location) string {
	nyse := calendar.XNYS()
	local := now.In(loc)

	day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
	if local.Hour() >= MarketCloseHour {
		day = day.AddDate(0, 0, 1)
	}
	// Parse as noon to keep holidays matching the right calendar date.
	for i := 0; i < 10 && !nyse.IsBusinessDay(day); i++ {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format(marketdata.ExpirationLayout)
}

// IsMarketDay reports whether the date of t (in loc) is an NYSE business day.
func IsMarketDay(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
	return calendar.XNYS().IsBusinessDay(noon)
}

// IsMarketOpen reports whether t falls inside the regular session
// (9:30 to 16:00 exchange time) on a business day.
func IsMarketOpen(t time.Time, loc *time.Location) bool {
	if !IsMarketDay(t, loc) {
		return false
	}
	local := t.In(loc)
	open := time.Date(local.Year(), local.Month(), local.Day(), 9, 30, 0, 0, loc)
	closeAt := time.Date(local.Year(), local.Month(), local.Day(), MarketCloseHour, 0, 0, 0, loc)
	return !local.Before(open) && local.Before(closeAt)
}
