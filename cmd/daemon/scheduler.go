package main

import (
	"time"

	"github.com/carmandale/spy-fly/internal/chain"
	"github.com/carmandale/spy-fly/internal/marketdata"
)

// Scheduler decides when the daily scan is due.
type Scheduler struct {
	hour     int
	minute   int
	location *time.Location
	now      func() time.Time
}

func NewScheduler(hour, minute int, loc *time.Location) *Scheduler {
	return &Scheduler{hour: hour, minute: minute, location: loc, now: time.Now}
}

// IsScheduledTime reports whether the clock is inside the scheduled minute.
func (s *Scheduler) IsScheduledTime() bool {
	now := s.now().In(s.location)
	return now.Hour() == s.hour && now.Minute() == s.minute
}

// MissedToday reports whether the scheduled time has passed while the
// regular session is still open.
func (s *Scheduler) MissedToday() bool {
	now := s.now().In(s.location)
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.location)
	return now.After(scheduled) && chain.IsMarketOpen(now, s.location)
}

func (s *Scheduler) TodayDate() string {
	return s.now().In(s.location).Format(marketdata.ExpirationLayout)
}

// IsMarketDay checks a YYYY-MM-DD date against the NYSE calendar.
func (s *Scheduler) IsMarketDay(date string) bool {
	d, err := time.ParseInLocation(marketdata.ExpirationLayout, date, s.location)
	if err != nil {
		return false
	}
	return chain.IsMarketDay(d, s.location)
}

// Clock returns the current time in the scheduler's location.
func (s *Scheduler) Clock() time.Time {
	return s.now().In(s.location)
}
