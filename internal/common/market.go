package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampFormat is the wall-clock format stamped onto analysis results.
const TimestampFormat = "2006/01/02 15:04:05"

// MarketClock answers session questions for the configured exchange.
type MarketClock struct {
	location    *time.Location
	openHour    int
	openMinute  int
	closeHour   int
	closeMinute int
}

// NewMarketClock builds a clock from market config. Config is validated
// at load time, so parse failures here fall back to Taipei defaults.
func NewMarketClock(config *MarketConfig) *MarketClock {
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}

	openHour, openMinute, err := parseClock(config.OpenTime)
	if err != nil {
		openHour, openMinute = 9, 0
	}
	closeHour, closeMinute, err := parseClock(config.CloseTime)
	if err != nil {
		closeHour, closeMinute = 13, 30
	}

	return &MarketClock{
		location:    loc,
		openHour:    openHour,
		openMinute:  openMinute,
		closeHour:   closeHour,
		closeMinute: closeMinute,
	}
}

// Location returns the market timezone.
func (m *MarketClock) Location() *time.Location {
	return m.location
}

// Now returns the current time in the market timezone.
func (m *MarketClock) Now() time.Time {
	return time.Now().In(m.location)
}

// IsOpen reports whether the market session is in progress at t.
// Weekends are always closed; public holidays are not modeled.
func (m *MarketClock) IsOpen(t time.Time) bool {
	local := t.In(m.location)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	open := m.openHour*60 + m.openMinute
	close := m.closeHour*60 + m.closeMinute

	return minutes >= open && minutes < close
}

// SessionCutover returns today's session-close instant for the day of t.
// Used by the daily-cutover cache policy.
func (m *MarketClock) SessionCutover(t time.Time) time.Time {
	local := t.In(m.location)
	return time.Date(local.Year(), local.Month(), local.Day(), m.closeHour, m.closeMinute, 0, 0, m.location)
}

// FormatTimestamp renders t in the market timezone in the result format.
func (m *MarketClock) FormatTimestamp(t time.Time) string {
	return t.In(m.location).Format(TimestampFormat)
}

// parseClock parses an "HH:MM" string.
func parseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q, expected HH:MM", value)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in clock time %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in clock time %q", value)
	}

	return hour, minute, nil
}
