package utils

import "time"

// -----------------------------------------------------------------------------

// TimestampLayout is the stored minute format ("yyyy-MM-dd HH:mm").
const TimestampLayout = "2006-01-02 15:04"

// DateLayout is used for calendar days in logs, CLI and API parameters.
const DateLayout = "2006-01-02"

// Session times, wall clock in the reference zone.
const (
	SessionOpenHour    = 15
	SessionOpenMinute  = 30
	SessionCloseHour   = 22
	SessionCloseMinute = 0
	HalfDayCloseHour   = 20
	HalfDayCloseMinute = 0
)

// -----------------------------------------------------------------------------

// FormatMinute renders t in loc using the stored minute format.
func FormatMinute(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimestampLayout)
}

// -----------------------------------------------------------------------------

// ParseMinute parses a stored timestamp in loc.
func ParseMinute(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, loc)
}

// -----------------------------------------------------------------------------

// StartOfDay returns midnight of t's calendar date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
