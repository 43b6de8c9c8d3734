package models

import "time"

// MTimeRange is a [Start, End) interval in local market time.
type MTimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// -----------------------------------------------------------------------------

// IsEmpty reports whether the range has no positive length.
func (r MTimeRange) IsEmpty() bool {
	return !r.Start.Before(r.End)
}

// -----------------------------------------------------------------------------

// Minutes returns the (possibly fractional) length of the range in minutes.
func (r MTimeRange) Minutes() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.End.Sub(r.Start).Minutes()
}

// -----------------------------------------------------------------------------

// MSessionWindow describes the trading session of one calendar day.
// Open and Close are zero when IsTradingDay is false.
type MSessionWindow struct {
	Date         time.Time `json:"date"`
	IsTradingDay bool      `json:"is_trading_day"`
	IsHalfDay    bool      `json:"is_half_day"`
	Open         time.Time `json:"open"`
	Close        time.Time `json:"close"`
}

// MHoliday is a named non-regular session day.
type MHoliday struct {
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	IsHalfDay bool      `json:"is_half_day"`
}

// TotalMinutes sums the lengths of a list of ranges.
func TotalMinutes(ranges []MTimeRange) float64 {
	total := 0.0
	for _, r := range ranges {
		total += r.Minutes()
	}
	return total
}
