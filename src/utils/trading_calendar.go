package utils

import (
	"time"

	"market-backfill/src/models"
)

// TradingCalendar applies the US equity session rules (weekends, fixed and
// floating holidays, half days) with session times in a reference zone.
type TradingCalendar struct {
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func NewTradingCalendar(loc *time.Location) *TradingCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return &TradingCalendar{Timezone: loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) Location() *time.Location {
	return tc.Timezone
}

// -----------------------------------------------------------------------------

// SessionWindow evaluates weekend, then full holiday, then half day for the
// calendar date of day (its own year/month/day, time of day ignored).
func (tc *TradingCalendar) SessionWindow(day time.Time) models.MSessionWindow {
	y, m, d := day.Date()
	w := models.MSessionWindow{Date: time.Date(y, m, d, 0, 0, 0, 0, tc.Timezone)}

	switch w.Date.Weekday() {
	case time.Saturday, time.Sunday:
		return w
	}

	halfDay := false
	if h, ok := classifyDay(y, m, d); ok {
		if !h.IsHalfDay {
			return w
		}
		halfDay = true
	}

	w.IsTradingDay = true
	w.IsHalfDay = halfDay
	w.Open = time.Date(y, m, d, SessionOpenHour, SessionOpenMinute, 0, 0, tc.Timezone)
	if halfDay {
		w.Close = time.Date(y, m, d, HalfDayCloseHour, HalfDayCloseMinute, 0, 0, tc.Timezone)
	} else {
		w.Close = time.Date(y, m, d, SessionCloseHour, SessionCloseMinute, 0, 0, tc.Timezone)
	}
	return w
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(day time.Time) bool {
	return tc.SessionWindow(day).IsTradingDay
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific instant.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	return IsOpenOnMinute(tc, t)
}

// -----------------------------------------------------------------------------

// sessionCalendar is the subset of interfaces.ISessionCalendar used here.
type sessionCalendar interface {
	SessionWindow(date time.Time) models.MSessionWindow
	Location() *time.Location
}

// IsOpenOnMinute reports whether t falls inside its day's session window
// of cal.
func IsOpenOnMinute(cal sessionCalendar, t time.Time) bool {
	local := t.In(cal.Location())
	w := cal.SessionWindow(local)
	if !w.IsTradingDay {
		return false
	}
	return !local.Before(w.Open) && local.Before(w.Close)
}

// -----------------------------------------------------------------------------

// TradingDays returns every session window of year for which cal trades.
func TradingDays(cal sessionCalendar, year int) []models.MSessionWindow {
	loc := cal.Location()
	var out []models.MSessionWindow
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, loc); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if w := cal.SessionWindow(d); w.IsTradingDay {
			out = append(out, w)
		}
	}
	return out
}
