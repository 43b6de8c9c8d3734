package utils

import (
	"sort"
	"time"

	"market-backfill/src/models"
)

// -----------------------------------------------------------------------------

// date builds a zone-independent calendar date for holiday arithmetic.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------

// NthWeekday returns the n-th (1-based) weekday of month.
func NthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := date(year, month, 1)
	offset := (7 - int(first.Weekday()) + int(weekday)) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

// -----------------------------------------------------------------------------

// LastWeekday returns the last weekday of month.
func LastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := date(year, month+1, 1).AddDate(0, 0, -1)
	back := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -back)
}

// -----------------------------------------------------------------------------

// EasterSunday computes Easter with the anonymous Gregorian algorithm.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

// -----------------------------------------------------------------------------

// Holidays lists the full holidays and half days of year, sorted by date.
// Dates are at midnight UTC.
func Holidays(year int) []models.MHoliday {
	thanksgiving := NthWeekday(year, time.November, time.Thursday, 4)

	list := []models.MHoliday{
		{Date: date(year, time.January, 1), Name: "New Year's Day"},
		{Date: NthWeekday(year, time.January, time.Monday, 3), Name: "Martin Luther King Jr. Day"},
		{Date: NthWeekday(year, time.February, time.Monday, 3), Name: "Presidents' Day"},
		{Date: EasterSunday(year).AddDate(0, 0, -2), Name: "Good Friday"},
		{Date: LastWeekday(year, time.May, time.Monday), Name: "Memorial Day"},
		{Date: date(year, time.June, 19), Name: "Juneteenth"},
		{Date: date(year, time.July, 4), Name: "Independence Day"},
		{Date: NthWeekday(year, time.September, time.Monday, 1), Name: "Labor Day"},
		{Date: thanksgiving, Name: "Thanksgiving Day"},
		{Date: date(year, time.December, 25), Name: "Christmas Day"},

		{Date: date(year, time.July, 3), Name: "Independence Day Eve", IsHalfDay: true},
		{Date: thanksgiving.AddDate(0, 0, 1), Name: "Black Friday", IsHalfDay: true},
		{Date: date(year, time.December, 24), Name: "Christmas Eve", IsHalfDay: true},
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list
}

// -----------------------------------------------------------------------------

// classifyDay reports the holiday entry matching y/m/d, if any. Full holidays
// win over half days.
func classifyDay(year int, month time.Month, day int) (models.MHoliday, bool) {
	target := date(year, month, day)
	var half *models.MHoliday
	for _, h := range Holidays(year) {
		if !h.Date.Equal(target) {
			continue
		}
		if !h.IsHalfDay {
			return h, true
		}
		hc := h
		half = &hc
	}
	if half != nil {
		return *half, true
	}
	return models.MHoliday{}, false
}
