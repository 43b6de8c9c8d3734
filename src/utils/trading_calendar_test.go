package utils

import (
	"testing"
	"time"

	"market-backfill/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestEasterSunday_ReferenceDates(t *testing.T) {
	testCases := []struct {
		year int
		want string
	}{
		{2019, "2019-04-21"},
		{2020, "2020-04-12"},
		{2021, "2021-04-04"},
		{2023, "2023-04-09"},
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2038, "2038-04-25"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, EasterSunday(tc.year).Format(DateLayout), "year %d", tc.year)
	}
}

func TestNthAndLastWeekday(t *testing.T) {
	assert.Equal(t, "2024-01-15", NthWeekday(2024, time.January, time.Monday, 3).Format(DateLayout))
	assert.Equal(t, "2024-02-19", NthWeekday(2024, time.February, time.Monday, 3).Format(DateLayout))
	assert.Equal(t, "2024-09-02", NthWeekday(2024, time.September, time.Monday, 1).Format(DateLayout))
	assert.Equal(t, "2024-11-28", NthWeekday(2024, time.November, time.Thursday, 4).Format(DateLayout))
	// month starting on the target weekday
	assert.Equal(t, "2024-07-01", NthWeekday(2024, time.July, time.Monday, 1).Format(DateLayout))

	assert.Equal(t, "2024-05-27", LastWeekday(2024, time.May, time.Monday).Format(DateLayout))
	assert.Equal(t, "2021-05-31", LastWeekday(2021, time.May, time.Monday).Format(DateLayout))
	assert.Equal(t, "2020-05-25", LastWeekday(2020, time.May, time.Monday).Format(DateLayout))
}

func TestSessionWindow_ReferenceDays(t *testing.T) {
	loc := berlin(t)
	cal := NewTradingCalendar(loc)

	testCases := []struct {
		name      string
		day       string
		trading   bool
		halfDay   bool
		openHHMM  string
		closeHHMM string
	}{
		{name: "MLK day", day: "2024-01-15"},
		{name: "Good Friday", day: "2024-03-29"},
		{name: "Black Friday half day", day: "2024-11-29", trading: true, halfDay: true, openHHMM: "15:30", closeHHMM: "20:00"},
		{name: "Christmas", day: "2024-12-25"},
		{name: "ordinary Tuesday", day: "2024-07-02", trading: true, openHHMM: "15:30", closeHHMM: "22:00"},
		{name: "Independence Day Eve", day: "2024-07-03", trading: true, halfDay: true, openHHMM: "15:30", closeHHMM: "20:00"},
		{name: "Saturday", day: "2024-07-06"},
		{name: "Juneteenth", day: "2024-06-19"},
		{name: "Memorial Day", day: "2024-05-27"},
		{name: "Presidents Day", day: "2024-02-19"},
		{name: "Labor Day", day: "2024-09-02"},
		{name: "New Year", day: "2024-01-01"},
		{name: "Christmas Eve on a weekend stays closed", day: "2023-12-24"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := time.ParseInLocation(DateLayout, tc.day, loc)
			require.NoError(t, err)

			w := cal.SessionWindow(d)
			assert.Equal(t, tc.trading, w.IsTradingDay)
			assert.Equal(t, tc.halfDay, w.IsHalfDay)
			if tc.trading {
				assert.Equal(t, tc.openHHMM, w.Open.Format("15:04"))
				assert.Equal(t, tc.closeHHMM, w.Close.Format("15:04"))
				assert.Equal(t, loc, w.Open.Location())
			} else {
				assert.True(t, w.Open.IsZero())
			}
		})
	}
}

func TestSessionWindow_IgnoresTimeOfDay(t *testing.T) {
	loc := berlin(t)
	cal := NewTradingCalendar(loc)

	morning := cal.SessionWindow(time.Date(2024, 7, 2, 1, 0, 0, 0, loc))
	evening := cal.SessionWindow(time.Date(2024, 7, 2, 23, 59, 0, 0, loc))
	assert.Equal(t, morning, evening)
}

func TestIsOpenOnMinute(t *testing.T) {
	loc := berlin(t)
	cal := NewTradingCalendar(loc)

	assert.False(t, cal.IsOpenOnMinute(time.Date(2024, 7, 2, 15, 29, 0, 0, loc)))
	assert.True(t, cal.IsOpenOnMinute(time.Date(2024, 7, 2, 15, 30, 0, 0, loc)))
	assert.True(t, cal.IsOpenOnMinute(time.Date(2024, 7, 2, 21, 59, 0, 0, loc)))
	assert.False(t, cal.IsOpenOnMinute(time.Date(2024, 7, 2, 22, 0, 0, 0, loc)))
	// 13:59 New York is 19:59 Berlin
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.True(t, cal.IsOpenOnMinute(time.Date(2024, 7, 2, 13, 59, 0, 0, ny)))
}

func TestHolidays_SortedAndComplete(t *testing.T) {
	list := Holidays(2024)
	require.Len(t, list, 13)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].Date.Before(list[i-1].Date))
	}

	half := 0
	for _, h := range list {
		if h.IsHalfDay {
			half++
		}
	}
	assert.Equal(t, 3, half)
}

func TestTradingDays_2024(t *testing.T) {
	cal := NewTradingCalendar(berlin(t))
	days := TradingDays(cal, 2024)
	// 262 weekdays minus 10 weekday holidays
	assert.Len(t, days, 252)
}

func TestMICForSymbol(t *testing.T) {
	assert.Equal(t, "xnys", MICForSymbol("AAPL"))
	assert.Equal(t, "xnys", MICForSymbol("BRK.B"))
	assert.Equal(t, "xlon", MICForSymbol("VOD.L"))
	assert.Equal(t, "xtks", MICForSymbol("7203.T"))
}

func TestExchangeCalendar_SessionWindow(t *testing.T) {
	loc := berlin(t)
	cal, err := NewExchangeCalendar("xnys", loc, 2024)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		day     string
		trading bool
		halfDay bool
		openAt  string
		closeAt string
	}{
		{name: "regular day", day: "2024-07-02", trading: true, openAt: "15:30", closeAt: "22:00"},
		{name: "independence day eve", day: "2024-07-03", trading: true, halfDay: true, openAt: "15:30", closeAt: "19:00"},
		{name: "black friday", day: "2024-11-29", trading: true, halfDay: true, openAt: "15:30", closeAt: "19:00"},
		{name: "US on summer time, EU not yet", day: "2024-03-12", trading: true, openAt: "14:30", closeAt: "21:00"},
		{name: "christmas", day: "2024-12-25"},
		{name: "saturday", day: "2024-07-06"},
		{name: "before the loaded range", day: "2019-01-02", trading: true, openAt: "15:30", closeAt: "22:00"},
		{name: "new year before the loaded range", day: "2019-01-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			day, err := time.ParseInLocation(DateLayout, tc.day, loc)
			require.NoError(t, err)

			w := cal.SessionWindow(day)
			assert.Equal(t, tc.trading, w.IsTradingDay)
			assert.Equal(t, tc.halfDay, w.IsHalfDay)
			if tc.trading {
				assert.Equal(t, tc.day+" "+tc.openAt, FormatMinute(w.Open, loc))
				assert.Equal(t, tc.day+" "+tc.closeAt, FormatMinute(w.Close, loc))
			}
		})
	}
}

func TestExchangeCalendar_IsOpenOnMinute(t *testing.T) {
	loc := berlin(t)
	cal, err := NewExchangeCalendar("xnys", loc, 2024)
	require.NoError(t, err)

	testCases := []struct {
		at   string
		open bool
	}{
		{"2024-07-02 15:29", false},
		{"2024-07-02 15:30", true},
		{"2024-07-02 21:59", true},
		{"2024-07-02 22:00", false},
		{"2024-11-29 18:59", true},
		{"2024-11-29 19:00", false},
		{"2024-12-25 16:00", false},
	}

	for _, tc := range testCases {
		ts, err := ParseMinute(tc.at, loc)
		require.NoError(t, err)
		assert.Equal(t, tc.open, cal.IsOpenOnMinute(ts), tc.at)
	}
}

func TestDiffCalendars_2024(t *testing.T) {
	loc := berlin(t)
	exchange, err := NewExchangeCalendar("xnys", loc, 2024)
	require.NoError(t, err)

	diffs := DiffCalendars(NewTradingCalendar(loc), exchange, 2024)

	// US and EU summer time disagree on these weeks; the exchange opens at 14:30.
	var dstDays []string
	for _, r := range [][2]string{{"2024-03-11", "2024-03-28"}, {"2024-10-28", "2024-11-01"}} {
		from, _ := time.ParseInLocation(DateLayout, r[0], loc)
		to, _ := time.ParseInLocation(DateLayout, r[1], loc)
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
				dstDays = append(dstDays, d.Format(DateLayout))
			}
		}
	}
	require.Len(t, dstDays, 19)

	// Half days close at 13:00 New York time, one hour before the built-in close.
	halfDays := []string{"2024-07-03", "2024-11-29", "2024-12-24"}

	got := make(map[string]CalendarDiff, len(diffs))
	for _, d := range diffs {
		got[d.Date.Format(DateLayout)] = d
	}
	require.Len(t, got, len(dstDays)+len(halfDays))

	for _, day := range dstDays {
		d, ok := got[day]
		require.True(t, ok, day)
		assert.True(t, d.Right.IsTradingDay)
		assert.Equal(t, day+" 14:30", FormatMinute(d.Right.Open, loc))
	}
	for _, day := range halfDays {
		d, ok := got[day]
		require.True(t, ok, day)
		assert.True(t, d.Left.IsHalfDay)
		assert.True(t, d.Right.IsHalfDay)
		assert.Equal(t, day+" 19:00", FormatMinute(d.Right.Close, loc))
	}
}

func TestMarketScheduler_ShouldRun(t *testing.T) {
	loc := berlin(t)
	ms := NewMarketScheduler(NewTradingCalendar(loc), logger.NewNop())

	assert.True(t, ms.ShouldRun(time.Date(2024, 7, 2, 22, 30, 0, 0, loc)))
	assert.False(t, ms.ShouldRun(time.Date(2024, 12, 25, 22, 30, 0, 0, loc)))
	assert.False(t, ms.ShouldRun(time.Date(2024, 7, 6, 22, 30, 0, 0, loc)))

	ms.now = func() time.Time { return time.Date(2024, 7, 2, 16, 0, 0, 0, loc) }
	assert.True(t, ms.MarketOpen())
}
