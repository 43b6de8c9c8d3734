package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"market-backfill/src/models"

	"github.com/scmhub/calendar"
)

// suffix -> MIC (ISO 10383), see scmhub/calendar for supported codes
var micBySuffix = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".MI": "xmil",
	".SW": "xswx",
	".TO": "xtse",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
}

// MICForSymbol maps an exchange suffix to its MIC. Plain tickers map to xnys.
func MICForSymbol(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		if mic, ok := micBySuffix[strings.ToUpper(symbol[i:])]; ok {
			return mic
		}
	}
	return "xnys"
}

// -----------------------------------------------------------------------------

// ExchangeCalendar derives session windows from scmhub/calendar and reports
// them in the reference zone.
type ExchangeCalendar struct {
	MIC      string
	Timezone *time.Location

	mu    sync.RWMutex
	cal   *calendar.Calendar
	cache sync.Map // "2006-01-02" -> models.MSessionWindow
}

// -----------------------------------------------------------------------------

// NewExchangeCalendar loads the calendar of mic covering fromYear through next
// year. Dates outside that range widen it on first use.
func NewExchangeCalendar(mic string, loc *time.Location, fromYear int) (*ExchangeCalendar, error) {
	mic = strings.ToLower(mic)
	toYear := time.Now().Year() + 1
	if fromYear <= 0 || fromYear > toYear {
		fromYear = toYear - calendar.YearsPast
	}
	cal := calendar.GetCalendar(mic, fromYear, toYear)
	if cal == nil {
		return nil, fmt.Errorf("no exchange calendar for MIC %q", mic)
	}
	if loc == nil {
		loc = cal.Loc
	}
	return &ExchangeCalendar{MIC: mic, Timezone: loc, cal: cal}, nil
}

// -----------------------------------------------------------------------------

func (ec *ExchangeCalendar) Location() *time.Location {
	return ec.Timezone
}

// -----------------------------------------------------------------------------

// calendarFor returns a calendar whose year range includes year. scmhub panics
// on dates outside its range, so the range is rebuilt wider when needed.
func (ec *ExchangeCalendar) calendarFor(year int) *calendar.Calendar {
	ec.mu.RLock()
	cal := ec.cal
	ec.mu.RUnlock()
	if from, to := cal.Years(); year >= from && year <= to {
		return cal
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	from, to := ec.cal.Years()
	if year >= from && year <= to {
		return ec.cal
	}
	ec.cal = calendar.GetCalendar(ec.MIC, min(from, year), max(to, year))
	return ec.cal
}

// -----------------------------------------------------------------------------

// SessionWindow takes open and close from the exchange session, using the
// early close on the exchange's early-closing days.
func (ec *ExchangeCalendar) SessionWindow(day time.Time) models.MSessionWindow {
	y, m, d := day.Date()
	key := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	if w, ok := ec.cache.Load(key); ok {
		return w.(models.MSessionWindow)
	}

	w := models.MSessionWindow{Date: time.Date(y, m, d, 0, 0, 0, 0, ec.Timezone)}

	cal := ec.calendarFor(y)
	bod := time.Date(y, m, d, 0, 0, 0, 0, cal.Loc)
	if cal.IsBusinessDay(bod) {
		session := cal.Session()
		closeAt := session.Close
		if cal.IsEarlyClose(bod) && session.EarlyClose != 0 {
			closeAt = session.EarlyClose
			w.IsHalfDay = true
		}
		w.IsTradingDay = true
		w.Open = bod.Add(session.Open).In(ec.Timezone)
		w.Close = bod.Add(closeAt).In(ec.Timezone)
	}

	ec.cache.Store(key, w)
	return w
}

// -----------------------------------------------------------------------------

func (ec *ExchangeCalendar) IsTradingDay(day time.Time) bool {
	return ec.SessionWindow(day).IsTradingDay
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute reports whether t lies in [open, close) of its session.
func (ec *ExchangeCalendar) IsOpenOnMinute(t time.Time) bool {
	return IsOpenOnMinute(ec, t)
}

// -----------------------------------------------------------------------------

// CalendarDiff is one date on which two calendars disagree.
type CalendarDiff struct {
	Date  time.Time
	Left  models.MSessionWindow
	Right models.MSessionWindow
}

// DiffCalendars compares two calendars for every date of year.
func DiffCalendars(left, right sessionCalendar, year int) []CalendarDiff {
	var out []CalendarDiff
	loc := left.Location()
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, loc); d.Year() == year; d = d.AddDate(0, 0, 1) {
		l := left.SessionWindow(d)
		r := right.SessionWindow(d)
		if l.IsTradingDay != r.IsTradingDay || l.IsHalfDay != r.IsHalfDay ||
			!l.Open.Equal(r.Open) || !l.Close.Equal(r.Close) {
			out = append(out, CalendarDiff{Date: d, Left: l, Right: r})
		}
	}
	return out
}
