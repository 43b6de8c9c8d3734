package analysis

import (
	"market-backfill/src/interfaces"
	"market-backfill/src/models"
	"market-backfill/src/utils"
)

// IntervalTrimmer restricts time ranges to trading session time.
type IntervalTrimmer struct {
	Calendar interfaces.ISessionCalendar
}

// -----------------------------------------------------------------------------

func NewIntervalTrimmer(cal interfaces.ISessionCalendar) *IntervalTrimmer {
	return &IntervalTrimmer{Calendar: cal}
}

// -----------------------------------------------------------------------------

// TrimToSessions intersects rng with the session window of every calendar
// day it touches, both endpoint dates included. Output is ascending and
// non-overlapping; empty intersections are dropped.
func (t *IntervalTrimmer) TrimToSessions(rng models.MTimeRange) []models.MTimeRange {
	loc := t.Calendar.Location()
	start := rng.Start.In(loc)
	end := rng.End.In(loc)
	if !start.Before(end) {
		return nil
	}

	var out []models.MTimeRange
	lastDay := utils.StartOfDay(end, loc)
	for day := utils.StartOfDay(start, loc); !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		w := t.Calendar.SessionWindow(day)
		if !w.IsTradingDay {
			continue
		}

		effStart := start
		if w.Open.After(effStart) {
			effStart = w.Open
		}
		effEnd := end
		if w.Close.Before(effEnd) {
			effEnd = w.Close
		}

		if effStart.Before(effEnd) {
			out = append(out, models.MTimeRange{Start: effStart, End: effEnd})
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// TrimAll trims every range and concatenates the results in order.
func (t *IntervalTrimmer) TrimAll(ranges []models.MTimeRange) []models.MTimeRange {
	var out []models.MTimeRange
	for _, r := range ranges {
		out = append(out, t.TrimToSessions(r)...)
	}
	return out
}
