package analysis

import (
	"context"
	"sort"
	"time"

	"market-backfill/src/helpers"
	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"
	"market-backfill/src/utils"
)

// GapDetector finds the session minutes missing from storage for a symbol.
type GapDetector struct {
	Store     interfaces.IBarStore
	Trimmer   *IntervalTrimmer
	Clock     interfaces.IClock
	DataStart string // "2006-01-02 15:04", reference zone
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewGapDetector(
	store interfaces.IBarStore,
	trimmer *IntervalTrimmer,
	clock interfaces.IClock,
	dataStart string,
	log *logger.Logger,
) *GapDetector {
	return &GapDetector{
		Store:     store,
		Trimmer:   trimmer,
		Clock:     clock,
		DataStart: dataStart,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

func (d *GapDetector) location() *time.Location {
	return d.Trimmer.Calendar.Location()
}

// -----------------------------------------------------------------------------

// DataStartTime parses the configured start of data.
func (d *GapDetector) DataStartTime() (time.Time, error) {
	if d.DataStart == "" {
		return time.Time{}, helpers.NewConfigurationError("start of data is not configured", nil)
	}
	t, err := utils.ParseMinute(d.DataStart, d.location())
	if err != nil {
		return time.Time{}, helpers.NewConfigurationError("start of data "+d.DataStart+" is not yyyy-MM-dd HH:mm", err)
	}
	return t, nil
}

// -----------------------------------------------------------------------------

// Now returns the clock's current time in the reference zone.
func (d *GapDetector) Now() time.Time {
	return d.Clock.Now().In(d.location())
}

// -----------------------------------------------------------------------------

// FindGaps returns the trimmed gaps between the start of data and now.
func (d *GapDetector) FindGaps(ctx context.Context, symbol string) ([]models.MTimeRange, error) {
	start, err := d.DataStartTime()
	if err != nil {
		return nil, err
	}
	return d.FindGapsBetween(ctx, symbol, start, d.Now())
}

// -----------------------------------------------------------------------------

// FindGapsBetween returns the trimmed gaps of symbol inside [start, now].
func (d *GapDetector) FindGapsBetween(ctx context.Context, symbol string, start, now time.Time) ([]models.MTimeRange, error) {
	rows, err := d.Store.ExistingTimestamps(ctx, symbol)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to load timestamps for "+symbol, err)
	}

	loc := d.location()
	start = start.In(loc)
	now = now.In(loc)

	present := d.presentMinutes(symbol, rows, start, now)
	raw := RawGaps(start, now, present)
	gaps := d.Trimmer.TrimAll(raw)

	d.Logger.Debug("FindGaps %s: %d stored rows, %d raw gaps, %d session gaps", symbol, len(rows), len(raw), len(gaps))
	return gaps, nil
}

// -----------------------------------------------------------------------------

// presentMinutes parses stored timestamps, drops malformed ones and those
// outside [start, now], and returns them sorted without duplicates.
func (d *GapDetector) presentMinutes(symbol string, rows []string, start, now time.Time) []time.Time {
	loc := d.location()
	present := make([]time.Time, 0, len(rows))
	malformed := 0
	var example string

	for _, s := range rows {
		t, err := utils.ParseMinute(s, loc)
		if err != nil {
			malformed++
			if example == "" {
				example = s
			}
			continue
		}
		if t.Before(start) || t.After(now) {
			continue
		}
		present = append(present, t)
	}

	if malformed > 0 {
		err := helpers.NewValidationError("malformed stored timestamp "+example, nil)
		d.Logger.Warning("FindGaps %s: excluded %d rows: %v", symbol, malformed, err)
	}

	sort.Slice(present, func(i, j int) bool { return present[i].Before(present[j]) })

	out := present[:0]
	for _, t := range present {
		if len(out) > 0 && t.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// -----------------------------------------------------------------------------

// RawGaps returns the untrimmed missing intervals of the minute grid from
// start to now, given the sorted, de-duplicated present minutes within
// [start, now]. A gap opens on the first absent minute and closes on the
// next present one; a gap still open at the end closes at now.
func RawGaps(start, now time.Time, present []time.Time) []models.MTimeRange {
	var out []models.MTimeRange
	cursor := start
	for _, p := range present {
		if p.After(cursor) {
			out = append(out, models.MTimeRange{Start: cursor, End: p})
		}
		cursor = p.Add(time.Minute)
	}
	if cursor.Before(now) {
		out = append(out, models.MTimeRange{Start: cursor, End: now})
	}
	return out
}
