package reconcile

import (
	"context"
	"fmt"
	"time"

	"market-backfill/src/analysis"
	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"
	"market-backfill/src/utils"
)

// BackfillCoordinator fetches the bars of every gap from upstream and stores
// them, together with the symbol's backfill marker, in one transaction.
type BackfillCoordinator struct {
	Detector *analysis.GapDetector
	Source   interfaces.IBarSource
	Store    interfaces.IBarStore
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewBackfillCoordinator(detector *analysis.GapDetector, source interfaces.IBarSource, store interfaces.IBarStore, log *logger.Logger) *BackfillCoordinator {
	return &BackfillCoordinator{
		Detector: detector,
		Source:   source,
		Store:    store,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Backfill returns the number of rows actually inserted. Nothing is written
// unless every gap was fetched successfully.
func (b *BackfillCoordinator) Backfill(ctx context.Context, symbol string) (int, error) {
	gaps, err := b.Detector.FindGaps(ctx, symbol)
	if err != nil {
		return 0, err
	}
	b.Logger.Info("Backfill %s: %d gaps, %.0f missing minutes", symbol, len(gaps), models.TotalMinutes(gaps))

	loc := b.Detector.Trimmer.Calendar.Location()
	seen := make(map[string]bool)
	var bars []models.MBar

	for _, gap := range gaps {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fetched, err := b.Source.FetchBars(ctx, symbol, gap.Start.UTC(), lastMinute(gap).UTC())
		if err != nil {
			return 0, fmt.Errorf("fetch %s %s..%s: %w", symbol,
				utils.FormatMinute(gap.Start, loc), utils.FormatMinute(gap.End, loc), err)
		}

		for _, sb := range fetched {
			local := sb.Timestamp.In(loc).Truncate(time.Minute)
			if local.Before(gap.Start) || !local.Before(gap.End) {
				continue
			}
			ts := utils.FormatMinute(local, loc)
			if seen[ts] {
				continue
			}
			seen[ts] = true
			bars = append(bars, localise(symbol, ts, sb))
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	inserted, err := b.Store.CommitBackfill(ctx, symbol, bars, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	b.Logger.Info("Backfill %s: fetched %d bars, inserted %d", symbol, len(bars), inserted)
	return inserted, nil
}

// -----------------------------------------------------------------------------

// lastMinute is the last whole minute inside a half-open gap.
func lastMinute(gap models.MTimeRange) time.Time {
	last := gap.End.Add(-time.Minute)
	if last.Before(gap.Start) {
		return gap.Start
	}
	return last
}

func localise(symbol, ts string, sb models.MSourceBar) models.MBar {
	return models.MBar{
		Timestamp: ts,
		Symbol:    symbol,
		Open:      sb.Open,
		High:      sb.High,
		Low:       sb.Low,
		Close:     sb.Close,
		Volume:    sb.Volume,
		Average:   sb.VWAP,
		Total:     sb.TradeCount,
	}
}
