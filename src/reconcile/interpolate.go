package reconcile

import (
	"context"
	"time"

	"market-backfill/src/analysis"
	"market-backfill/src/analysis/core"
	"market-backfill/src/helpers"
	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"
	"market-backfill/src/utils"

	"github.com/pkg/errors"
)

// ErrBackfillRequired is returned by Interpolate for a symbol that has never
// been backfilled.
var ErrBackfillRequired = errors.New("backfill required before interpolation")

// ArtificialGapFiller synthesizes bars for gaps that upstream could not fill.
type ArtificialGapFiller struct {
	Detector *analysis.GapDetector
	Store    interfaces.IBarStore
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewArtificialGapFiller(detector *analysis.GapDetector, store interfaces.IBarStore, log *logger.Logger) *ArtificialGapFiller {
	return &ArtificialGapFiller{Detector: detector, Store: store, Logger: log}
}

// -----------------------------------------------------------------------------

// Interpolate fills every gap bounded by a stored bar on both sides. Gaps
// without a bound are counted as skipped.
func (f *ArtificialGapFiller) Interpolate(ctx context.Context, symbol string) (models.MInterpolationResult, error) {
	res := models.MInterpolationResult{Symbol: symbol}

	marker, err := f.Store.LastBackfill(ctx, symbol)
	if err != nil {
		return res, helpers.NewDatabaseError("read backfill marker for "+symbol, err)
	}
	if marker == nil {
		return res, errors.Wrap(ErrBackfillRequired, symbol)
	}

	gaps, err := f.Detector.FindGaps(ctx, symbol)
	if err != nil {
		return res, err
	}

	loc := f.Detector.Trimmer.Calendar.Location()
	var synthetic []models.MBar

	for _, gap := range gaps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		total := int(gap.End.Sub(gap.Start) / time.Minute)
		if total <= 0 {
			continue
		}

		before, err := f.Store.NearestBarAtOrBefore(ctx, symbol, utils.FormatMinute(gap.Start.Add(-time.Minute), loc))
		if err != nil {
			return res, helpers.NewDatabaseError("lookup bar before gap", err)
		}
		after, err := f.Store.NearestBarAtOrAfter(ctx, symbol, utils.FormatMinute(gap.End, loc))
		if err != nil {
			return res, helpers.NewDatabaseError("lookup bar after gap", err)
		}
		if before == nil || after == nil {
			f.Logger.Info("Interpolate %s: gap %s..%s has no bound on one side, skipping", symbol,
				utils.FormatMinute(gap.Start, loc), utils.FormatMinute(gap.End, loc))
			res.Skipped++
			continue
		}

		synthetic = append(synthetic, core.InterpolateBars(symbol, *before, *after, gap.Start, total, utils.TimestampLayout)...)
		res.Filled++
	}

	if len(synthetic) == 0 {
		return res, nil
	}

	inserted, err := f.Store.InsertBarsIfAbsent(ctx, synthetic)
	if err != nil {
		return res, err
	}
	res.Inserted = inserted
	f.Logger.Info("Interpolate %s: filled %d gaps (%d rows), skipped %d", symbol, res.Filled, inserted, res.Skipped)
	return res, nil
}
