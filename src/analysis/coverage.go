package analysis

import (
	"context"
	"fmt"

	"market-backfill/src/helpers"
	"market-backfill/src/logger"
	"market-backfill/src/models"
)

// CoverageReporter computes the share of expected session minutes stored
// per symbol.
type CoverageReporter struct {
	Detector *GapDetector
	Universe *Universe
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCoverageReporter(detector *GapDetector, universe *Universe, log *logger.Logger) *CoverageReporter {
	return &CoverageReporter{Detector: detector, Universe: universe, Logger: log}
}

// -----------------------------------------------------------------------------

// ExpectedMinutes sums the trimmed session minutes from the start of data to
// now. It fails with a configuration error when that sum is zero.
func (c *CoverageReporter) ExpectedMinutes() (models.MTimeRange, float64, error) {
	start, err := c.Detector.DataStartTime()
	if err != nil {
		return models.MTimeRange{}, 0, err
	}
	bounds := models.MTimeRange{Start: start, End: c.Detector.Now()}

	expected := models.TotalMinutes(c.Detector.Trimmer.TrimToSessions(bounds))
	if expected <= 0 {
		return bounds, 0, helpers.NewConfigurationError(
			fmt.Sprintf("no session minutes between %s and %s (start of data in the future?)",
				bounds.Start.Format("2006-01-02 15:04"), bounds.End.Format("2006-01-02 15:04")), nil)
	}
	return bounds, expected, nil
}

// -----------------------------------------------------------------------------

// Coverage reports one stat per symbol; an empty list means the default
// universe. A failed scan for one symbol is reported in its stat and does not
// abort the others.
func (c *CoverageReporter) Coverage(ctx context.Context, symbols []string) ([]models.MCoverageStat, error) {
	bounds, expected, err := c.ExpectedMinutes()
	if err != nil {
		return nil, err
	}
	c.Logger.Info("Coverage: expectedMinutes = %.0f", expected)

	if len(symbols) == 0 && c.Universe != nil {
		symbols = c.Universe.Resolve(ctx)
	}

	stats := make([]models.MCoverageStat, 0, len(symbols))
	for _, symbol := range symbols {
		stat := models.MCoverageStat{Symbol: symbol, ExpectedMinutes: expected}

		gaps, err := c.Detector.FindGapsBetween(ctx, symbol, bounds.Start, bounds.End)
		if err != nil {
			c.Logger.Error("Coverage: gap scan failed for %s: %v", symbol, err)
			stat.MissingMinutes = expected
			stat.Err = err.Error()
			stats = append(stats, stat)
			continue
		}

		stat.Gaps = len(gaps)
		stat.MissingMinutes = models.TotalMinutes(gaps)
		stat.PercentFilled = percentFilled(expected, stat.MissingMinutes)
		c.Logger.Info("Missing minutes for %s: %.0f", symbol, stat.MissingMinutes)

		stats = append(stats, stat)
	}
	return stats, nil
}

// -----------------------------------------------------------------------------

func percentFilled(expected, missing float64) float64 {
	p := (expected - missing) / expected * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// -----------------------------------------------------------------------------

// FormatStatus renders stats as "<SYMBOL> percentage complete: <pct>" lines.
func FormatStatus(stats []models.MCoverageStat) []string {
	out := make([]string, 0, len(stats))
	for _, s := range stats {
		if s.Err != "" {
			out = append(out, fmt.Sprintf("%s percentage complete: unknown (%s)", s.Symbol, s.Err))
			continue
		}
		out = append(out, fmt.Sprintf("%s percentage complete: %.2f", s.Symbol, s.PercentFilled))
	}
	return out
}
