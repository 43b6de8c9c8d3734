package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"market-backfill/src/analysis"
	"market-backfill/src/config"
	"market-backfill/src/models"
	"market-backfill/src/utils"
)

// -----------------------------------------------------------------------------

func upper(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, strings.ToUpper(a))
	}
	return out
}

// -----------------------------------------------------------------------------

func runGaps(ctx context.Context, app *App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: gaps SYMBOL")
	}
	symbol := strings.ToUpper(args[0])
	gaps, err := app.Detector.FindGaps(ctx, symbol)
	if err != nil {
		return err
	}
	renderGaps(os.Stdout, symbol, gaps, app.Calendar.Location())
	return nil
}

// -----------------------------------------------------------------------------

// runOperation drives backfill, interpolate and reconcile through the Runner.
func runOperation(ctx context.Context, app *App, op string, args []string) error {
	report, err := app.Runner.Run(ctx, upper(args), op)
	if err != nil {
		return err
	}
	renderReport(os.Stdout, report)
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d symbols failed", len(report.Failed), len(report.Failed)+len(report.Succeeded))
	}
	return nil
}

// -----------------------------------------------------------------------------

func runCoverage(ctx context.Context, app *App, args []string, legacy bool) error {
	stats, err := app.Coverage.Coverage(ctx, upper(args))
	if err != nil {
		return err
	}
	if legacy {
		for _, line := range analysis.FormatStatus(stats) {
			fmt.Println(line)
		}
		return nil
	}
	renderCoverage(os.Stdout, stats)
	return nil
}

// -----------------------------------------------------------------------------

func runExport(ctx context.Context, app *App, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: export SYMBOL FROM TO OUT.parquet (FROM/TO as %q)", "yyyy-MM-dd HH:mm")
	}
	loc := app.Calendar.Location()
	for _, ts := range args[1:3] {
		if _, err := utils.ParseMinute(ts, loc); err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
	}
	n, err := app.Exporter.Export(ctx, strings.ToUpper(args[0]), args[1], args[2], args[3])
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d bars to %s\n", n, args[3])
	return nil
}

// -----------------------------------------------------------------------------

// runCalendar needs only the configuration, not the store.
func runCalendar(cfg *config.Config, args []string) error {
	diff := len(args) > 0 && args[0] == "diff"
	if diff {
		args = args[1:]
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: calendar [diff] YEAR")
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid year %q", args[0])
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	builtin := utils.NewTradingCalendar(loc)

	if diff {
		exchange, err := utils.NewExchangeCalendar(cfg.Calendar.MIC, loc, year)
		if err != nil {
			return err
		}
		renderCalendarDiff(os.Stdout, year, utils.DiffCalendars(builtin, exchange, year))
		return nil
	}

	renderCalendar(os.Stdout, year, utils.TradingDays(builtin, year), utils.Holidays(year))
	return nil
}

// -----------------------------------------------------------------------------

func runConfigInit(args []string) error {
	if len(args) != 2 || args[0] != "init" {
		return fmt.Errorf("usage: config init PATH")
	}
	if _, err := os.Stat(args[1]); err == nil {
		return fmt.Errorf("%s already exists", args[1])
	}
	if err := config.Default().Save(args[1]); err != nil {
		return err
	}
	fmt.Printf("wrote default configuration to %s\n", args[1])
	return nil
}

// -----------------------------------------------------------------------------

var operations = map[string]string{
	"backfill":    models.OpBackfill,
	"interpolate": models.OpInterpolate,
	"reconcile":   models.OpReconcile,
}
