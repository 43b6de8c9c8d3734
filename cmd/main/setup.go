package main

import (
	"context"
	"time"

	"market-backfill/src/analysis"
	"market-backfill/src/config"
	datasource "market-backfill/src/data_source"
	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/network"
	"market-backfill/src/reconcile"
	"market-backfill/src/storage"
	"market-backfill/src/utils"
)

// -----------------------------------------------------------------------------

// App is the fully wired application graph shared by every command.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    interfaces.IBarStore
	Calendar interfaces.ISessionCalendar
	Detector *analysis.GapDetector
	Coverage *analysis.CoverageReporter
	Universe *analysis.Universe
	Filler   *reconcile.ArtificialGapFiller
	Runner   *reconcile.Runner
	Exporter *storage.ParquetExporter
}

// -----------------------------------------------------------------------------

// ConfigPath is the -config flag value, typed so wire can inject it.
type ConfigPath string

func provideConfig(path ConfigPath) (*config.Config, error) {
	return config.NewConfig(string(path))
}

// -----------------------------------------------------------------------------

func provideLogger(cfg *config.Config) *logger.Logger {
	return logger.NewLogger(cfg.MConfig, cfg.Name)
}

// -----------------------------------------------------------------------------

// provideStore opens and migrates the configured database, then registers
// the configured universe under the first source's name.
func provideStore(cfg *config.Config, appLogger *logger.Logger) (interfaces.IBarStore, func(), error) {
	db, err := storage.NewBarStore(cfg.MConfig, appLogger)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Initialize(ctx); err != nil {
		return nil, nil, err
	}

	if len(cfg.Universe.Symbols) > 0 {
		sourceName := ""
		if len(cfg.Provider.Sources) > 0 {
			sourceName = cfg.Provider.Sources[0].Name
		}
		if err := db.RegisterSymbols(ctx, sourceName, cfg.Universe.Symbols); err != nil {
			appLogger.Warning("Failed to register universe: %v", err)
		}
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Failed to close store: %v", err)
		}
	}
	return db, cleanup, nil
}

// -----------------------------------------------------------------------------

// provideCalendar returns the built-in NYSE rules or the scmhub exchange
// calendar, both reporting in the configured zone.
func provideCalendar(cfg *config.Config) (interfaces.ISessionCalendar, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if cfg.Calendar.Source == "exchange" {
		start, err := cfg.DataStartTime()
		if err != nil {
			return nil, err
		}
		cal, err := utils.NewExchangeCalendar(cfg.Calendar.MIC, loc, start.Year())
		if err != nil {
			return nil, err
		}
		return cal, nil
	}
	return utils.NewTradingCalendar(loc), nil
}

// -----------------------------------------------------------------------------

func provideClock(cal interfaces.ISessionCalendar) interfaces.IClock {
	return utils.SystemClock{Loc: cal.Location()}
}

// -----------------------------------------------------------------------------

func provideDetector(cfg *config.Config, store interfaces.IBarStore, cal interfaces.ISessionCalendar, clock interfaces.IClock, appLogger *logger.Logger) *analysis.GapDetector {
	return analysis.NewGapDetector(store, analysis.NewIntervalTrimmer(cal), clock, cfg.DataStart, appLogger.Named("GapDetector"))
}

// -----------------------------------------------------------------------------

func provideUniverse(cfg *config.Config, store interfaces.IBarStore, appLogger *logger.Logger) *analysis.Universe {
	return &analysis.Universe{
		Store:   store,
		Symbols: cfg.Universe.Symbols,
		Range:   cfg.Universe.Range,
		Logger:  appLogger.Named("Universe"),
	}
}

// -----------------------------------------------------------------------------

func provideCoverage(detector *analysis.GapDetector, universe *analysis.Universe, appLogger *logger.Logger) *analysis.CoverageReporter {
	return analysis.NewCoverageReporter(detector, universe, appLogger.Named("Coverage"))
}

// -----------------------------------------------------------------------------

func provideNetwork(cfg *config.Config, appLogger *logger.Logger) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(cfg.MConfig, appLogger.Named("NetworkManager"))
}

// -----------------------------------------------------------------------------

// provideSource wraps every configured source in failover order.
func provideSource(cfg *config.Config, netMgr interfaces.INetworkManager, appLogger *logger.Logger) (interfaces.IBarSource, error) {
	sources, err := datasource.NewSourcesFromConfig(cfg.ResolvedSources(), netMgr, appLogger)
	if err != nil {
		return nil, err
	}
	appLogger.Info("Initializing MultiSourceManager for %d sources.", len(sources))
	return datasource.NewMultiSourceManager(sources, appLogger.Named("MultiSourceManager")), nil
}

// -----------------------------------------------------------------------------

func provideBackfill(detector *analysis.GapDetector, source interfaces.IBarSource, store interfaces.IBarStore, appLogger *logger.Logger) *reconcile.BackfillCoordinator {
	return reconcile.NewBackfillCoordinator(detector, source, store, appLogger.Named("Backfill"))
}

func provideFiller(detector *analysis.GapDetector, store interfaces.IBarStore, appLogger *logger.Logger) *reconcile.ArtificialGapFiller {
	return reconcile.NewArtificialGapFiller(detector, store, appLogger.Named("Interpolate"))
}

func provideRunner(cfg *config.Config, backfill *reconcile.BackfillCoordinator, filler *reconcile.ArtificialGapFiller, universe *analysis.Universe, appLogger *logger.Logger) *reconcile.Runner {
	return reconcile.NewRunner(backfill, filler, universe, cfg.Backfill.Workers, cfg.SymbolTimeout(), cfg.Backfill.Interpolate, appLogger.Named("Runner"))
}

// -----------------------------------------------------------------------------

func provideExporter(store interfaces.IBarStore, appLogger *logger.Logger) *storage.ParquetExporter {
	return storage.NewParquetExporter(store, appLogger.Named("Export"))
}
