package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-backfill/src/data_source/alpaca"
	"market-backfill/src/data_source/polygon"
	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	"github.com/pkg/errors"
)

// MultiSourceManager is an IBarSource that asks its sources in configured
// order and returns the first successful answer.
type MultiSourceManager struct {
	Sources []interfaces.IBarSource
	Logger  *logger.Logger
	mu      sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMultiSourceManager(sources []interfaces.IBarSource, log *logger.Logger) *MultiSourceManager {
	return &MultiSourceManager{
		Sources: sources,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// NewSourcesFromConfig builds one source per configured entry, in order.
func NewSourcesFromConfig(cfgs []models.MSourceConfig, netMgr interfaces.INetworkManager, log *logger.Logger) ([]interfaces.IBarSource, error) {
	sources := make([]interfaces.IBarSource, 0, len(cfgs))
	for _, sc := range cfgs {
		switch sc.Type {
		case "alpaca":
			sources = append(sources, alpaca.NewAlpacaSource(sc, netMgr, log.Named("alpaca-"+sc.Name)))
		case "polygon":
			sources = append(sources, polygon.NewPolygonSource(sc, netMgr, log.Named("polygon-"+sc.Name)))
		default:
			return nil, fmt.Errorf("source %s has unknown type %q", sc.Name, sc.Type)
		}
	}
	return sources, nil
}

// -----------------------------------------------------------------------------

// AddSource appends a source at the lowest priority.
func (m *MultiSourceManager) AddSource(source interfaces.IBarSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.Sources {
		if s.Name() == source.Name() {
			return fmt.Errorf("source %s already exists", source.Name())
		}
	}
	m.Sources = append(m.Sources, source)
	m.Logger.Info("Added source: %s", source.Name())
	return nil
}

// -----------------------------------------------------------------------------

// GetSource retrieves a source by name
func (m *MultiSourceManager) GetSource(name string) (interfaces.IBarSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.Sources {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("source %s not found", name)
}

// -----------------------------------------------------------------------------

// GetAllSources returns a snapshot in priority order
func (m *MultiSourceManager) GetAllSources() []interfaces.IBarSource {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]interfaces.IBarSource, len(m.Sources))
	copy(list, m.Sources)
	return list
}

// -----------------------------------------------------------------------------

func (m *MultiSourceManager) Name() string {
	return "MultiSourceManager"
}

// -----------------------------------------------------------------------------

// FetchBars fails over to the next source on error. Cancellation stops the
// chain immediately.
func (m *MultiSourceManager) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]models.MSourceBar, error) {
	sources := m.GetAllSources()
	if len(sources) == 0 {
		return nil, errors.New("no data sources configured")
	}

	var lastErr error
	for _, src := range sources {
		bars, err := src.FetchBars(ctx, symbol, start, end)
		if err == nil {
			return bars, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		m.Logger.Warning("Source %s failed for %s: %v", src.Name(), symbol, err)
	}
	return nil, errors.Wrapf(lastErr, "all %d sources failed for %s", len(sources), symbol)
}
