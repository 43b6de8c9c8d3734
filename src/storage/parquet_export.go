package storage

import (
	"context"
	"fmt"

	"market-backfill/src/interfaces"
	"market-backfill/src/logger"

	"github.com/parquet-go/parquet-go"
)

// ParquetBar is the on-disk row layout of an export.
type ParquetBar struct {
	Timestamp string  `parquet:"timestamp"`
	Symbol    string  `parquet:"symbol"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
	Average   float64 `parquet:"average"`
	Total     int64   `parquet:"total"`
}

// -----------------------------------------------------------------------------

type ParquetExporter struct {
	Store  interfaces.IBarStore
	Logger *logger.Logger
}

func NewParquetExporter(store interfaces.IBarStore, log *logger.Logger) *ParquetExporter {
	return &ParquetExporter{Store: store, Logger: log}
}

// -----------------------------------------------------------------------------

// Export writes symbol's bars in [from, to) to path and returns the row count.
func (e *ParquetExporter) Export(ctx context.Context, symbol, from, to, path string) (int, error) {
	bars, err := e.Store.ReadBars(ctx, symbol, from, to)
	if err != nil {
		return 0, fmt.Errorf("read bars for %s: %w", symbol, err)
	}

	rows := make([]ParquetBar, len(bars))
	for i, b := range bars {
		rows[i] = ParquetBar{
			Timestamp: b.Timestamp,
			Symbol:    b.Symbol,
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
			Volume:    b.Volume,
			Average:   b.Average,
			Total:     b.Total,
		}
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	e.Logger.Info("Exported %d bars of %s to %s", len(rows), symbol, path)
	return len(rows), nil
}
