package interfaces

import (
	"context"
	"time"

	"market-backfill/src/models"
)

// -----------------------------------------------------------------------------
// IBarStore defines the contract for minute-bar persistence.
// Writes are insert-if-absent on (timestamp, symbol); a duplicate key is never
// reported as an error.
// -----------------------------------------------------------------------------

type IBarStore interface {

	// Initialize opens the connection and creates missing tables.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// ExistingTimestamps returns the raw stored timestamp strings for a symbol.
	ExistingTimestamps(ctx context.Context, symbol string) ([]string, error)

	// -----------------------------------------------------------------------------

	// InsertBarsIfAbsent writes all bars in one transaction and returns the
	// number of rows actually inserted.
	InsertBarsIfAbsent(ctx context.Context, bars []models.MBar) (int, error)

	// -----------------------------------------------------------------------------

	// CommitBackfill writes bars and the symbol's backfill marker atomically.
	CommitBackfill(ctx context.Context, symbol string, bars []models.MBar, attemptedAt time.Time) (int, error)

	// -----------------------------------------------------------------------------

	// LastBackfill returns the symbol's marker, or nil when none was recorded.
	LastBackfill(ctx context.Context, symbol string) (*models.MBackfillMarker, error)

	// -----------------------------------------------------------------------------

	// NearestBarAtOrBefore / NearestBarAtOrAfter return nil when no bar exists.
	NearestBarAtOrBefore(ctx context.Context, symbol, timestamp string) (*models.MBar, error)
	NearestBarAtOrAfter(ctx context.Context, symbol, timestamp string) (*models.MBar, error)

	// -----------------------------------------------------------------------------

	// ReadBars returns bars with from <= timestamp < to, ascending.
	ReadBars(ctx context.Context, symbol, from, to string) ([]models.MBar, error)

	// -----------------------------------------------------------------------------

	// CountBars returns the number of stored rows for symbol.
	CountBars(ctx context.Context, symbol string) (int, error)

	// -----------------------------------------------------------------------------

	// RegisterSymbols stores the ranked symbol universe (rank = slice order).
	RegisterSymbols(ctx context.Context, sourceName string, symbols []string) error

	// TopSymbols returns the first n symbols by rank; n <= 0 returns all.
	TopSymbols(ctx context.Context, n int) ([]string, error)

	// -----------------------------------------------------------------------------

	Close() error
}
