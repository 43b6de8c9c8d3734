package interfaces

import (
	"context"
	"time"

	"market-backfill/src/models"
)

// -----------------------------------------------------------------------------
// IBarSource fetches 1-minute bars from an upstream provider.
// -----------------------------------------------------------------------------

type IBarSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchBars returns all bars in [start, end] (UTC), ascending, following
	// pagination until the provider reports no further pages.
	FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]models.MSourceBar, error)
}
