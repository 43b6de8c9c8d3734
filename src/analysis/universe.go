package analysis

import (
	"context"

	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
)

// Universe resolves the default symbol list: the store's ranked symbols,
// falling back to the configured list, bounded by Range when positive.
type Universe struct {
	Store   interfaces.IBarStore
	Symbols []string
	Range   int
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func (u *Universe) Resolve(ctx context.Context) []string {
	if u.Store != nil {
		top, err := u.Store.TopSymbols(ctx, u.Range)
		if err != nil {
			u.Logger.Warning("Universe: ranked symbols unavailable, using configured list: %v", err)
		} else if len(top) > 0 {
			return top
		}
	}

	symbols := u.Symbols
	if u.Range > 0 && len(symbols) > u.Range {
		symbols = symbols[:u.Range]
	}
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out
}
