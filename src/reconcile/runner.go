package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"market-backfill/src/analysis"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Runner applies one operation to many symbols with a bounded worker pool.
// Each symbol gets its own timeout and a failure never stops the others.
type Runner struct {
	Backfill      *BackfillCoordinator
	Filler        *ArtificialGapFiller
	Universe      *analysis.Universe
	Workers       int
	SymbolTimeout time.Duration
	Interpolate   bool // reconcile also interpolates after backfilling
	Logger        *logger.Logger

	mu   sync.RWMutex
	last *models.MRunReport
}

// -----------------------------------------------------------------------------

func NewRunner(backfill *BackfillCoordinator, filler *ArtificialGapFiller, universe *analysis.Universe, workers int, symbolTimeout time.Duration, interpolate bool, log *logger.Logger) *Runner {
	return &Runner{
		Backfill:      backfill,
		Filler:        filler,
		Universe:      universe,
		Workers:       workers,
		SymbolTimeout: symbolTimeout,
		Interpolate:   interpolate,
		Logger:        log,
	}
}

// -----------------------------------------------------------------------------

// Run executes op for every symbol; an empty list means the default universe.
func (r *Runner) Run(ctx context.Context, symbols []string, op string) (*models.MRunReport, error) {
	switch op {
	case models.OpBackfill, models.OpInterpolate, models.OpReconcile:
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	if len(symbols) == 0 && r.Universe != nil {
		symbols = r.Universe.Resolve(ctx)
	}

	report := &models.MRunReport{
		RunID:     uuid.NewString(),
		Operation: op,
		StartedAt: time.Now().UTC(),
	}
	r.Logger.Info("Run %s: %s over %d symbols with %d workers", report.RunID, op, len(symbols), r.workers())

	results := make([]models.MSymbolResult, len(symbols))

	var g errgroup.Group
	g.SetLimit(r.workers())
	for i, sym := range symbols {
		g.Go(func() error {
			results[i] = r.runSymbol(ctx, sym, op)
			return nil
		})
	}
	g.Wait()

	for _, res := range results {
		if res.Err != "" {
			report.Failed = append(report.Failed, res)
		} else {
			report.Succeeded = append(report.Succeeded, res)
		}
	}
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Symbol < report.Failed[j].Symbol })
	report.FinishedAt = time.Now().UTC()

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	r.Logger.Info("Run %s finished: %d succeeded, %d failed, %d rows inserted",
		report.RunID, len(report.Succeeded), len(report.Failed), report.TotalInserted())
	return report, nil
}

// -----------------------------------------------------------------------------

// LastReport returns the most recent run, or nil before the first one.
func (r *Runner) LastReport() *models.MRunReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// -----------------------------------------------------------------------------

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return 1
	}
	return r.Workers
}

// -----------------------------------------------------------------------------

func (r *Runner) runSymbol(parent context.Context, symbol, op string) models.MSymbolResult {
	ctx := parent
	if r.SymbolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, r.SymbolTimeout)
		defer cancel()
	}

	started := time.Now()
	res := models.MSymbolResult{Symbol: symbol, Operation: op}

	var err error
	switch op {
	case models.OpBackfill:
		res.Inserted, err = r.Backfill.Backfill(ctx, symbol)
	case models.OpInterpolate:
		err = r.interpolate(ctx, symbol, &res)
	case models.OpReconcile:
		res.Inserted, err = r.Backfill.Backfill(ctx, symbol)
		if err == nil && r.Interpolate {
			err = r.interpolate(ctx, symbol, &res)
		}
	}

	res.Duration = time.Since(started)
	if err != nil {
		res.Err = err.Error()
		r.Logger.Error("%s %s failed after %v: %v", op, symbol, res.Duration.Round(time.Millisecond), err)
	}
	return res
}

func (r *Runner) interpolate(ctx context.Context, symbol string, res *models.MSymbolResult) error {
	ir, err := r.Filler.Interpolate(ctx, symbol)
	if err != nil {
		return err
	}
	res.Inserted += ir.Inserted
	res.Skipped += ir.Skipped
	return nil
}
