package models

import "time"

// Operation names accepted by the reconciliation runner.
const (
	OpBackfill    = "backfill"
	OpInterpolate = "interpolate"
	OpReconcile   = "reconcile"
)

// MBackfillMarker records that a symbol's gaps were fetched from upstream
// and committed. Interpolation is only permitted once a marker exists.
type MBackfillMarker struct {
	Symbol      string    `json:"symbol"`
	AttemptedAt time.Time `json:"attempted_at"`
	Inserted    int       `json:"inserted"`
}

// MInterpolationResult summarises one Interpolate call.
type MInterpolationResult struct {
	Symbol   string `json:"symbol"`
	Filled   int    `json:"filled"`   // gaps synthesized
	Skipped  int    `json:"skipped"`  // gaps without a bound on one side
	Inserted int    `json:"inserted"` // rows actually written
}

// MSymbolResult is the outcome of one operation for one symbol.
type MSymbolResult struct {
	Symbol    string        `json:"symbol"`
	Operation string        `json:"operation"`
	Inserted  int           `json:"inserted"`
	Skipped   int           `json:"skipped"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// MRunReport collects per-symbol results of a reconciliation run.
type MRunReport struct {
	RunID      string          `json:"run_id"`
	Operation  string          `json:"operation"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Succeeded  []MSymbolResult `json:"succeeded"`
	Failed     []MSymbolResult `json:"failed"`
}

// TotalInserted sums inserted rows over successful symbols.
func (r *MRunReport) TotalInserted() int {
	n := 0
	for _, s := range r.Succeeded {
		n += s.Inserted
	}
	return n
}
