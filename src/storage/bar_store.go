package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"market-backfill/src/helpers"
	"market-backfill/src/logger"
	"market-backfill/src/models"
)

const barColumns = `"timestamp", symbol, open, high, low, close, volume, average, total`

// columnTypes differ per backend; SQLite keeps decimals as TEXT so they
// round-trip exactly.
type columnTypes struct {
	Decimal string
	Integer string
	Float   string
}

// barQueries holds the backend-specific SQL, built once per store.
type barQueries struct {
	schema          []string
	insertBar       string
	timestamps      string
	nearestBefore   string
	nearestAfter    string
	readBars        string
	countBars       string
	upsertMarker    string
	selectMarker    string
	upsertSymbol    string
	topSymbols      string
	topSymbolsLimit string
}

// -----------------------------------------------------------------------------

// newBarQueries renders every statement with qualify for table names and
// ph for the n-th (1-based) placeholder.
func newBarQueries(qualify func(string) string, ph func(int) string, types columnTypes) barQueries {
	prices := qualify("historical_prices")
	markers := qualify("backfill_attempts")
	symbols := qualify("symbols")

	phs := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = ph(i + 1)
		}
		return strings.Join(parts, ", ")
	}

	return barQueries{
		schema: []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				"timestamp" TEXT NOT NULL,
				symbol TEXT NOT NULL,
				open %[2]s,
				high %[2]s,
				low %[2]s,
				close %[2]s,
				volume %[3]s,
				average %[4]s,
				total %[3]s,
				PRIMARY KEY ("timestamp", symbol)
			)`, prices, types.Decimal, types.Integer, types.Float),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_historical_prices_symbol ON %s (symbol, "timestamp")`, prices),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				symbol TEXT PRIMARY KEY,
				attempted_at TEXT NOT NULL,
				inserted %s NOT NULL
			)`, markers, types.Integer),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				symbol TEXT PRIMARY KEY,
				sort_order %s NOT NULL,
				source_name TEXT,
				updated_at TEXT
			)`, symbols, types.Integer),
		},
		insertBar: fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT ("timestamp", symbol) DO NOTHING`,
			prices, barColumns, phs(9)),
		timestamps: fmt.Sprintf(`SELECT "timestamp" FROM %s WHERE symbol = %s`, prices, ph(1)),
		nearestBefore: fmt.Sprintf(`SELECT %s FROM %s WHERE symbol = %s AND "timestamp" <= %s ORDER BY "timestamp" DESC LIMIT 1`,
			barColumns, prices, ph(1), ph(2)),
		nearestAfter: fmt.Sprintf(`SELECT %s FROM %s WHERE symbol = %s AND "timestamp" >= %s ORDER BY "timestamp" ASC LIMIT 1`,
			barColumns, prices, ph(1), ph(2)),
		readBars: fmt.Sprintf(`SELECT %s FROM %s WHERE symbol = %s AND "timestamp" >= %s AND "timestamp" < %s ORDER BY "timestamp" ASC`,
			barColumns, prices, ph(1), ph(2), ph(3)),
		countBars: fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE symbol = %s`, prices, ph(1)),
		upsertMarker: fmt.Sprintf(`INSERT INTO %s (symbol, attempted_at, inserted) VALUES (%s)
			ON CONFLICT (symbol) DO UPDATE SET attempted_at = excluded.attempted_at, inserted = excluded.inserted`,
			markers, phs(3)),
		selectMarker: fmt.Sprintf(`SELECT symbol, attempted_at, inserted FROM %s WHERE symbol = %s`, markers, ph(1)),
		upsertSymbol: fmt.Sprintf(`INSERT INTO %s (symbol, sort_order, source_name, updated_at) VALUES (%s)
			ON CONFLICT (symbol) DO UPDATE SET sort_order = excluded.sort_order, source_name = excluded.source_name, updated_at = excluded.updated_at`,
			symbols, phs(4)),
		topSymbols:      fmt.Sprintf(`SELECT symbol FROM %s ORDER BY sort_order ASC, symbol ASC`, symbols),
		topSymbolsLimit: fmt.Sprintf(`SELECT symbol FROM %s ORDER BY sort_order ASC, symbol ASC LIMIT %s`, symbols, ph(1)),
	}
}

// -----------------------------------------------------------------------------

// sqlBarStore implements the backend-independent part of IBarStore on
// database/sql. Backends embed it and provide Initialize.
type sqlBarStore struct {
	DB      *sql.DB
	Logger  *logger.Logger
	queries barQueries
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) createSchema(ctx context.Context) error {
	for _, stmt := range s.queries.schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return helpers.NewDatabaseError("failed to create schema", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) ExistingTimestamps(ctx context.Context, symbol string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, s.queries.timestamps, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ts string
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) InsertBarsIfAbsent(ctx context.Context, bars []models.MBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	var inserted int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := s.insertBars(ctx, tx, bars)
		inserted = n
		return err
	})
	return inserted, err
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) CommitBackfill(ctx context.Context, symbol string, bars []models.MBar, attemptedAt time.Time) (int, error) {
	var inserted int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := s.insertBars(ctx, tx, bars)
		if err != nil {
			return err
		}
		inserted = n
		_, err = tx.ExecContext(ctx, s.queries.upsertMarker, symbol, attemptedAt.UTC().Format(time.RFC3339Nano), n)
		return err
	})
	return inserted, err
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) LastBackfill(ctx context.Context, symbol string) (*models.MBackfillMarker, error) {
	var (
		m  models.MBackfillMarker
		at string
	)
	err := s.DB.QueryRowContext(ctx, s.queries.selectMarker, symbol).Scan(&m.Symbol, &at, &m.Inserted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.AttemptedAt, err = time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, helpers.NewValidationError("malformed attempted_at for "+symbol, err)
	}
	return &m, nil
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) NearestBarAtOrBefore(ctx context.Context, symbol, timestamp string) (*models.MBar, error) {
	return s.nearest(ctx, s.queries.nearestBefore, symbol, timestamp)
}

func (s *sqlBarStore) NearestBarAtOrAfter(ctx context.Context, symbol, timestamp string) (*models.MBar, error) {
	return s.nearest(ctx, s.queries.nearestAfter, symbol, timestamp)
}

func (s *sqlBarStore) nearest(ctx context.Context, query, symbol, timestamp string) (*models.MBar, error) {
	bar, err := scanBar(s.DB.QueryRowContext(ctx, query, symbol, timestamp))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bar, nil
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) ReadBars(ctx context.Context, symbol, from, to string) ([]models.MBar, error) {
	rows, err := s.DB.QueryContext(ctx, s.queries.readBars, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MBar
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *bar)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) CountBars(ctx context.Context, symbol string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, s.queries.countBars, symbol).Scan(&n)
	return n, err
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) RegisterSymbols(ctx context.Context, sourceName string, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.queries.upsertSymbol)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, sym := range symbols {
			if _, err := stmt.ExecContext(ctx, sym, i, sourceName, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) TopSymbols(ctx context.Context, n int) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if n > 0 {
		rows, err = s.DB.QueryContext(ctx, s.queries.topSymbolsLimit, n)
	} else {
		rows, err = s.DB.QueryContext(ctx, s.queries.topSymbols)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// withTx runs fn in a transaction, committing only if fn and ctx both
// succeed.
func (s *sqlBarStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return helpers.NewDatabaseError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return helpers.NewDatabaseError("transaction aborted", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlBarStore) insertBars(ctx context.Context, tx *sql.Tx, bars []models.MBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, s.queries.insertBar)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range bars {
		res, err := stmt.ExecContext(ctx, b.Timestamp, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume, b.Average, b.Total)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

// -----------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBar(row rowScanner) (*models.MBar, error) {
	var b models.MBar
	if err := row.Scan(&b.Timestamp, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Average, &b.Total); err != nil {
		return nil, err
	}
	return &b, nil
}
