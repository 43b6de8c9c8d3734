package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"market-backfill/src/helpers"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *AsyncSQLiteDB {
	t.Helper()
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "sqlite", DBPath: ":memory:"}}
	db, err := NewAsyncSQLiteDB(cfg, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func bar(ts string, price string) models.MBar {
	p := decimal.RequireFromString(price)
	return models.MBar{Timestamp: ts, Symbol: "AAPL", Open: p, High: p, Low: p, Close: p, Volume: 10, Average: p.InexactFloat64(), Total: 1}
}

func TestInitialize_SchemaFailureReleasesHandle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	// an older table without a symbol column makes the index creation fail
	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.ExecContext(ctx, `CREATE TABLE historical_prices (x INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "sqlite", DBPath: path}}
	db, err := NewAsyncSQLiteDB(cfg, logger.NewNop())
	require.NoError(t, err)

	err = db.Initialize(ctx)
	require.Error(t, err)
	assert.True(t, helpers.IsDatabaseError(err))
	assert.Nil(t, db.DB)
	assert.NoError(t, db.Close())
}

func TestInsertBarsIfAbsent_SkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	db := newMemoryStore(t)

	n, err := db.InsertBarsIfAbsent(ctx, []models.MBar{bar("2024-07-02 15:30", "100"), bar("2024-07-02 15:31", "101")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.InsertBarsIfAbsent(ctx, []models.MBar{bar("2024-07-02 15:31", "999"), bar("2024-07-02 15:32", "102")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := db.ReadBars(ctx, "AAPL", "2024-07-02 15:31", "2024-07-02 15:32")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, decimal.RequireFromString("101").Equal(got[0].Close), "existing row must win")

	count, err := db.CountBars(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestExistingTimestamps(t *testing.T) {
	ctx := context.Background()
	db := newMemoryStore(t)

	empty, err := db.ExistingTimestamps(ctx, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = db.InsertBarsIfAbsent(ctx, []models.MBar{bar("2024-07-02 15:30", "100")})
	require.NoError(t, err)

	got, err := db.ExistingTimestamps(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-07-02 15:30"}, got)
}

func TestCommitBackfill_WritesMarker(t *testing.T) {
	ctx := context.Background()
	db := newMemoryStore(t)

	marker, err := db.LastBackfill(ctx, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, marker)

	at := time.Date(2024, 7, 3, 8, 0, 0, 0, time.UTC)
	n, err := db.CommitBackfill(ctx, "AAPL", []models.MBar{bar("2024-07-02 15:30", "100")}, at)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	marker, err = db.LastBackfill(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.True(t, at.Equal(marker.AttemptedAt))
	assert.Equal(t, 1, marker.Inserted)

	// an empty backfill still records the attempt
	later := at.Add(time.Hour)
	n, err = db.CommitBackfill(ctx, "AAPL", nil, later)
	require.NoError(t, err)
	assert.Zero(t, n)

	marker, err = db.LastBackfill(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, later.Equal(marker.AttemptedAt))
	assert.Zero(t, marker.Inserted)
}

func TestCommitBackfill_CancelledContextCommitsNothing(t *testing.T) {
	db := newMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.CommitBackfill(ctx, "AAPL", []models.MBar{bar("2024-07-02 15:30", "100")}, time.Now())
	require.Error(t, err)

	count, err := db.CountBars(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Zero(t, count)
	marker, err := db.LastBackfill(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestNearestBars(t *testing.T) {
	ctx := context.Background()
	db := newMemoryStore(t)
	_, err := db.InsertBarsIfAbsent(ctx, []models.MBar{bar("2024-07-02 15:30", "100"), bar("2024-07-02 15:40", "110")})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		before bool
		ts     string
		want   string
	}{
		{name: "before exact", before: true, ts: "2024-07-02 15:30", want: "2024-07-02 15:30"},
		{name: "before inside gap", before: true, ts: "2024-07-02 15:35", want: "2024-07-02 15:30"},
		{name: "before nothing", before: true, ts: "2024-07-02 15:29"},
		{name: "after exact", ts: "2024-07-02 15:40", want: "2024-07-02 15:40"},
		{name: "after inside gap", ts: "2024-07-02 15:31", want: "2024-07-02 15:40"},
		{name: "after nothing", ts: "2024-07-02 15:41"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var (
				got *models.MBar
				err error
			)
			if tc.before {
				got, err = db.NearestBarAtOrBefore(ctx, "AAPL", tc.ts)
			} else {
				got, err = db.NearestBarAtOrAfter(ctx, "AAPL", tc.ts)
			}
			require.NoError(t, err)
			if tc.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Timestamp)
		})
	}
}

func TestRegisterAndTopSymbols(t *testing.T) {
	ctx := context.Background()
	db := newMemoryStore(t)

	require.NoError(t, db.RegisterSymbols(ctx, "alpaca", []string{"NVDA", "AAPL", "public.universe.ticker", "MSFT"}))

	top, err := db.TopSymbols(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "AAPL"}, top)

	all, err := db.TopSymbols(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "AAPL", "MSFT"}, all)
}

func TestSplitSymbolRefs(t *testing.T) {
	plain, refs := splitSymbolRefs([]string{"AAPL", "market.sp500.symbol", "BRK.B"})
	assert.Equal(t, []string{"AAPL", "BRK.B"}, plain)
	require.Len(t, refs, 1)
	assert.Equal(t, SymbolRef{Schema: "market", Table: "sp500", Field: "symbol"}, refs[0])
}

func TestParquetExporter(t *testing.T) {
	ctx := context.Background()
	db := newMemoryStore(t)
	_, err := db.InsertBarsIfAbsent(ctx, []models.MBar{
		bar("2024-07-02 15:30", "100.25"),
		bar("2024-07-02 15:31", "101.5"),
		bar("2024-07-02 15:45", "102"),
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "aapl.parquet")
	n, err := NewParquetExporter(db, logger.NewNop()).Export(ctx, "AAPL", "2024-07-02 15:30", "2024-07-02 15:45", path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := parquet.ReadFile[ParquetBar](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-07-02 15:31", rows[1].Timestamp)
	assert.InDelta(t, 101.5, rows[1].Close, 1e-9)
}
