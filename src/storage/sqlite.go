package storage

import (
	"context"
	"database/sql"
	"strings"

	"market-backfill/src/helpers"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	sqlBarStore
	Config *models.MConfig
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	d := &AsyncSQLiteDB{Config: cfg}
	d.Logger = log
	d.queries = newBarQueries(
		func(table string) string { return table },
		func(int) string { return "?" },
		columnTypes{Decimal: "TEXT", Integer: "INTEGER", Float: "REAL"},
	)
	return d, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open "+dsn, err)
	}

	// One writer at a time; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping "+dsn, err)
	}

	d.DB = db

	// PRAGMA optimizations
	if !strings.Contains(dsn, ":memory:") {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
			d.Logger.Warning("Failed to set WAL mode: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}

	if err := d.createSchema(ctx); err != nil {
		db.Close()
		d.DB = nil
		return err
	}

	d.Logger.Info("SQLite store initialized (%s)", dsn)
	return nil
}

// -----------------------------------------------------------------------------

// RegisterSymbols stores plain tickers. Table references need Postgres and
// are skipped here.
func (d *AsyncSQLiteDB) RegisterSymbols(ctx context.Context, sourceName string, symbols []string) error {
	plain, refs := splitSymbolRefs(symbols)
	for _, ref := range refs {
		d.Logger.Warning("SQLite store cannot resolve symbol reference %s, skipping", ref.String())
	}
	return d.sqlBarStore.RegisterSymbols(ctx, sourceName, plain)
}
