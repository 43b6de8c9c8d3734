package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"market-backfill/src/helpers"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	"github.com/lib/pq"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	sqlBarStore
	Config *models.MConfig
	Schema string
}

// -----------------------------------------------------------------------------

// NewPostgresDB uses storage.schema, falling back to the executable name.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	name := cfg.Storage.Schema
	if name == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable name: %w", err)
		}
		name = filepath.Base(exe)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	name = unsafeSchemaChars.ReplaceAllString(name, "_")

	d := &PostgresDB{Config: cfg, Schema: name}
	d.Logger = log
	d.queries = newBarQueries(
		func(table string) string { return pq.QuoteIdentifier(name) + "." + pq.QuoteIdentifier(table) },
		func(i int) string { return fmt.Sprintf("$%d", i) },
		columnTypes{Decimal: "NUMERIC(20,6)", Integer: "BIGINT", Float: "DOUBLE PRECISION"},
	)
	return d, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize(ctx context.Context) error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(d.Schema)); err != nil {
		d.closeOnInitError()
		return helpers.NewDatabaseError(fmt.Sprintf("failed to create schema %s", d.Schema), err)
	}

	if err := d.createSchema(ctx); err != nil {
		d.closeOnInitError()
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) closeOnInitError() {
	if err := d.DB.Close(); err != nil {
		d.Logger.Warning("Failed to close postgres handle: %v", err)
	}
	d.DB = nil
}
