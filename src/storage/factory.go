package storage

import (
	"fmt"

	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"
)

// NewBarStore picks the backend named by storage.db_type. The store still
// needs Initialize.
func NewBarStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IBarStore, error) {
	switch cfg.Storage.DBType {
	case "sqlite", "":
		return NewAsyncSQLiteDB(cfg, log.Named("SQLiteDB"))
	case "postgres":
		db, err := NewPostgresDB(cfg, log.Named("PostgresDB"))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Storage.DBType)
	}
}
