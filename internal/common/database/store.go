// internal/common/database/store.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"sales-assistant/internal/common/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Open opens a single-connection handle for one request against the configured store.
// The caller owns the handle and must close it.
func Open(ctx context.Context, store config.StoreConfig) (*sql.DB, error) {
	if err := checkDriver(store.Driver); err != nil {
		return nil, err
	}
	if store.DSN == "" {
		return nil, fmt.Errorf("empty dsn for %s store", store.Driver)
	}

	db, err := sql.Open(store.Driver, store.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", store.Driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", store.Driver, err)
	}

	return db, nil
}

// OpenWriter opens a long-lived, writable handle used by the dataset loader.
func OpenWriter(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Store.Driver {
	case DriverPostgres:
		return NewPostgres(ctx, cfg.ResolvedDSN())
	case DriverSQLite:
		return NewSQLite(ctx, cfg.SQLite.Path)
	}
	return nil, checkDriver(cfg.Store.Driver)
}

func checkDriver(driver string) error {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return nil
	}
	return fmt.Errorf("unsupported store driver %q", driver)
}
