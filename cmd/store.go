package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/irs990-lake/internal/config"
	"github.com/sells-group/irs990-lake/internal/store"
)

// initStore opens the configured store. It returns nil, nil when the driver
// is "none".
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverNone, "":
		return nil, nil
	case config.DriverSQLite:
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "irs990.db"
		}
		return store.NewSQLite(dsn)
	case config.DriverPostgres:
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver (IRS990_STORE_DATABASE_URL)")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// requireStore opens the configured store and fails when none is configured.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("no store configured: set store.driver to postgres or sqlite")
	}
	return st, nil
}
