package main

import (
	"context"
	"fmt"

	"spanmark/internal/config"
	"spanmark/internal/store"
	"spanmark/internal/store/postgres"
	"spanmark/internal/store/sqlite"
)

func openDB(ctx context.Context, p *project) (store.Store, error) {
	switch p.cfg.Database.Driver() {
	case config.DriverSQLite:
		client, err := sqlite.New(ctx, p.cfg.Database.DSN, p.log)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.DriverPostgres:
		client, err := postgres.New(ctx, p.cfg.Database.DSN, p.log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("no database configured in %s", configPath)
	}
}
