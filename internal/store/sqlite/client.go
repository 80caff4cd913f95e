package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spanmark/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	db  *sql.DB
	log *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if driverDSN == ":memory:" {
		// each pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	log.Debug("opened sqlite store", zap.String("path", driverDSN))
	return &Client{db: db, log: log}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
