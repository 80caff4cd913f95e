package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"spanmark/internal/store"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{pool: pool, log: log}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}
