package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"spanmark/internal/store"
)

// RunSQL runs an ad hoc query inside a read only transaction. Placeholders
// are $1, $2, ... bound from args.
func (c *Client) RunSQL(ctx context.Context, query string, args ...any) (*store.Table, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}
	table := store.NewTable(columns)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("decoding row %d: %w", len(table.Rows)+1, err)
		}
		table.Append(values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sql rows: %w", err)
	}
	return table, nil
}
