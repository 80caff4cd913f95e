package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"spanmark/internal/store"
)

// RunSQL runs an ad hoc query on a connection switched to query_only, so
// statements that write fail instead of touching synced data. Placeholders
// are ?, bound in order.
func (c *Client) RunSQL(ctx context.Context, query string, args ...any) (*store.Table, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("entering read only mode: %w", err)
	}
	defer conn.ExecContext(context.Background(), "PRAGMA query_only = OFF")

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}
	defer rows.Close()
	return scanTable(rows)
}

func scanTable(rows *sql.Rows) (*store.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	table := store.NewTable(columns)
	dest := make([]any, len(columns))
	for rows.Next() {
		values := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(table.Rows)+1, err)
		}
		table.Append(values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sql rows: %w", err)
	}
	return table, nil
}
