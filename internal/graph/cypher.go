package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"spanmark/internal/store"
)

// RunCypher runs query in a read transaction. Columns follow the RETURN
// clause; nodes and relationships are flattened to their properties.
func (c *Client) RunCypher(ctx context.Context, query string, params map[string]any) (*store.Table, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		keys, err := res.Keys()
		if err != nil {
			return nil, err
		}
		table := store.NewTable(keys)
		for res.Next(ctx) {
			values := res.Record().Values
			row := make([]any, len(values))
			for i, v := range values {
				row[i] = flatten(v)
			}
			table.Append(row)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return table, nil
	})
	if err != nil {
		return nil, fmt.Errorf("run cypher: %w", err)
	}
	return result.(*store.Table), nil
}

func flatten(value any) any {
	switch v := value.(type) {
	case neo4j.Node:
		props := make(map[string]any, len(v.Props)+1)
		for k, p := range v.Props {
			props[k] = p
		}
		props["_labels"] = v.Labels
		return props
	case neo4j.Relationship:
		props := make(map[string]any, len(v.Props)+1)
		for k, p := range v.Props {
			props[k] = p
		}
		props["_type"] = v.Type
		return props
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = flatten(item)
		}
		return out
	default:
		return value
	}
}
