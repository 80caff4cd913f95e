package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// RemoveStaleDocuments deletes Document nodes, with their spans and edges,
// whose filename is not in currentFilenames. An empty list removes nothing.
func (c *Client) RemoveStaleDocuments(ctx context.Context, currentFilenames []string) (int64, error) {
	if len(currentFilenames) == 0 {
		return 0, nil
	}
	session := c.session(ctx)
	defer session.Close(ctx)

	query := `
MATCH (d:Document)
WHERE NOT d.filename IN $current_files
OPTIONAL MATCH (d)-[:CONTAINS]->(s:Span)
DETACH DELETE s
WITH DISTINCT d
DETACH DELETE d
RETURN count(d) AS deleted
`

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"current_files": currentFilenames})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			if count, ok := value.(int64); ok {
				return count, nil
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing stale documents: %w", err)
	}

	return result.(int64), nil
}
