package postgres

import (
	"context"
	"fmt"
)

func (c *Client) RemoveStaleDocuments(ctx context.Context, currentFilenames []string) (int64, error) {
	if len(currentFilenames) == 0 {
		return 0, nil
	}
	tag, err := c.pool.Exec(ctx, "DELETE FROM documents WHERE NOT (filename = ANY($1))", currentFilenames)
	if err != nil {
		return 0, fmt.Errorf("removing stale documents: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetDocumentHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, "SELECT filename, content_hash FROM documents")
	if err != nil {
		return nil, fmt.Errorf("query document hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var filename, hash string
		if err := rows.Scan(&filename, &hash); err != nil {
			return nil, fmt.Errorf("scanning document hash: %w", err)
		}
		hashes[filename] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document hashes: %w", err)
	}
	return hashes, nil
}
