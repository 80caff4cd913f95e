package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// RemoveStaleDocuments deletes every stored document whose filename is not
// in currentFilenames. Spans and links go with it. An empty list removes
// nothing, so a failed workspace scan cannot wipe the store.
func (c *Client) RemoveStaleDocuments(ctx context.Context, currentFilenames []string) (int64, error) {
	if len(currentFilenames) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(currentFilenames))
	args := make([]any, len(currentFilenames))
	for i, f := range currentFilenames {
		placeholders[i] = "?"
		args[i] = f
	}

	query := fmt.Sprintf("DELETE FROM documents WHERE filename NOT IN (%s)", strings.Join(placeholders, ", "))
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale documents: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

func (c *Client) GetDocumentHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT filename, content_hash FROM documents")
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
