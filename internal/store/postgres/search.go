package postgres

import (
	"context"
	"fmt"
	"strings"

	"spanmark/internal/store"
)

func (c *Client) Search(ctx context.Context, query, semantic string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT d.filename, s.span_id, s.semantic, s.begin_offset, s.end_offset, s.text,
    ts_rank(s.search_vector, websearch_to_tsquery('simple', $1)) AS score,
    ts_headline('simple', s.text || ' ' || s.attrs::text, websearch_to_tsquery('simple', $1),
        'MaxWords=16, MinWords=4, StartSel=**, StopSel=**') AS snippet
FROM spans s
JOIN documents d ON d.id = s.document_id
WHERE s.search_vector @@ websearch_to_tsquery('simple', $1)
  AND ($2 = '' OR s.semantic = $2)
ORDER BY score DESC, d.filename ASC, s.begin_offset ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, semantic)
	if err != nil {
		return nil, fmt.Errorf("searching spans: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var score float32
		if err := rows.Scan(&r.Filename, &r.SpanID, &r.Semantic, &r.Begin, &r.End, &r.Text, &score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(score)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}
