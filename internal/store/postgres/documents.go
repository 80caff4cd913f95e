package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"spanmark/internal/store"
)

const insertSpanSQL = `
INSERT INTO spans (document_id, span_id, offset_key, semantic, begin_offset, end_offset, text, attrs, search_vector)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8,
    setweight(to_tsvector('simple', coalesce($7, '')), 'A') ||
    setweight(to_tsvector('simple', coalesce($4, '')), 'B') ||
    setweight(to_tsvector('simple', coalesce($9, '')), 'C')
)
`

const insertLinkSQL = `
INSERT INTO links (document_id, relation_id, offset_key, semantic,
    from_begin, from_end, from_semantic, from_text, to_begin, to_end, to_semantic, to_text, attrs)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

func (c *Client) ReplaceDocument(ctx context.Context, doc store.DocumentInput) (string, error) {
	newID, err := store.NewDocumentID()
	if err != nil {
		return "", err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `
INSERT INTO documents (id, filename, content, content_hash, char_count, token_count, ingested_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, now())
ON CONFLICT (filename) DO UPDATE SET
    content = EXCLUDED.content,
    content_hash = EXCLUDED.content_hash,
    char_count = EXCLUDED.char_count,
    token_count = EXCLUDED.token_count,
    ingested_at = now()
RETURNING id::text
`, newID, doc.Filename, doc.Content, doc.ContentHash, doc.CharCount, doc.TokenCount).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting document %s: %w", doc.Filename, err)
	}

	batch := &pgx.Batch{}
	batch.Queue("DELETE FROM spans WHERE document_id = $1::uuid", id)
	batch.Queue("DELETE FROM links WHERE document_id = $1::uuid", id)
	for _, e := range doc.Entities {
		attrs, err := store.EncodeAttrs(e.Attrs)
		if err != nil {
			return "", err
		}
		batch.Queue(insertSpanSQL, id, e.SpanID, e.OffsetKey, e.Semantic, e.Begin, e.End, e.Text, attrs, store.AttrsText(e.Attrs))
	}
	for _, r := range doc.Relations {
		attrs, err := store.EncodeAttrs(r.Attrs)
		if err != nil {
			return "", err
		}
		batch.Queue(insertLinkSQL, id, r.RelationID, r.OffsetKey, r.Semantic,
			r.From.Begin, r.From.End, r.From.Semantic, r.From.Text,
			r.To.Begin, r.To.End, r.To.Semantic, r.To.Text, attrs)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("storing annotations of %s: %w", doc.Filename, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing document %s: %w", doc.Filename, err)
	}
	c.log.Debug("stored document", zap.String("file", doc.Filename), zap.String("id", id),
		zap.Int("entities", len(doc.Entities)), zap.Int("relations", len(doc.Relations)))
	return id, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]store.DocumentSummary, error) {
	rows, err := c.pool.Query(ctx, `
SELECT d.id::text, d.filename, d.content_hash, d.char_count, d.token_count,
    (SELECT COUNT(*) FROM spans s WHERE s.document_id = d.id)::int,
    (SELECT COUNT(*) FROM links l WHERE l.document_id = d.id)::int
FROM documents d
ORDER BY d.filename ASC
`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	results := []store.DocumentSummary{}
	for rows.Next() {
		var d store.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Filename, &d.ContentHash, &d.CharCount, &d.TokenCount, &d.EntityCount, &d.RelationCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return results, nil
}

func (c *Client) ListEntities(ctx context.Context, filename, semantic string) ([]store.EntityRecord, error) {
	rows, err := c.pool.Query(ctx, `
SELECT d.filename, s.span_id, s.semantic, s.begin_offset, s.end_offset, s.text, s.attrs
FROM spans s
JOIN documents d ON d.id = s.document_id
WHERE ($1 = '' OR d.filename = $1)
  AND ($2 = '' OR s.semantic = $2)
ORDER BY d.filename ASC, s.begin_offset ASC, s.id ASC
`, filename, semantic)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	results := []store.EntityRecord{}
	for rows.Next() {
		var r store.EntityRecord
		if err := rows.Scan(&r.Filename, &r.SpanID, &r.Semantic, &r.Begin, &r.End, &r.Text, &r.Attrs); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		if r.Attrs == nil {
			r.Attrs = map[string]string{}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return results, nil
}

func (c *Client) ListRelations(ctx context.Context, filename, semantic string) ([]store.RelationRecord, error) {
	rows, err := c.pool.Query(ctx, `
SELECT d.filename, l.relation_id, l.semantic,
    l.from_begin, l.from_end, l.from_semantic, l.from_text,
    l.to_begin, l.to_end, l.to_semantic, l.to_text,
    l.attrs
FROM links l
JOIN documents d ON d.id = l.document_id
WHERE ($1 = '' OR d.filename = $1)
  AND ($2 = '' OR l.semantic = $2)
ORDER BY d.filename ASC, l.from_begin ASC, l.id ASC
`, filename, semantic)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()

	results := []store.RelationRecord{}
	for rows.Next() {
		var r store.RelationRecord
		if err := rows.Scan(&r.Filename, &r.RelationID, &r.Semantic,
			&r.From.Begin, &r.From.End, &r.From.Semantic, &r.From.Text,
			&r.To.Begin, &r.To.End, &r.To.Semantic, &r.To.Text, &r.Attrs); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		if r.Attrs == nil {
			r.Attrs = map[string]string{}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return results, nil
}
